// Package llms routes generation requests to provider-specific generators
// based on the provider prefix of a model identifier.
package llms

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/llms/anthropic"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/llms/bedrock"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/llms/gemini"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/llms/huggingface"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/llms/ollama"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/llms/openai_response"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
)

const (
	DefaultProvider = "gemini"
	providerSep     = ":"
)

// ProviderFactory builds a provider generator from generator options.
type ProviderFactory func(opts ...model.GeneratorOption) model.TextGenerator

var providerFactories = map[string]ProviderFactory{
	"gemini": func(opts ...model.GeneratorOption) model.TextGenerator {
		return gemini.NewGenerator(opts...)
	},
	"openai": func(opts ...model.GeneratorOption) model.TextGenerator {
		return openai_response.NewGenerator(opts...)
	},
	"anthropic": func(opts ...model.GeneratorOption) model.TextGenerator {
		return anthropic.NewGenerator(opts...)
	},
	"bedrock": func(opts ...model.GeneratorOption) model.TextGenerator {
		return bedrock.NewGenerator(opts...)
	},
	"ollama": func(opts ...model.GeneratorOption) model.TextGenerator {
		return ollama.NewGenerator(opts...)
	},
	"huggingface": func(opts ...model.GeneratorOption) model.TextGenerator {
		return huggingface.NewGenerator(opts...)
	},
}

var providerKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Router implements model.TextGenerator over a set of named providers.
type Router struct {
	mu        sync.RWMutex
	defaults  []model.GeneratorOption
	shared    []model.GeneratorOption
	providers map[string]model.TextGenerator
}

// NewRouter registers every known provider. opts are passed in full to the
// default provider; the others only receive the generation settings
// (temperature, max tokens, reasoning level, response schema) and read their
// credentials from their own environment variables unless reconfigured.
func NewRouter(opts ...model.GeneratorOption) (*Router, error) {
	cfg := model.ResolveGeneratorOpts(opts...)
	r := &Router{
		defaults:  append([]model.GeneratorOption(nil), opts...),
		shared:    sharedOptions(cfg),
		providers: make(map[string]model.TextGenerator, len(providerFactories)),
	}

	for name, factory := range providerFactories {
		r.providers[name] = factory(r.baseOptions(name)...)
	}
	return r, nil
}

// Register adds or replaces a provider under name.
func (r *Router) Register(name string, generator model.TextGenerator) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if !providerKeyPattern.MatchString(name) {
		return fmt.Errorf("invalid provider name %q", name)
	}
	if generator == nil {
		return fmt.Errorf("provider %q: generator is required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = generator
	return nil
}

// Configure rebuilds a known provider with the options it was built with
// followed by opts, e.g. a base URL or credential read from configuration.
// The default provider keeps the router's credential unless opts replace it.
func (r *Router) Configure(name string, opts ...model.GeneratorOption) error {
	name = strings.ToLower(strings.TrimSpace(name))
	factory, ok := providerFactories[name]
	if !ok {
		return fmt.Errorf("unknown provider %q", name)
	}

	base := r.baseOptions(name)
	all := make([]model.GeneratorOption, 0, len(base)+len(opts))
	all = append(all, base...)
	all = append(all, opts...)
	return r.Register(name, factory(all...))
}

func (r *Router) baseOptions(name string) []model.GeneratorOption {
	if name == DefaultProvider {
		return r.defaults
	}
	return r.shared
}

func (r *Router) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Router) Generate(
	ctx context.Context,
	modelID string,
	prompt string,
	payload model.EncodedPayload,
) (string, model.GenerationMetadata, error) {
	provider, modelName := SplitModelID(modelID)

	r.mu.RLock()
	generator, ok := r.providers[provider]
	r.mu.RUnlock()
	if !ok {
		return "", model.GenerationMetadata{
			model.MetadataKeyProvider: provider,
			model.MetadataKeyModel:    modelName,
		}, fmt.Errorf("unknown provider %q for model %q", provider, modelID)
	}

	return generator.Generate(ctx, modelName, prompt, payload)
}

// SplitModelID separates an optional "provider:" prefix from modelID. The
// prefix is only recognized when it looks like a provider key; colons after
// it (Bedrock versions, Ollama tags) stay in the model name.
func SplitModelID(modelID string) (string, string) {
	modelID = strings.TrimSpace(modelID)
	prefix, rest, found := strings.Cut(modelID, providerSep)
	if !found {
		return DefaultProvider, modelID
	}

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if !providerKeyPattern.MatchString(prefix) {
		return DefaultProvider, modelID
	}
	return prefix, strings.TrimSpace(rest)
}

func sharedOptions(cfg model.GeneratorConfig) []model.GeneratorOption {
	opts := []model.GeneratorOption{
		model.WithIgnoreInvalidGeneratorOptions(cfg.IgnoreInvalidGeneratorOptions),
	}
	if cfg.Temperature != nil {
		opts = append(opts, model.WithTemperature(*cfg.Temperature))
	}
	if cfg.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*cfg.MaxTokens))
	}
	if cfg.ReasoningLevel != nil {
		opts = append(opts, model.WithReasoningLevel(*cfg.ReasoningLevel))
	}
	if len(cfg.ResponseSchema) > 0 {
		opts = append(opts, model.WithResponseSchema(cfg.ResponseSchema))
	}
	return opts
}
