package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/utils"
	"google.golang.org/genai"
)

// Generator sends one GenerateContent request per call. Audio payloads are
// attached as inline data next to the prompt.
type Generator struct {
	cfg model.GeneratorConfig
}

func NewGenerator(opts ...model.GeneratorOption) *Generator {
	return &Generator{cfg: model.ResolveGeneratorOpts(opts...)}
}

func (g *Generator) Generate(
	ctx context.Context,
	modelName string,
	prompt string,
	payload model.EncodedPayload,
) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName = resolveGenerationModelName(modelName)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	parts, err := buildParts(prompt, payload)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	client, err := newAPIClient(ctx, g.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	config := buildGenerateContentConfig(g.cfg)
	log.Infof(
		"model=%q payload=%s parts=%d temperature=%v max_tokens=%v structured=%t auth_token_set=%t",
		modelName,
		payload.Kind(),
		len(parts),
		g.cfg.Temperature,
		g.cfg.MaxTokens,
		len(g.cfg.ResponseSchema) > 0,
		g.cfg.AuthToken != "",
	)

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	response, err := client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyGenerateMetadata(meta, response)

	text := response.Text()
	if strings.TrimSpace(text) == "" {
		err = errors.New("response output is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func buildParts(prompt string, payload model.EncodedPayload) ([]*genai.Part, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt is required")
	}

	switch p := payload.(type) {
	case model.TextPayload:
		return []*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromText(p.Content),
		}, nil
	case model.BinaryPayload:
		data, err := base64.StdEncoding.DecodeString(p.Base64)
		if err != nil {
			return nil, fmt.Errorf("decode inline data: %w", err)
		}
		return []*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(data, p.MIMEType),
		}, nil
	case nil:
		return nil, errors.New("payload is required")
	default:
		return nil, fmt.Errorf("unsupported payload type %T", payload)
	}
}

func buildGenerateContentConfig(cfg model.GeneratorConfig) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if cfg.Temperature != nil {
		temp := float32(*cfg.Temperature)
		config.Temperature = &temp
	}
	if cfg.MaxTokens != nil {
		config.MaxOutputTokens = int32(*cfg.MaxTokens)
	}
	if cfg.ReasoningLevel != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingLevel: mapReasoningLevel(*cfg.ReasoningLevel),
		}
	}
	if len(cfg.ResponseSchema) > 0 {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = map[string]any(cfg.ResponseSchema)
	}

	return config
}

func mapReasoningLevel(level model.ReasoningLevel) genai.ThinkingLevel {
	switch level {
	case model.ReasoningLevelNone:
		return genai.ThinkingLevelMinimal
	case model.ReasoningLevelLow:
		return genai.ThinkingLevelLow
	case model.ReasoningLevelMed:
		return genai.ThinkingLevelMedium
	case model.ReasoningLevelHigh:
		return genai.ThinkingLevelHigh
	default:
		return genai.ThinkingLevelMedium
	}
}
