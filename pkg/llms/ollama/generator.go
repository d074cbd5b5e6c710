package ollama

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/utils"
	ollamasdk "github.com/rozoomcool/go-ollama-sdk"
)

// Generator sends one non-streaming /api/chat request per call. When a
// response schema is configured it is passed as the chat format so the server
// constrains decoding to it.
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
	content, err := model.RequireText(providerName, payload)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	request, err := buildChatRequest(modelName, prompt, content, g.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	c := newClient(g.cfg)
	log.Infof(
		"model=%q base_url=%q temperature=%v max_tokens=%v structured=%t",
		modelName,
		c.baseURL,
		g.cfg.Temperature,
		g.cfg.MaxTokens,
		request.Format != nil,
	)

	response, err := c.chat(ctx, request)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyOllamaMetadata(meta, response)

	text := strings.TrimSpace(response.Message.Content)
	if text == "" {
		err = errors.New("response output is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func buildChatRequest(
	modelName string,
	prompt string,
	content string,
	cfg model.GeneratorConfig,
) (ollamaChatRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return ollamaChatRequest{}, errors.New("prompt is required")
	}

	request := ollamaChatRequest{
		Model: modelName,
		Messages: []ollamasdk.ChatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: content},
		},
		Stream:  false,
		Options: buildOllamaChatOptions(cfg),
	}
	if len(cfg.ResponseSchema) > 0 {
		request.Format = map[string]any(cfg.ResponseSchema)
	}
	return request, nil
}

func buildOllamaChatOptions(cfg model.GeneratorConfig) *ollamaChatOptions {
	if cfg.Temperature == nil && cfg.MaxTokens == nil {
		return nil
	}

	options := &ollamaChatOptions{}
	if cfg.Temperature != nil {
		temperature := *cfg.Temperature
		options.Temperature = &temperature
	}
	if cfg.MaxTokens != nil {
		numPredict := *cfg.MaxTokens
		options.NumPredict = &numPredict
	}
	return options
}
