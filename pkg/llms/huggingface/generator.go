package huggingface

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/utils"
)

// Generator posts to the router's OpenAI-compatible chat completions
// endpoint. Only text payloads are supported.
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
	log := logging.NewLogger(ctx)
	modelName = resolveModelName(modelName)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	cfg, err := normalizeGeneratorOptionsForProvider(g.cfg, log)
	if err != nil {
		return "", meta, utils.WrapIfNotNil(err)
	}

	content, err := model.RequireText(providerName, payload)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	request, err := buildChatCompletionRequest(modelName, prompt, content, cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	log.Infof(
		"model=%q temperature=%v max_tokens=%d structured=%t",
		modelName,
		cfg.Temperature,
		request.MaxTokens,
		request.ResponseFormat != nil,
	)

	response, err := client.createChatCompletion(ctx, request)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyHuggingFaceMetadata(meta, response)

	if len(response.Choices) == 0 {
		err = errors.New("response has no choices")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	text := strings.TrimSpace(response.Choices[0].Message.Content)
	if text == "" {
		err = errors.New("response output is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func buildChatCompletionRequest(
	modelName string,
	prompt string,
	content string,
	cfg model.GeneratorConfig,
) (chatCompletionRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return chatCompletionRequest{}, errors.New("prompt is required")
	}

	request := chatCompletionRequest{
		Model: modelName,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: content},
		},
		MaxTokens:   resolveMaxTokens(cfg),
		Temperature: cfg.Temperature,
	}
	if len(cfg.ResponseSchema) > 0 {
		request.ResponseFormat = &chatResponseFormat{
			Type: "json_schema",
			JSONSchema: &chatJSONSchema{
				Name:   "structured_output",
				Schema: map[string]any(cfg.ResponseSchema),
				Strict: true,
			},
		}
	}
	return request, nil
}
