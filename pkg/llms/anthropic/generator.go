package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/utils"
)

// Generator calls the Messages API with the prompt as the system message and
// the document as the single user turn.
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

	request, err := buildMessageRequest(modelName, prompt, content, cfg)
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
		len(cfg.ResponseSchema) > 0,
	)

	response, err := client.createMessage(ctx, request)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyAnthropicMetadata(meta, response)

	text := strings.TrimSpace(extractTextFromContentBlocks(response.Content))
	if text == "" {
		err = errors.New("response output is empty")
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func buildMessageRequest(
	modelName string,
	prompt string,
	content string,
	cfg model.GeneratorConfig,
) (anthropicMessageRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return anthropicMessageRequest{}, errors.New("prompt is required")
	}

	system := prompt
	if len(cfg.ResponseSchema) > 0 {
		instruction, err := buildStructuredOutputInstruction(cfg.ResponseSchema)
		if err != nil {
			return anthropicMessageRequest{}, utils.WrapIfNotNil(err)
		}
		system = prompt + "\n\n" + instruction
	}

	return anthropicMessageRequest{
		Model:       modelName,
		MaxTokens:   resolveMaxTokens(cfg),
		Temperature: cfg.Temperature,
		System:      system,
		Messages:    []anthropicMessage{makeTextMessage("user", content)},
	}, nil
}

func makeTextMessage(role string, content string) anthropicMessage {
	return anthropicMessage{
		Role: role,
		Content: []anthropicContentBlock{
			{
				Type: "text",
				Text: content,
			},
		},
	}
}

func extractTextFromContentBlocks(content []anthropicContentBlock) string {
	if len(content) == 0 {
		return ""
	}

	parts := make([]string, 0, len(content))
	for _, block := range content {
		if block.Type != "text" {
			continue
		}
		trimmed := strings.TrimSpace(block.Text)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	return strings.Join(parts, "\n")
}

func buildStructuredOutputInstruction(schema model.JSONSchema) (string, error) {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return structuredOutputHint + string(schemaBytes), nil
}
