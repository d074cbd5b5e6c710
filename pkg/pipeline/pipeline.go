// Package pipeline composes the encoder, the fallback executor and the
// interpreter into the single call a UI layer makes per run.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/encoder"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/fallback"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/interpreter"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/llms"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/utils"
)

// ErrEmptyCredential is returned when a pipeline is built for a blank API key.
var ErrEmptyCredential = errors.New("api key is required")

// Task bundles the prompt, candidate models and expected output shape of one
// kind of run.
type Task struct {
	Name   string
	Prompt string
	Models []string
	Shape  model.ExpectedShape
}

func Summarizer() Task {
	return Task{
		Name:   "summarize",
		Prompt: SummaryPrompt,
		Models: append([]string(nil), DefaultSummaryModels...),
		Shape:  model.ShapeSummary,
	}
}

func Transcriber() Task {
	return Task{
		Name:   "transcribe",
		Prompt: TranscriptionPrompt,
		Models: append([]string(nil), DefaultTranscriptionModels...),
		Shape:  model.ShapeTranscript,
	}
}

// Pipeline holds no per-run state; Run may be called any number of times.
type Pipeline struct {
	executor *fallback.Executor
}

func New(generator model.TextGenerator) (*Pipeline, error) {
	executor, err := fallback.NewExecutor(generator)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return &Pipeline{executor: executor}, nil
}

// NewWithCredential builds a pipeline over the provider router, passing apiKey
// through to the default provider. The key is only checked for being non-empty.
func NewWithCredential(apiKey string, opts ...model.GeneratorOption) (*Pipeline, error) {
	router, err := NewRouter(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return New(router)
}

// NewRouter returns the provider router NewWithCredential would use, so callers
// can reconfigure individual providers before building the pipeline.
func NewRouter(apiKey string, opts ...model.GeneratorOption) (*llms.Router, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrEmptyCredential
	}

	allOpts := append([]model.GeneratorOption{model.WithAuthToken(strings.TrimSpace(apiKey))}, opts...)
	router, err := llms.NewRouter(allOpts...)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return router, nil
}

// Run encodes file, tries models in order and interprets the first success.
// Exhausting the model list yields a Failed result, not an error; only
// encoding failures and cancellation are returned as errors.
func (p *Pipeline) Run(
	ctx context.Context,
	file *model.SourceFile,
	prompt string,
	models []string,
	shape model.ExpectedShape,
) (model.PipelineResult, error) {
	if file != nil {
		ctx = logging.WithFields(ctx, map[string]any{"file": file.Name, "shape": string(shape)})
	}
	log := logging.NewLogger(ctx)

	payload, err := encoder.Encode(file)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, err
	}
	log.Infof("payload=%s models=%d", payload.Kind(), len(models))

	response, err := p.executor.Execute(ctx, models, prompt, payload)
	if err != nil {
		if exhausted, ok := fallback.IsExhausted(err); ok {
			return model.NewFailedResult(exhausted.LastMessage()), nil
		}
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}

	result := interpreter.Interpret(response.Text, shape)
	result.Model = response.Model
	log.Infof("model=%q result=%s", response.Model, result.Kind)
	return result, nil
}

func (p *Pipeline) RunTask(ctx context.Context, file *model.SourceFile, task Task) (model.PipelineResult, error) {
	return p.Run(ctx, file, task.Prompt, task.Models, task.Shape)
}
