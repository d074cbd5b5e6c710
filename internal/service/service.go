package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-brief/internal/config"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/credential"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/encoder"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/pipeline"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/utils"
)

// ErrNotAudio is returned by Transcribe for files that are not audio.
var ErrNotAudio = errors.New("only audio files (mp3, m4a, wav, ...) can be transcribed")

type implService struct {
	cfg       *config.Config
	store     credential.Store
	generator model.TextGenerator
}

func (s *implService) SaveCredential(apiKey string) error {
	return s.store.Save(apiKey)
}

func (s *implService) ClearCredential() error {
	return s.store.Clear()
}

func (s *implService) Summarize(ctx context.Context, file *model.SourceFile) (model.PipelineResult, error) {
	var opts []model.GeneratorOption
	if s.cfg.Gemini.StructuredOutput {
		schema, err := pipeline.SummarySchema()
		if err != nil {
			return model.PipelineResult{}, utils.WrapIfNotNil(err)
		}
		opts = append(opts, model.WithResponseSchema(schema))
	}

	p, err := s.pipeline(ctx, opts...)
	if err != nil {
		return model.PipelineResult{}, err
	}
	return p.RunTask(ctx, file, s.cfg.SummarizerTask())
}

func (s *implService) Transcribe(ctx context.Context, file *model.SourceFile) (model.PipelineResult, error) {
	if !IsAudio(file) {
		return model.PipelineResult{}, ErrNotAudio
	}

	task, err := s.cfg.TranscriberTask()
	if err != nil {
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}
	p, err := s.pipeline(ctx)
	if err != nil {
		return model.PipelineResult{}, err
	}
	return p.RunTask(ctx, file, task)
}

// IsAudio reports whether file should go through the transcriber: declared
// as audio, or undeclared with an audio file extension.
func IsAudio(file *model.SourceFile) bool {
	if file == nil {
		return false
	}
	return encoder.IsAudio(file.MIMEType, file.Name)
}

// pipeline builds a fresh pipeline for one run so a credential saved since the
// last run takes effect.
func (s *implService) pipeline(ctx context.Context, opts ...model.GeneratorOption) (*pipeline.Pipeline, error) {
	log := logging.NewLogger(ctx)

	apiKey, err := s.apiKey()
	if err != nil {
		log.Errorf("error: %v", err)
		return nil, err
	}
	if s.generator != nil {
		if strings.TrimSpace(apiKey) == "" {
			return nil, pipeline.ErrEmptyCredential
		}
		return pipeline.New(s.generator)
	}

	allOpts := append(s.cfg.GeneratorOptions(), opts...)
	router, err := pipeline.NewRouter(apiKey, allOpts...)
	if err != nil {
		return nil, err
	}
	for name, provider := range s.cfg.Providers {
		var providerOpts []model.GeneratorOption
		if provider.URL != "" {
			providerOpts = append(providerOpts, model.WithURL(provider.URL))
		}
		if provider.APIKey != "" {
			providerOpts = append(providerOpts, model.WithAuthToken(provider.APIKey))
		}
		if err := router.Configure(name, providerOpts...); err != nil {
			log.Errorf("error: %v", err)
			return nil, fmt.Errorf("providers.%s: %w", name, err)
		}
	}
	return pipeline.New(router)
}

// apiKey prefers the stored credential over the configured one.
func (s *implService) apiKey() (string, error) {
	apiKey, err := s.store.Load()
	switch {
	case err == nil:
		return apiKey, nil
	case errors.Is(err, credential.ErrNotFound):
		return strings.TrimSpace(s.cfg.Gemini.APIKey), nil
	default:
		return "", utils.WrapIfNotNil(err)
	}
}
