package service

import (
	"errors"

	"github.com/Nephrolytics-ai/polyglot-brief/internal/config"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/credential"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
)

type Option func(*implService)

// WithGenerator replaces the provider router, e.g. with a scripted generator.
func WithGenerator(generator model.TextGenerator) Option {
	return func(s *implService) {
		s.generator = generator
	}
}

func New(cfg *config.Config, store credential.Store, opts ...Option) (Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if store == nil {
		return nil, errors.New("credential store is required")
	}

	s := &implService{cfg: cfg, store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}
