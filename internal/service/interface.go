package service

import (
	"context"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
)

// Service runs the summarize and transcribe tasks with the stored credential.
type Service interface {
	SaveCredential(apiKey string) error
	ClearCredential() error
	Summarize(ctx context.Context, file *model.SourceFile) (model.PipelineResult, error)
	Transcribe(ctx context.Context, file *model.SourceFile) (model.PipelineResult, error)
}
