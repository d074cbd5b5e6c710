package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/internal/config"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/report"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/service"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/encoder"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
)

// NewInboxHandler runs each file through svc and writes the report into
// outputDir. In auto mode audio is transcribed and everything else summarized.
func NewInboxHandler(svc service.Service, mode string, outputDir string) EventHandler {
	return func(ctx context.Context, filePath string) error {
		log := logging.NewLogger(ctx)

		file, err := encoder.Load(filePath)
		if err != nil {
			return err
		}

		transcribe := mode == config.WatchModeTranscribe ||
			(mode == config.WatchModeAuto && service.IsAudio(file))
		if mode == config.WatchModeTranscribe && !service.IsAudio(file) {
			log.Infof("skipping %s: %v", file.Name, service.ErrNotAudio)
			return nil
		}

		var result model.PipelineResult
		if transcribe {
			result, err = svc.Transcribe(ctx, file)
		} else {
			result, err = svc.Summarize(ctx, file)
		}
		if err != nil {
			return err
		}
		if result.IsFailed() {
			return errors.New(report.FailureMessage(result))
		}

		var path string
		if result.Kind == model.ResultTranscript {
			path, err = report.WriteTranscript(outputDir, file.Name, time.Now(), report.Text(result))
		} else {
			path, err = report.WriteSummary(outputDir, file.Name, result)
		}
		if err != nil {
			return err
		}
		log.Infof("%s: %s result from %s written to %s", file.Name, result.Kind, result.Model, path)
		return nil
	}
}
