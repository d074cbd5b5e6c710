// Package fallback tries an ordered list of models one at a time and returns the
// first successful answer.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/utils"
)

// ExhaustedHint prefixes every exhaustion message shown to users.
const ExhaustedHint = "all model attempts failed; check the API key's permissions or regional availability"

// FallbackExhaustedError is returned when no candidate model succeeded.
// LastErr is nil when the candidate list was empty.
type FallbackExhaustedError struct {
	LastErr  error
	Attempts []model.ModelAttempt
}

func (e *FallbackExhaustedError) Error() string {
	if e.LastErr == nil {
		return ExhaustedHint
	}
	return ExhaustedHint + ". last error: " + e.LastErr.Error()
}

func (e *FallbackExhaustedError) Unwrap() error {
	return e.LastErr
}

// LastMessage is the message of the final recorded failure without the
// caller prefixes added on the way up, or "" for an empty list.
func (e *FallbackExhaustedError) LastMessage() string {
	if e.LastErr == nil {
		return ""
	}
	return utils.Cause(e.LastErr).Error()
}

type Response struct {
	Text     string
	Model    string
	Metadata model.GenerationMetadata
}

type Executor struct {
	generator model.TextGenerator
}

func NewExecutor(generator model.TextGenerator) (*Executor, error) {
	if generator == nil {
		return nil, utils.WrapIfNotNil(errors.New("generator is required"))
	}
	return &Executor{generator: generator}, nil
}

// Execute sends prompt and payload to each model in order and stops at the
// first success. Failures are logged and only the last one is kept.
func (e *Executor) Execute(
	ctx context.Context,
	models []string,
	prompt string,
	payload model.EncodedPayload,
) (*Response, error) {
	log := logging.NewLogger(ctx)
	attempts := make([]model.ModelAttempt, 0, len(models))
	var lastErr error

	for i, modelName := range models {
		if err := ctx.Err(); err != nil {
			log.Warnf("fallback cancelled before model=%q attempt=%d/%d", modelName, i+1, len(models))
			return nil, utils.WrapIfNotNil(err)
		}

		log.Infof("trying model=%q attempt=%d/%d", modelName, i+1, len(models))
		text, meta, err := e.generator.Generate(ctx, modelName, prompt, payload)
		attempts = append(attempts, model.ModelAttempt{Model: modelName, Err: err, Metadata: meta})
		if err != nil {
			log.Warnf("model=%q attempt failed: %v", modelName, err)
			lastErr = err
			continue
		}

		if meta == nil {
			meta = model.GenerationMetadata{}
		}
		meta[model.MetadataKeyAttempts] = strconv.Itoa(len(attempts))
		log.Infof("model=%q succeeded after %d attempt(s)", modelName, len(attempts))
		return &Response{Text: text, Model: modelName, Metadata: meta}, nil
	}

	exhausted := &FallbackExhaustedError{LastErr: lastErr, Attempts: attempts}
	log.Errorf("fallback exhausted attempts=[%s]: %v", AttemptSummary(attempts), exhausted)
	return nil, exhausted
}

// IsExhausted reports whether err is (or wraps) a FallbackExhaustedError.
func IsExhausted(err error) (*FallbackExhaustedError, bool) {
	var exhausted *FallbackExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted, true
	}
	return nil, false
}

// AttemptSummary renders attempts for diagnostics, e.g. "m1: 404 not found; m2: ok".
func AttemptSummary(attempts []model.ModelAttempt) string {
	parts := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		if attempt.Succeeded() {
			parts = append(parts, attempt.Model+": ok")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", attempt.Model, attempt.Err))
	}
	return strings.Join(parts, "; ")
}
