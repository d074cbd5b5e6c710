package model

import (
	"errors"
	"fmt"
)

// ErrUnsupportedPayload is returned by providers that cannot carry a payload
// kind. The fallback executor treats it like any other model failure.
var ErrUnsupportedPayload = errors.New("unsupported payload")

// RequireText returns the text content of payload or an error wrapping
// ErrUnsupportedPayload for text-only providers.
func RequireText(provider string, payload EncodedPayload) (string, error) {
	switch p := payload.(type) {
	case TextPayload:
		return p.Content, nil
	case nil:
		return "", errors.New("payload is required")
	default:
		return "", fmt.Errorf("%s: %w: %s", provider, ErrUnsupportedPayload, payload.Kind())
	}
}

// SourceFile is a user-selected document or recording. It is immutable once
// built and is only borrowed by the pipeline for the duration of one run.
type SourceFile struct {
	Name     string
	MIMEType string
	Content  []byte
}

type PayloadKind string

const (
	PayloadKindText   PayloadKind = "text"
	PayloadKindBinary PayloadKind = "binary"
)

// EncodedPayload is the transport form of a SourceFile. It is either a
// TextPayload or a BinaryPayload.
type EncodedPayload interface {
	Kind() PayloadKind
}

type TextPayload struct {
	Content string
}

func (TextPayload) Kind() PayloadKind { return PayloadKindText }

// BinaryPayload carries inline data. Base64 uses the standard encoding with padding.
type BinaryPayload struct {
	MIMEType string
	Base64   string
}

func (BinaryPayload) Kind() PayloadKind { return PayloadKindBinary }

// ModelAttempt is the outcome of one candidate model call.
type ModelAttempt struct {
	Model    string
	Err      error
	Metadata GenerationMetadata
}

func (a ModelAttempt) Succeeded() bool {
	return a.Err == nil
}
