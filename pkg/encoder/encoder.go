// Package encoder turns a user-selected file into the payload sent to a model:
// audio becomes inline base64 data, everything else is sent as text.
package encoder

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/gabriel-vasile/mimetype"
)

// EncodingError reports a file that could not be read or decoded.
type EncodingError struct {
	Name string
	Err  error
}

func (e *EncodingError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("encode file: %v", e.Err)
	}
	return fmt.Sprintf("encode file %q: %v", e.Name, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

var audioExtensions = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
}

// Encode converts file into its transport payload. It reads the content once
// and has no other side effects.
func Encode(file *model.SourceFile) (model.EncodedPayload, error) {
	if file == nil {
		return nil, &EncodingError{Err: errors.New("no file selected")}
	}
	if file.Content == nil {
		return nil, &EncodingError{Name: file.Name, Err: errors.New("file has no readable content")}
	}

	if IsAudio(file.MIMEType, file.Name) {
		mimeType, err := audioMIMEType(file)
		if err != nil {
			return nil, &EncodingError{Name: file.Name, Err: err}
		}
		return model.BinaryPayload{
			MIMEType: mimeType,
			Base64:   base64.StdEncoding.EncodeToString(file.Content),
		}, nil
	}

	if !utf8.Valid(file.Content) {
		return nil, &EncodingError{Name: file.Name, Err: errors.New("content is not valid UTF-8 text")}
	}
	return model.TextPayload{Content: string(file.Content)}, nil
}

// IsAudio reports whether a file should travel as inline audio. The MIME type
// wins when it is specific; otherwise the file extension decides.
func IsAudio(mimeType, name string) bool {
	base := normalizeMIMEType(mimeType)
	if strings.HasPrefix(base, "audio/") {
		return true
	}
	if base != "" && base != "application/octet-stream" {
		return false
	}
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(strings.TrimSpace(name)))]
	return ok
}

// Load reads path from disk and detects its MIME type from content, falling
// back to the extension for containers the sniffer reports generically.
func Load(path string) (*model.SourceFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &EncodingError{Name: filepath.Base(path), Err: err}
	}

	return &model.SourceFile{
		Name:     filepath.Base(path),
		MIMEType: DetectMIMEType(filepath.Base(path), content),
		Content:  content,
	}, nil
}

// DetectMIMEType sniffs content; the extension table is consulted when the
// sniffer can only say "binary" or when the extension names an audio format.
func DetectMIMEType(name string, content []byte) string {
	detected := normalizeMIMEType(mimetype.Detect(content).String())
	if strings.HasPrefix(detected, "audio/") || strings.HasPrefix(detected, "text/") {
		return detected
	}

	if resolved, err := ResolveAudioMIMEType(name); err == nil {
		return resolved
	}
	return detected
}

// ResolveAudioMIMEType maps an audio file name to its MIME type by extension.
func ResolveAudioMIMEType(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	if ext == "" {
		return "", errors.New("audio file extension is required to determine mime type")
	}

	if mimeType, ok := audioExtensions[ext]; ok {
		return mimeType, nil
	}

	mimeType := normalizeMIMEType(mime.TypeByExtension(ext))
	if mimeType == "" {
		return "", errors.New("unsupported audio file extension: " + ext)
	}
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", errors.New("unsupported audio mime type: " + mimeType)
	}
	return mimeType, nil
}

func audioMIMEType(file *model.SourceFile) (string, error) {
	mimeType := normalizeMIMEType(file.MIMEType)
	if strings.HasPrefix(mimeType, "audio/") {
		return mimeType, nil
	}
	return ResolveAudioMIMEType(file.Name)
}

// normalizeMIMEType strips parameters such as "; charset=utf-8".
func normalizeMIMEType(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}
