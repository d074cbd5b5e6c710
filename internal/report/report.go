// Package report renders pipeline results for people: the transcript download
// artifact, the HTML transcript view and a plain-text summary.
package report

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/fallback"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
)

const (
	transcriptHeader = "[Transcription Report]"
	separator        = "---"
	timestampLayout  = "2006-01-02 15:04:05"
	fileDateLayout   = "2006-01-02"
)

// FileName is the download name of a transcript saved at t.
func FileName(t time.Time) string {
	return "STT_" + t.Format(fileDateLayout) + ".txt"
}

// Transcript builds the artifact body: a header naming the source file and
// timestamp, a separator line, then the transcript text.
func Transcript(sourceName string, at time.Time, text string) string {
	var b strings.Builder
	b.WriteString(transcriptHeader)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "File: %s\n", sourceName)
	fmt.Fprintf(&b, "Date: %s\n", at.Format(timestampLayout))
	b.WriteString("\n")
	b.WriteString(separator)
	b.WriteString("\n\n")
	b.WriteString(text)
	return b.String()
}

// TranscriptHTML escapes text and turns newlines into <br> tags.
func TranscriptHTML(text string) string {
	escaped := html.EscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	return strings.ReplaceAll(escaped, "\n", "<br>")
}

// FailureMessage is the user-facing text of a failed run.
func FailureMessage(result model.PipelineResult) string {
	if result.Failed == nil || result.Failed.LastErrorMessage == "" {
		return fallback.ExhaustedHint
	}
	return fallback.ExhaustedHint + ". last error: " + result.Failed.LastErrorMessage
}

// Text renders any result as plain text for terminals and inbox output.
func Text(result model.PipelineResult) string {
	if result.IsFailed() {
		return FailureMessage(result)
	}
	if result.Kind == model.ResultTranscript && result.Transcript != nil {
		return result.Transcript.Text
	}

	view, ok := result.SummaryView()
	if !ok {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "My argument:\n%s\n\n", view.MyArgument)
	fmt.Fprintf(&b, "Other argument:\n%s\n\n", view.OtherArgument)
	fmt.Fprintf(&b, "Context:\n%s\n", view.Context)
	return b.String()
}

// WriteTranscript writes the transcript artifact into dir and returns its
// path. An existing file of the same name gets a numeric suffix.
func WriteTranscript(dir string, sourceName string, at time.Time, text string) (string, error) {
	return writeUnique(dir, FileName(at), Transcript(sourceName, at, text))
}

// WriteSummary writes the text rendering of result next to other reports,
// named after the source file.
func WriteSummary(dir string, sourceName string, result model.PipelineResult) (string, error) {
	base := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	return writeUnique(dir, base+"_summary.txt", Text(result))
}

func writeUnique(dir string, name string, body string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create report: %w", err)
		}
		if _, err := f.WriteString(body); err != nil {
			f.Close()
			return "", fmt.Errorf("write report: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close report: %w", err)
		}
		return path, nil
	}
}
