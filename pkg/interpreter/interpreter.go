// Package interpreter turns raw model output into a PipelineResult. It never
// fails: output that does not parse degrades to an unstructured result.
package interpreter

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
)

const (
	fieldMyArgument    = "myArgument"
	fieldOtherArgument = "otherArgument"
	fieldContext       = "context"
)

func Interpret(rawText string, shape model.ExpectedShape) model.PipelineResult {
	if shape == model.ShapeTranscript {
		return model.NewTranscriptResult(rawText)
	}

	summary, ok := ParseSummary(rawText)
	if !ok {
		return model.NewUnstructuredResult(rawText)
	}
	return model.NewStructuredResult(summary)
}

// ParseSummary decodes the first-"{"-to-last-"}" span of text. Any JSON object
// is accepted; absent summary fields are left empty.
func ParseSummary(text string) (model.Summary, bool) {
	payload, ok := ExtractJSONPayload(text)
	if !ok {
		return model.Summary{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return model.Summary{}, false
	}

	return model.Summary{
		MyArgument:    fieldText(fields, fieldMyArgument),
		OtherArgument: fieldText(fields, fieldOtherArgument),
		Context:       fieldText(fields, fieldContext),
	}, true
}

// ExtractJSONPayload returns the greedy span from the first "{" to the last "}".
// Models tend to wrap their JSON in prose or code fences, so nothing outside
// that span is inspected.
func ExtractJSONPayload(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// fieldText reads a summary field. Strings are used as-is; any other JSON value
// is kept in its compact JSON form so nothing the model said is dropped.
func fieldText(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}

	var value string
	if err := json.Unmarshal(raw, &value); err == nil {
		return value
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ""
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}
