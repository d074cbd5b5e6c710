package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/stretchr/testify/suite"
)

type GeneratorSuite struct {
	suite.Suite
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) TestBuildMessageRequestAppendsSchema() {
	cfg := model.ResolveGeneratorOpts(model.WithResponseSchema(model.JSONSchema{"type": "object"}))

	request, err := buildMessageRequest("claude-test", "summarize", "minutes", cfg)

	s.Require().NoError(err)
	s.Contains(request.System, "summarize")
	s.Contains(request.System, `{"type":"object"}`)
	s.Equal(defaultMaxTokens, request.MaxTokens)
	s.Require().Len(request.Messages, 1)
	s.Equal("user", request.Messages[0].Role)
	s.Equal("minutes", request.Messages[0].Content[0].Text)
}

func (s *GeneratorSuite) TestExtractTextSkipsNonTextBlocks() {
	text := extractTextFromContentBlocks([]anthropicContentBlock{
		{Type: "text", Text: " first "},
		{Type: "thinking", Text: "hidden"},
		{Type: "text", Text: "second"},
	})
	s.Equal("first\nsecond", text)
}

func (s *GeneratorSuite) TestGenerateRejectsBinaryPayload() {
	generator := NewGenerator(model.WithAuthToken("test-key"))

	_, _, err := generator.Generate(
		context.Background(),
		"claude-test",
		"transcribe",
		model.BinaryPayload{MIMEType: "audio/wav", Base64: "AAAA"},
	)

	s.Require().Error(err)
	s.True(errors.Is(err, model.ErrUnsupportedPayload))
}

func (s *GeneratorSuite) TestGenerateAgainstServer() {
	var received anthropicMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/v1/messages", r.URL.Path)
		s.Equal("test-key", r.Header.Get("x-api-key"))
		s.Equal(anthropicVersion, r.Header.Get("anthropic-version"))
		s.NoError(json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "Speaker 1: hello"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 7, "output_tokens": 3}
		}`))
	}))
	defer server.Close()

	generator := NewGenerator(model.WithAuthToken("test-key"), model.WithURL(server.URL))
	text, meta, err := generator.Generate(
		context.Background(),
		"claude-test",
		"summarize",
		model.TextPayload{Content: "minutes"},
	)

	s.Require().NoError(err)
	s.Equal("Speaker 1: hello", text)
	s.Equal("summarize", received.System)
	s.Equal("msg_1", meta[model.MetadataKeyResponseID])
	s.Equal("10", meta[model.MetadataKeyTotalTokens])
	s.Equal("end_turn", meta[model.MetadataKeyResponseStatus])
}

func (s *GeneratorSuite) TestGenerateSurfacesAPIError() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"not_found_error","message":"model: claude-missing"}}`))
	}))
	defer server.Close()

	generator := NewGenerator(model.WithAuthToken("test-key"), model.WithURL(server.URL))
	_, _, err := generator.Generate(
		context.Background(),
		"claude-missing",
		"summarize",
		model.TextPayload{Content: "minutes"},
	)

	s.Require().Error(err)
	s.Contains(err.Error(), "anthropic API error (404): model: claude-missing")
}

func (s *GeneratorSuite) TestReasoningLevelFailsTheCandidateWhenStrict() {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	generator := NewGenerator(
		model.WithAuthToken("test-key"),
		model.WithURL(server.URL),
		model.WithReasoningLevel(model.ReasoningLevelHigh),
	)
	_, _, err := generator.Generate(context.Background(), "claude-test", "summarize", model.TextPayload{Content: "minutes"})

	s.Require().Error(err)
	s.Contains(err.Error(), "reasoning level is not supported")
	s.Zero(calls)
}

func (s *GeneratorSuite) TestReasoningLevelIsDroppedWhenIgnoringInvalidOptions() {
	normalized, err := normalizeGeneratorOptionsForProvider(
		model.ResolveGeneratorOpts(
			model.WithIgnoreInvalidGeneratorOptions(true),
			model.WithReasoningLevel(model.ReasoningLevelLow),
			model.WithMaxTokens(512),
		),
		nil,
	)

	s.Require().NoError(err)
	s.Nil(normalized.ReasoningLevel)
	s.Equal(512, resolveMaxTokens(normalized))
}
