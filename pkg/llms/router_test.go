package llms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	suite.Suite
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

type recordingGenerator struct {
	name   string
	models []string
}

func (g *recordingGenerator) Generate(
	_ context.Context,
	modelName string,
	_ string,
	_ model.EncodedPayload,
) (string, model.GenerationMetadata, error) {
	g.models = append(g.models, modelName)
	return g.name + ":" + modelName, model.GenerationMetadata{model.MetadataKeyProvider: g.name}, nil
}

func (s *RouterSuite) TestSplitModelID() {
	cases := []struct {
		in       string
		provider string
		model    string
	}{
		{"gemini-1.5-flash", DefaultProvider, "gemini-1.5-flash"},
		{"openai:gpt-5-mini", "openai", "gpt-5-mini"},
		{"ollama:llama3.1:8b", "ollama", "llama3.1:8b"},
		{"bedrock:us.anthropic.claude-3-5-sonnet-20241022-v2:0", "bedrock", "us.anthropic.claude-3-5-sonnet-20241022-v2:0"},
		{"us.anthropic.claude-3-5-sonnet-20241022-v2:0", DefaultProvider, "us.anthropic.claude-3-5-sonnet-20241022-v2:0"},
		{" Anthropic : claude-x ", "anthropic", "claude-x"},
	}

	for _, tc := range cases {
		provider, name := SplitModelID(tc.in)
		s.Equal(tc.provider, provider, tc.in)
		s.Equal(tc.model, name, tc.in)
	}
}

func (s *RouterSuite) TestNewRouterRegistersAllProviders() {
	router, err := NewRouter(model.WithAuthToken("key"))

	s.Require().NoError(err)
	s.Equal([]string{"anthropic", "bedrock", "gemini", "huggingface", "ollama", "openai"}, router.Providers())
}

func (s *RouterSuite) TestGenerateDispatchesOnPrefix() {
	router, err := NewRouter()
	s.Require().NoError(err)

	gemini := &recordingGenerator{name: "gemini"}
	openai := &recordingGenerator{name: "openai"}
	s.Require().NoError(router.Register("gemini", gemini))
	s.Require().NoError(router.Register("openai", openai))

	text, meta, err := router.Generate(context.Background(), "gemini-1.5-pro", "p", model.TextPayload{Content: "c"})
	s.Require().NoError(err)
	s.Equal("gemini:gemini-1.5-pro", text)
	s.Equal("gemini", meta[model.MetadataKeyProvider])

	text, _, err = router.Generate(context.Background(), "openai:gpt-5-mini", "p", model.TextPayload{Content: "c"})
	s.Require().NoError(err)
	s.Equal("openai:gpt-5-mini", text)
	s.Equal([]string{"gpt-5-mini"}, openai.models)
}

func (s *RouterSuite) TestUnknownProviderIsAnError() {
	router, err := NewRouter()
	s.Require().NoError(err)

	_, meta, err := router.Generate(context.Background(), "mistral:large", "p", model.TextPayload{Content: "c"})

	s.Require().Error(err)
	s.Contains(err.Error(), `unknown provider "mistral"`)
	s.Equal("large", meta[model.MetadataKeyModel])
}

func (s *RouterSuite) TestRegisterValidates() {
	router, err := NewRouter()
	s.Require().NoError(err)

	s.Error(router.Register("Bad Name", &recordingGenerator{}))
	s.Error(router.Register("custom", nil))
	s.NoError(router.Register("custom", &recordingGenerator{name: "custom"}))
	s.Contains(router.Providers(), "custom")
}

func (s *RouterSuite) TestConfigureRejectsUnknownProvider() {
	router, err := NewRouter()
	s.Require().NoError(err)

	s.Error(router.Configure("mistral", model.WithURL("http://localhost")))
	s.NoError(router.Configure("ollama", model.WithURL("http://localhost:11434")))
}

func (s *RouterSuite) TestSharedOptionsDropCredentials() {
	cfg := model.ResolveGeneratorOpts(
		model.WithAuthToken("secret"),
		model.WithURL("http://gemini.local"),
		model.WithMaxTokens(100),
	)

	shared := model.ResolveGeneratorOpts(sharedOptions(cfg)...)

	s.Empty(shared.AuthToken)
	s.Empty(shared.URL)
	s.Require().NotNil(shared.MaxTokens)
	s.Equal(100, *shared.MaxTokens)
}

func (s *RouterSuite) TestConfiguringDefaultProviderKeepsCredential() {
	s.T().Setenv("GEMINI_KEY", "")
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": "ok"}]}}]}`))
	}))
	defer server.Close()

	router, err := NewRouter(model.WithAuthToken("AIza-router"), model.WithMaxTokens(64))
	s.Require().NoError(err)
	s.Require().NoError(router.Configure(DefaultProvider, model.WithURL(server.URL)))

	text, _, err := router.Generate(context.Background(), "gemini-2.5-flash", "p", model.TextPayload{Content: "c"})

	s.Require().NoError(err)
	s.Equal("ok", text)
	s.Equal("AIza-router", gotKey)
}
