package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nephrolytics-ai/polyglot-brief/internal/config"
	"github.com/stretchr/testify/suite"
)

type MainSuite struct {
	suite.Suite
	dir        string
	configPath string
	credPath   string
}

func TestMainSuite(t *testing.T) {
	suite.Run(t, new(MainSuite))
}

func (s *MainSuite) SetupTest() {
	s.T().Setenv(config.EnvGeminiKey, "")
	s.dir = s.T().TempDir()
	s.credPath = filepath.Join(s.dir, "credentials.json")
	s.configPath = filepath.Join(s.dir, "config.yaml")
	s.Require().NoError(os.WriteFile(s.configPath, []byte("credential:\n  path: "+s.credPath+"\n"), 0o644))
}

func (s *MainSuite) TestKeySet() {
	out := &bytes.Buffer{}

	err := run([]string{"-config", s.configPath, "key", "set", "AIza-test"}, out)

	s.Require().NoError(err)
	s.Contains(out.String(), s.credPath)
	s.FileExists(s.credPath)
}

func (s *MainSuite) TestKeySetRejectsBlank() {
	err := run([]string{"-config", s.configPath, "key", "set", "  "}, &bytes.Buffer{})

	s.Require().Error(err)
	s.NoFileExists(s.credPath)
}

func (s *MainSuite) TestKeyClearRemovesStoredKey() {
	s.Require().NoError(run([]string{"-config", s.configPath, "key", "set", "AIza-test"}, &bytes.Buffer{}))
	input := filepath.Join(s.dir, "minutes.txt")
	s.Require().NoError(os.WriteFile(input, []byte("Alice argued X."), 0o644))

	out := &bytes.Buffer{}
	s.Require().NoError(run([]string{"-config", s.configPath, "key", "clear"}, out))
	s.Contains(out.String(), "API key removed")

	err := run([]string{"-config", s.configPath, "summarize", input}, &bytes.Buffer{})
	s.Require().Error(err)
	s.Contains(err.Error(), "api key is required")
}

func (s *MainSuite) TestSummarizeWithoutKeyFails() {
	input := filepath.Join(s.dir, "minutes.txt")
	s.Require().NoError(os.WriteFile(input, []byte("Alice argued X."), 0o644))

	err := run([]string{"-config", s.configPath, "summarize", input}, &bytes.Buffer{})

	s.Require().Error(err)
	s.Contains(err.Error(), "api key is required")
}

func (s *MainSuite) TestTranscribeRejectsText() {
	s.Require().NoError(run([]string{"-config", s.configPath, "key", "set", "AIza-test"}, &bytes.Buffer{}))
	input := filepath.Join(s.dir, "minutes.txt")
	s.Require().NoError(os.WriteFile(input, []byte("x"), 0o644))

	err := run([]string{"-config", s.configPath, "transcribe", input}, &bytes.Buffer{})

	s.Require().Error(err)
	s.Contains(err.Error(), "only audio files")
}

func (s *MainSuite) TestUnknownCommand() {
	err := run([]string{"-config", s.configPath, "translate"}, &bytes.Buffer{})
	s.Error(err)

	err = run([]string{"-config", s.configPath}, &bytes.Buffer{})
	s.Error(err)
}
