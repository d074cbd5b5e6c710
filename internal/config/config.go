// Package config loads the YAML settings file and overlays .env and process
// environment values on top of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/pipeline"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "BRIEF_CONFIG"
	EnvGeminiKey    = "GEMINI_KEY"
	EnvGeminiURL    = "GEMINI_BASE_URL"
	EnvLogLevel     = "BRIEF_LOG_LEVEL"
	EnvServerPort   = "BRIEF_PORT"
	DefaultPath     = "config.yaml"
	defaultDotEnv   = ".env"
	defaultPort     = 8080
	defaultBodyMB   = 50
	defaultMaxJobs  = 2
	defaultLogLevel = "info"
	defaultFormat   = "text"
)

type Config struct {
	Gemini      GeminiConfig              `yaml:"gemini"`
	Providers   map[string]ProviderConfig `yaml:"providers"`
	Summarizer  TaskConfig                `yaml:"summarizer"`
	Transcriber TranscriberConfig         `yaml:"transcriber"`
	Logging     LoggingConfig             `yaml:"logging"`
	Server      ServerConfig              `yaml:"server"`
	Watch       WatchConfig               `yaml:"watch"`
	Credential  CredentialConfig          `yaml:"credential"`
}

type GeminiConfig struct {
	APIKey           string   `yaml:"api_key"`
	BaseURL          string   `yaml:"base_url"`
	StructuredOutput bool     `yaml:"structured_output"`
	Temperature      *float64 `yaml:"temperature"`
	MaxTokens        *int     `yaml:"max_tokens"`
}

// ProviderConfig overrides the endpoint or key of a provider. Empty fields keep
// the provider's defaults: the resolved Gemini key for gemini, the provider's
// own environment variables for the others.
type ProviderConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type TaskConfig struct {
	Models []string `yaml:"models"`
	Prompt string   `yaml:"prompt"`
}

type TranscriberConfig struct {
	Models   []string             `yaml:"models"`
	Prompt   string               `yaml:"prompt"`
	Keywords []model.AudioKeyword `yaml:"keywords"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	BodyLimitMB int      `yaml:"body_limit_mb"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type WatchConfig struct {
	Input         string `yaml:"input"`
	Output        string `yaml:"output"`
	Mode          string `yaml:"mode"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

type CredentialConfig struct {
	Path string `yaml:"path"`
}

const (
	WatchModeAuto       = "auto"
	WatchModeSummarize  = "summarize"
	WatchModeTranscribe = "transcribe"
)

// Load reads path when it exists, applies a .env file from the working
// directory and the environment, then validates. A missing file is not an
// error; every setting has a default except the API key.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := loadDotEnv(defaultDotEnv); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvGeminiKey)); v != "" && c.Gemini.APIKey == "" {
		c.Gemini.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGeminiURL)); v != "" && c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerPort)); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate rejects impossible values and fills defaults.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Server.BodyLimitMB < 0 {
		return fmt.Errorf("server.body_limit_mb must not be negative")
	}
	if c.Watch.MaxConcurrent < 0 {
		return fmt.Errorf("watch.max_concurrent must not be negative")
	}
	switch c.Watch.Mode {
	case "", WatchModeAuto, WatchModeSummarize, WatchModeTranscribe:
	default:
		return fmt.Errorf("watch.mode %q is not one of auto, summarize, transcribe", c.Watch.Mode)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	if len(c.Summarizer.Models) == 0 {
		c.Summarizer.Models = append([]string(nil), pipeline.DefaultSummaryModels...)
	}
	if strings.TrimSpace(c.Summarizer.Prompt) == "" {
		c.Summarizer.Prompt = pipeline.SummaryPrompt
	}
	if len(c.Transcriber.Models) == 0 {
		c.Transcriber.Models = append([]string(nil), pipeline.DefaultTranscriptionModels...)
	}
	if strings.TrimSpace(c.Transcriber.Prompt) == "" {
		c.Transcriber.Prompt = pipeline.TranscriptionPrompt
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultFormat
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.BodyLimitMB == 0 {
		c.Server.BodyLimitMB = defaultBodyMB
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Watch.Input == "" {
		c.Watch.Input = "data/input"
	}
	if c.Watch.Output == "" {
		c.Watch.Output = "data/output"
	}
	if c.Watch.Mode == "" {
		c.Watch.Mode = WatchModeAuto
	}
	if c.Watch.MaxConcurrent == 0 {
		c.Watch.MaxConcurrent = defaultMaxJobs
	}

	return nil
}

// SummarizerTask returns the summarize preset with configured overrides.
func (c *Config) SummarizerTask() pipeline.Task {
	task := pipeline.Summarizer()
	task.Models = append([]string(nil), c.Summarizer.Models...)
	task.Prompt = c.Summarizer.Prompt
	return task
}

// TranscriberTask returns the transcribe preset with configured overrides and
// keyword hints appended to the prompt.
func (c *Config) TranscriberTask() (pipeline.Task, error) {
	task := pipeline.Transcriber()
	task.Models = append([]string(nil), c.Transcriber.Models...)

	prompt, err := pipeline.BuildTranscriptionPrompt(c.Transcriber.Prompt, c.Transcriber.Keywords)
	if err != nil {
		return pipeline.Task{}, fmt.Errorf("build transcription prompt: %w", err)
	}
	task.Prompt = prompt
	return task, nil
}

// GeneratorOptions returns the options shared by every provider, excluding
// the credential.
func (c *Config) GeneratorOptions() []model.GeneratorOption {
	opts := make([]model.GeneratorOption, 0, 3)
	if c.Gemini.BaseURL != "" {
		opts = append(opts, model.WithURL(c.Gemini.BaseURL))
	}
	if c.Gemini.Temperature != nil {
		opts = append(opts, model.WithTemperature(*c.Gemini.Temperature))
	}
	if c.Gemini.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*c.Gemini.MaxTokens))
	}
	return opts
}
