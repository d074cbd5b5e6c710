package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/internal/config"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/credential"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/mcp"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/report"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/server"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/service"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/watcher"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/encoder"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
)

const usage = `usage: brief [-config FILE] <command> [args]

commands:
  summarize FILE             summarize a text or audio file
  transcribe [-o DIR] FILE   transcribe an audio file, optionally saving the report into DIR
  key set KEY                store the Gemini API key
  key clear                  remove the stored Gemini API key
  serve                      run the HTTP API
  watch                      summarize or transcribe files dropped into the inbox directory
  mcp                        serve the summarize and transcribe tools over MCP on stdio
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg   *config.Config
	store credential.Store
	svc   service.Service
	out   io.Writer
}

func run(args []string, out io.Writer) error {
	global := flag.NewFlagSet("brief", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	configPath := global.String("config", envOr(config.EnvConfigPath, config.DefaultPath), "path to the YAML config file")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("a command is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := logging.Configure(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	store, err := credential.New(cfg.Credential.Path)
	if err != nil {
		return err
	}
	svc, err := service.New(cfg, store)
	if err != nil {
		return err
	}
	a := &app{cfg: cfg, store: store, svc: svc, out: out}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "summarize":
		return a.summarize(ctx, rest)
	case "transcribe":
		return a.transcribe(ctx, rest)
	case "key":
		return a.key(rest)
	case "serve":
		return a.serve(ctx)
	case "watch":
		return a.watch(ctx)
	case "mcp":
		return mcp.ServeStdio(a.svc)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) summarize(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: brief summarize FILE")
	}
	file, err := encoder.Load(args[0])
	if err != nil {
		return err
	}

	result, err := a.svc.Summarize(ctx, file)
	if err != nil {
		return err
	}
	return a.print(result)
}

func (a *app) transcribe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transcribe", flag.ContinueOnError)
	outDir := fs.String("o", "", "directory to save the transcript report into")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: brief transcribe [-o DIR] FILE")
	}

	file, err := encoder.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	result, err := a.svc.Transcribe(ctx, file)
	if err != nil {
		return err
	}
	if result.IsFailed() || *outDir == "" {
		return a.print(result)
	}

	path, err := report.WriteTranscript(*outDir, file.Name, time.Now(), report.Text(result))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "transcript from %s saved to %s\n", result.Model, path)
	return nil
}

func (a *app) key(args []string) error {
	if len(args) == 1 && args[0] == "clear" {
		if err := a.svc.ClearCredential(); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "API key removed from %s\n", a.store.Path())
		return nil
	}
	if len(args) != 2 || args[0] != "set" {
		return errors.New("usage: brief key set KEY | brief key clear")
	}
	if err := a.svc.SaveCredential(args[1]); err != nil {
		if errors.Is(err, credential.ErrEmptyCredential) {
			return errors.New("please enter an API key")
		}
		return err
	}
	fmt.Fprintf(a.out, "API key saved to %s\n", a.store.Path())
	return nil
}

func (a *app) serve(ctx context.Context) error {
	srv := server.New(a.cfg, a.svc)

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Run() }()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logging.NewLogger(ctx).Infof("shutdown signal received")
		return srv.Shutdown()
	}
}

func (a *app) watch(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.Watch.Output, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	handler := watcher.NewInboxHandler(a.svc, a.cfg.Watch.Mode, a.cfg.Watch.Output)
	w, err := watcher.New(a.cfg.Watch.Input, handler, a.cfg.Watch.MaxConcurrent)
	if err != nil {
		return err
	}
	defer w.Stop()

	log := logging.NewLogger(ctx)
	log.Infof("watching %s (mode %s), reports go to %s; press Ctrl+C to stop", a.cfg.Watch.Input, a.cfg.Watch.Mode, a.cfg.Watch.Output)
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *app) print(result model.PipelineResult) error {
	if result.IsFailed() {
		return errors.New(report.FailureMessage(result))
	}
	fmt.Fprintf(a.out, "[%s via %s]\n\n%s\n", result.Kind, result.Model, report.Text(result))
	return nil
}

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
