package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/internal/config"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/service"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/stretchr/testify/suite"
)

type stubService struct {
	mu          sync.Mutex
	summarized  []string
	transcribed []string
	result      model.PipelineResult
}

func (s *stubService) SaveCredential(string) error { return nil }

func (s *stubService) ClearCredential() error { return nil }

func (s *stubService) Summarize(_ context.Context, file *model.SourceFile) (model.PipelineResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summarized = append(s.summarized, file.Name)
	if s.result.Kind != "" {
		return s.result, nil
	}
	return model.NewStructuredResult(model.Summary{MyArgument: "X", OtherArgument: "Y", Context: "Z"}), nil
}

func (s *stubService) Transcribe(_ context.Context, file *model.SourceFile) (model.PipelineResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcribed = append(s.transcribed, file.Name)
	return model.NewTranscriptResult("Speaker 1: hi"), nil
}

var _ service.Service = (*stubService)(nil)

type WatcherSuite struct {
	suite.Suite
	input  string
	output string
}

func TestWatcherSuite(t *testing.T) {
	suite.Run(t, new(WatcherSuite))
}

func (s *WatcherSuite) SetupTest() {
	root := s.T().TempDir()
	s.input = filepath.Join(root, "input")
	s.output = filepath.Join(root, "output")
}

func (s *WatcherSuite) TestIsCandidate() {
	s.True(isCandidate("/in/minutes.txt"))
	s.True(isCandidate("/in/call.mp3"))
	s.False(isCandidate("/in/.DS_Store"))
	s.False(isCandidate("/in/call.mp3.part"))
	s.False(isCandidate("/in/notes.txt~"))
	s.False(isCandidate("/in/download.crdownload"))
}

func (s *WatcherSuite) TestNewRequiresHandler() {
	_, err := New(s.input, nil, 1)
	s.Error(err)
}

func (s *WatcherSuite) TestNewFileIsHandled() {
	seen := make(chan string, 4)
	w, err := New(s.input, func(_ context.Context, path string) error {
		seen <- filepath.Base(path)
		return nil
	}, 1, WithSettleDelay(10*time.Millisecond))
	s.Require().NoError(err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	s.Require().NoError(os.WriteFile(filepath.Join(s.input, ".hidden"), []byte("x"), 0o644))
	s.Require().NoError(os.WriteFile(filepath.Join(s.input, "minutes.txt"), []byte("x"), 0o644))

	select {
	case name := <-seen:
		s.Equal("minutes.txt", name)
	case <-time.After(5 * time.Second):
		s.FailNow("handler was not called")
	}

	cancel()
	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		s.FailNow("watcher did not stop")
	}
	s.Empty(seen)
}

func (s *WatcherSuite) TestInboxHandlerAutoSummarizesText() {
	svc := &stubService{}
	path := s.writeInput("minutes.txt", []byte("Alice argued X."))

	err := NewInboxHandler(svc, config.WatchModeAuto, s.output)(context.Background(), path)

	s.Require().NoError(err)
	s.Equal([]string{"minutes.txt"}, svc.summarized)
	data, err := os.ReadFile(filepath.Join(s.output, "minutes_summary.txt"))
	s.Require().NoError(err)
	s.Contains(string(data), "My argument:\nX")
}

func (s *WatcherSuite) TestInboxHandlerAutoTranscribesAudio() {
	svc := &stubService{}
	path := s.writeInput("call.mp3", []byte{0x00, 0x01, 0x02})

	err := NewInboxHandler(svc, config.WatchModeAuto, s.output)(context.Background(), path)

	s.Require().NoError(err)
	s.Equal([]string{"call.mp3"}, svc.transcribed)
	entries, err := os.ReadDir(s.output)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.True(strings.HasPrefix(entries[0].Name(), "STT_"))
}

func (s *WatcherSuite) TestInboxHandlerTranscribeModeSkipsText() {
	svc := &stubService{}
	path := s.writeInput("minutes.txt", []byte("x"))

	err := NewInboxHandler(svc, config.WatchModeTranscribe, s.output)(context.Background(), path)

	s.Require().NoError(err)
	s.Empty(svc.transcribed)
	s.Empty(svc.summarized)
}

func (s *WatcherSuite) TestInboxHandlerSummarizeModeSummarizesAudio() {
	svc := &stubService{}
	path := s.writeInput("call.wav", []byte{0x00, 0x01})

	err := NewInboxHandler(svc, config.WatchModeSummarize, s.output)(context.Background(), path)

	s.Require().NoError(err)
	s.Equal([]string{"call.wav"}, svc.summarized)
}

func (s *WatcherSuite) TestInboxHandlerReportsFailure() {
	svc := &stubService{result: model.NewFailedResult("quota exceeded")}
	path := s.writeInput("minutes.txt", []byte("x"))

	err := NewInboxHandler(svc, config.WatchModeAuto, s.output)(context.Background(), path)

	s.Require().Error(err)
	s.Contains(err.Error(), "quota exceeded")
	s.NoDirExists(s.output)
}

func (s *WatcherSuite) TestInboxHandlerMissingFile() {
	err := NewInboxHandler(&stubService{}, config.WatchModeAuto, s.output)(context.Background(), filepath.Join(s.input, "gone.txt"))

	s.Require().Error(err)
	s.False(errors.Is(err, service.ErrNotAudio))
}

func (s *WatcherSuite) writeInput(name string, content []byte) string {
	s.Require().NoError(os.MkdirAll(s.input, 0o755))
	path := filepath.Join(s.input, name)
	s.Require().NoError(os.WriteFile(path, content, 0o644))
	return path
}
