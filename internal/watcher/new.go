package watcher

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultMaxConcurrent = 2
	defaultSettleDelay   = 500 * time.Millisecond
)

type Option func(*implWatcher)

// WithSettleDelay sets how long to wait after a create event before the file
// is assumed to be fully written.
func WithSettleDelay(d time.Duration) Option {
	return func(w *implWatcher) {
		w.settleDelay = d
	}
}

// New watches inputDir, creating it when missing. At most maxConcurrent files
// are handled at once.
func New(inputDir string, handler EventHandler, maxConcurrent int, opts ...Option) (Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create input dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	w := &implWatcher{
		inputDir:      inputDir,
		handler:       handler,
		watcher:       watcher,
		maxConcurrent: maxConcurrent,
		semaphore:     make(chan struct{}, maxConcurrent),
		settleDelay:   defaultSettleDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}
