package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/fsnotify/fsnotify"
)

type implWatcher struct {
	inputDir      string
	handler       EventHandler
	watcher       *fsnotify.Watcher
	maxConcurrent int
	semaphore     chan struct{}
	settleDelay   time.Duration
	wg            sync.WaitGroup
}

// Start blocks until ctx is done, then waits for in-flight files.
func (w *implWatcher) Start(ctx context.Context) error {
	log := logging.NewLogger(ctx)
	log.Infof("inbox watcher started (max concurrent: %d), monitoring %s", w.maxConcurrent, w.inputDir)

	for {
		select {
		case <-ctx.Done():
			log.Infof("waiting for ongoing runs to complete")
			w.wg.Wait()
			log.Infof("inbox watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.wg.Wait()
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !isCandidate(event.Name) {
				log.Debugf("ignoring %s", event.Name)
				continue
			}
			log.Infof("new file detected: %s", event.Name)

			select {
			case w.semaphore <- struct{}{}:
			case <-ctx.Done():
				continue
			}
			w.wg.Add(1)
			go w.handle(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.wg.Wait()
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Errorf("watcher error: %v", err)
		}
	}
}

func (w *implWatcher) handle(ctx context.Context, path string) {
	defer w.wg.Done()
	defer func() { <-w.semaphore }()

	ctx = logging.WithFields(ctx, map[string]any{"inbox_file": filepath.Base(path)})
	log := logging.NewLogger(ctx)
	if w.settleDelay > 0 {
		select {
		case <-time.After(w.settleDelay):
		case <-ctx.Done():
			return
		}
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		log.Debugf("skipping %s: not a regular file", path)
		return
	}
	if err := w.handler(ctx, path); err != nil {
		log.Errorf("failed to process %s: %v", path, err)
	}
}

func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// isCandidate skips hidden files and partial downloads.
func isCandidate(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tmp", ".part", ".crdownload", ".swp":
		return false
	}
	return true
}
