package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"rexpaces/internal/logging"
)

// DefaultSettleDelay gives writers time to finish a file before it is read.
const DefaultSettleDelay = 500 * time.Millisecond

// Handler processes one transcript that appeared in the inbox.
type Handler func(ctx context.Context, path string) error

// Watcher reports new transcript files dropped into an inbox directory and
// hands them to a Handler one at a time.
type Watcher struct {
	dir     string
	handler Handler
	logger  *slog.Logger
	settle  time.Duration
	fs      *fsnotify.Watcher

	mu   sync.Mutex
	seen map[string]struct{}
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithSettleDelay overrides the pause between a create event and processing.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.settle = d
		}
	}
}

// New starts watching dir. Call Run to process events and Close to release
// the watch.
func New(dir string, handler Handler, logger *slog.Logger, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watcher handler required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	w := &Watcher{
		dir:     dir,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "watcher"),
		settle:  DefaultSettleDelay,
		fs:      fsw,
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run blocks until ctx is cancelled. Transcripts are handled sequentially in
// arrival order; a handler error is logged and the watcher keeps going.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("inbox watcher started", logging.String("dir", w.dir))

	work := make(chan string, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for path := range work {
			w.process(ctx, path)
		}
	}()
	defer func() {
		close(work)
		wg.Wait()
		w.logger.Info("inbox watcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !IsTranscript(event.Name) {
				w.logger.Debug("ignoring non-transcript file", logging.String("path", event.Name))
				continue
			}
			if !w.markSeen(event.Name) {
				continue
			}
			w.logger.Info("new transcript detected", logging.String("path", event.Name))
			select {
			case work <- event.Name:
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logging.WarnWithContext(w.logger, "inbox watch error", "watcher_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some inbox events may be missed"),
			)
		}
	}
}

// Close stops the underlying filesystem watch.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) process(ctx context.Context, path string) {
	if w.settle > 0 {
		timer := time.NewTimer(w.settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	if ctx.Err() != nil {
		return
	}
	if err := w.handler(ctx, path); err != nil {
		logging.ErrorWithContext(w.logger, "transcript processing failed", "inbox_process_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the transcript or backend and drop the file again"),
		)
	}
}

func (w *Watcher) markSeen(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[path]; ok {
		return false
	}
	w.seen[path] = struct{}{}
	return true
}

// IsTranscript reports whether path looks like a transcript JSON file.
// Hidden files and editor temp files are skipped.
func IsTranscript(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".json")
}
