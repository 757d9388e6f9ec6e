package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"jobgate/internal/errors"
)

// PromptWatcher hot-reloads the system prompt when its file changes.
// Watches the parent directory rather than the file itself so editors that
// replace the file (rename-over-write) keep triggering events.
type PromptWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *errors.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending *time.Timer
	done    chan struct{}
}

// NewPromptWatcher creates a watcher for the given prompt file. Returns nil
// without error when path is empty (no file-based prompt configured).
func NewPromptWatcher(path string, logger *errors.Logger) (*PromptWatcher, error) {
	if path == "" {
		return nil, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to create prompt file watcher", err)
	}

	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to watch prompt file directory", err).
			WithContext("path", path)
	}

	return &PromptWatcher{
		path:     path,
		watcher:  w,
		logger:   logger,
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the watch loop until the context is cancelled or Close is called.
func (pw *PromptWatcher) Start(ctx context.Context) {
	go pw.loop(ctx)
}

func (pw *PromptWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-pw.done:
			return
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(pw.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pw.scheduleReload()
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			pw.logger.Warn("prompt watcher error", "error", err.Error())
		}
	}
}

// scheduleReload coalesces bursts of filesystem events into one reload.
func (pw *PromptWatcher) scheduleReload() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.pending != nil {
		pw.pending.Stop()
	}
	pw.pending = time.AfterFunc(pw.debounce, pw.reload)
}

func (pw *PromptWatcher) reload() {
	data, err := os.ReadFile(pw.path)
	if err != nil {
		pw.logger.Warn("failed to reload system prompt, keeping current", "path", pw.path, "error", err.Error())
		return
	}
	if strings.TrimSpace(string(data)) == "" {
		pw.logger.Warn("system prompt file is empty, keeping current", "path", pw.path)
		return
	}

	setActiveSystemPrompt(string(data))
	pw.logger.Info("system prompt reloaded", "path", pw.path, "bytes", len(data))
}

// Close stops the watch loop and releases the fsnotify watcher.
func (pw *PromptWatcher) Close() error {
	pw.mu.Lock()
	if pw.pending != nil {
		pw.pending.Stop()
	}
	pw.mu.Unlock()

	select {
	case <-pw.done:
	default:
		close(pw.done)
	}
	return pw.watcher.Close()
}
