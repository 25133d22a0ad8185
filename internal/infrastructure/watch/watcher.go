package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/storage"
	"github.com/fsnotify/fsnotify"
)

// WorkspaceWatcher watches the .flowmetrics directory and invokes a callback
// when the configuration or state overrides change, so a running analysis
// loop can re-run with fresh settings. Report and audit output files are
// ignored to avoid re-triggering on our own writes.
type WorkspaceWatcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(path string)
}

// NewWorkspaceWatcher creates a watcher for a workspace root. The callback
// receives the path that changed, debounced over rapid bursts of writes.
func NewWorkspaceWatcher(root string, debounce time.Duration, onReload func(path string)) (*WorkspaceWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	return &WorkspaceWatcher{
		root:     root,
		watcher:  w,
		debounce: debounce,
		onReload: onReload,
	}, nil
}

// isWorkspaceInput reports whether the path is one of the files the analysis
// reads: the config or the state overrides. Everything else in .flowmetrics
// is engine output.
func isWorkspaceInput(path string) bool {
	switch filepath.Base(path) {
	case storage.ConfigFile, storage.StatesFile:
		return true
	}
	return false
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *WorkspaceWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(filepath.Join(w.root, storage.FlowDir)); err != nil {
		return fmt.Errorf("watch workspace: %w", err)
	}

	notify := w.onReload
	if notify == nil {
		notify = func(string) {}
	}
	debouncer := NewDebouncer(w.debounce, notify)
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Remove) {
				continue
			}
			if !isWorkspaceInput(event.Name) {
				continue
			}
			debouncer.Trigger(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}
