package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/storage"
)

func TestWorkspaceWatcher_ReloadsOnConfigWrite(t *testing.T) {
	root := t.TempDir()
	if err := storage.NewFilesystemRepository(root).Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	reloaded := make(chan string, 1)
	watcher, err := NewWorkspaceWatcher(root, 50*time.Millisecond, func(path string) {
		select {
		case reloaded <- path:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWorkspaceWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)

	configPath := filepath.Join(root, storage.FlowDir, storage.ConfigFile)
	if err := os.WriteFile(configPath, []byte("board:\n  id: \"7\"\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	select {
	case path := <-reloaded:
		if filepath.Base(path) != storage.ConfigFile {
			t.Fatalf("expected config change, got %q", path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestIsWorkspaceInput(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/ws/.flowmetrics/config.yaml", true},
		{"/ws/.flowmetrics/states.json", true},
		{"/ws/.flowmetrics/reports/run-1.yaml", false},
		{"/ws/.flowmetrics/scratch.txt", false},
	}

	for _, tt := range tests {
		if got := isWorkspaceInput(tt.path); got != tt.want {
			t.Errorf("isWorkspaceInput(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWorkspaceWatcher_IgnoresReportWrites(t *testing.T) {
	root := t.TempDir()
	if err := storage.NewFilesystemRepository(root).Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	reloaded := make(chan string, 1)
	watcher, err := NewWorkspaceWatcher(root, 50*time.Millisecond, func(path string) {
		select {
		case reloaded <- path:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWorkspaceWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	otherPath := filepath.Join(root, storage.FlowDir, "scratch.txt")
	if err := os.WriteFile(otherPath, []byte("ignored"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case path := <-reloaded:
		t.Fatalf("unexpected reload for %q", path)
	case <-time.After(300 * time.Millisecond):
	}
}
