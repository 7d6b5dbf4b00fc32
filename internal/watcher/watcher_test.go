package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openclaw/modelsproxy/internal/config"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 8000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *config.Config, 1)
	w, err := NewWatcher(path, func(cfg *config.Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err = w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = w.Stop()
	}()

	if err = os.WriteFile(path, []byte("port: 9100\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Port != 9100 {
			t.Errorf("reloaded Port = %d, want 9100", cfg.Port)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatcherSkipsUnchangedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 8000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloads := make(chan struct{}, 4)
	w, err := NewWatcher(path, func(*config.Config) {
		reloads <- struct{}{}
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err = w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = w.Stop()
	}()

	// Rewriting identical content fires a write event but must not reload.
	if err = os.WriteFile(path, []byte("port: 8000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloads:
		t.Error("identical content triggered a reload")
	case <-time.After(500 * time.Millisecond):
	}
}
