package portfolio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWatchDebouncesWrites(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "content.yaml")
	if err := os.WriteFile(path, []byte("skills: []\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 50*time.Millisecond, func() { changes <- struct{}{} })
	}()
	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	other := filepath.Join(dir, "other.yaml")
	if err := os.WriteFile(other, []byte("x"), 0o600); err != nil {
		t.Fatalf("write other: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("skills: []\n"), 0o600); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
	}
	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatalf("expected change notification")
	}
	select {
	case <-changes:
		t.Fatalf("expected burst coalesced into one notification")
	case <-time.After(200 * time.Millisecond):
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watch did not stop")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "content.yaml"), 0, func() {})
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
