package retention

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeAgedFile(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Failed to age %s: %v", name, err)
	}
	return path
}

func TestSweepOnceRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	expired := writeAgedFile(t, dir, "old.pdf", 48*time.Hour)
	fresh := writeAgedFile(t, dir, "new.pdf", time.Hour)

	s := NewSweeper(dir, 24*time.Hour, time.Minute, nil, testLogger())
	stats := s.SweepOnce()

	if stats.FilesRemoved != 1 {
		t.Errorf("Expected 1 file removed, got %d", stats.FilesRemoved)
	}
	if stats.FilesKept != 1 {
		t.Errorf("Expected 1 file kept, got %d", stats.FilesKept)
	}
	if stats.BytesFreed != int64(len("content")) {
		t.Errorf("Expected %d bytes freed, got %d", len("content"), stats.BytesFreed)
	}
	if _, err := os.Stat(expired); !os.IsNotExist(err) {
		t.Error("Expired file still present")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("Fresh file was removed")
	}
}

func TestSweepOnceSkipsHiddenAndTempNames(t *testing.T) {
	dir := t.TempDir()
	hidden := writeAgedFile(t, dir, ".health_check", 48*time.Hour)
	temp := writeAgedFile(t, dir, "temp_work.pdf", 48*time.Hour)
	if err := os.Mkdir(filepath.Join(dir, "temp"), 0755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	s := NewSweeper(dir, 24*time.Hour, time.Minute, nil, testLogger())
	stats := s.SweepOnce()

	if stats.FilesRemoved != 0 {
		t.Errorf("Expected no files removed, got %d", stats.FilesRemoved)
	}
	for _, path := range []string{hidden, temp} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Protected file %s was removed", filepath.Base(path))
		}
	}
}

func TestSweepOnceMissingDirectory(t *testing.T) {
	s := NewSweeper(filepath.Join(t.TempDir(), "missing"), 24*time.Hour, time.Minute, nil, testLogger())
	stats := s.SweepOnce()

	if stats.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", stats.Errors)
	}
	if stats.FilesRemoved != 0 {
		t.Errorf("Expected no files removed, got %d", stats.FilesRemoved)
	}
}

func TestSweeperStartStop(t *testing.T) {
	s := NewSweeper(t.TempDir(), 24*time.Hour, 10*time.Millisecond, nil, testLogger())

	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	// Stop after Stop is a no-op.
	s.Stop()
}

func TestSweeperStopsOnContextCancel(t *testing.T) {
	s := NewSweeper(t.TempDir(), 24*time.Hour, 10*time.Millisecond, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("Sweeper did not exit after context cancellation")
	}
}
