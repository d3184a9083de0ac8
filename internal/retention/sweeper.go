package retention

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marketingax/pdf-generator-service/internal/compression"
	"github.com/marketingax/pdf-generator-service/internal/storage"
)

// SweepStats reports what one cleanup pass did.
type SweepStats struct {
	FilesRemoved int   `json:"files_removed"`
	FilesKept    int   `json:"files_kept"`
	BytesFreed   int64 `json:"bytes_freed"`
	Errors       int   `json:"errors"`
}

// Sweeper removes generated files older than the retention window. It is
// an explicitly owned background task: Start launches it with a context
// and Stop cancels and waits for it to drain.
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	store    *storage.Store
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a sweeper for dir. store may be nil when no record
// database is attached.
func NewSweeper(dir string, maxAge, interval time.Duration, store *storage.Store, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		store:    store,
		logger:   logger,
	}
}

// Start launches the background sweep loop. Calling Start on a running
// sweeper restarts it.
func (s *Sweeper) Start(ctx context.Context) {
	s.Stop()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)

	s.logger.Info("retention sweeper started",
		"dir", s.dir,
		"max_age", s.maxAge.String(),
		"interval", s.interval.String())
}

// Stop cancels the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.logger.Info("retention sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := s.SweepOnce()
			if stats.FilesRemoved > 0 || stats.Errors > 0 {
				s.logger.Info("cleanup cycle finished",
					"files_removed", stats.FilesRemoved,
					"files_kept", stats.FilesKept,
					"bytes_freed", compression.FormatFileSize(stats.BytesFreed),
					"errors", stats.Errors)
			}
		}
	}
}

// SweepOnce runs a single cleanup pass and returns its statistics. Files
// younger than the retention window, hidden files and temp names are kept.
func (s *Sweeper) SweepOnce() SweepStats {
	var stats SweepStats
	cutoff := time.Now().Add(-s.maxAge)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("cleanup directory unavailable", "dir", s.dir, "error", err)
		stats.Errors++
		return stats
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "temp_") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			stats.Errors++
			continue
		}

		if info.ModTime().After(cutoff) {
			stats.FilesKept++
			continue
		}

		path := filepath.Join(s.dir, name)
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to remove expired file", "path", path, "error", err)
			stats.Errors++
			continue
		}
		stats.FilesRemoved++
		stats.BytesFreed += info.Size()
		s.logger.Debug("removed expired file", "name", name, "size", info.Size())
	}

	if s.store != nil {
		if removed, err := s.store.DeleteExpired(time.Now()); err != nil {
			s.logger.Warn("failed to delete expired records", "error", err)
			stats.Errors++
		} else if removed > 0 {
			s.logger.Debug("deleted expired records", "count", removed)
		}
	}

	return stats
}
