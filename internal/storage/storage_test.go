package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return store
}

func testRecord(id string) *FileRecord {
	return &FileRecord{
		ID:               id,
		Filename:         id + ".pdf",
		Title:            "Test Flyer",
		OriginalSize:     100000,
		FinalSize:        40000,
		ImagesReplaced:   2,
		CompressionLevel: 3,
		CreatedAt:        time.Now(),
		ExpiresAt:        time.Now().Add(24 * time.Hour),
	}
}

func TestSaveAndGetRecord(t *testing.T) {
	store := openTestStore(t)

	rec := testRecord("abc-123")
	if err := store.SaveRecord(rec); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	got, err := store.GetRecord("abc-123")
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if got.Filename != "abc-123.pdf" {
		t.Errorf("Expected filename abc-123.pdf, got %s", got.Filename)
	}
	if got.OriginalSize != 100000 || got.FinalSize != 40000 {
		t.Errorf("Sizes not round-tripped: %d / %d", got.OriginalSize, got.FinalSize)
	}
	if got.ImagesReplaced != 2 {
		t.Errorf("Expected 2 images replaced, got %d", got.ImagesReplaced)
	}
}

func TestSaveRecordUpdatesExisting(t *testing.T) {
	store := openTestStore(t)

	rec := testRecord("abc-123")
	if err := store.SaveRecord(rec); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	rec.FinalSize = 30000
	if err := store.SaveRecord(rec); err != nil {
		t.Fatalf("Failed to update record: %v", err)
	}

	got, err := store.GetRecord("abc-123")
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if got.FinalSize != 30000 {
		t.Errorf("Expected updated final size 30000, got %d", got.FinalSize)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetRecord("missing")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	store := openTestStore(t)

	expired := testRecord("expired-1")
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	fresh := testRecord("fresh-1")

	for _, rec := range []*FileRecord{expired, fresh} {
		if err := store.SaveRecord(rec); err != nil {
			t.Fatalf("Failed to save record: %v", err)
		}
	}

	removed, err := store.DeleteExpired(time.Now())
	if err != nil {
		t.Fatalf("Failed to delete expired records: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 record removed, got %d", removed)
	}

	if _, err := store.GetRecord("expired-1"); !errors.Is(err, ErrRecordNotFound) {
		t.Error("Expired record still present")
	}
	if _, err := store.GetRecord("fresh-1"); err != nil {
		t.Errorf("Fresh record was removed: %v", err)
	}
}

func TestStats(t *testing.T) {
	store := openTestStore(t)

	compressed := testRecord("a")
	fallback := testRecord("b")
	fallback.UsedFallback = true
	fallback.FinalSize = fallback.OriginalSize

	for _, rec := range []*FileRecord{compressed, fallback} {
		if err := store.SaveRecord(rec); err != nil {
			t.Fatalf("Failed to save record: %v", err)
		}
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats.TotalFiles != 2 {
		t.Errorf("Expected 2 files, got %d", stats.TotalFiles)
	}
	if stats.TotalBytesSaved != 60000 {
		t.Errorf("Expected 60000 bytes saved, got %d", stats.TotalBytesSaved)
	}
}

func TestStatsEmptyStore(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats.TotalFiles != 0 || stats.TotalBytesSaved != 0 {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}
