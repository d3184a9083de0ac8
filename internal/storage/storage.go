package storage

import (
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrRecordNotFound is returned when no record exists for a file ID.
var ErrRecordNotFound = errors.New("file record not found")

// Store persists per-request file records and aggregate statistics.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite database at dbPath and migrates the
// schema.
func Open(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&FileRecord{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// SaveRecord inserts or updates the record for one generated file.
func (s *Store) SaveRecord(rec *FileRecord) error {
	return s.db.Save(rec).Error
}

// GetRecord returns the record for a file ID.
func (s *Store) GetRecord(id string) (*FileRecord, error) {
	var rec FileRecord
	result := s.db.First(&rec, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &rec, nil
}

// DeleteExpired removes records whose expiry predates the cutoff and
// returns how many were removed.
func (s *Store) DeleteExpired(cutoff time.Time) (int64, error) {
	result := s.db.Where("expires_at < ?", cutoff).Delete(&FileRecord{})
	return result.RowsAffected, result.Error
}

// Stats aggregates totals across all recorded files.
func (s *Store) Stats() (*AggregateStats, error) {
	var stats AggregateStats

	if err := s.db.Model(&FileRecord{}).Count(&stats.TotalFiles).Error; err != nil {
		return nil, err
	}

	row := s.db.Model(&FileRecord{}).
		Select("COALESCE(SUM(original_size - final_size), 0)").
		Where("used_fallback = ?", false).
		Row()
	if err := row.Scan(&stats.TotalBytesSaved); err != nil {
		return nil, err
	}

	return &stats, nil
}
