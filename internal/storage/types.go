package storage

import "time"

// FileRecord is the database model for one generated file.
type FileRecord struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	Filename         string    `json:"filename"`
	Title            string    `json:"title"`
	OriginalSize     int64     `json:"original_size"`
	FinalSize        int64     `json:"final_size"`
	ImagesReplaced   int       `json:"images_replaced"`
	UsedFallback     bool      `json:"used_fallback"`
	CompressionLevel int       `json:"compression_level"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// AggregateStats summarizes all recorded files.
type AggregateStats struct {
	TotalFiles      int64 `json:"total_files"`
	TotalBytesSaved int64 `json:"total_bytes_saved"`
}
