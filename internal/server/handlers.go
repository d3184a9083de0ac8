package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketingax/pdf-generator-service/internal/common"
	"github.com/marketingax/pdf-generator-service/internal/concurrency"
	"github.com/marketingax/pdf-generator-service/internal/generator"
	"github.com/marketingax/pdf-generator-service/internal/storage"
)

// handleWebhook is the main entry point: it validates the payload,
// renders the template PDF, compresses it when enabled, records the file
// and responds with its download URL.
func (s *Server) handleWebhook(c *gin.Context) {
	var req generator.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payload must be a JSON object"})
		return
	}
	if err := req.Validate(); err != nil {
		s.logger.Warn("bad webhook request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fileID := common.GenerateUUID()
	filename := fileID + ".pdf"
	path := filepath.Join(s.cfg.UploadDir, filename)

	s.logger.Info("generating PDF", "title", req.Title, "file_id", fileID)

	if err := s.gen.Generate(req, path); err != nil {
		s.logger.Error("PDF generation failed", "file_id", fileID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "An unexpected error occurred while generating the PDF",
		})
		return
	}

	record := &storage.FileRecord{
		ID:               fileID,
		Filename:         filename,
		Title:            req.Title,
		CompressionLevel: s.cfg.CompressionLevel,
		CreatedAt:        time.Now().UTC(),
		ExpiresAt:        time.Now().UTC().Add(s.cfg.MaxFileAge),
	}

	if s.cfg.CompressionEnabled {
		result, err := s.pool.Process(concurrency.Job{
			ID:        fileID,
			InputPath: path,
			Level:     s.cfg.CompressionLevel,
		})
		if err != nil {
			s.logger.Error("compression job failed", "file_id", fileID, "error", err)
		} else {
			record.OriginalSize = result.InputSize
			record.ImagesReplaced = result.ImagesReplaced
			record.UsedFallback = result.UsedFallback
			// The compressor never touches its input. Replacing the
			// original with the smaller output is this caller's job.
			if result.OutputPath != path {
				if err := os.Remove(path); err == nil {
					if err := os.Rename(result.OutputPath, path); err != nil {
						s.logger.Error("failed to move compressed file", "file_id", fileID, "error", err)
					}
				}
			}
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		s.logger.Error("generated file missing", "path", path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	record.FinalSize = info.Size()
	if record.OriginalSize == 0 {
		record.OriginalSize = info.Size()
	}

	if s.store != nil {
		if err := s.store.SaveRecord(record); err != nil {
			s.logger.Warn("failed to save file record", "file_id", fileID, "error", err)
		}
	}

	s.logger.Info("PDF generated successfully",
		"filename", filename, "file_size", info.Size())

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "PDF generated successfully",
		"file_id":      fileID,
		"filename":     filename,
		"download_url": s.downloadURL(c, filename),
		"file_size":    info.Size(),
		"compressed":   s.cfg.CompressionEnabled,
		"expires_at":   record.ExpiresAt.Format(time.RFC3339),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleDownload serves a generated PDF as an attachment. Filenames must
// be exactly "<uuid>.pdf".
func (s *Server) handleDownload(c *gin.Context) {
	filename := c.Param("filename")
	if !validPDFName(filename) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid filename format"})
		return
	}

	path := filepath.Join(s.cfg.UploadDir, filename)
	if _, err := os.Stat(path); err != nil {
		s.logger.Warn("requested file not found", "filename", filename)
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found or has expired"})
		return
	}

	s.logger.Info("serving file", "filename", filename)
	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(path, "template_"+filename)
}

// handleStatus reports whether a generated file is still available and
// when it expires.
func (s *Server) handleStatus(c *gin.Context) {
	fileID := c.Param("fileID")
	filename := fileID + ".pdf"
	if !validPDFName(filename) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found or has expired"})
		return
	}

	path := filepath.Join(s.cfg.UploadDir, filename)
	info, err := os.Stat(path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found or has expired"})
		return
	}

	created := info.ModTime().UTC()
	if s.store != nil {
		if rec, err := s.store.GetRecord(fileID); err == nil {
			created = rec.CreatedAt.UTC()
		}
	}
	expires := created.Add(s.cfg.MaxFileAge)

	status := "available"
	if time.Now().UTC().After(expires) {
		status = "expired"
	}

	c.JSON(http.StatusOK, gin.H{
		"file_id":      fileID,
		"filename":     filename,
		"file_size":    info.Size(),
		"created_at":   created.Format(time.RFC3339),
		"expires_at":   expires.Format(time.RFC3339),
		"download_url": s.downloadURL(c, filename),
		"status":       status,
	})
}

// handleHealth probes the upload directory for writability.
func (s *Server) handleHealth(c *gin.Context) {
	probe := filepath.Join(s.cfg.UploadDir, ".health_check")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		s.logger.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	os.Remove(probe)

	resp := gin.H{
		"status":              "healthy",
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
		"upload_directory":    s.cfg.UploadDir,
		"compression_enabled": s.cfg.CompressionEnabled,
	}
	if s.store != nil {
		if stats, err := s.store.Stats(); err == nil {
			resp["total_files"] = stats.TotalFiles
			resp["total_bytes_saved"] = stats.TotalBytesSaved
		}
	}
	c.JSON(http.StatusOK, resp)
}

// downloadURL builds the externally visible download link, forcing https
// unless the service is configured with an explicit base URL.
func (s *Server) downloadURL(c *gin.Context, filename string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/download/" + filename
	}
	host := c.Request.Host
	if host == "" {
		host = s.cfg.Addr()
	}
	return "https://" + host + "/download/" + filename
}

// validPDFName accepts exactly "<uuid>.pdf" (36-char UUID + 4-char
// extension).
func validPDFName(filename string) bool {
	if len(filename) != 40 || !strings.HasSuffix(filename, ".pdf") {
		return false
	}
	return common.IsValidUUID(strings.TrimSuffix(filename, ".pdf"))
}
