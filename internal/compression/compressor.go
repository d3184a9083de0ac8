package compression

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Compressor shrinks PDF files by re-encoding embedded images and applying
// structural save-time optimization. It is safe for concurrent use; each
// call operates on its own document handle and scratch directory.
type Compressor struct {
	logger *slog.Logger
}

// NewCompressor creates a new compressor instance.
func NewCompressor(logger *slog.Logger) *Compressor {
	return &Compressor{logger: logger}
}

// Compress compresses inputPath at the given level and returns the path of
// the resulting file. The returned path always exists: it is either a new,
// strictly smaller file or the untouched input when compression brought no
// benefit or failed. The input file is never deleted.
func (c *Compressor) Compress(inputPath string, level int) (string, error) {
	result, err := c.CompressWithResult(inputPath, level)
	if err != nil {
		return inputPath, err
	}
	return result.OutputPath, nil
}

// CompressWithResult is Compress plus the full outcome record. Errors are
// returned only when the input path itself is unusable; every failure
// during processing degrades to a fallback result instead.
func (c *Compressor) CompressWithResult(inputPath string, level int) (Result, error) {
	inputSize := fileSize(inputPath)
	if inputSize == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidInput, inputPath)
	}

	tier := TierForLevel(level)
	c.logger.Info("compressing PDF",
		"input", inputPath,
		"level", level,
		"quality", tier.Quality,
		"max_dimension", tier.MaxDimension)

	fallback := Result{
		OutputPath:   inputPath,
		InputSize:    inputSize,
		OutputSize:   inputSize,
		UsedFallback: true,
	}

	scratchDir, err := os.MkdirTemp("", "pdfcompress-")
	if err != nil {
		c.logger.Error("failed to create scratch directory", "error", err)
		return fallback, nil
	}
	defer os.RemoveAll(scratchDir)

	ctx, err := api.ReadContextFile(inputPath)
	if err != nil {
		c.logger.Error("failed to open document", "input", inputPath, "error", err)
		return fallback, nil
	}

	replaced, _ := newRewriter(ctx, tier, c.logger).rewrite()

	fin := &finalizer{logger: c.logger}
	result := fin.finalize(ctx, inputPath, outputPathFor(inputPath), scratchDir, replaced)

	if result.UsedFallback {
		c.logger.Info("compression finished with fallback",
			"input", inputPath,
			"images_replaced", result.ImagesReplaced)
	} else {
		c.logger.Info("compression finished",
			"input", inputPath,
			"output", result.OutputPath,
			"input_size", FormatFileSize(result.InputSize),
			"output_size", FormatFileSize(result.OutputSize),
			"images_replaced", result.ImagesReplaced)
	}
	return result, nil
}

// outputPathFor derives the compressed filename next to the input, e.g.
// dir/file.pdf -> dir/file_compressed.pdf.
func outputPathFor(inputPath string) string {
	ext := filepath.Ext(inputPath)
	stem := strings.TrimSuffix(inputPath, ext)
	return stem + "_compressed" + ext
}
