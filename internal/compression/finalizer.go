package compression

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/marketingax/pdf-generator-service/internal/common"
)

// finalizer saves a rewritten document with structural optimization and
// enforces the never-larger-than-original guarantee. Every failure path
// degrades to the original input file; finalize never reports an error to
// its caller.
type finalizer struct {
	logger *slog.Logger
}

// finalize writes the document, optimizes it, and compares sizes. The
// structural pass (dead object removal, duplicate elimination, stream
// deflate) always runs, even with zero image substitutions, since it can
// shrink documents on its own. When the output is not strictly smaller
// than the input it is deleted and the original path is the result.
func (f *finalizer) finalize(ctx *model.Context, inputPath, outputPath, scratchDir string, imagesReplaced int) Result {
	inputSize := fileSize(inputPath)
	fallback := Result{
		OutputPath:     inputPath,
		InputSize:      inputSize,
		OutputSize:     inputSize,
		ImagesReplaced: imagesReplaced,
		UsedFallback:   true,
	}

	rewritten := filepath.Join(scratchDir, "rewritten.pdf")
	if err := api.WriteContextFile(ctx, rewritten); err != nil {
		f.logger.Error("failed to write rewritten document",
			"input", inputPath, "error", err)
		return fallback
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.OptimizeFile(rewritten, outputPath, conf); err != nil {
		f.logger.Warn("structural optimization failed, using plain rewrite",
			"input", inputPath, "error", err)
		if err := common.CopyFile(rewritten, outputPath); err != nil {
			f.logger.Error("failed to write output document",
				"output", outputPath, "error", err)
			f.removeIfDistinct(outputPath, inputPath)
			return fallback
		}
	}

	outputSize := fileSize(outputPath)
	if outputSize <= 0 || outputSize >= inputSize {
		// Compression attempted, no benefit. Not an error.
		f.logger.Info("compression did not reduce file size, keeping original",
			"input", inputPath,
			"input_size", FormatFileSize(inputSize),
			"output_size", FormatFileSize(outputSize))
		f.removeIfDistinct(outputPath, inputPath)
		return fallback
	}

	return Result{
		OutputPath:     outputPath,
		InputSize:      inputSize,
		OutputSize:     outputSize,
		ImagesReplaced: imagesReplaced,
		UsedFallback:   false,
	}
}

// removeIfDistinct deletes a candidate output file unless it is the input
// itself. The input file is never deleted; its cleanup belongs to the
// caller.
func (f *finalizer) removeIfDistinct(outputPath, inputPath string) {
	if outputPath == inputPath {
		return
	}
	if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("failed to remove discarded output", "path", outputPath, "error", err)
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
