package compression

import (
	"bytes"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// writeImagePDF builds a single-page PDF embedding one JPEG of the given
// dimensions, encoded at the given quality.
func writeImagePDF(t *testing.T, path string, width, height, quality int) {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, noiseImage(width, height), &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("Failed to encode fixture image: %v", err)
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.AddPage()
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("img1", opts, &buf)
	pdf.ImageOptions("img1", 36, 36, 540, 0, false, opts, 0, "")
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("Failed to write fixture PDF: %v", err)
	}
}

// writeTextPDF builds a single-page PDF with no images.
func writeTextPDF(t *testing.T, path string) {
	t.Helper()

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(72, 72, "No images in this document.")
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("Failed to write fixture PDF: %v", err)
	}
}

func mustSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat %s: %v", path, err)
	}
	return info.Size()
}

func TestCompressReplacesLargeImage(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "large.pdf")
	writeImagePDF(t, input, 1600, 1200, 95)
	inputSize := mustSize(t, input)

	c := NewCompressor(testLogger())
	result, err := c.CompressWithResult(input, 4)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.ImagesReplaced != 1 {
		t.Errorf("Expected 1 image replaced, got %d", result.ImagesReplaced)
	}
	if result.UsedFallback {
		t.Error("Expected compression to succeed without fallback")
	}
	if result.OutputSize >= inputSize {
		t.Errorf("Expected output smaller than input: %d >= %d", result.OutputSize, inputSize)
	}
	if !strings.HasSuffix(result.OutputPath, "_compressed.pdf") {
		t.Errorf("Unexpected output path: %s", result.OutputPath)
	}
	if mustSize(t, result.OutputPath) != result.OutputSize {
		t.Error("Reported output size does not match the file on disk")
	}

	// The input is never deleted.
	if _, err := os.Stat(input); err != nil {
		t.Errorf("Input file missing after compression: %v", err)
	}
}

func TestCompressLeavesSmallIconUntouched(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "icon.pdf")
	writeImagePDF(t, input, 50, 50, 90)
	inputSize := mustSize(t, input)

	c := NewCompressor(testLogger())
	result, err := c.CompressWithResult(input, 4)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.ImagesReplaced != 0 {
		t.Errorf("Expected no replacements for a 50x50 icon, got %d", result.ImagesReplaced)
	}
	if mustSize(t, result.OutputPath) > inputSize {
		t.Error("Output larger than input")
	}
}

func TestCompressTextOnlyDocument(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "text.pdf")
	writeTextPDF(t, input)
	inputSize := mustSize(t, input)

	c := NewCompressor(testLogger())
	result, err := c.CompressWithResult(input, 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.ImagesReplaced != 0 {
		t.Errorf("Expected no replacements, got %d", result.ImagesReplaced)
	}
	// Zero substitutions is not an error; the result must still point at a
	// real file no larger than the input.
	if mustSize(t, result.OutputPath) > inputSize {
		t.Error("Output larger than input")
	}
}

func TestCompressNeverLarger(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "doc.pdf")
	writeImagePDF(t, input, 800, 600, 80)
	inputSize := mustSize(t, input)

	c := NewCompressor(testLogger())
	for _, level := range []int{MinLevel, 2, MaxLevel} {
		path, err := c.Compress(input, level)
		if err != nil {
			t.Fatalf("Level %d: expected no error, got %v", level, err)
		}
		if mustSize(t, path) > inputSize {
			t.Errorf("Level %d: output larger than input", level)
		}
	}
}

func TestCompressTierOrdering(t *testing.T) {
	dir := t.TempDir()

	sizes := make(map[int]int64)
	for _, level := range []int{MinLevel, MaxLevel} {
		input := filepath.Join(dir, "tier.pdf")
		writeImagePDF(t, input, 1600, 1200, 95)

		c := NewCompressor(testLogger())
		result, err := c.CompressWithResult(input, level)
		if err != nil {
			t.Fatalf("Level %d: expected no error, got %v", level, err)
		}
		sizes[level] = mustSize(t, result.OutputPath)

		os.Remove(result.OutputPath)
		os.Remove(input)
	}

	if sizes[MaxLevel] > sizes[MinLevel] {
		t.Errorf("Expected maximum tier no larger than minimal tier: %d > %d",
			sizes[MaxLevel], sizes[MinLevel])
	}
}

func TestCompressFallbackIsStable(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "stable.pdf")
	writeTextPDF(t, input)

	c := NewCompressor(testLogger())
	first, err := c.CompressWithResult(input, 3)
	if err != nil {
		t.Fatalf("First pass failed: %v", err)
	}

	second, err := c.CompressWithResult(first.OutputPath, 3)
	if err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}

	// Once a pass hit the fallback branch, compressing its result again
	// must not change the final size.
	if first.UsedFallback && second.OutputSize != first.OutputSize {
		t.Errorf("Fallback result changed size on second pass: %d != %d",
			second.OutputSize, first.OutputSize)
	}
}

func TestCompressInvalidInput(t *testing.T) {
	c := NewCompressor(testLogger())
	if _, err := c.CompressWithResult(filepath.Join(t.TempDir(), "missing.pdf"), 3); err == nil {
		t.Error("Expected error for missing input file")
	}
}

func TestCompressCorruptInputFallsBack(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "corrupt.pdf")
	if err := os.WriteFile(input, []byte("%PDF-1.4 not really a pdf"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	c := NewCompressor(testLogger())
	result, err := c.CompressWithResult(input, 3)
	if err != nil {
		t.Fatalf("Expected graceful fallback, got error %v", err)
	}
	if !result.UsedFallback {
		t.Error("Expected fallback for a corrupt document")
	}
	if result.OutputPath != input {
		t.Errorf("Expected original path back, got %s", result.OutputPath)
	}
}

func TestOutputPathFor(t *testing.T) {
	got := outputPathFor(filepath.Join("dir", "file.pdf"))
	want := filepath.Join("dir", "file_compressed.pdf")
	if got != want {
		t.Errorf("outputPathFor = %q, expected %q", got, want)
	}
}
