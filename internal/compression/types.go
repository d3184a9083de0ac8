package compression

import "errors"

// Tier holds the settings applied to images at one compression level.
// Higher levels trade quality for size.
type Tier struct {
	Quality      int `json:"quality"`
	DPI          int `json:"dpi"`
	MaxDimension int `json:"max_dimension"`
}

// Result describes the outcome of one compression call.
type Result struct {
	OutputPath     string `json:"output_path"`
	InputSize      int64  `json:"input_size"`
	OutputSize     int64  `json:"output_size"`
	ImagesReplaced int    `json:"images_replaced"`
	UsedFallback   bool   `json:"used_fallback"`
}

// SavedBytes returns the net reduction achieved, zero when the call fell
// back to the original file.
func (r Result) SavedBytes() int64 {
	if r.UsedFallback || r.OutputSize >= r.InputSize {
		return 0
	}
	return r.InputSize - r.OutputSize
}

// imageRef identifies one embedded image occurrence during a single pass.
// It borrows the underlying bytes and is discarded when the pass ends.
type imageRef struct {
	pageNr    int
	objNr     int
	byteLen   int
	width     int
	height    int
	colorMode string
}

// outcome records what happened to one candidate image. Per-image failures
// are data here, not errors: a skip never aborts the pass.
type outcome struct {
	ref        imageRef
	replaced   bool
	skipReason string
	newSize    int
}

var (
	// ErrReencode signals an unrecoverable decode or encode failure for a
	// single image. Recoverable issues return the original bytes instead.
	ErrReencode = errors.New("image re-encode failed")

	// ErrInvalidInput signals that the input document could not be opened.
	ErrInvalidInput = errors.New("invalid input document")
)
