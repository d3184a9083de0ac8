package compression

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// Reencode decodes a raster image and re-encodes it as an opaque JPEG at
// the given quality, downscaling first when the larger dimension exceeds
// maxDimension. If the input cannot be decoded it is returned unchanged
// with ok=false; that is a per-image skip, not an error. Only encode
// failures propagate, wrapped in ErrReencode.
func Reencode(data []byte, quality, maxDimension int) (out []byte, ok bool, err error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data, false, nil
	}
	encoded, _, _, err := reencodeImage(img, quality, maxDimension)
	if err != nil {
		return data, false, err
	}
	return encoded, true, nil
}

// reencodeImage flattens, downscales and JPEG-encodes decoded pixels,
// returning the encoded bytes and the output dimensions.
func reencodeImage(img image.Image, quality, maxDimension int) ([]byte, int, int, error) {
	if !isOpaque(img) {
		// JPEG has no alpha channel. Transparency is flattened onto white
		// and permanently lost.
		img = flatten(img)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if larger := max(width, height); maxDimension > 0 && larger > maxDimension {
		scale := float64(maxDimension) / float64(larger)
		width = int(math.Round(float64(bounds.Dx()) * scale))
		height = int(math.Round(float64(bounds.Dy()) * scale))
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrReencode, err)
	}
	return buf.Bytes(), width, height, nil
}

// flatten composites an image onto an opaque white background.
func flatten(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	base := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	draw.Draw(base, base.Bounds(), img, bounds.Min, draw.Over)
	return base
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
