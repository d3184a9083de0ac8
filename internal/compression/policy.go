package compression

const (
	// MinImageBytes is the smallest encoded size worth re-encoding.
	// Anything below is presumed an icon or decoration.
	MinImageBytes = 10000

	// MinImageDimension is the smallest pixel dimension worth re-encoding.
	MinImageDimension = 100

	// acceptRatio is the largest new/old size ratio a replacement may have.
	// Anything at or above it leaves the original image untouched.
	acceptRatio = 0.95
)

// ShouldCompress reports whether an embedded image is a compression
// candidate. It is a pure predicate over the image's encoded size and
// pixel dimensions; the current format does not matter.
func ShouldCompress(byteLen, width, height int) bool {
	if byteLen < MinImageBytes {
		return false
	}
	if width < MinImageDimension || height < MinImageDimension {
		return false
	}
	return true
}

// accepted reports whether a re-encoded replacement shrinks the image by
// at least the required margin.
func accepted(newLen, oldLen int) bool {
	if oldLen == 0 {
		return false
	}
	return float64(newLen)/float64(oldLen) < acceptRatio
}
