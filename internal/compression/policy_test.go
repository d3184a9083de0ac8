package compression

import "testing"

func TestShouldCompress(t *testing.T) {
	tests := []struct {
		name     string
		byteLen  int
		width    int
		height   int
		expected bool
	}{
		{name: "large image", byteLen: 500000, width: 1200, height: 800, expected: true},
		{name: "exactly at thresholds", byteLen: 10000, width: 100, height: 100, expected: true},
		{name: "below byte threshold", byteLen: 9999, width: 1200, height: 800, expected: false},
		{name: "width below threshold", byteLen: 50000, width: 99, height: 800, expected: false},
		{name: "height below threshold", byteLen: 50000, width: 800, height: 99, expected: false},
		{name: "small icon", byteLen: 2000, width: 50, height: 50, expected: false},
		{name: "zero size", byteLen: 0, width: 0, height: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ShouldCompress(tt.byteLen, tt.width, tt.height)
			if result != tt.expected {
				t.Errorf("ShouldCompress(%d, %d, %d) = %v, expected %v",
					tt.byteLen, tt.width, tt.height, result, tt.expected)
			}
		})
	}
}

func TestAccepted(t *testing.T) {
	tests := []struct {
		name     string
		newLen   int
		oldLen   int
		expected bool
	}{
		{name: "large reduction", newLen: 100, oldLen: 1000, expected: true},
		{name: "just under threshold", newLen: 949, oldLen: 1000, expected: true},
		{name: "exactly at threshold", newLen: 950, oldLen: 1000, expected: false},
		{name: "marginal reduction", newLen: 990, oldLen: 1000, expected: false},
		{name: "larger than original", newLen: 1001, oldLen: 1000, expected: false},
		{name: "zero original", newLen: 100, oldLen: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := accepted(tt.newLen, tt.oldLen); result != tt.expected {
				t.Errorf("accepted(%d, %d) = %v, expected %v",
					tt.newLen, tt.oldLen, result, tt.expected)
			}
		})
	}
}
