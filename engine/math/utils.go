package math

import "golang.org/x/exp/constraints"

// AlignUp rounds size up to the next multiple of alignment. An alignment of
// zero or one leaves size untouched; otherwise alignment must be a power of two.
func AlignUp[T constraints.Integer](size, alignment T) T {
	if alignment <= 1 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}

// IsPowerOfTwo reports whether v is a positive power of two.
func IsPowerOfTwo[T constraints.Integer](v T) bool {
	return v > 0 && v&(v-1) == 0
}
