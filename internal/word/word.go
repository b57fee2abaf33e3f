// Package word provides the fixed-width bit operations that back the
// run-length encoded bitmap core. All operations are O(1) wrappers around
// math/bits on a 64-bit word.
package word

import "math/bits"

// Width is the number of bits per word.
const Width = 64

const (
	// All is the all-ones word, the sentinel for a 1-fill.
	All = ^uint64(0)
	// None is the all-zeros word, the sentinel for a 0-fill.
	None = uint64(0)
	// Npos marks "no such position" for position queries.
	Npos = ^uint64(0)
)

// Mask returns a word with only bit i set.
func Mask(i uint64) uint64 {
	return uint64(1) << i
}

// LSBMask returns a word with the n lowest bits set. n must be <= Width;
// n == Width yields All.
func LSBMask(n uint64) uint64 {
	if n >= Width {
		return All
	}
	return (uint64(1) << n) - 1
}

// Popcount returns the number of set bits in x.
func Popcount(x uint64) uint64 {
	return uint64(bits.OnesCount64(x))
}

// TrailingZeros returns the number of trailing zero bits in x (64 for x == 0).
func TrailingZeros(x uint64) uint64 {
	return uint64(bits.TrailingZeros64(x))
}

// LeadingZeros returns the number of leading zero bits in x (64 for x == 0).
func LeadingZeros(x uint64) uint64 {
	return uint64(bits.LeadingZeros64(x))
}

// Test reports whether bit i of x is set.
func Test(x, i uint64) bool {
	return x&Mask(i) != 0
}

// AllOrNone reports whether x is homogeneous, i.e. All or None.
func AllOrNone(x uint64) bool {
	return x == All || x == None
}

// AllOrNoneN reports whether the n lowest bits of x are homogeneous.
// Bits at positions >= n are ignored.
func AllOrNoneN(x, n uint64) bool {
	m := LSBMask(n)
	x &= m
	return x == m || x == None
}

// Rank returns the number of set bits of x in positions [0, i].
func Rank(x, i uint64) uint64 {
	return Popcount(x & LSBMask(i+1))
}

// Select returns the position of the i-th (1-indexed) set bit of x,
// or Npos if x has fewer than i set bits.
func Select(x, i uint64) uint64 {
	for ; x != 0; x &= x - 1 {
		i--
		if i == 0 {
			return TrailingZeros(x)
		}
	}
	return Npos
}
