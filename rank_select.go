package bitgo

import "github.com/hupe1980/bitgo/internal/word"

// Rank returns the number of occurrences of bit in positions [0, i].
//
// i = 0 is a documented quirk kept for compatibility: it means "rank over
// the whole bitmap", not "rank of position 0". Callers that need the rank
// of position 0 alone can read Bit(0) directly.
//
// An empty bitmap has rank 0. Otherwise i must be < Len.
func (bm *Bitmap) Rank(bit bool, i uint64) uint64 {
	if bm.IsEmpty() {
		return 0
	}
	invariant(i < bm.size, "rank position %d out of range [0,%d)", i, bm.size)
	if i == 0 {
		i = bm.size - 1
	}

	var result uint64
	var n uint64
	for _, r := range bm.runs {
		if i < n+r.Size {
			result += r.rank(bit, i-n)
			break
		}
		result += r.count(bit)
		n += r.Size
	}
	return result
}

// Select returns the position of the i-th (1-indexed) occurrence of bit.
// It reports false when i exceeds the population of bit, which callers
// must treat as "no more matches". Requires i > 0.
func (bm *Bitmap) Select(bit bool, i uint64) (uint64, bool) {
	invariant(i > 0, "select is 1-indexed")

	var cum uint64 // occurrences of bit before the current run
	var n uint64   // positions before the current run
	for _, r := range bm.runs {
		count := r.count(bit)
		if cum+count >= i {
			if r.Size > word.Width {
				// Homogeneous fill: the target offset follows from
				// arithmetic alone.
				return n + (i - cum - 1), true
			}
			for j := uint64(0); j < r.Size; j++ {
				if r.Bit(j) == bit {
					cum++
					if cum == i {
						return n + j, true
					}
				}
			}
		}
		cum += count
		n += r.Size
	}
	return 0, false
}
