package bitgo

import "github.com/hupe1980/bitgo/internal/word"

// Run is a contiguous span of bit values backed by a single word.
//
// If Size < word.Width, the run is a literal: the Size lowest bits of Data
// are the span and all higher bits are zero. If Size >= word.Width, the run
// is a fill: Data must be homogeneous (all zeros or all ones) and Size
// records how many logical positions that value spans. A full-width
// non-homogeneous word (Size == word.Width) is treated as a literal.
type Run struct {
	Data uint64
	Size uint64
}

// NewRun constructs a run, masking literal data to size.
// size must be > 0, and for size > word.Width the data word must be
// homogeneous.
func NewRun(data, size uint64) Run {
	invariant(size > 0, "run size must be > 0")
	invariant(size <= word.Width || word.AllOrNone(data),
		"fill run of size %d requires a homogeneous word, got %#x", size, data)
	if size < word.Width {
		data &= word.LSBMask(size)
	}
	return Run{Data: data, Size: size}
}

// IsFill reports whether the run is a homogeneous span of at least one
// full word.
func (r Run) IsFill() bool {
	return r.Size >= word.Width && word.AllOrNone(r.Data)
}

// Bit returns the bit at position i, counting from the start of the run.
// For fill runs, positions beyond the word width carry the sentinel bit.
// Requires i < Size.
func (r Run) Bit(i uint64) bool {
	invariant(i < r.Size, "run bit %d out of range [0,%d)", i, r.Size)
	if i >= word.Width {
		return r.Data != 0
	}
	return word.Test(r.Data, i)
}

// Count returns the number of 1-bits in the run.
func (r Run) Count() uint64 {
	if r.Size <= word.Width && r.Data > 0 {
		return word.Popcount(r.Data)
	}
	if r.Data == word.All {
		return r.Size
	}
	return 0
}

// Homogeneous reports whether all Size bits of the run are equal.
func (r Run) Homogeneous() bool {
	if r.Size >= word.Width {
		return word.AllOrNone(r.Data)
	}
	return word.AllOrNoneN(r.Data, r.Size)
}

// data01 returns the run's word with 1-bits marking positions that hold
// bit. For the 0-bit view of a literal run the complement is masked to
// Size so positions past the run never match.
func (r Run) data01(bit bool) uint64 {
	if bit {
		return r.Data
	}
	if r.Size >= word.Width {
		return ^r.Data
	}
	return ^r.Data & word.LSBMask(r.Size)
}

// FindFirst returns the position of the first occurrence of bit.
func (r Run) FindFirst(bit bool) (uint64, bool) {
	data := r.data01(bit)
	if r.Size > word.Width {
		if data == word.All {
			return 0, true
		}
		return 0, false
	}
	if data == word.None {
		return 0, false
	}
	return word.TrailingZeros(data), true
}

// FindNext returns the first position p > i holding bit.
func (r Run) FindNext(bit bool, i uint64) (uint64, bool) {
	if i >= r.Size-1 {
		return 0, false
	}
	data := r.data01(bit)
	if r.Size > word.Width {
		if data == word.All {
			return i + 1, true
		}
		return 0, false
	}
	data &^= word.LSBMask(i + 1)
	if data == word.None {
		return 0, false
	}
	return word.TrailingZeros(data), true
}

// FindLast returns the position of the last occurrence of bit.
func (r Run) FindLast(bit bool) (uint64, bool) {
	data := r.data01(bit)
	if r.Size > word.Width {
		if data == word.All {
			return r.Size - 1, true
		}
		return 0, false
	}
	if data == word.None {
		return 0, false
	}
	return word.Width - word.LeadingZeros(data) - 1, true
}

// rank returns the number of occurrences of bit in run positions [0, i].
// Requires i < Size.
func (r Run) rank(bit bool, i uint64) uint64 {
	invariant(i < r.Size, "run rank position %d out of range [0,%d)", i, r.Size)
	data := r.data01(bit)
	if r.Size > word.Width {
		if data == word.None {
			return 0
		}
		return i + 1
	}
	return word.Rank(data, i)
}

// count returns the number of occurrences of bit in the whole run.
func (r Run) count(bit bool) uint64 {
	if bit {
		return r.Count()
	}
	return r.Size - r.Count()
}
