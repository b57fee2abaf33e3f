package bitgo

import (
	"iter"
	"strconv"
	"strings"

	"github.com/hupe1980/bitgo/internal/word"
)

// Bitmap is a run-length compressed bit vector.
//
// Construction is append-only and monotonic. A Bitmap exclusively owns its
// run sequence: algebra operations never mutate their inputs and always
// produce independently owned results. The zero value is an empty bitmap.
type Bitmap struct {
	runs []Run
	size uint64
}

// New creates an empty bitmap.
func New() *Bitmap {
	return &Bitmap{}
}

// Len returns the logical length in bits.
func (bm *Bitmap) Len() uint64 {
	return bm.size
}

// IsEmpty reports whether the bitmap has length zero.
func (bm *Bitmap) IsEmpty() bool {
	return bm.size == 0
}

// NumRuns returns the number of runs in the compressed representation.
// It grows with the number of value alternations, not with Len.
func (bm *Bitmap) NumRuns() int {
	return len(bm.runs)
}

// AppendBits appends n copies of bit. Long homogeneous appends collapse
// into a single fill run; appends adjacent to a same-valued fill extend it
// in place.
func (bm *Bitmap) AppendBits(bit bool, n uint64) {
	if n == 0 {
		return
	}
	bm.size += n

	sentinel := word.None
	if bit {
		sentinel = word.All
	}

	// Extend a trailing same-valued fill.
	if last := bm.last(); last != nil && last.IsFill() && (last.Data != 0) == bit {
		last.Size += n
		return
	}

	// Pack into a trailing partial literal first.
	if last := bm.last(); last != nil && last.Size < word.Width {
		take := min(n, word.Width-last.Size)
		if bit {
			last.Data |= word.LSBMask(take) << last.Size
		}
		last.Size += take
		n -= take
		if n == 0 {
			return
		}
	}

	if n >= word.Width {
		bm.runs = append(bm.runs, Run{Data: sentinel, Size: n})
		return
	}
	bm.runs = append(bm.runs, Run{Data: sentinel & word.LSBMask(n), Size: n})
}

// AppendBlock appends the n lowest bits of block. n must be <= word.Width.
// Bits of block at positions >= n are ignored. Homogeneous blocks degrade
// to AppendBits so fills keep growing.
func (bm *Bitmap) AppendBlock(block uint64, n uint64) {
	invariant(n <= word.Width, "block append of %d bits exceeds word width", n)
	if n == 0 {
		return
	}
	block &= word.LSBMask(n)

	if word.AllOrNoneN(block, n) {
		bm.AppendBits(block&1 == 1, n)
		return
	}

	bm.size += n

	// Pack into a trailing partial literal, splitting across the word
	// boundary when the block does not fit.
	if last := bm.last(); last != nil && !last.IsFill() && last.Size < word.Width {
		space := word.Width - last.Size
		take := min(n, space)
		last.Data |= (block & word.LSBMask(take)) << last.Size
		last.Size += take
		block >>= take
		n -= take
		if n == 0 {
			return
		}
	}

	bm.runs = append(bm.runs, Run{Data: block, Size: n})
}

// last returns the trailing run for in-place extension, or nil.
func (bm *Bitmap) last() *Run {
	if len(bm.runs) == 0 {
		return nil
	}
	return &bm.runs[len(bm.runs)-1]
}

// Runs returns a lazy iterator over the run sequence, in order. The
// iterator is read-only; multiple independent iterations are safe.
func (bm *Bitmap) Runs() iter.Seq[Run] {
	return func(yield func(Run) bool) {
		for _, r := range bm.runs {
			if !yield(r) {
				return
			}
		}
	}
}

// Bit returns the bit at position i. Requires i < Len.
func (bm *Bitmap) Bit(i uint64) bool {
	invariant(i < bm.size, "bit position %d out of range [0,%d)", i, bm.size)
	for _, r := range bm.runs {
		if i < r.Size {
			return r.Bit(i)
		}
		i -= r.Size
	}
	// Unreachable: run sizes sum to bm.size.
	panic("bitgo: bitmap size exceeds run coverage")
}

// Count returns the number of occurrences of bit in the whole bitmap.
func (bm *Bitmap) Count(bit bool) uint64 {
	var n uint64
	for _, r := range bm.runs {
		n += r.count(bit)
	}
	return n
}

// Clone returns an independently owned copy.
func (bm *Bitmap) Clone() *Bitmap {
	c := &Bitmap{size: bm.size}
	if len(bm.runs) > 0 {
		c.runs = make([]Run, len(bm.runs))
		copy(c.runs, bm.runs)
	}
	return c
}

// Equal reports pointwise equality: same length and same bit at every
// position, regardless of run chunking.
func (bm *Bitmap) Equal(other *Bitmap) bool {
	if bm.size != other.size {
		return false
	}
	a := newCursor(bm.runs)
	b := newCursor(other.runs)
	for !a.done() && !b.done() {
		n := min(a.remaining(), b.remaining())
		if n > word.Width {
			// Both inside fills; compare sentinel values directly.
			if (a.run().Data != 0) != (b.run().Data != 0) {
				return false
			}
		} else {
			if a.peek(n) != b.peek(n) {
				return false
			}
		}
		a.advance(n)
		b.advance(n)
	}
	return a.done() && b.done()
}

// String renders the bitmap as a run list for debugging.
func (bm *Bitmap) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, r := range bm.runs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if r.IsFill() {
			if r.Data != 0 {
				sb.WriteString("1x")
			} else {
				sb.WriteString("0x")
			}
			sb.WriteString(strconv.FormatUint(r.Size, 10))
			continue
		}
		for j := uint64(0); j < r.Size; j++ {
			if r.Bit(j) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
