package bitgo

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/bitgo/internal/word"
)

// ToRoaring converts the bitmap's 1-bit positions into a roaring bitmap.
// The logical length is not representable in the roaring model; carry
// Len() separately when round-tripping.
//
// Positions must fit in 32 bits, matching roaring's universe.
func ToRoaring(bm *Bitmap) *roaring.Bitmap {
	rb := roaring.New()
	var n uint64
	for r := range bm.Runs() {
		if r.IsFill() {
			if r.Data != 0 {
				rb.AddRange(n, n+r.Size)
			}
			n += r.Size
			continue
		}
		data := r.Data
		for data != 0 {
			rb.Add(uint32(n + word.TrailingZeros(data)))
			data &= data - 1
		}
		n += r.Size
	}
	return rb
}

// FromRoaring builds a bitmap of the given logical length from a roaring
// bitmap's set positions. Positions at or beyond length are ignored.
func FromRoaring(rb *roaring.Bitmap, length uint64) *Bitmap {
	bm := New()
	var n uint64
	it := rb.Iterator()
	for it.HasNext() {
		p := uint64(it.Next())
		if p >= length {
			break
		}
		bm.AppendBits(false, p-n)
		bm.AppendBits(true, 1)
		n = p + 1
	}
	bm.AppendBits(false, length-n)
	return bm
}
