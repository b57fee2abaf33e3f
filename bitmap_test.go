package bitgo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/bitgo/internal/word"
)

func TestBitmapEmpty(t *testing.T) {
	bm := New()
	assert.True(t, bm.IsEmpty())
	assert.Equal(t, uint64(0), bm.Len())
	assert.Equal(t, 0, bm.NumRuns())
}

func TestAppendBitsFill(t *testing.T) {
	bm := New()
	bm.AppendBits(true, 1000)
	assert.Equal(t, uint64(1000), bm.Len())
	assert.Equal(t, 1, bm.NumRuns())
	assert.Equal(t, uint64(1000), bm.Count(true))

	// Same-valued appends extend the fill in place.
	bm.AppendBits(true, 24)
	assert.Equal(t, uint64(1024), bm.Len())
	assert.Equal(t, 1, bm.NumRuns())
}

func TestAppendBitsAlternating(t *testing.T) {
	bm := New()
	bm.AppendBits(true, 3)
	bm.AppendBits(false, 2)
	bm.AppendBits(true, 1)
	assert.Equal(t, uint64(6), bm.Len())
	// Sub-word appends pack into one literal word.
	assert.Equal(t, 1, bm.NumRuns())
	assert.True(t, bm.Bit(0))
	assert.True(t, bm.Bit(2))
	assert.False(t, bm.Bit(3))
	assert.False(t, bm.Bit(4))
	assert.True(t, bm.Bit(5))
}

func TestAppendBlock(t *testing.T) {
	bm := New()
	bm.AppendBlock(0b1010, 4)
	assert.Equal(t, uint64(4), bm.Len())
	assert.False(t, bm.Bit(0))
	assert.True(t, bm.Bit(1))
	assert.False(t, bm.Bit(2))
	assert.True(t, bm.Bit(3))

	// Ignores bits past n.
	bm2 := New()
	bm2.AppendBlock(0xFF, 2)
	assert.Equal(t, uint64(2), bm2.Len())
	assert.Equal(t, uint64(2), bm2.Count(true))

	assert.Panics(t, func() { bm.AppendBlock(0, 65) })
}

func TestAppendBlockStraddlesWords(t *testing.T) {
	bm := New()
	bm.AppendBlock(0b01, 40)
	bm.AppendBlock(0b10, 40) // splits across the 64-bit boundary
	assert.Equal(t, uint64(80), bm.Len())
	assert.True(t, bm.Bit(0))
	assert.False(t, bm.Bit(40))
	assert.True(t, bm.Bit(41))
	assert.Equal(t, uint64(2), bm.Count(true))
	for r := range bm.Runs() {
		assert.LessOrEqual(t, r.Size, uint64(word.Width))
	}
}

func TestAppendBlockHomogeneousExtendsFill(t *testing.T) {
	bm := New()
	bm.AppendBits(true, 64)
	bm.AppendBlock(word.All, 64)
	assert.Equal(t, 1, bm.NumRuns())
	assert.Equal(t, uint64(128), bm.Len())
	assert.Equal(t, uint64(128), bm.Count(true))
}

func TestRunsIterator(t *testing.T) {
	bm := New()
	bm.AppendBits(false, 128)
	bm.AppendBlock(0b1010, 4)

	var sizes []uint64
	for r := range bm.Runs() {
		sizes = append(sizes, r.Size)
	}
	assert.Equal(t, []uint64{128, 4}, sizes)

	// Restartable and reproducible.
	var again []uint64
	for r := range bm.Runs() {
		again = append(again, r.Size)
	}
	assert.Equal(t, sizes, again)

	// Early break is allowed.
	for range bm.Runs() {
		break
	}
}

func TestCloneIsIndependent(t *testing.T) {
	bm := New()
	bm.AppendBits(true, 100)
	c := bm.Clone()
	c.AppendBits(false, 50)

	assert.Equal(t, uint64(100), bm.Len())
	assert.Equal(t, uint64(150), c.Len())
}

func TestEqualPointwise(t *testing.T) {
	a := New()
	a.AppendBits(true, 64)

	// Same bits, different chunking.
	b := New()
	b.AppendBlock(word.All, 32)
	b.AppendBlock(word.All, 32)

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))

	b.AppendBits(false, 1)
	assert.False(t, a.Equal(b))

	c := New()
	c.AppendBits(false, 64)
	assert.False(t, a.Equal(c))

	assert.True(t, New().Equal(New()))
}

func TestBitmapCountZeroBits(t *testing.T) {
	bm := New()
	bm.AppendBits(false, 100)
	bm.AppendBits(true, 28)
	assert.Equal(t, uint64(100), bm.Count(false))
	assert.Equal(t, uint64(28), bm.Count(true))
}

func TestCompressionInvariants(t *testing.T) {
	bm := New()
	bm.AppendBits(true, 200)
	bm.AppendBlock(0b1011, 4)
	bm.AppendBits(false, 77)
	bm.AppendBlock(0xDEADBEEF, 32)

	assertWellFormed(t, bm)
}

// assertWellFormed checks the Run invariants over a bitmap: positive
// sizes, literal high bits zero, fills homogeneous, sizes summing to Len.
func assertWellFormed(t *testing.T, bm *Bitmap) {
	t.Helper()
	var total uint64
	for r := range bm.Runs() {
		if r.Size == 0 {
			t.Fatalf("zero-sized run")
		}
		if r.Size > word.Width && !word.AllOrNone(r.Data) {
			t.Fatalf("fill run %#x of size %d is not homogeneous", r.Data, r.Size)
		}
		if r.Size < word.Width && r.Data&^word.LSBMask(r.Size) != 0 {
			t.Fatalf("literal run %#x has bits past size %d", r.Data, r.Size)
		}
		total += r.Size
	}
	if total != bm.Len() {
		t.Fatalf("run sizes sum to %d, Len is %d", total, bm.Len())
	}
}
