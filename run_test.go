package bitgo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/bitgo/internal/word"
)

func TestNewRunMasksLiteral(t *testing.T) {
	r := NewRun(0xFF, 4)
	assert.Equal(t, uint64(0xF), r.Data)
	assert.Equal(t, uint64(4), r.Size)
	assert.False(t, r.IsFill())
}

func TestNewRunPanics(t *testing.T) {
	assert.Panics(t, func() { NewRun(0, 0) })
	assert.Panics(t, func() { NewRun(0b1010, 65) })
	assert.NotPanics(t, func() { NewRun(word.All, 1000) })
	assert.NotPanics(t, func() { NewRun(0b1010, 64) }) // full-width literal
}

func TestRunIsFill(t *testing.T) {
	assert.True(t, NewRun(word.All, 64).IsFill())
	assert.True(t, NewRun(0, 200).IsFill())
	assert.False(t, NewRun(0b1010, 64).IsFill())
	assert.False(t, NewRun(0b1, 1).IsFill())
}

func TestRunCount(t *testing.T) {
	assert.Equal(t, uint64(3), NewRun(0b1011, 4).Count())
	assert.Equal(t, uint64(0), NewRun(0, 10).Count())
	assert.Equal(t, uint64(500), NewRun(word.All, 500).Count())
	assert.Equal(t, uint64(0), NewRun(0, 500).Count())
}

func TestRunHomogeneous(t *testing.T) {
	assert.True(t, NewRun(0b111, 3).Homogeneous())
	assert.True(t, NewRun(0, 3).Homogeneous())
	assert.False(t, NewRun(0b101, 3).Homogeneous())
	assert.True(t, NewRun(word.All, 100).Homogeneous())
	assert.False(t, NewRun(0b101, 64).Homogeneous())
}

func TestRunBit(t *testing.T) {
	r := NewRun(0b1010, 4)
	assert.False(t, r.Bit(0))
	assert.True(t, r.Bit(1))
	assert.False(t, r.Bit(2))
	assert.True(t, r.Bit(3))

	fill := NewRun(word.All, 300)
	assert.True(t, fill.Bit(0))
	assert.True(t, fill.Bit(299)) // past the word width

	assert.Panics(t, func() { r.Bit(4) })
}

func TestRunFindFirst(t *testing.T) {
	r := NewRun(0b0100, 4)
	p, ok := r.FindFirst(true)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), p)

	p, ok = r.FindFirst(false)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), p)

	_, ok = NewRun(0, 8).FindFirst(true)
	assert.False(t, ok)

	// All-ones literal: no 0-bit within the run, even though the
	// complement word has bits past the run's size.
	_, ok = NewRun(0b111, 3).FindFirst(false)
	assert.False(t, ok)

	p, ok = NewRun(word.All, 128).FindFirst(true)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), p)

	_, ok = NewRun(word.All, 128).FindFirst(false)
	assert.False(t, ok)
}

func TestRunFindNext(t *testing.T) {
	r := NewRun(0b10101, 5)

	p, ok := r.FindNext(true, 0)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), p)

	p, ok = r.FindNext(true, 2)
	assert.True(t, ok)
	assert.Equal(t, uint64(4), p)

	_, ok = r.FindNext(true, 4)
	assert.False(t, ok)

	p, ok = r.FindNext(false, 1)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), p)

	fill := NewRun(word.All, 100)
	p, ok = fill.FindNext(true, 50)
	assert.True(t, ok)
	assert.Equal(t, uint64(51), p)

	_, ok = fill.FindNext(true, 99)
	assert.False(t, ok)

	_, ok = fill.FindNext(false, 0)
	assert.False(t, ok)
}

func TestRunFindLast(t *testing.T) {
	r := NewRun(0b00101, 5)

	p, ok := r.FindLast(true)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), p)

	p, ok = r.FindLast(false)
	assert.True(t, ok)
	assert.Equal(t, uint64(4), p)

	p, ok = NewRun(word.All, 300).FindLast(true)
	assert.True(t, ok)
	assert.Equal(t, uint64(299), p)

	_, ok = NewRun(0, 300).FindLast(true)
	assert.False(t, ok)
}

func TestRunRank(t *testing.T) {
	r := NewRun(0b1011, 4)
	assert.Equal(t, uint64(1), r.rank(true, 0))
	assert.Equal(t, uint64(2), r.rank(true, 1))
	assert.Equal(t, uint64(2), r.rank(true, 2))
	assert.Equal(t, uint64(3), r.rank(true, 3))
	assert.Equal(t, uint64(1), r.rank(false, 3))

	fill := NewRun(word.All, 200)
	assert.Equal(t, uint64(150), fill.rank(true, 149))
	assert.Equal(t, uint64(0), fill.rank(false, 149))
}
