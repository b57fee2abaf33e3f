package bitgo

import "github.com/hupe1980/bitgo/internal/word"

// BlockOp is a word-wise boolean operator. It must map homogeneous operand
// pairs to a homogeneous result, which holds for all bitwise combinations
// of AND, OR, XOR and complement.
type BlockOp func(x, y uint64) uint64

// cursor walks a run sequence with sub-run granularity. It tracks how many
// positions of the current run have been consumed so that fills can split
// across merge steps and literal runs can be taken partially.
type cursor struct {
	runs []Run
	idx  int
	off  uint64
}

func newCursor(runs []Run) cursor {
	return cursor{runs: runs}
}

func (c *cursor) done() bool {
	return c.idx >= len(c.runs)
}

func (c *cursor) run() Run {
	return c.runs[c.idx]
}

// remaining returns the unconsumed positions of the current run.
func (c *cursor) remaining() uint64 {
	return c.runs[c.idx].Size - c.off
}

// peek extracts the next n unconsumed bits as a word. n must be <= word.Width.
func (c *cursor) peek(n uint64) uint64 {
	r := c.runs[c.idx]
	if r.Size > word.Width {
		// Fill: every position carries the sentinel bit.
		return r.Data & word.LSBMask(n)
	}
	return (r.Data >> c.off) & word.LSBMask(n)
}

// advance consumes n positions, moving to the next run when the current
// one is exhausted.
func (c *cursor) advance(n uint64) {
	c.off += n
	if c.off == c.runs[c.idx].Size {
		c.idx++
		c.off = 0
	}
}

// Apply combines two bitmaps under op, producing a new bitmap and leaving
// both operands untouched.
//
// The result is defined pointwise: within the shared prefix,
// result[p] = op(lhs[p], rhs[p]). Beyond the shorter operand, the longer
// operand's tail is copied through verbatim when its fill flag is set;
// otherwise the result is zero there. The result length is always
// max(lhs.Len(), rhs.Len()).
//
// Combining with an empty bitmap returns a clone of the other operand
// unchanged, regardless of op and flags. This shortcut is part of the
// contract, not a consequence of the flags.
func Apply(lhs, rhs *Bitmap, op BlockOp, fillLHS, fillRHS bool) *Bitmap {
	result := New()
	if lhs.IsEmpty() && rhs.IsEmpty() {
		return result
	}
	if lhs.IsEmpty() {
		return rhs.Clone()
	}
	if rhs.IsEmpty() {
		return lhs.Clone()
	}

	lc := newCursor(lhs.runs)
	rc := newCursor(rhs.runs)

	for !lc.done() && !rc.done() {
		if lc.run().IsFill() && rc.run().IsFill() {
			// Both homogeneous: one step covers the smaller residual,
			// however many words it spans.
			n := min(lc.remaining(), rc.remaining())
			block := op(lc.run().Data, rc.run().Data)
			invariant(word.AllOrNone(block),
				"operator broke fill homogeneity: op(%#x, %#x) = %#x",
				lc.run().Data, rc.run().Data, block)
			result.AppendBits(block != 0, n)
			lc.advance(n)
			rc.advance(n)
			continue
		}

		// At least one side is a literal, so the step is capped at the
		// literal's residual and fits in one word. Each operand is masked
		// to the step width before the operator is applied, keeping bits
		// past its logical length out of the result.
		n := min(lc.remaining(), rc.remaining())
		invariant(n <= word.Width, "literal merge step of %d bits", n)
		block := op(lc.peek(n), rc.peek(n))
		result.AppendBlock(block, n)
		lc.advance(n)
		rc.advance(n)
	}

	// Tail rule: copy the surviving operand through verbatim when its
	// fill flag is set.
	if fillLHS {
		copyTail(result, &lc)
	}
	if fillRHS {
		copyTail(result, &rc)
	}

	// Zero-pad so the result can keep participating in combinations sized
	// max(len(lhs), len(rhs)).
	maxSize := max(lhs.Len(), rhs.Len())
	invariant(maxSize >= result.Len(), "combine overran result length")
	result.AppendBits(false, maxSize-result.Len())
	return result
}

// copyTail appends the cursor's unconsumed suffix to the result.
func copyTail(result *Bitmap, c *cursor) {
	for !c.done() {
		n := c.remaining()
		r := c.run()
		if r.Size > word.Width {
			result.AppendBits(r.Data != 0, n)
		} else {
			result.AppendBlock(r.Data>>c.off, n)
		}
		c.advance(n)
	}
}

// And returns the intersection of a and b. Positions past the shorter
// operand are zero.
func And(a, b *Bitmap) *Bitmap {
	return Apply(a, b, func(x, y uint64) uint64 { return x & y }, false, false)
}

// Or returns the union of a and b. The longer operand's tail passes
// through.
func Or(a, b *Bitmap) *Bitmap {
	return Apply(a, b, func(x, y uint64) uint64 { return x | y }, true, true)
}

// Xor returns the symmetric difference of a and b. The longer operand's
// tail passes through.
func Xor(a, b *Bitmap) *Bitmap {
	return Apply(a, b, func(x, y uint64) uint64 { return x ^ y }, true, true)
}

// Nand returns a AND NOT b. A longer a passes through; a longer b forces
// zeros once the intersection ends.
func Nand(a, b *Bitmap) *Bitmap {
	return Apply(a, b, func(x, y uint64) uint64 { return x &^ y }, true, false)
}

// Nor returns a OR NOT b within the shared prefix; the longer operand's
// tail passes through.
func Nor(a, b *Bitmap) *Bitmap {
	return Apply(a, b, func(x, y uint64) uint64 { return x | ^y }, true, true)
}
