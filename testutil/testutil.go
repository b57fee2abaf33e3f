package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/bitgo"
)

// RNG encapsulates a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Bool returns a pseudo-random bit.
func (r *RNG) Bool() bool {
	return r.Intn(2) == 1
}

// RunPattern generates a random bit sequence built from up to maxRuns
// homogeneous runs of length [1, maxRunLen]. Run lengths are drawn so they
// regularly straddle word boundaries.
func (r *RNG) RunPattern(maxRuns, maxRunLen int) []bool {
	numRuns := 1 + r.Intn(maxRuns)
	bit := r.Bool()
	var bits []bool
	for i := 0; i < numRuns; i++ {
		runLen := 1 + r.Intn(maxRunLen)
		for j := 0; j < runLen; j++ {
			bits = append(bits, bit)
		}
		bit = !bit
	}
	return bits
}

// Build constructs a bitmap from an explicit bit sequence using per-value
// appends, yielding a maximally coalesced run sequence.
func Build(bits []bool) *bitgo.Bitmap {
	bm := bitgo.New()
	i := 0
	for i < len(bits) {
		j := i
		for j < len(bits) && bits[j] == bits[i] {
			j++
		}
		bm.AppendBits(bits[i], uint64(j-i))
		i = j
	}
	return bm
}

// BuildChunked constructs a bitmap holding the same bit sequence as Build,
// but through randomly sized AppendBlock calls so the run chunking is
// ragged and run boundaries do not line up with word boundaries.
func (r *RNG) BuildChunked(bits []bool) *bitgo.Bitmap {
	bm := bitgo.New()
	i := 0
	for i < len(bits) {
		n := 1 + r.Intn(64)
		if i+n > len(bits) {
			n = len(bits) - i
		}
		var block uint64
		for j := 0; j < n; j++ {
			if bits[i+j] {
				block |= uint64(1) << j
			}
		}
		bm.AppendBlock(block, uint64(n))
		i += n
	}
	return bm
}

// Decompress expands a bitmap back into an explicit bit sequence.
func Decompress(bm *bitgo.Bitmap) []bool {
	bits := make([]bool, 0, bm.Len())
	for r := range bm.Runs() {
		for i := uint64(0); i < r.Size; i++ {
			bits = append(bits, r.Bit(i))
		}
	}
	return bits
}

// ApplyPointwise evaluates the combine semantics on explicit bit
// sequences: op within the shared prefix, pass-through of the longer tail
// when the matching fill flag is set, zeros otherwise, always sized
// max(len(a), len(b)).
func ApplyPointwise(a, b []bool, op func(x, y bool) bool, fillA, fillB bool) []bool {
	n := max(len(a), len(b))
	out := make([]bool, n)
	for p := 0; p < n; p++ {
		switch {
		case p < len(a) && p < len(b):
			out[p] = op(a[p], b[p])
		case p < len(a) && fillA:
			out[p] = a[p]
		case p < len(b) && fillB:
			out[p] = b[p]
		}
	}
	return out
}
