// Package bitgo provides a run-length encoded bitmap engine for columnar
// event indexing.
//
// A Bitmap represents an arbitrarily long bit vector as an ordered sequence
// of runs. Each run is backed by a single 64-bit word and is either a
// literal span (fewer than 64 meaningful bits) or a fill span (a homogeneous
// stretch of 0s or 1s whose length may far exceed one word). Runs of
// identical bits therefore collapse to O(1) storage.
//
// # Construction
//
//	bm := bitgo.New()
//	bm.AppendBits(true, 1000)      // 1000 one-bits as a single fill run
//	bm.AppendBlock(0b1010, 4)      // 4 literal bits
//
// # Algebra
//
// Bitmaps combine under boolean operators without decompressing:
//
//	matched := bitgo.And(byUser, byStatus)
//	either := bitgo.Or(a, b)
//
// Operands of unequal length are reconciled per operator: AND truncates to
// the shared prefix and zero-pads, OR/XOR pass the longer tail through.
// Inputs are never mutated; every operation returns a fresh Bitmap.
//
// # Positional queries
//
// Rank counts occurrences of a bit value up to a position; Select locates
// the i-th occurrence:
//
//	n := bm.Rank(true, 131)
//	pos, ok := bm.Select(true, 42)
//
// The core is purely computational: all operations are read-only on their
// inputs and safe for concurrent use.
package bitgo
