// Package index provides an inverted event index built on compressed
// bitmaps. Each distinct field value owns a posting bitmap whose bit i
// answers "does row i carry this value"; queries combine postings with
// the bitmap algebra instead of scanning rows.
package index

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/bitgo"
)

// Operator selects how a filter compares a field against its values.
type Operator uint8

const (
	// OpEqual matches rows whose field equals the single value.
	OpEqual Operator = iota
	// OpIn matches rows whose field equals any of the values.
	OpIn
	// OpNotEqual matches rows whose field does not equal the value,
	// including rows that never carried the field.
	OpNotEqual
)

func (op Operator) String() string {
	switch op {
	case OpEqual:
		return "equal"
	case OpIn:
		return "in"
	case OpNotEqual:
		return "not-equal"
	default:
		return fmt.Sprintf("operator(%d)", uint8(op))
	}
}

// Filter is one predicate over a single field. A query is a conjunction
// of filters.
type Filter struct {
	Field  string
	Op     Operator
	Values []string
}

// ErrNoValues is returned when a filter carries no values to compare.
var ErrNoValues = errors.New("index: filter has no values")

// Index is an append-only inverted index. Rows are identified by the
// order they were appended in.
//
// Safe for concurrent use. Appends take the write lock; queries share
// the read lock.
type Index struct {
	mu       sync.RWMutex
	rows     uint64
	postings map[string]map[string]*bitgo.Bitmap

	logger *bitgo.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for query diagnostics.
func WithLogger(l *bitgo.Logger) Option {
	return func(ix *Index) { ix.logger = l }
}

// New creates an empty index.
func New(opts ...Option) *Index {
	ix := &Index{
		postings: make(map[string]map[string]*bitgo.Bitmap),
		logger:   bitgo.NoopLogger(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Append records one row and returns its row ID. Every listed field
// value gets a one bit at the new row's position; all other postings
// are left short and padded lazily at query time.
func (ix *Index) Append(fields map[string]string) uint64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	row := ix.rows
	for field, value := range fields {
		vm, ok := ix.postings[field]
		if !ok {
			vm = make(map[string]*bitgo.Bitmap)
			ix.postings[field] = vm
		}
		bm, ok := vm[value]
		if !ok {
			bm = bitgo.New()
			vm[value] = bm
		}
		if gap := row - bm.Len(); gap > 0 {
			bm.AppendBits(false, gap)
		}
		bm.AppendBits(true, 1)
	}
	ix.rows = row + 1
	return row
}

// Rows returns the number of appended rows.
func (ix *Index) Rows() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.rows
}

// Posting returns a copy of the posting bitmap for a field value,
// padded to the current row count. The copy is the caller's to mutate.
func (ix *Index) Posting(field, value string) *bitgo.Bitmap {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.postingLocked(field, value)
}

func (ix *Index) postingLocked(field, value string) *bitgo.Bitmap {
	out := bitgo.New()
	if vm, ok := ix.postings[field]; ok {
		if bm, ok := vm[value]; ok {
			out = bm.Clone()
		}
	}
	if gap := ix.rows - out.Len(); gap > 0 {
		out.AppendBits(false, gap)
	}
	return out
}

// Evaluate intersects all filters and returns the bitmap of matching
// rows, always sized to the current row count. Filters are evaluated
// concurrently; an empty filter slice matches every row.
func (ix *Index) Evaluate(ctx context.Context, filters []Filter) (*bitgo.Bitmap, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(filters) == 0 {
		all := bitgo.New()
		all.AppendBits(true, ix.rows)
		return all, nil
	}

	results := make([]*bitgo.Bitmap, len(filters))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range filters {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bm, err := ix.evaluateLocked(f)
			if err != nil {
				return err
			}
			ix.logger.WithField(f.Field).Debug("filter evaluated",
				"op", f.Op.String(), "matches", bm.Count(true))
			results[i] = bm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	acc := results[0]
	for _, bm := range results[1:] {
		acc = bitgo.And(acc, bm)
	}

	ix.logger.Debug("evaluated filters",
		"filters", len(filters), "rows", ix.rows, "matches", acc.Count(true))

	return acc, nil
}

func (ix *Index) evaluateLocked(f Filter) (*bitgo.Bitmap, error) {
	if len(f.Values) == 0 {
		return nil, fmt.Errorf("index: field %q: %w", f.Field, ErrNoValues)
	}

	switch f.Op {
	case OpEqual:
		return ix.postingLocked(f.Field, f.Values[0]), nil
	case OpIn:
		acc := ix.postingLocked(f.Field, f.Values[0])
		for _, v := range f.Values[1:] {
			acc = bitgo.Or(acc, ix.postingLocked(f.Field, v))
		}
		return acc, nil
	case OpNotEqual:
		all := bitgo.New()
		all.AppendBits(true, ix.rows)
		return bitgo.Nand(all, ix.postingLocked(f.Field, f.Values[0])), nil
	default:
		return nil, fmt.Errorf("index: unsupported operator %s", f.Op)
	}
}

// Materialize expands a result bitmap into the list of matching row IDs.
func Materialize(bm *bitgo.Bitmap) []uint64 {
	ids := make([]uint64, 0, bm.Count(true))
	var pos uint64
	for r := range bm.Runs() {
		for i := uint64(0); i < r.Size; i++ {
			if r.Bit(i) {
				ids = append(ids, pos+i)
			}
		}
		pos += r.Size
	}
	return ids
}
