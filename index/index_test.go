package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bitgo"
)

func seedIndex(t *testing.T) *Index {
	t.Helper()
	ix := New()
	rows := []map[string]string{
		{"type": "conn", "proto": "tcp"},
		{"type": "conn", "proto": "udp"},
		{"type": "dns", "proto": "udp"},
		{"type": "conn", "proto": "tcp"},
		{"type": "http"},
	}
	for i, fields := range rows {
		require.Equal(t, uint64(i), ix.Append(fields))
	}
	return ix
}

func TestAppendAssignsSequentialRows(t *testing.T) {
	ix := seedIndex(t)
	assert.Equal(t, uint64(5), ix.Rows())
}

func TestPostingIsPaddedAndOwned(t *testing.T) {
	ix := seedIndex(t)

	p := ix.Posting("type", "conn")
	assert.Equal(t, ix.Rows(), p.Len())
	assert.Equal(t, []uint64{0, 1, 3}, Materialize(p))

	// Mutating the copy must not leak back into the index.
	p.AppendBits(true, 100)
	assert.Equal(t, []uint64{0, 1, 3}, Materialize(ix.Posting("type", "conn")))

	// Unknown values yield an all-zero bitmap of full length.
	missing := ix.Posting("type", "smtp")
	assert.Equal(t, ix.Rows(), missing.Len())
	assert.Equal(t, uint64(0), missing.Count(true))
}

func TestEvaluateEqual(t *testing.T) {
	ix := seedIndex(t)

	bm, err := ix.Evaluate(context.Background(), []Filter{
		{Field: "proto", Op: OpEqual, Values: []string{"udp"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, Materialize(bm))
}

func TestEvaluateConjunction(t *testing.T) {
	ix := seedIndex(t)

	bm, err := ix.Evaluate(context.Background(), []Filter{
		{Field: "type", Op: OpEqual, Values: []string{"conn"}},
		{Field: "proto", Op: OpEqual, Values: []string{"tcp"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 3}, Materialize(bm))
}

func TestEvaluateIn(t *testing.T) {
	ix := seedIndex(t)

	bm, err := ix.Evaluate(context.Background(), []Filter{
		{Field: "type", Op: OpIn, Values: []string{"dns", "http"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 4}, Materialize(bm))
}

func TestEvaluateNotEqual(t *testing.T) {
	ix := seedIndex(t)

	// Rows without the field count as not-equal: row 4 has no proto.
	bm, err := ix.Evaluate(context.Background(), []Filter{
		{Field: "proto", Op: OpNotEqual, Values: []string{"tcp"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 4}, Materialize(bm))
}

func TestEvaluateNoFiltersMatchesAll(t *testing.T) {
	ix := seedIndex(t)

	bm, err := ix.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ix.Rows(), bm.Len())
	assert.Equal(t, ix.Rows(), bm.Count(true))
}

func TestEvaluateResultLengthIsRowCount(t *testing.T) {
	ix := New()
	ix.Append(map[string]string{"type": "conn"})
	for i := 0; i < 99; i++ {
		ix.Append(map[string]string{"type": "dns"})
	}

	// The conn posting is a single bit; the result still spans all rows.
	bm, err := ix.Evaluate(context.Background(), []Filter{
		{Field: "type", Op: OpEqual, Values: []string{"conn"}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bm.Len())
	assert.Equal(t, []uint64{0}, Materialize(bm))
}

func TestEvaluateErrors(t *testing.T) {
	ix := seedIndex(t)

	_, err := ix.Evaluate(context.Background(), []Filter{
		{Field: "type", Op: OpEqual},
	})
	assert.True(t, errors.Is(err, ErrNoValues))

	_, err = ix.Evaluate(context.Background(), []Filter{
		{Field: "type", Op: Operator(42), Values: []string{"conn"}},
	})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ix.Evaluate(ctx, []Filter{
		{Field: "type", Op: OpEqual, Values: []string{"conn"}},
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestConcurrentAppendAndQuery(t *testing.T) {
	ix := New()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				ix.Append(map[string]string{"type": "conn"})
			}
		}()
	}
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, err := ix.Evaluate(context.Background(), []Filter{
					{Field: "type", Op: OpEqual, Values: []string{"conn"}},
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(1000), ix.Rows())
	assert.Equal(t, uint64(1000), ix.Posting("type", "conn").Count(true))
}

func TestMaterializeAcrossFills(t *testing.T) {
	bm := bitgo.New()
	bm.AppendBits(false, 128)
	bm.AppendBits(true, 3)
	bm.AppendBlock(0b101, 3)

	assert.Equal(t, []uint64{128, 129, 130, 131, 133}, Materialize(bm))
	assert.Empty(t, Materialize(bitgo.New()))
}
