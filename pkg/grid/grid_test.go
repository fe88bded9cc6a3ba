package grid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewValidation ensures that malformed shapes and spacings are
// rejected at construction.
func TestNewValidation(t *testing.T) {
	cases := []struct {
		name    string
		shape   []int
		spacing []float64
	}{
		{"EmptyShape", nil, nil},
		{"ZeroExtent", []int{4, 0}, []float64{1, 1}},
		{"NegativeExtent", []int{-3, 4}, []float64{1, 1}},
		{"SpacingMismatch", []int{4, 4}, []float64{1}},
		{"ZeroSpacing", []int{4, 4}, []float64{1, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWithSpacing(tc.shape, tc.spacing)
			require.Error(t, err)
		})
	}
}

// TestOffsetIndexRoundTrip verifies that flat offsets and multi-indices
// convert back and forth consistently in row-major order.
func TestOffsetIndexRoundTrip(t *testing.T) {
	g, err := New(3, 4, 5)
	require.NoError(t, err)
	require.Equal(t, 60, g.Len())

	idx := make([]int, 3)
	for off := 0; off < g.Len(); off++ {
		idx = g.Index(off, idx)
		require.True(t, g.InBounds(idx))
		require.Equal(t, off, g.Offset(idx), "round trip for offset %d", off)
	}

	// The last axis must vary fastest.
	require.Equal(t, 1, g.Offset([]int{0, 0, 1}))
	require.Equal(t, 5, g.Offset([]int{0, 1, 0}))
	require.Equal(t, 20, g.Offset([]int{1, 0, 0}))
}

// TestNeighbor checks axis-neighbor resolution including the domain
// borders.
func TestNeighbor(t *testing.T) {
	g, err := New(3, 3)
	require.NoError(t, err)

	center := g.Offset([]int{1, 1})
	n, ok := g.Neighbor(center, 1, 1)
	require.True(t, ok)
	require.Equal(t, g.Offset([]int{1, 2}), n)

	n, ok = g.Neighbor(center, 0, -1)
	require.True(t, ok)
	require.Equal(t, g.Offset([]int{0, 1}), n)

	// Walking off the grid fails.
	corner := g.Offset([]int{0, 0})
	_, ok = g.Neighbor(corner, 0, -1)
	require.False(t, ok)
	_, ok = g.Neighbor(corner, 1, -1)
	require.False(t, ok)
}

// TestCloneIsIndependent verifies that a clone shares no storage with
// its source.
func TestCloneIsIndependent(t *testing.T) {
	g, err := New(2, 2)
	require.NoError(t, err)
	g.Set(0, 7)

	c := g.Clone()
	c.Set(0, -1)

	require.Equal(t, 7.0, g.At(0))
	require.Equal(t, -1.0, c.At(0))
}

// TestFromData wraps an existing buffer and rejects length mismatches.
func TestFromData(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	g, err := FromData(data, 2, 3)
	require.NoError(t, err)
	require.Equal(t, 6.0, g.At(g.Offset([]int{1, 2})))

	_, err = FromData(data, 2, 2)
	require.Error(t, err)
}
