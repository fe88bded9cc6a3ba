package fastmarching

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestHeapOrdering pushes random values and verifies that PopMin yields
// them in non-decreasing order.
func TestHeapOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const n = 200

	h := newTrialHeap(n)
	want := make([]float64, n)
	for i := 0; i < n; i++ {
		want[i] = rng.Float64() * 100
		h.Push(i, want[i])
	}
	sort.Float64s(want)

	for i := 0; i < n; i++ {
		_, v := h.PopMin()
		require.Equal(t, want[i], v, "extraction %d out of order", i)
	}
	require.Equal(t, 0, h.Len())
}

// TestHeapDecreaseKey verifies that lowering a queued value reorders the
// heap and that attempts to raise a value are ignored.
func TestHeapDecreaseKey(t *testing.T) {
	h := newTrialHeap(4)
	h.Push(0, 10)
	h.Push(1, 20)
	h.Push(2, 30)

	h.DecreaseKey(2, 5)
	require.Equal(t, 5.0, h.Value(2))

	// Raising is a no-op.
	h.DecreaseKey(0, 99)
	require.Equal(t, 10.0, h.Value(0))

	off, v := h.PopMin()
	require.Equal(t, 2, off)
	require.Equal(t, 5.0, v)
	require.False(t, h.Contains(2))
	require.True(t, h.Contains(0))
}

// TestHeapStableTies verifies that equal keys are extracted in insertion
// order, so tie-breaking is deterministic across runs.
func TestHeapStableTies(t *testing.T) {
	h := newTrialHeap(5)
	for i := 0; i < 5; i++ {
		h.Push(i, 1.0)
	}
	for i := 0; i < 5; i++ {
		off, _ := h.PopMin()
		require.Equal(t, i, off, "tie broken out of insertion order")
	}
}
