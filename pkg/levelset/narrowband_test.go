package levelset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"levelsetseg/pkg/grid"
)

// circleField builds a signed-distance field for a circle: negative
// inside, positive outside.
func circleField(t *testing.T, size int, cx, cy, radius float64) *grid.Grid {
	t.Helper()
	g, err := grid.New(size, size)
	require.NoError(t, err)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			g.Set(y*size+x, d-radius)
		}
	}
	return g
}

// TestClassifyFindsZeroCrossing verifies that layer 0 sits on the sign
// change and that band membership is bounded by the configured width.
func TestClassifyFindsZeroCrossing(t *testing.T) {
	const size = 21
	phi := circleField(t, size, 10, 10, 5)

	band := newNarrowBand(phi.Len(), 2)
	band.Classify(phi)
	require.NotZero(t, band.Size())

	for _, e := range band.entries {
		require.LessOrEqual(t, int(e.layer), 2)
		require.GreaterOrEqual(t, int(e.layer), -2)
		if e.layer == 0 {
			require.True(t, crossesZero(phi, e.offset),
				"layer-0 cell at offset %d does not straddle the zero level", e.offset)
		}
	}

	// The cell on the circle at (15,10) straddles the boundary.
	require.NotEqual(t, layerOutside, band.layerOf[10*size+15])
	// The center and the far corner are well outside the band.
	require.Equal(t, layerOutside, band.layerOf[10*size+10])
	require.Equal(t, layerOutside, band.layerOf[0])
}

// TestBandLayerAdjacency verifies the structural invariant: grid-adjacent
// cells never differ by more than one layer.
func TestBandLayerAdjacency(t *testing.T) {
	const size = 21
	phi := circleField(t, size, 10.3, 9.7, 6.2)

	band := newNarrowBand(phi.Len(), 3)
	band.Classify(phi)

	for _, e := range band.entries {
		for axis := 0; axis < phi.Dims(); axis++ {
			for _, dir := range [2]int{-1, 1} {
				n, ok := phi.Neighbor(e.offset, axis, dir)
				if !ok || band.layerOf[n] == layerOutside {
					continue
				}
				diff := int(e.layer) - int(band.layerOf[n])
				if diff < 0 {
					diff = -diff
				}
				require.LessOrEqual(t, diff, 1,
					"adjacent cells %d and %d differ by %d layers", e.offset, n, diff)
			}
		}
	}
}

// TestRebuildTracksMovedFront verifies that an amortized rebuild after a
// small front displacement produces the same band as classifying the
// moved field from scratch.
func TestRebuildTracksMovedFront(t *testing.T) {
	const size = 21
	phi := circleField(t, size, 10, 10, 6)

	band := newNarrowBand(phi.Len(), 2)
	band.Classify(phi)

	// Shrink the circle by less than half a cell and rebuild.
	for i := 0; i < phi.Len(); i++ {
		phi.Set(i, phi.At(i)+0.4)
	}
	band.Rebuild(phi)

	fresh := newNarrowBand(phi.Len(), 2)
	fresh.Classify(phi)

	require.Equal(t, fresh.Size(), band.Size())
	for off := range fresh.layerOf {
		require.Equal(t, fresh.layerOf[off], band.layerOf[off],
			"layer mismatch at offset %d after rebuild", off)
	}
}
