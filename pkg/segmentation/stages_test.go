package segmentation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"levelsetseg/pkg/grid"
)

// TestGaussianTransferDC verifies that the smoothing filter passes the
// DC component untouched, which is what preserves the image mean.
func TestGaussianTransferDC(t *testing.T) {
	require.Equal(t, 1.0, gaussianTransfer(0, 0, 32, 32, 2.5))
	require.Less(t, gaussianTransfer(16, 16, 32, 32, 2.5), 1e-6)
}

// TestSmoothPreservesMeanReducesVariance verifies the two basic
// low-pass properties on a noisy field.
func TestSmoothPreservesMeanReducesVariance(t *testing.T) {
	const size = 32
	rng := rand.New(rand.NewSource(7))

	src, err := grid.New(size, size)
	require.NoError(t, err)
	for i := 0; i < src.Len(); i++ {
		src.Set(i, rng.Float64()*100)
	}

	out := smooth(src, 2.0)

	mean := func(g *grid.Grid) float64 {
		s := 0.0
		for _, v := range g.Data() {
			s += v
		}
		return s / float64(g.Len())
	}
	variance := func(g *grid.Grid, m float64) float64 {
		s := 0.0
		for _, v := range g.Data() {
			s += (v - m) * (v - m)
		}
		return s / float64(g.Len())
	}

	mSrc, mOut := mean(src), mean(out)
	require.InDelta(t, mSrc, mOut, 1e-6, "smoothing shifted the mean")
	require.Less(t, variance(out, mOut), variance(src, mSrc), "smoothing did not reduce variance")
}

// TestSmoothZeroSigmaIsIdentity verifies that a non-positive sigma
// returns the input unchanged.
func TestSmoothZeroSigmaIsIdentity(t *testing.T) {
	src, err := grid.New(8, 8)
	require.NoError(t, err)
	src.Set(10, 42)

	out := smooth(src, 0)
	for i := 0; i < src.Len(); i++ {
		require.Equal(t, src.At(i), out.At(i))
	}
}

// TestGradientMagnitudeOnRamp verifies the central-difference gradient
// against a linear ramp whose true gradient is known.
func TestGradientMagnitudeOnRamp(t *testing.T) {
	const size = 16
	src, err := grid.New(size, size)
	require.NoError(t, err)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			src.Set(y*size+x, 3*float64(x)+4*float64(y))
		}
	}

	out := gradientMagnitude(src)
	// Interior cells see the exact slope magnitude 5; the border is
	// distorted by edge replication.
	for y := 1; y < size-1; y++ {
		for x := 1; x < size-1; x++ {
			require.InDelta(t, 5.0, out.At(y*size+x), 1e-9, "gradient at (%d,%d)", x, y)
		}
	}
}

// TestSigmoidRangeAndOrientation verifies that the sigmoid stays inside
// [0,1] and that a negative alpha maps strong gradients toward zero.
func TestSigmoidRangeAndOrientation(t *testing.T) {
	src, err := grid.New(1, 5)
	require.NoError(t, err)
	for i, v := range []float64{0, 2, 5, 10, 50} {
		src.Set(i, v)
	}

	out := sigmoid(src, -2.0, 5.0)
	for i := 0; i < out.Len(); i++ {
		require.GreaterOrEqual(t, out.At(i), 0.0)
		require.LessOrEqual(t, out.At(i), 1.0)
	}
	// Homogeneous regions (low gradient) keep high speed, edges stall.
	require.Greater(t, out.At(0), 0.9)
	require.Less(t, out.At(4), 0.1)
	for i := 1; i < out.Len(); i++ {
		require.LessOrEqual(t, out.At(i), out.At(i-1), "sigmoid not monotone at %d", i)
	}
}

// TestThreshold verifies the binary mask convention.
func TestThreshold(t *testing.T) {
	phi, err := grid.New(1, 4)
	require.NoError(t, err)
	for i, v := range []float64{-2, 0, 0.5, 3} {
		phi.Set(i, v)
	}

	mask := threshold(phi, 0)
	require.Equal(t, MaskInside, mask.At(0))
	require.Equal(t, MaskInside, mask.At(1))
	require.Equal(t, MaskOutside, mask.At(2))
	require.Equal(t, MaskOutside, mask.At(3))

	// A caller-chosen cutoff moves the boundary.
	mask = threshold(phi, 1.0)
	require.Equal(t, MaskInside, mask.At(2))
	require.Equal(t, MaskOutside, mask.At(3))
}

// TestFFTRoundTrip verifies that forward plus inverse transforms
// reproduce the input.
func TestFFTRoundTrip(t *testing.T) {
	const width, height = 12, 8
	rng := rand.New(rand.NewSource(3))
	data := make([]float64, width*height)
	for i := range data {
		data[i] = rng.NormFloat64()
	}

	back := ifft2D(fft2D(data, width, height), width, height)
	for i := range data {
		require.False(t, math.IsNaN(back[i]))
		require.InDelta(t, data[i], back[i], 1e-9, "round trip at %d", i)
	}
}
