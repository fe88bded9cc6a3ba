package segmentation

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// fft2D performs a 2D Fast Fourier Transform on image data stored in
// row-major order. Filtering in the frequency domain keeps the Gaussian
// smoothing stage at O(n log n) regardless of sigma.
func fft2D(data []float64, width, height int) []complex128 {
	result := make([]complex128, width*height)
	for i, v := range data {
		result[i] = complex(v, 0)
	}

	// Row-wise transform.
	rowFFT := fourier.NewCmplxFFT(width)
	row := make([]complex128, width)
	for y := 0; y < height; y++ {
		copy(row, result[y*width:(y+1)*width])
		rowFFT.Coefficients(result[y*width:(y+1)*width], row)
	}

	// Column-wise transform.
	colFFT := fourier.NewCmplxFFT(height)
	colIn := make([]complex128, height)
	colOut := make([]complex128, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			colIn[y] = result[y*width+x]
		}
		colFFT.Coefficients(colOut, colIn)
		for y := 0; y < height; y++ {
			result[y*width+x] = colOut[y]
		}
	}

	return result
}

// ifft2D performs the inverse 2D FFT and returns the real part,
// normalized by the transform length.
func ifft2D(coeffs []complex128, width, height int) []float64 {
	work := make([]complex128, len(coeffs))
	copy(work, coeffs)

	colFFT := fourier.NewCmplxFFT(height)
	colIn := make([]complex128, height)
	colOut := make([]complex128, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			colIn[y] = work[y*width+x]
		}
		colFFT.Sequence(colOut, colIn)
		for y := 0; y < height; y++ {
			work[y*width+x] = colOut[y]
		}
	}

	rowFFT := fourier.NewCmplxFFT(width)
	row := make([]complex128, width)
	for y := 0; y < height; y++ {
		copy(row, work[y*width:(y+1)*width])
		rowFFT.Sequence(work[y*width:(y+1)*width], row)
	}

	// Gonum's transforms are unnormalized: forward followed by inverse
	// scales by the sequence length on each axis.
	scale := 1.0 / float64(width*height)
	out := make([]float64, len(work))
	for i, c := range work {
		out[i] = real(c) * scale
	}
	return out
}

// gaussianTransfer evaluates the frequency response of a Gaussian kernel
// with the given sigma (in cells) at discrete frequency (kx, ky).
func gaussianTransfer(kx, ky, width, height int, sigma float64) float64 {
	fx := float64(kx) / float64(width)
	if kx > width/2 {
		fx -= 1.0
	}
	fy := float64(ky) / float64(height)
	if ky > height/2 {
		fy -= 1.0
	}
	wx := 2 * math.Pi * fx
	wy := 2 * math.Pi * fy
	return math.Exp(-0.5 * sigma * sigma * (wx*wx + wy*wy))
}
