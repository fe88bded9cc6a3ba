// Package grid provides the dense N-dimensional scalar field that all
// stages of the segmentation engine operate on. A Grid couples an immutable
// shape (dimensions and per-axis spacing) with a mutable flat buffer of
// float64 values stored in row-major order, so that the numerical code can
// address cells either by flat offset or by integer multi-index without
// copying data between representations.
package grid

import (
	"fmt"
)

// Grid is a dense N-dimensional array of scalar values with uniform
// per-axis spacing. The shape is fixed at construction; only the values
// change during processing.
type Grid struct {
	shape   []int
	spacing []float64
	strides []int
	data    []float64
}

// New creates a grid with the given shape and unit spacing on every axis.
// All values start at zero.
func New(shape ...int) (*Grid, error) {
	spacing := make([]float64, len(shape))
	for i := range spacing {
		spacing[i] = 1.0
	}
	return NewWithSpacing(shape, spacing)
}

// NewWithSpacing creates a grid with the given shape and per-axis spacing.
// Every dimension must be positive and every spacing strictly positive.
func NewWithSpacing(shape []int, spacing []float64) (*Grid, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("grid: shape must have at least one dimension")
	}
	if len(spacing) != len(shape) {
		return nil, fmt.Errorf("grid: got %d spacing values for %d dimensions", len(spacing), len(shape))
	}

	size := 1
	for d, n := range shape {
		if n <= 0 {
			return nil, fmt.Errorf("grid: dimension %d has non-positive extent %d", d, n)
		}
		if spacing[d] <= 0 {
			return nil, fmt.Errorf("grid: axis %d has non-positive spacing %g", d, spacing[d])
		}
		size *= n
	}

	// Row-major strides: the last axis varies fastest, matching the
	// y*width+x convention used throughout the image stages.
	strides := make([]int, len(shape))
	stride := 1
	for d := len(shape) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= shape[d]
	}

	g := &Grid{
		shape:   append([]int(nil), shape...),
		spacing: append([]float64(nil), spacing...),
		strides: strides,
		data:    make([]float64, size),
	}
	return g, nil
}

// FromData wraps an existing flat buffer in a grid. The buffer length must
// match the product of the shape extents; the buffer is taken over, not
// copied.
func FromData(data []float64, shape ...int) (*Grid, error) {
	g, err := New(shape...)
	if err != nil {
		return nil, err
	}
	if len(data) != len(g.data) {
		return nil, fmt.Errorf("grid: buffer length %d does not match shape volume %d", len(data), len(g.data))
	}
	g.data = data
	return g, nil
}

// Dims returns the number of dimensions.
func (g *Grid) Dims() int { return len(g.shape) }

// Shape returns the extent of each axis. The returned slice is shared and
// must not be modified.
func (g *Grid) Shape() []int { return g.shape }

// Spacing returns the physical spacing of each axis. The returned slice is
// shared and must not be modified.
func (g *Grid) Spacing() []float64 { return g.spacing }

// Len returns the total number of cells.
func (g *Grid) Len() int { return len(g.data) }

// Data returns the underlying flat buffer in row-major order.
func (g *Grid) Data() []float64 { return g.data }

// At returns the value at the given flat offset.
func (g *Grid) At(i int) float64 { return g.data[i] }

// Set stores a value at the given flat offset.
func (g *Grid) Set(i int, v float64) { g.data[i] = v }

// Offset converts a multi-index to a flat offset. The index is not bounds
// checked; use InBounds first for untrusted input.
func (g *Grid) Offset(index []int) int {
	off := 0
	for d, x := range index {
		off += x * g.strides[d]
	}
	return off
}

// Index converts a flat offset back to a multi-index, writing into dst if
// it has the right length and allocating otherwise.
func (g *Grid) Index(offset int, dst []int) []int {
	if len(dst) != len(g.shape) {
		dst = make([]int, len(g.shape))
	}
	for d := 0; d < len(g.shape); d++ {
		dst[d] = offset / g.strides[d]
		offset %= g.strides[d]
	}
	return dst
}

// InBounds reports whether the multi-index lies inside the grid.
func (g *Grid) InBounds(index []int) bool {
	if len(index) != len(g.shape) {
		return false
	}
	for d, x := range index {
		if x < 0 || x >= g.shape[d] {
			return false
		}
	}
	return true
}

// AxisCoord returns the coordinate of a flat offset along one axis,
// avoiding a full Index conversion in hot loops.
func (g *Grid) AxisCoord(offset, axis int) int {
	return (offset / g.strides[axis]) % g.shape[axis]
}

// Neighbor returns the flat offset of the cell one step along the given
// axis (dir is -1 or +1) and whether that cell exists.
func (g *Grid) Neighbor(offset, axis, dir int) (int, bool) {
	c := g.AxisCoord(offset, axis) + dir
	if c < 0 || c >= g.shape[axis] {
		return 0, false
	}
	return offset + dir*g.strides[axis], true
}

// Fill sets every cell to v.
func (g *Grid) Fill(v float64) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Clone returns a deep copy sharing no storage with the receiver.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		shape:   g.shape,
		spacing: g.spacing,
		strides: g.strides,
		data:    make([]float64, len(g.data)),
	}
	copy(c.data, g.data)
	return c
}

// CopyValuesFrom copies the values of src into g. The shapes must match.
func (g *Grid) CopyValuesFrom(src *Grid) error {
	if len(src.data) != len(g.data) {
		return fmt.Errorf("grid: cannot copy %d values into %d cells", len(src.data), len(g.data))
	}
	copy(g.data, src.data)
	return nil
}
