package segmentation

import "errors"

var (
	// ErrConfiguration indicates invalid pipeline options or inputs: a
	// non-2D input grid, missing seeds, or a degenerate sigmoid slope.
	ErrConfiguration = errors.New("segmentation: invalid configuration")
	// ErrNoInput indicates Run was called before SetInput.
	ErrNoInput = errors.New("segmentation: no input image set")
)
