package fastmarching

import "errors"

var (
	// ErrConfiguration indicates invalid solver input: a seed outside the
	// grid domain, a negative speed value, or mismatched field shapes.
	ErrConfiguration = errors.New("fastmarching: invalid configuration")
)
