package levelset

import "errors"

var (
	// ErrConfiguration indicates malformed evolution parameters or
	// mismatched field shapes.
	ErrConfiguration = errors.New("levelset: invalid configuration")
	// ErrInstability indicates the update produced a non-finite value
	// despite the stability bound; the caller should retry with smaller
	// weights.
	ErrInstability = errors.New("levelset: numerical instability")
)
