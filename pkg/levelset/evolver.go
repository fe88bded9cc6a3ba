// Package levelset evolves an implicit contour represented as the zero
// crossing of a signed-distance field. The evolver applies the geodesic
// active contour update, a weighted combination of a mean-curvature
// smoothing term, an edge-potential propagation term and an advection
// term pulling the front toward edges, iterating inside a sparse narrow
// band until the RMS change of the field drops below a threshold or the
// iteration budget runs out.
//
// The sign convention follows the fast-marching initialization: phi is
// negative inside the contour and positive outside, so the segmented
// region is where the final field is at or below zero.
package levelset

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"

	"levelsetseg/pkg/grid"
)

// Status is the terminal state of an evolution run. Both values are
// successful outcomes; the caller decides whether an exhausted iteration
// budget is acceptable.
type Status int

const (
	// StatusConverged means the RMS change dropped below the configured
	// threshold.
	StatusConverged Status = iota
	// StatusIterationLimit means the configured maximum number of
	// iterations was reached, or the run was cancelled, before
	// convergence.
	StatusIterationLimit
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "Converged"
	case StatusIterationLimit:
		return "IterationLimitReached"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// cflFactor bounds the explicit time step so the front moves less than
// half a grid cell per iteration.
const cflFactor = 0.45

// defaultBandWidth is the number of layers kept on each side of the zero
// crossing.
const defaultBandWidth = 2

// Params configures an evolution run. The three scales weigh the PDE
// terms; all must be non-negative.
type Params struct {
	// CurvatureScale weighs the mean-curvature smoothing term.
	CurvatureScale float64
	// PropagationScale weighs the outward propagation term, which is
	// proportional to the edge-potential value times the upwind gradient
	// magnitude of phi.
	PropagationScale float64
	// AdvectionScale weighs the term pulling the front toward edge-
	// potential minima.
	AdvectionScale float64
	// MaxIterations caps the number of update steps. Zero is permitted
	// and performs no updates at all.
	MaxIterations int
	// MaxRMSError is the convergence threshold on the per-step RMS
	// change of phi over the active band.
	MaxRMSError float64
	// Workers is the number of goroutines computing update terms. Zero
	// or one runs serially; the default is the number of CPUs.
	Workers int
	// BandWidth is the number of narrow-band layers on each side of the
	// zero crossing; zero selects the default of 2.
	BandWidth int
}

// Result reports the outcome of an evolution run.
type Result struct {
	// Phi is the final level-set field. It is a copy; the input field is
	// never modified.
	Phi *grid.Grid
	// Iterations is the number of update steps actually executed.
	Iterations int
	// RMSChange is the RMS change of phi over the active band during the
	// last executed step.
	RMSChange float64
	// Status reports how the run terminated.
	Status Status
}

// Evolver runs level-set evolution with a fixed parameter set. An
// Evolver owns its narrow-band bookkeeping exclusively during a run and
// must not be shared across concurrent Evolve calls.
type Evolver struct {
	params Params
}

// NewEvolver validates the parameters and returns an evolver.
// Negative scales, a negative iteration cap or a negative RMS threshold
// fail with ErrConfiguration.
func NewEvolver(params Params) (*Evolver, error) {
	if params.CurvatureScale < 0 || params.PropagationScale < 0 || params.AdvectionScale < 0 {
		return nil, fmt.Errorf("%w: scales must be non-negative, got curvature=%g propagation=%g advection=%g",
			ErrConfiguration, params.CurvatureScale, params.PropagationScale, params.AdvectionScale)
	}
	if params.MaxIterations < 0 {
		return nil, fmt.Errorf("%w: maximum iterations must not be negative, got %d", ErrConfiguration, params.MaxIterations)
	}
	if params.MaxRMSError < 0 {
		return nil, fmt.Errorf("%w: maximum RMS error must not be negative, got %g", ErrConfiguration, params.MaxRMSError)
	}
	if params.Workers <= 0 {
		params.Workers = runtime.NumCPU()
	}
	if params.BandWidth <= 0 {
		params.BandWidth = defaultBandWidth
	}
	return &Evolver{params: params}, nil
}

// Evolve runs the update loop on a copy of the initial field and returns
// the final field together with the executed iteration count, the last
// RMS change and the terminal status.
//
// The feature field is the edge potential produced by the preprocessing
// stages, expected (but not required) to lie in [0, 1]. It must have the
// same shape as phi.
//
// Cancellation is honored at iteration boundaries only, so the returned
// field is always the result of a whole number of synchronous steps; in
// that case the result carries StatusIterationLimit and the context's
// error is returned alongside it.
func (e *Evolver) Evolve(ctx context.Context, initial, feature *grid.Grid) (*Result, error) {
	if feature.Len() != initial.Len() || feature.Dims() != initial.Dims() {
		return nil, fmt.Errorf("%w: feature shape %v does not match level-set shape %v",
			ErrConfiguration, feature.Shape(), initial.Shape())
	}

	phi := initial.Clone()
	res := &Result{Phi: phi, Status: StatusIterationLimit}

	var advection [][]float64
	if e.params.AdvectionScale > 0 {
		advection = advectionField(feature)
	}

	band := newNarrowBand(phi.Len(), e.params.BandWidth)
	band.Classify(phi)

	minSpacing := math.Inf(1)
	for _, h := range phi.Spacing() {
		minSpacing = math.Min(minSpacing, h)
	}

	workers := e.params.Workers
	calcs := make([]*termCalc, workers)
	for i := range calcs {
		calcs[i] = newTermCalc(phi)
	}

	var delta []float64

	for iter := 1; iter <= e.params.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			// Best-available field from the last completed step.
			return res, err
		}

		// A front that has left the domain, or consumed it entirely,
		// leaves nothing to update: degenerate convergence.
		if band.Size() == 0 {
			res.RMSChange = 0
			res.Status = StatusConverged
			return res, nil
		}

		if cap(delta) < band.Size() {
			delta = make([]float64, band.Size())
		}
		delta = delta[:band.Size()]

		maxMag, err := e.computeDeltas(band, feature, advection, calcs, delta)
		if err != nil {
			return nil, err
		}
		if maxMag == 0 {
			res.Iterations = iter
			res.RMSChange = 0
			res.Status = StatusConverged
			return res, nil
		}

		// One global step for the whole band, bounded so the front
		// cannot jump a cell.
		dt := cflFactor * minSpacing / maxMag

		// Jacobi apply: every delta was computed from the pre-step
		// field, so the order of writes carries no bias.
		needRebuild := false
		for i, entry := range band.entries {
			v := phi.At(entry.offset) + dt*delta[i]
			phi.Set(entry.offset, v)
			if entry.layer == 0 && math.Abs(v) > 0.5*minSpacing {
				needRebuild = true
			}
		}

		res.Iterations = iter
		res.RMSChange = dt * floats.Norm(delta, 2) / math.Sqrt(float64(len(delta)))

		if res.RMSChange < e.params.MaxRMSError {
			res.Status = StatusConverged
			return res, nil
		}
		if needRebuild {
			band.Rebuild(phi)
		}
	}

	return res, nil
}

// computeDeltas fills delta with the combined update term for every band
// entry and returns the largest magnitude seen. Entries are partitioned
// into disjoint ranges across the workers; each worker reads only the
// pre-step field, so no synchronization beyond the final barrier is
// needed.
func (e *Evolver) computeDeltas(band *narrowBand, feature *grid.Grid, advection [][]float64, calcs []*termCalc, delta []float64) (float64, error) {
	workers := len(calcs)
	if workers > len(band.entries) {
		workers = len(band.entries)
	}
	chunk := (len(band.entries) + workers - 1) / workers

	maxes := make([]float64, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(band.entries) {
			end = len(band.entries)
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			calc := calcs[w]
			localMax := 0.0
			for i := start; i < end; i++ {
				off := band.entries[i].offset
				d := e.cellDelta(calc, feature, advection, off)
				if math.IsNaN(d) || math.IsInf(d, 0) {
					errs[w] = fmt.Errorf("%w: non-finite update %g at offset %d", ErrInstability, d, off)
					return
				}
				delta[i] = d
				if m := math.Abs(d); m > localMax {
					localMax = m
				}
			}
			maxes[w] = localMax
		}(w, start, end)
	}
	wg.Wait()

	maxMag := 0.0
	for w := 0; w < workers; w++ {
		if errs[w] != nil {
			return 0, errs[w]
		}
		if maxes[w] > maxMag {
			maxMag = maxes[w]
		}
	}
	return maxMag, nil
}

// cellDelta evaluates the combined PDE right-hand side at one cell:
//
//	dphi/dt = curvature*kappa*|grad phi|
//	        - propagation*speed*|grad phi|
//	        - advection*(A . grad phi)
//
// where A is the negated feature gradient, so the advection term drags
// the front into the valleys of the edge potential.
func (e *Evolver) cellDelta(calc *termCalc, feature *grid.Grid, advection [][]float64, off int) float64 {
	calc.firstDerivatives(off)

	d := 0.0
	if e.params.CurvatureScale > 0 {
		d += e.params.CurvatureScale * calc.curvatureTimesGradient(off)
	}
	if e.params.PropagationScale > 0 {
		d -= e.params.PropagationScale * feature.At(off) * calc.upwindGradientMagnitude()
	}
	if advection != nil {
		d -= e.params.AdvectionScale * calc.advectionDot(advection, off)
	}
	return d
}

// advectionField precomputes the negated central-difference gradient of
// the feature field, one component slice per axis.
func advectionField(feature *grid.Grid) [][]float64 {
	dims := feature.Dims()
	spacing := feature.Spacing()
	field := make([][]float64, dims)
	for d := range field {
		field[d] = make([]float64, feature.Len())
	}
	for off := 0; off < feature.Len(); off++ {
		for d := 0; d < dims; d++ {
			vp := feature.At(off)
			if n, ok := feature.Neighbor(off, d, 1); ok {
				vp = feature.At(n)
			}
			vm := feature.At(off)
			if n, ok := feature.Neighbor(off, d, -1); ok {
				vm = feature.At(n)
			}
			field[d][off] = -(vp - vm) / (2 * spacing[d])
		}
	}
	return field
}
