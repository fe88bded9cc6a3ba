// Package fastmarching solves the eikonal equation |grad T| = 1/speed on a
// dense grid using the fast marching method: a single causally ordered
// sweep that always finalizes the unresolved cell with the smallest
// tentative arrival time. The output is an arrival-time field whose value
// at each seed equals the seed's initial value and elsewhere is the
// minimal accumulated travel time from any seed.
//
// The solver is used by the segmentation pipeline to build the initial
// signed-distance field for level-set evolution: seeding with the negative
// of a chosen distance produces a field whose zero crossing sits at that
// distance from the seed.
package fastmarching

import (
	"fmt"
	"math"

	"levelsetseg/pkg/grid"
)

// Cell states during the sweep. Once a cell is Known its value is final
// and never revisited; Known cells form a monotonically non-decreasing
// front away from the seeds.
const (
	stateFar uint8 = iota
	stateTrial
	stateKnown
)

// Unreached marks cells the front never arrives at, either because their
// speed is zero or because the sweep stopped at the configured bound.
const Unreached = math.MaxFloat64

// Seed is a starting point for the arrival-time computation. Value is the
// arrival time assigned to the cell itself; the usual convention is the
// negative of the desired initial contour distance.
type Seed struct {
	Index []int
	Value float64
}

// Solver computes arrival-time fields. Configure it with either a speed
// field or a constant speed, then call Solve. A Solver owns no state
// between calls and a single instance may be reused sequentially; the
// sweep itself is inherently serial because every finalized value may
// depend on any earlier one.
type Solver struct {
	speedField *grid.Grid
	speedConst float64
	stopValue  float64
}

// NewSolver returns a solver with constant unit speed and no stop bound.
func NewSolver() *Solver {
	return &Solver{speedConst: 1.0, stopValue: Unreached}
}

// SetSpeedConstant configures a spatially constant speed, discarding any
// previously set speed field. Used when fast marching serves purely as a
// distance-map generator.
func (s *Solver) SetSpeedConstant(speed float64) {
	s.speedConst = speed
	s.speedField = nil
}

// SetSpeedField configures a per-cell speed field. Values must be
// non-negative; a zero-speed cell is never reached.
func (s *Solver) SetSpeedField(f *grid.Grid) {
	s.speedField = f
}

// SetStopValue bounds the sweep: cells whose arrival time would exceed v
// are left Unreached. The default is no bound.
func (s *Solver) SetStopValue(v float64) {
	s.stopValue = v
}

// Solve runs fast marching over a domain with the shape and spacing of
// the given grid and returns the arrival-time field. Cells the front
// never reaches hold Unreached.
//
// Seeds outside the domain and negative speed values fail with
// ErrConfiguration. Duplicate seed indices keep the smaller initial
// value. Complexity is O(N log N) in the number of grid cells.
func (s *Solver) Solve(domain *grid.Grid, seeds []Seed) (*grid.Grid, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: at least one seed is required", ErrConfiguration)
	}
	if s.speedField != nil {
		if s.speedField.Len() != domain.Len() || s.speedField.Dims() != domain.Dims() {
			return nil, fmt.Errorf("%w: speed field shape %v does not match domain shape %v",
				ErrConfiguration, s.speedField.Shape(), domain.Shape())
		}
		for i, v := range s.speedField.Data() {
			if v < 0 {
				return nil, fmt.Errorf("%w: negative speed %g at offset %d", ErrConfiguration, v, i)
			}
		}
	} else if s.speedConst < 0 {
		return nil, fmt.Errorf("%w: negative constant speed %g", ErrConfiguration, s.speedConst)
	}

	arrival, err := grid.NewWithSpacing(domain.Shape(), domain.Spacing())
	if err != nil {
		return nil, err
	}
	arrival.Fill(Unreached)

	state := make([]uint8, domain.Len())
	trial := newTrialHeap(domain.Len())

	// Seed the trial set. Duplicates resolve to the smaller value so the
	// earliest requested arrival wins.
	for _, seed := range seeds {
		if !domain.InBounds(seed.Index) {
			return nil, fmt.Errorf("%w: seed index %v outside domain %v",
				ErrConfiguration, seed.Index, domain.Shape())
		}
		off := domain.Offset(seed.Index)
		if state[off] == stateTrial {
			trial.DecreaseKey(off, seed.Value)
			continue
		}
		state[off] = stateTrial
		trial.Push(off, seed.Value)
	}

	spacing := domain.Spacing()
	dims := domain.Dims()

	// The causal sweep: finalize the nearest trial cell, then relax its
	// not-yet-known neighbors.
	for trial.Len() > 0 {
		off, t := trial.PopMin()
		if t > s.stopValue {
			break
		}
		state[off] = stateKnown
		arrival.Set(off, t)

		for axis := 0; axis < dims; axis++ {
			for _, dir := range [2]int{-1, 1} {
				n, ok := domain.Neighbor(off, axis, dir)
				if !ok || state[n] == stateKnown {
					continue
				}
				speed := s.speedConst
				if s.speedField != nil {
					speed = s.speedField.At(n)
				}
				if speed == 0 {
					// Never reached; stays Far at the Unreached sentinel.
					continue
				}
				candidate := s.updateValue(arrival, state, spacing, n, speed)
				if state[n] == stateTrial {
					trial.DecreaseKey(n, candidate)
				} else {
					state[n] = stateTrial
					trial.Push(n, candidate)
				}
			}
		}
	}

	return arrival, nil
}

// updateValue computes the tentative arrival time at a cell by solving
// the upwind finite-difference discretization of the eikonal equation
// using only Known neighbor values: along each axis the smaller Known
// neighbor contributes a term ((T - Ti)/hi)^2 to the sum, which must
// equal 1/speed^2. That is a quadratic in T; when the discriminant is
// negative the axes disagree too strongly and the update falls back to
// the best single-axis estimate.
func (s *Solver) updateValue(arrival *grid.Grid, state []uint8, spacing []float64, off int, speed float64) float64 {
	var (
		a, b, c   float64
		bestAxisT = Unreached
	)
	c = -1.0 / (speed * speed)

	for axis := 0; axis < arrival.Dims(); axis++ {
		ti := Unreached
		for _, dir := range [2]int{-1, 1} {
			n, ok := arrival.Neighbor(off, axis, dir)
			if !ok || state[n] != stateKnown {
				continue
			}
			if v := arrival.At(n); v < ti {
				ti = v
			}
		}
		if ti == Unreached {
			continue
		}
		h := spacing[axis]
		inv2 := 1.0 / (h * h)
		a += inv2
		b += -2.0 * ti * inv2
		c += ti * ti * inv2

		if single := ti + h/speed; single < bestAxisT {
			bestAxisT = single
		}
	}

	if a == 0 {
		// No Known neighbor along any axis; can happen transiently for
		// cells queued purely by seed adjacency bookkeeping.
		return bestAxisT
	}

	disc := b*b - 4.0*a*c
	if disc < 0 {
		// Degenerate discriminant: recoverable numerical path, not an
		// error. Use the single-axis solution from the smallest estimate.
		return bestAxisT
	}
	t := (-b + math.Sqrt(disc)) / (2.0 * a)
	if t < bestAxisT {
		return t
	}
	return bestAxisT
}
