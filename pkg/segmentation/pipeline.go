// Package segmentation composes the full boundary-segmentation pipeline:
// Gaussian smoothing, gradient magnitude, sigmoid edge potential, a
// fast-marching distance map seeded at user-chosen points, geodesic
// active contour evolution, and a final binary threshold.
//
// The stages are owned by the Pipeline and invoked in dependency order.
// Each stage output is cached together with a dirty flag; changing an
// input or a parameter invalidates only the stages downstream of it, so
// repeated runs after a parameter tweak recompute the minimum necessary.
package segmentation

import (
	"context"
	"fmt"

	"levelsetseg/pkg/fastmarching"
	"levelsetseg/pkg/grid"
	"levelsetseg/pkg/levelset"
)

// stage identifies one pipeline step; the order is the execution order.
type stage int

const (
	stageSmooth stage = iota
	stageGradient
	stageSigmoid
	stageDistance
	stageEvolve
	stageThreshold
	stageCount
)

// Options configures the pipeline stages.
type Options struct {
	// Sigma is the Gaussian smoothing width in cells. Zero disables
	// smoothing.
	Sigma float64
	// SigmoidAlpha is the sigmoid slope. Negative values (the usual
	// choice) map strong edges toward zero speed.
	SigmoidAlpha float64
	// SigmoidBeta is the sigmoid center, typically placed between the
	// gradient levels of homogeneous regions and object boundaries.
	SigmoidBeta float64
	// InitialDistance is the radius, in physical units, at which the
	// initial contour is placed around the seeds. The fast-marching
	// stage is seeded with its negation so the distance map itself
	// crosses zero at this radius.
	InitialDistance float64
	// Threshold is the phi cutoff of the final mask; the segmented
	// region is where phi <= Threshold. Normally zero.
	Threshold float64
	// Evolution configures the level-set evolver.
	Evolution levelset.Params
}

// Result reports a completed pipeline run.
type Result struct {
	// Mask is the binary segmentation (MaskInside / MaskOutside).
	Mask *grid.Grid
	// Phi is the final level-set field, for diagnostics or re-thresholding.
	Phi *grid.Grid
	// Iterations and RMSChange are the evolver diagnostics.
	Iterations int
	RMSChange  float64
	// Status is the evolver's terminal status.
	Status levelset.Status
}

// Pipeline owns the statically composed stage sequence. It is not safe
// for concurrent use.
type Pipeline struct {
	opts  Options
	input *grid.Grid
	seeds [][]int
	dirty [stageCount]bool

	smoothed  *grid.Grid
	gradMag   *grid.Grid
	potential *grid.Grid
	initial   *grid.Grid
	evolution *levelset.Result
	mask      *grid.Grid
}

// NewPipeline validates the options and returns an empty pipeline; call
// SetInput and SetSeeds before Run.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.SigmoidAlpha == 0 {
		return nil, fmt.Errorf("%w: sigmoid alpha must be non-zero", ErrConfiguration)
	}
	if opts.InitialDistance <= 0 {
		return nil, fmt.Errorf("%w: initial distance must be positive, got %g", ErrConfiguration, opts.InitialDistance)
	}
	if _, err := levelset.NewEvolver(opts.Evolution); err != nil {
		return nil, err
	}
	return &Pipeline{opts: opts}, nil
}

// SetInput installs the scalar image to segment and invalidates every
// stage. Only 2D grids are supported by the smoothing stage.
func (p *Pipeline) SetInput(img *grid.Grid) error {
	if img.Dims() != 2 {
		return fmt.Errorf("%w: pipeline requires a 2D grid, got %d dimensions", ErrConfiguration, img.Dims())
	}
	p.input = img
	p.invalidate(stageSmooth)
	return nil
}

// SetSeeds installs the seed indices for the initial contour and
// invalidates the distance map and everything after it.
func (p *Pipeline) SetSeeds(seeds [][]int) {
	p.seeds = seeds
	p.invalidate(stageDistance)
}

// SetEvolution replaces the evolution parameters, invalidating the
// evolve and threshold stages only: the edge potential and distance map
// are reused as-is.
func (p *Pipeline) SetEvolution(params levelset.Params) error {
	if _, err := levelset.NewEvolver(params); err != nil {
		return err
	}
	p.opts.Evolution = params
	p.invalidate(stageEvolve)
	return nil
}

// SetThreshold replaces the mask cutoff, invalidating only the threshold
// stage.
func (p *Pipeline) SetThreshold(cutoff float64) {
	p.opts.Threshold = cutoff
	p.invalidate(stageThreshold)
}

func (p *Pipeline) invalidate(from stage) {
	for s := from; s < stageCount; s++ {
		p.dirty[s] = true
	}
}

// Run executes every stage whose cached output is stale and returns the
// final result. The context is passed to the evolver, which checks it at
// iteration boundaries; on cancellation Run returns the thresholded
// partial field together with the context's error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.input == nil {
		return nil, ErrNoInput
	}
	if len(p.seeds) == 0 {
		return nil, fmt.Errorf("%w: at least one seed is required", ErrConfiguration)
	}

	if p.dirty[stageSmooth] {
		p.smoothed = smooth(p.input, p.opts.Sigma)
		p.dirty[stageSmooth] = false
		p.invalidate(stageGradient)
	}
	if p.dirty[stageGradient] {
		p.gradMag = gradientMagnitude(p.smoothed)
		p.dirty[stageGradient] = false
		p.invalidate(stageSigmoid)
	}
	if p.dirty[stageSigmoid] {
		p.potential = sigmoid(p.gradMag, p.opts.SigmoidAlpha, p.opts.SigmoidBeta)
		p.dirty[stageSigmoid] = false
		p.invalidate(stageDistance)
	}
	if p.dirty[stageDistance] {
		initial, err := p.distanceMap()
		if err != nil {
			return nil, err
		}
		p.initial = initial
		p.dirty[stageDistance] = false
		p.invalidate(stageEvolve)
	}
	if p.dirty[stageEvolve] {
		evolver, err := levelset.NewEvolver(p.opts.Evolution)
		if err != nil {
			return nil, err
		}
		res, err := evolver.Evolve(ctx, p.initial, p.potential)
		if err != nil {
			if res == nil {
				return nil, err
			}
			// Cancelled mid-run: hand back the partial field alongside
			// the context error, but leave the stage dirty so a rerun
			// with a fresh context resumes evolution from scratch.
			return &Result{
				Mask:       threshold(res.Phi, p.opts.Threshold),
				Phi:        res.Phi,
				Iterations: res.Iterations,
				RMSChange:  res.RMSChange,
				Status:     res.Status,
			}, err
		}
		p.evolution = res
		p.dirty[stageEvolve] = false
		p.invalidate(stageThreshold)
	}
	if p.dirty[stageThreshold] {
		p.mask = threshold(p.evolution.Phi, p.opts.Threshold)
		p.dirty[stageThreshold] = false
	}

	return &Result{
		Mask:       p.mask,
		Phi:        p.evolution.Phi,
		Iterations: p.evolution.Iterations,
		RMSChange:  p.evolution.RMSChange,
		Status:     p.evolution.Status,
	}, nil
}

// distanceMap runs fast marching as a pure distance-map generator:
// constant unit speed, every seed valued at -InitialDistance, so the
// resulting field is negative within the initial radius and positive
// beyond it.
func (p *Pipeline) distanceMap() (*grid.Grid, error) {
	seeds := make([]fastmarching.Seed, len(p.seeds))
	for i, idx := range p.seeds {
		seeds[i] = fastmarching.Seed{Index: idx, Value: -p.opts.InitialDistance}
	}
	solver := fastmarching.NewSolver()
	solver.SetSpeedConstant(1.0)
	return solver.Solve(p.input, seeds)
}

// Smoothed returns the cached smoothing output, or nil before Run.
func (p *Pipeline) Smoothed() *grid.Grid { return p.smoothed }

// GradientMagnitude returns the cached gradient stage output, or nil
// before Run.
func (p *Pipeline) GradientMagnitude() *grid.Grid { return p.gradMag }

// EdgePotential returns the cached sigmoid stage output, or nil before
// Run.
func (p *Pipeline) EdgePotential() *grid.Grid { return p.potential }

// InitialLevelSet returns the cached distance map, or nil before Run.
func (p *Pipeline) InitialLevelSet() *grid.Grid { return p.initial }
