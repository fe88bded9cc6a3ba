// Package contour extracts the zero crossing of a 2D level-set field as
// a point cloud and provides distance diagnostics between contours. The
// point cloud is indexed with a KD-tree so nearest-contour queries stay
// O(log n), which keeps Hausdorff-style comparisons cheap even for long
// boundaries.
package contour

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"

	"levelsetseg/pkg/grid"
)

// Point is a sub-cell contour location in physical coordinates: X along
// the fastest-varying (column) axis, Y along the row axis.
type Point struct {
	X, Y float64
}

// Compare implements the kdtree.Comparable interface.
func (p Point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Point)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree.
func (p Point) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two points.
func (p Point) Distance(c kdtree.Comparable) float64 {
	q := c.(Point)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy // Squared distance for efficiency
}

// Points is a collection of Point that satisfies kdtree.Interface.
type Points []Point

func (p Points) Index(i int) kdtree.Comparable         { return p[i] }
func (p Points) Len() int                              { return len(p) }
func (p Points) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method.
func (p Points) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{Points: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{Points: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for Points.
type pointPlane struct {
	Points
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Points[i].X < p.Points[j].X
	case 1:
		return p.Points[i].Y < p.Points[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{Points: p.Points[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.Points[i], p.Points[j] = p.Points[j], p.Points[i]
}

// Extract locates the zero crossing of a 2D field by linear interpolation
// along every grid edge whose endpoint values straddle zero. An empty
// result means the field has a single sign everywhere.
func Extract(phi *grid.Grid) ([]Point, error) {
	if phi.Dims() != 2 {
		return nil, fmt.Errorf("contour: extraction requires a 2D grid, got %d dimensions", phi.Dims())
	}
	shape := phi.Shape()
	spacing := phi.Spacing()
	height, width := shape[0], shape[1]

	var points []Point
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := y*width + x
			a := phi.At(off)
			// Edge toward +x.
			if x+1 < width {
				if b := phi.At(off + 1); straddles(a, b) {
					t := a / (a - b)
					points = append(points, Point{
						X: (float64(x) + t) * spacing[1],
						Y: float64(y) * spacing[0],
					})
				}
			}
			// Edge toward +y.
			if y+1 < height {
				if b := phi.At(off + width); straddles(a, b) {
					t := a / (a - b)
					points = append(points, Point{
						X: float64(x) * spacing[1],
						Y: (float64(y) + t) * spacing[0],
					})
				}
			}
		}
	}
	return points, nil
}

// straddles reports whether a grid edge crosses the zero level.
func straddles(a, b float64) bool {
	return (a < 0 && b >= 0) || (a >= 0 && b < 0)
}

// Set is a queryable contour: the extracted points plus their KD-tree.
type Set struct {
	points Points
	tree   *kdtree.Tree
}

// NewSet builds the spatial index over a point cloud.
func NewSet(points []Point) *Set {
	s := &Set{points: Points(points)}
	if len(points) > 0 {
		s.tree = kdtree.New(s.points, true)
	}
	return s
}

// Len returns the number of contour points.
func (s *Set) Len() int { return len(s.points) }

// Points returns the underlying point cloud.
func (s *Set) Points() []Point { return s.points }

// NearestDistance returns the Euclidean distance from p to the closest
// contour point, or +Inf for an empty contour.
func (s *Set) NearestDistance(p Point) float64 {
	if s.tree == nil {
		return math.Inf(1)
	}
	_, dd := s.tree.Nearest(p)
	return math.Sqrt(dd)
}

// Metrics summarizes the separation between two contours.
type Metrics struct {
	// Mean is the average nearest-neighbor distance over both
	// directions.
	Mean float64
	// Hausdorff is the largest nearest-neighbor distance in either
	// direction.
	Hausdorff float64
}

// Compare measures how far apart two contours are. Either contour being
// empty yields +Inf metrics.
func Compare(a, b *Set) Metrics {
	if a.Len() == 0 || b.Len() == 0 {
		return Metrics{Mean: math.Inf(1), Hausdorff: math.Inf(1)}
	}
	dists := make([]float64, 0, a.Len()+b.Len())
	worst := 0.0
	for _, p := range a.points {
		d := b.NearestDistance(p)
		dists = append(dists, d)
		worst = math.Max(worst, d)
	}
	for _, p := range b.points {
		d := a.NearestDistance(p)
		dists = append(dists, d)
		worst = math.Max(worst, d)
	}
	return Metrics{Mean: stat.Mean(dists, nil), Hausdorff: worst}
}

// RadiusStats returns the mean and maximum distance of the points from
// their centroid, a compact way to report how far a roughly circular
// contour reaches.
func RadiusStats(points []Point) (mean, max float64) {
	if len(points) == 0 {
		return 0, 0
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	cx := stat.Mean(xs, nil)
	cy := stat.Mean(ys, nil)

	radii := make([]float64, len(points))
	for i, p := range points {
		radii[i] = math.Hypot(p.X-cx, p.Y-cy)
		max = math.Max(max, radii[i])
	}
	return stat.Mean(radii, nil), max
}
