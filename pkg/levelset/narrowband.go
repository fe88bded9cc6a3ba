package levelset

import (
	"levelsetseg/pkg/grid"
)

// layerOutside marks cells that are not part of the band.
const layerOutside int8 = 127

// bandEntry records one cell of the sparse narrow band: its flat grid
// offset and its signed layer number. Layer 0 holds the cells straddling
// the zero crossing; positive layers sit on the phi >= 0 side, negative
// layers on the phi < 0 side.
type bandEntry struct {
	offset int
	layer  int8
}

// narrowBand maintains the set of grid cells within a bounded number of
// layers of the zero level set. It is an arena (entry slice) plus a
// per-cell layer lookup, so membership tests are O(1) and a rebuild only
// allocates when the front grows. Construction guarantees that grid-
// adjacent cells differ in layer by at most one.
type narrowBand struct {
	width   int // layers span -width..+width
	entries []bandEntry
	layerOf []int8
	// scratch marks candidate cells during a rebuild; always cleared
	// back to false before returning so rebuild cost stays proportional
	// to band size, not grid volume.
	scratch []bool
}

func newNarrowBand(gridLen, width int) *narrowBand {
	b := &narrowBand{
		width:   width,
		layerOf: make([]int8, gridLen),
		scratch: make([]bool, gridLen),
	}
	for i := range b.layerOf {
		b.layerOf[i] = layerOutside
	}
	return b
}

// Size returns the number of cells currently in the band.
func (b *narrowBand) Size() int { return len(b.entries) }

// Classify builds the band from a full field: every cell is considered a
// candidate. Used once at the start of evolution.
func (b *narrowBand) Classify(phi *grid.Grid) {
	candidates := make([]int, phi.Len())
	for i := range candidates {
		candidates[i] = i
	}
	b.assign(phi, candidates)
}

// Rebuild reclassifies the band after the field has moved. Only the
// current band and its immediate neighbors are candidates, which is
// sufficient as long as the front moves less than one cell per step (the
// CFL bound the evolver enforces).
func (b *narrowBand) Rebuild(phi *grid.Grid) {
	candidates := make([]int, 0, 2*len(b.entries))
	for _, e := range b.entries {
		if !b.scratch[e.offset] {
			b.scratch[e.offset] = true
			candidates = append(candidates, e.offset)
		}
		for axis := 0; axis < phi.Dims(); axis++ {
			for _, dir := range [2]int{-1, 1} {
				n, ok := phi.Neighbor(e.offset, axis, dir)
				if ok && !b.scratch[n] {
					b.scratch[n] = true
					candidates = append(candidates, n)
				}
			}
		}
	}
	for _, off := range candidates {
		b.scratch[off] = false
	}

	// Drop the old classification before reassigning.
	for _, e := range b.entries {
		b.layerOf[e.offset] = layerOutside
	}
	b.entries = b.entries[:0]

	b.assign(phi, candidates)
}

// assign finds the zero-crossing cells among the candidates and grows
// layers outward from them breadth-first, so adjacent cells can never
// differ by more than one layer.
func (b *narrowBand) assign(phi *grid.Grid, candidates []int) {
	for _, off := range candidates {
		if b.layerOf[off] == layerOutside && crossesZero(phi, off) {
			b.layerOf[off] = 0
			b.entries = append(b.entries, bandEntry{offset: off, layer: 0})
		}
	}

	frontierStart := 0
	frontierEnd := len(b.entries)
	for k := int8(1); int(k) <= b.width; k++ {
		for i := frontierStart; i < frontierEnd; i++ {
			e := b.entries[i]
			for axis := 0; axis < phi.Dims(); axis++ {
				for _, dir := range [2]int{-1, 1} {
					n, ok := phi.Neighbor(e.offset, axis, dir)
					if !ok || b.layerOf[n] != layerOutside {
						continue
					}
					layer := k
					if phi.At(n) < 0 {
						layer = -k
					}
					b.layerOf[n] = layer
					b.entries = append(b.entries, bandEntry{offset: n, layer: layer})
				}
			}
		}
		frontierStart = frontierEnd
		frontierEnd = len(b.entries)
	}
}

// crossesZero reports whether the cell sits on the zero level set: its
// value is exactly zero, or an axis neighbor lies on the other side.
func crossesZero(phi *grid.Grid, off int) bool {
	v := phi.At(off)
	if v == 0 {
		return true
	}
	neg := v < 0
	for axis := 0; axis < phi.Dims(); axis++ {
		for _, dir := range [2]int{-1, 1} {
			n, ok := phi.Neighbor(off, axis, dir)
			if ok && (phi.At(n) < 0) != neg {
				return true
			}
		}
	}
	return false
}
