package fastmarching

// trialHeap is a binary min-heap over grid cells keyed by tentative
// arrival time. It is index-addressable: pos maps a flat grid offset to
// the cell's slot in the heap, giving O(log n) decrease-key without any
// per-node allocation. Ties in arrival time are broken by insertion
// order, so the extraction sequence is stable across runs.
type trialHeap struct {
	cells []trialCell
	// pos[offset] is the slot of that grid cell in cells, or -1.
	pos []int
	seq uint64
}

type trialCell struct {
	offset int
	value  float64
	seq    uint64
}

func newTrialHeap(gridLen int) *trialHeap {
	pos := make([]int, gridLen)
	for i := range pos {
		pos[i] = -1
	}
	return &trialHeap{pos: pos}
}

func (h *trialHeap) Len() int { return len(h.cells) }

// Contains reports whether the grid cell is currently queued.
func (h *trialHeap) Contains(offset int) bool { return h.pos[offset] >= 0 }

// Value returns the queued tentative value for a cell that Contains.
func (h *trialHeap) Value(offset int) float64 {
	return h.cells[h.pos[offset]].value
}

func (h *trialHeap) less(i, j int) bool {
	if h.cells[i].value != h.cells[j].value {
		return h.cells[i].value < h.cells[j].value
	}
	return h.cells[i].seq < h.cells[j].seq
}

func (h *trialHeap) swap(i, j int) {
	h.cells[i], h.cells[j] = h.cells[j], h.cells[i]
	h.pos[h.cells[i].offset] = i
	h.pos[h.cells[j].offset] = j
}

func (h *trialHeap) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *trialHeap) down(i int) {
	n := len(h.cells)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		smallest := left
		if right := left + 1; right < n && h.less(right, left) {
			smallest = right
		}
		if !h.less(smallest, i) {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}

// Push inserts a new cell with the given tentative value. The cell must
// not already be queued.
func (h *trialHeap) Push(offset int, value float64) {
	h.seq++
	h.cells = append(h.cells, trialCell{offset: offset, value: value, seq: h.seq})
	i := len(h.cells) - 1
	h.pos[offset] = i
	h.up(i)
}

// DecreaseKey lowers the tentative value of a queued cell. Calls with a
// value not smaller than the current one are ignored, which is what the
// fast-marching update wants: a neighbor estimate only ever improves.
func (h *trialHeap) DecreaseKey(offset int, value float64) {
	i := h.pos[offset]
	if value >= h.cells[i].value {
		return
	}
	h.cells[i].value = value
	h.up(i)
}

// PopMin removes and returns the cell with the smallest tentative value.
func (h *trialHeap) PopMin() (offset int, value float64) {
	top := h.cells[0]
	last := len(h.cells) - 1
	h.swap(0, last)
	h.cells = h.cells[:last]
	h.pos[top.offset] = -1
	if last > 0 {
		h.down(0)
	}
	return top.offset, top.value
}
