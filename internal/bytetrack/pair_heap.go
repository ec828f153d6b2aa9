package bytetrack

// candidatePair is a possible track-detection assignment with its cost
type candidatePair struct {
	trackIdx     int
	detectionIdx int
	cost         float64
}

// Copied from container/heap - https://golang.org/pkg/container/heap/
// Why make copy? Just want to avoid type conversion

// pairHeap is min-heap of candidate pairs by cost. Ties are broken by track index, then by detection index,
// so popping order does not depend on insertion order.
type pairHeap []candidatePair

func (h pairHeap) Len() int { return len(h) }
func (h pairHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].trackIdx != h[j].trackIdx {
		return h[i].trackIdx < h[j].trackIdx
	}
	return h[i].detectionIdx < h[j].detectionIdx
}
func (h pairHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push pushes the element x onto the heap.
// The complexity is O(log n) where n = h.Len().
func (h *pairHeap) Push(x candidatePair) {
	*h = append(*h, x)
	h.up(h.Len() - 1)
}

// Pop removes and returns the minimum element (according to Less) from the heap.
// The complexity is O(log n) where n = h.Len().
func (h *pairHeap) Pop() candidatePair {
	n := h.Len() - 1
	h.Swap(0, n)
	h.down(0, n)
	last := (*h)[n]
	*h = (*h)[:n]
	return last
}

func (h pairHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		j = i
	}
}

func (h pairHeap) down(i0, n int) bool {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.Less(j2, j1) {
			j = j2
		}
		if !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		i = j
	}
	return i > i0
}
