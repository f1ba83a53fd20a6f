package dictionary

// blockHeap is a binary max-heap of candidate sampling blocks, ordered by
// descending val with ties broken by ascending id (spec.md §4.3's
// deterministic tie-break requirement). A plain container/heap suffices: the
// lazy-greedy algorithm re-pushes stale records instead of using decrease-key
// (spec.md §9's "Heap with mutable records" note).
type blockHeap []*blockRecord

func (h blockHeap) Len() int { return len(h) }

func (h blockHeap) Less(i, j int) bool {
	if h[i].val != h[j].val {
		return h[i].val > h[j].val
	}

	return h[i].id < h[j].id
}

func (h blockHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *blockHeap) Push(x any) {
	*h = append(*h, x.(*blockRecord))
}

func (h *blockHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]

	return item
}
