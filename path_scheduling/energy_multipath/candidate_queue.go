package energy_multipath

import (
	"container/heap"

	"energy_routing/path_scheduling/graph"
)

type candidate struct {
	path graph.Path
	seq  uint64
}

// candidateHeap pops the candidate with the most nodes first.
// Equal lengths come out in push order.
type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if len(h[i].path) != len(h[j].path) {
		return len(h[i].path) > len(h[j].path)
	}
	return h[i].seq < h[j].seq
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(candidate))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = candidate{}
	*h = old[:n-1]
	return c
}

type candidateQueue struct {
	items candidateHeap
	seq   uint64
}

func (q *candidateQueue) push(p graph.Path) {
	q.seq++
	heap.Push(&q.items, candidate{path: p, seq: q.seq})
}

func (q *candidateQueue) pop() graph.Path {
	return heap.Pop(&q.items).(candidate).path
}

func (q *candidateQueue) size() int {
	return q.items.Len()
}
