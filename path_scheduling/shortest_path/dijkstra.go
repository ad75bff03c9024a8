package shortest_path

import (
	"container/heap"
	"fmt"

	"energy_routing/path_scheduling/graph"
)

// Graph is the read view Dijkstra needs. Both graph.WeightedGraph and
// graph.Digraph satisfy it.
type Graph interface {
	HasNode(n graph.Node) bool
	Neighbors(n graph.Node) []graph.Arc
}

// ShortestPath returns the minimum-weight path from source to dest and its weight.
// Ties between equal-weight routes are broken by push order, so the result is
// stable for a fixed graph.
func ShortestPath(g Graph, source, dest graph.Node) (graph.Path, float64, error) {
	if !g.HasNode(source) {
		return nil, 0, fmt.Errorf("%w: source %s", graph.ErrUnknownNode, source)
	}
	if !g.HasNode(dest) {
		return nil, 0, fmt.Errorf("%w: dest %s", graph.ErrUnknownNode, dest)
	}
	if source == dest {
		return graph.Path{source}, 0, nil
	}

	dist := map[graph.Node]float64{source: 0}
	prev := make(map[graph.Node]graph.Node)
	done := make(map[graph.Node]bool)

	var seq uint64
	pq := &frontier{}
	heap.Push(pq, &frontierItem{node: source, dist: 0, seq: seq})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*frontierItem)
		u := item.node
		if done[u] || item.dist > dist[u] { // stale entry
			continue
		}
		done[u] = true
		if u == dest {
			return buildPath(prev, source, dest), dist[u], nil
		}

		for _, arc := range g.Neighbors(u) {
			if done[arc.To] {
				continue
			}
			candidate := dist[u] + arc.Weight
			if known, seen := dist[arc.To]; seen && candidate >= known {
				continue
			}
			dist[arc.To] = candidate
			prev[arc.To] = u
			seq++
			heap.Push(pq, &frontierItem{node: arc.To, dist: candidate, seq: seq})
		}
	}

	return nil, 0, fmt.Errorf("%w: %s -> %s", graph.ErrNoPath, source, dest)
}

func buildPath(prev map[graph.Node]graph.Node, source, dest graph.Node) graph.Path {
	var reversed graph.Path
	for n := dest; ; n = prev[n] {
		reversed = append(reversed, n)
		if n == source {
			break
		}
	}
	return reversed.Reverse()
}

type frontierItem struct {
	node graph.Node
	dist float64
	seq  uint64
}

// min-heap on (dist, seq)
type frontier []*frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) {
	*f = append(*f, x.(*frontierItem))
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return item
}
