package detour

import (
	"energy_routing/path_scheduling/graph"
)

// Build derives the detour graph H from g. Every undirected edge is taken in
// both orientations and reversed, then the reverse of every arc already in H
// is added again. The result is the symmetric directed closure of g.
func Build(g *graph.WeightedGraph) *graph.Digraph {
	h := graph.NewDigraph()
	for _, n := range g.Nodes() {
		h.AddNode(n)
	}

	// reverse of the directed view
	for _, e := range g.Edges() {
		h.AddArc(e.To, e.From, e.Weight)
		h.AddArc(e.From, e.To, e.Weight)
	}

	// reverse of H itself
	for _, u := range h.Nodes() {
		for _, a := range h.Neighbors(u) {
			if _, exists := h.Arc(a.To, u); !exists {
				h.AddArc(a.To, u, a.Weight)
			}
		}
	}
	return h
}

// TempArc is a scoped insertion of a single arc into H
type TempArc struct {
	h         *graph.Digraph
	from, to  graph.Node
	existed   bool
	oldWeight float64
	released  bool
}

// AcquireTempArc inserts from->to into h. Release restores h to its exact prior state.
func AcquireTempArc(h *graph.Digraph, from, to graph.Node, weight float64) *TempArc {
	t := &TempArc{
		h:    h,
		from: from,
		to:   to,
	}
	t.oldWeight, t.existed = h.Arc(from, to)
	h.AddArc(from, to, weight)
	return t
}

// Release undoes the insertion. Calling it more than once is a no-op.
func (t *TempArc) Release() {
	if t == nil || t.released {
		return
	}
	t.released = true
	if t.existed {
		t.h.AddArc(t.from, t.to, t.oldWeight)
		return
	}
	t.h.RemoveArc(t.from, t.to)
}

// WithTempArc runs fn while from->to is present in h. The arc is released
// whether fn returns an error or panics.
func WithTempArc(h *graph.Digraph, from, to graph.Node, weight float64, fn func(h *graph.Digraph) error) error {
	t := AcquireTempArc(h, from, to, weight)
	defer t.Release()
	return fn(h)
}
