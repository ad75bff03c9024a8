package detour

import (
	"errors"
	"testing"

	"energy_routing/path_scheduling/graph"
	"energy_routing/path_scheduling/shortest_path"
)

func triangle(t *testing.T) *graph.WeightedGraph {
	t.Helper()
	g, err := graph.NewWeightedGraphFromEdges([]graph.Edge{
		{From: "a", To: "b", Weight: 1},
		{From: "b", To: "c", Weight: 2},
		{From: "a", To: "c", Weight: 4},
	})
	if err != nil {
		t.Fatalf("build graph failed: %v", err)
	}
	return g
}

func TestBuildIsSymmetricClosure(t *testing.T) {
	g := triangle(t)
	h := Build(g)

	if h.ArcCount() != 2*g.EdgeCount() {
		t.Errorf("Expected %d arcs, got %d", 2*g.EdgeCount(), h.ArcCount())
	}
	for _, e := range g.Edges() {
		for _, pair := range [][2]graph.Node{{e.From, e.To}, {e.To, e.From}} {
			w, ok := h.Arc(pair[0], pair[1])
			if !ok {
				t.Errorf("Missing arc %s->%s", pair[0], pair[1])
				continue
			}
			if w != e.Weight {
				t.Errorf("Arc %s->%s: expected weight %v, got %v", pair[0], pair[1], e.Weight, w)
			}
		}
	}
}

func TestBuildKeepsIsolatedNodes(t *testing.T) {
	g := triangle(t)
	g.AddNode("lonely")
	h := Build(g)
	if !h.HasNode("lonely") {
		t.Errorf("Expected isolated node to be part of H")
	}
}

func TestTempArcRestoresNewArc(t *testing.T) {
	h := graph.NewDigraph()
	h.AddArc("a", "b", 1)

	tmp := AcquireTempArc(h, "b", "a", 7)
	if w, ok := h.Arc("b", "a"); !ok || w != 7 {
		t.Fatalf("Expected temporary arc b->a weight 7, got %v (ok=%v)", w, ok)
	}
	tmp.Release()
	tmp.Release()

	if _, ok := h.Arc("b", "a"); ok {
		t.Errorf("Temporary arc survived Release")
	}
	if h.ArcCount() != 1 {
		t.Errorf("Expected baseline arc count 1, got %d", h.ArcCount())
	}
}

func TestTempArcRestoresExistingWeight(t *testing.T) {
	h := graph.NewDigraph()
	h.AddArc("a", "b", 3)
	h.AddArc("a", "c", 1)

	tmp := AcquireTempArc(h, "a", "b", 9)
	tmp.Release()

	w, ok := h.Arc("a", "b")
	if !ok || w != 3 {
		t.Errorf("Expected pre-existing arc restored with weight 3, got %v (ok=%v)", w, ok)
	}
	if got := h.Neighbors("a"); len(got) != 2 || got[0].To != "b" || got[1].To != "c" {
		t.Errorf("Arc order changed after release: %v", got)
	}
}

func TestWithTempArcReleasesOnError(t *testing.T) {
	h := graph.NewDigraph()
	h.AddArc("x", "y", 1)
	h.AddNode("z")

	err := WithTempArc(h, "y", "z", 2, func(h *graph.Digraph) error {
		if _, ok := h.Arc("y", "z"); !ok {
			t.Errorf("Arc y->z not visible inside scope")
		}
		_, _, err := shortest_path.ShortestPath(h, "z", "x")
		return err
	})
	if !errors.Is(err, graph.ErrNoPath) {
		t.Errorf("Expected ErrNoPath from scoped query, got %v", err)
	}
	if _, ok := h.Arc("y", "z"); ok {
		t.Errorf("Arc y->z leaked after failing query")
	}
}

func TestWithTempArcReleasesOnPanic(t *testing.T) {
	h := graph.NewDigraph()
	h.AddNode("p")
	h.AddNode("q")

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("Expected panic to propagate")
			}
		}()
		_ = WithTempArc(h, "p", "q", 1, func(h *graph.Digraph) error {
			panic("boom")
		})
	}()

	if _, ok := h.Arc("p", "q"); ok {
		t.Errorf("Arc p->q leaked after panic")
	}
}

func TestDetourQueryInsideScope(t *testing.T) {
	g := triangle(t)
	h := Build(g)
	before := h.ArcCount()

	var detour graph.Path
	err := WithTempArc(h, "c", "a", 4, func(h *graph.Digraph) error {
		p, _, err := shortest_path.ShortestPath(h, "c", "a")
		detour = p
		return err
	})
	if err != nil {
		t.Fatalf("Detour query failed: %v", err)
	}
	// c->b->a costs 3, cheaper than the direct arc of 4
	if !detour.Equal(graph.Path{"c", "b", "a"}) {
		t.Errorf("Expected detour [c b a], got %v", detour)
	}
	if h.ArcCount() != before {
		t.Errorf("Expected H back at baseline (%d arcs), got %d", before, h.ArcCount())
	}
}
