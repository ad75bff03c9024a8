package graph

import (
	"errors"
	"math"
	"testing"
)

func sampleEdges() []Edge {
	return []Edge{
		{"1", "2", 10}, {"1", "3", 5}, {"2", "3", 3},
		{"2", "4", 2}, {"3", "4", 7}, {"3", "5", 5},
		{"4", "5", 10}, {"4", "6", 1}, {"5", "6", 2},
	}
}

func TestWeightedGraphBasics(t *testing.T) {
	g, err := NewWeightedGraphFromEdges(sampleEdges())
	if err != nil {
		t.Fatalf("build graph failed: %v", err)
	}

	if g.NodeCount() != 6 {
		t.Errorf("Expected 6 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 9 {
		t.Errorf("Expected 9 edges, got %d", g.EdgeCount())
	}

	wantOrder := []Node{"1", "2", "3", "4", "5", "6"}
	for i, n := range g.Nodes() {
		if n != wantOrder[i] {
			t.Errorf("Node[%d]: expected %s, got %s", i, wantOrder[i], n)
		}
	}

	// both orientations are visible
	for _, pair := range [][2]Node{{"2", "4"}, {"4", "2"}} {
		w, err := g.Weight(pair[0], pair[1])
		if err != nil {
			t.Fatalf("Weight(%s,%s) failed: %v", pair[0], pair[1], err)
		}
		if w != 2 {
			t.Errorf("Weight(%s,%s): expected 2, got %v", pair[0], pair[1], w)
		}
	}

	neighbors := g.Neighbors("3")
	wantNeighbors := []Node{"1", "2", "4", "5"}
	if len(neighbors) != len(wantNeighbors) {
		t.Fatalf("Expected %d neighbors of 3, got %d", len(wantNeighbors), len(neighbors))
	}
	for i, a := range neighbors {
		if a.To != wantNeighbors[i] {
			t.Errorf("Neighbor[%d] of 3: expected %s, got %s", i, wantNeighbors[i], a.To)
		}
	}
}

func TestWeightedGraphLookupErrors(t *testing.T) {
	g, _ := NewWeightedGraphFromEdges(sampleEdges())

	if _, err := g.Weight("1", "9"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Expected ErrUnknownNode, got %v", err)
	}
	if _, err := g.Weight("9", "1"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Expected ErrUnknownNode, got %v", err)
	}
	if _, err := g.Weight("1", "6"); !errors.Is(err, ErrEdgeNotFound) {
		t.Errorf("Expected ErrEdgeNotFound, got %v", err)
	}
}

func TestWeightedGraphRejectsBadWeights(t *testing.T) {
	for _, w := range []float64{-1, math.NaN(), math.Inf(1)} {
		g := NewWeightedGraph()
		if err := g.AddEdge("a", "b", w); !errors.Is(err, ErrInvalidWeight) {
			t.Errorf("AddEdge with weight %v: expected ErrInvalidWeight, got %v", w, err)
		}
	}
}

func TestWeightedGraphUpdateEdge(t *testing.T) {
	g := NewWeightedGraph()
	_ = g.AddEdge("a", "b", 4)
	_ = g.AddEdge("b", "a", 9)

	if g.EdgeCount() != 1 {
		t.Errorf("Expected re-added edge to update in place, got %d edges", g.EdgeCount())
	}
	if w, _ := g.Weight("a", "b"); w != 9 {
		t.Errorf("Expected updated weight 9, got %v", w)
	}
	if len(g.Neighbors("a")) != 1 || len(g.Neighbors("b")) != 1 {
		t.Errorf("Expected a single arc per side, got %d and %d", len(g.Neighbors("a")), len(g.Neighbors("b")))
	}
}

func TestValidatePathAndWeight(t *testing.T) {
	g, _ := NewWeightedGraphFromEdges(sampleEdges())

	p := Path{"1", "3", "2", "4"}
	if err := g.ValidatePath(p); err != nil {
		t.Fatalf("Expected valid path, got %v", err)
	}
	w, err := g.PathWeight(p)
	if err != nil || w != 10 {
		t.Errorf("Expected weight 10, got %v (err=%v)", w, err)
	}

	if err := g.ValidatePath(Path{"1", "6"}); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Expected ErrInvalidPath, got %v", err)
	}
	if err := g.ValidatePath(Path{}); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Expected ErrInvalidPath for empty path, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g, _ := NewWeightedGraphFromEdges(sampleEdges())
	c := g.Clone()
	_ = c.AddEdge("1", "6", 1)
	_ = c.AddEdge("1", "2", 99)

	if _, err := g.Weight("1", "6"); !errors.Is(err, ErrEdgeNotFound) {
		t.Errorf("Clone mutation leaked into original: %v", err)
	}
	if w, _ := g.Weight("1", "2"); w != 10 {
		t.Errorf("Clone weight update leaked into original: %v", w)
	}
}

func TestDigraphArcs(t *testing.T) {
	d := NewDigraph()
	d.AddArc("a", "b", 1)
	d.AddArc("a", "c", 2)
	d.AddArc("a", "b", 5)

	if d.ArcCount() != 2 {
		t.Errorf("Expected 2 arcs, got %d", d.ArcCount())
	}
	if w, ok := d.Arc("a", "b"); !ok || w != 5 {
		t.Errorf("Expected a->b weight 5, got %v (ok=%v)", w, ok)
	}
	if _, ok := d.Arc("b", "a"); ok {
		t.Errorf("Arc b->a should not exist")
	}
	if !d.HasNode("c") {
		t.Errorf("Expected node c to be registered by AddArc")
	}

	if !d.RemoveArc("a", "b") {
		t.Errorf("Expected RemoveArc to report an existing arc")
	}
	if d.RemoveArc("a", "b") {
		t.Errorf("Expected second RemoveArc to report false")
	}
	if d.ArcCount() != 1 {
		t.Errorf("Expected 1 arc after removal, got %d", d.ArcCount())
	}
	if got := d.Neighbors("a"); len(got) != 1 || got[0].To != "c" {
		t.Errorf("Unexpected neighbors after removal: %v", got)
	}
}

func TestPathKeyDistinguishesSequences(t *testing.T) {
	testCases := []struct {
		name string
		a, b Path
	}{
		{"joined ids", Path{"12", "3"}, Path{"1", "23"}},
		{"NUL inside an id", Path{"a\x00b"}, Path{"a", "b"}},
		{"NUL at the edge", Path{"a\x00", "b"}, Path{"a", "\x00b"}},
		{"digits and colons", Path{"1:a"}, Path{"1", "a"}},
		{"empty path", Path{}, Path{""}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.a.Key() == tc.b.Key() {
				t.Errorf("Expected distinct keys for %q and %q, got %q", tc.a, tc.b, tc.a.Key())
			}
		})
	}

	if (Path{"a\x00b", "c"}).Key() != (Path{"a\x00b", "c"}).Key() {
		t.Errorf("Expected equal sequences to share a key")
	}
}

func TestPathHelpers(t *testing.T) {
	p := Path{"1", "2", "3"}
	if !p.Equal(Path{"1", "2", "3"}) || p.Equal(Path{"1", "2"}) {
		t.Errorf("Path.Equal misbehaves")
	}
	if p.Key() == (Path{"12", "3"}).Key() {
		t.Errorf("Path.Key must separate node IDs")
	}
	if r := p.Reverse(); !r.Equal(Path{"3", "2", "1"}) {
		t.Errorf("Unexpected reverse: %v", r)
	}
	if !p.IsSimple() || (Path{"1", "2", "1"}).IsSimple() {
		t.Errorf("Path.IsSimple misbehaves")
	}
	if p.String() != "[1 2 3]" {
		t.Errorf("Unexpected string form: %s", p.String())
	}
}
