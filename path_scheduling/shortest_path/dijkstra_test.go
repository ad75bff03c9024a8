package shortest_path

import (
	"errors"
	"testing"

	"energy_routing/path_scheduling/graph"
)

func sampleGraph(t *testing.T) *graph.WeightedGraph {
	t.Helper()
	g, err := graph.NewWeightedGraphFromEdges([]graph.Edge{
		{From: "1", To: "2", Weight: 10}, {From: "1", To: "3", Weight: 5}, {From: "2", To: "3", Weight: 3},
		{From: "2", To: "4", Weight: 2}, {From: "3", To: "4", Weight: 7}, {From: "3", To: "5", Weight: 5},
		{From: "4", To: "5", Weight: 10}, {From: "4", To: "6", Weight: 1}, {From: "5", To: "6", Weight: 2},
	})
	if err != nil {
		t.Fatalf("build graph failed: %v", err)
	}
	return g
}

func TestShortestPathOnUndirectedGraph(t *testing.T) {
	g := sampleGraph(t)

	testCases := []struct {
		name   string
		source graph.Node
		dest   graph.Node
		want   graph.Path
		weight float64
	}{
		{"1 to 4 via 3 and 2", "1", "4", graph.Path{"1", "3", "2", "4"}, 10},
		{"5 to 2", "5", "2", graph.Path{"5", "6", "4", "2"}, 5},
		{"reverse direction 4 to 1", "4", "1", graph.Path{"4", "2", "3", "1"}, 10},
		{"source equals dest", "3", "3", graph.Path{"3"}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path, weight, err := ShortestPath(g, tc.source, tc.dest)
			if err != nil {
				t.Fatalf("ShortestPath failed: %v", err)
			}
			if !path.Equal(tc.want) {
				t.Errorf("Expected path %v, got %v", tc.want, path)
			}
			if weight != tc.weight {
				t.Errorf("Expected weight %v, got %v", tc.weight, weight)
			}
		})
	}
}

func TestShortestPathErrors(t *testing.T) {
	g := sampleGraph(t)
	g.AddNode("island")

	if _, _, err := ShortestPath(g, "1", "island"); !errors.Is(err, graph.ErrNoPath) {
		t.Errorf("Expected ErrNoPath, got %v", err)
	}
	if _, _, err := ShortestPath(g, "1", "missing"); !errors.Is(err, graph.ErrUnknownNode) {
		t.Errorf("Expected ErrUnknownNode for dest, got %v", err)
	}
	if _, _, err := ShortestPath(g, "missing", "1"); !errors.Is(err, graph.ErrUnknownNode) {
		t.Errorf("Expected ErrUnknownNode for source, got %v", err)
	}
}

func TestShortestPathRespectsArcDirection(t *testing.T) {
	d := graph.NewDigraph()
	d.AddArc("a", "b", 1)
	d.AddArc("b", "c", 1)
	d.AddArc("c", "a", 10)

	path, weight, err := ShortestPath(d, "a", "c")
	if err != nil || !path.Equal(graph.Path{"a", "b", "c"}) || weight != 2 {
		t.Errorf("Expected [a b c] weight 2, got %v weight %v (err=%v)", path, weight, err)
	}

	path, weight, err = ShortestPath(d, "c", "b")
	if err != nil || !path.Equal(graph.Path{"c", "a", "b"}) || weight != 11 {
		t.Errorf("Expected [c a b] weight 11, got %v weight %v (err=%v)", path, weight, err)
	}

	d.RemoveArc("c", "a")
	if _, _, err := ShortestPath(d, "c", "a"); !errors.Is(err, graph.ErrNoPath) {
		t.Errorf("Expected ErrNoPath after removing c->a, got %v", err)
	}
}

func TestShortestPathTieBreakIsDeterministic(t *testing.T) {
	// two equal-weight routes a-b-d and a-c-d
	g, _ := graph.NewWeightedGraphFromEdges([]graph.Edge{
		{From: "a", To: "b", Weight: 1}, {From: "a", To: "c", Weight: 1},
		{From: "b", To: "d", Weight: 1}, {From: "c", To: "d", Weight: 1},
	})

	first, _, err := ShortestPath(g, "a", "d")
	if err != nil {
		t.Fatalf("ShortestPath failed: %v", err)
	}
	if !first.Equal(graph.Path{"a", "b", "d"}) {
		t.Errorf("Expected the first discovered route [a b d], got %v", first)
	}
	for i := 0; i < 20; i++ {
		again, _, _ := ShortestPath(g, "a", "d")
		if !again.Equal(first) {
			t.Fatalf("Run %d returned %v, expected %v", i, again, first)
		}
	}
}
