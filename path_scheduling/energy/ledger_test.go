package energy

import (
	"testing"

	"energy_routing/path_scheduling/graph"
)

func TestLedgerDepleteAllIsGlobal(t *testing.T) {
	nodes := []graph.Node{"1", "2", "3"}
	capacities := map[graph.Node]float64{"1": 100, "2": 30, "3": 5}
	l := NewLedger(nodes, capacities)

	l.DepleteAll(20)

	want := map[graph.Node]float64{"1": 80, "2": 10, "3": -15}
	for n, e := range want {
		if got := l.Get(n); got != e {
			t.Errorf("node %s: expected %v, got %v", n, e, got)
		}
	}

	// the caller's map is untouched
	if capacities["1"] != 100 {
		t.Errorf("Ledger mutated input capacities: %v", capacities)
	}
}

func TestLedgerNoClamping(t *testing.T) {
	l := NewLedger([]graph.Node{"a", "b"}, map[graph.Node]float64{"a": 10, "b": 0})
	l.DepleteAll(20)
	l.DepleteAll(20)

	if l.Get("a") != -30 || l.Get("b") != -40 {
		t.Errorf("Expected -30 and -40, got %v and %v", l.Get("a"), l.Get("b"))
	}
	if !(l.Get("a") > l.Get("b")) {
		t.Errorf("Negative energies must stay ordered")
	}
}

func TestLedgerIsSufficient(t *testing.T) {
	l := NewLedger([]graph.Node{"a", "b"}, map[graph.Node]float64{"a": 20, "b": 19.5})

	testCases := []struct {
		node graph.Node
		want bool
	}{
		{"a", true},  // equal to threshold passes
		{"b", false}, // below threshold
		{"z", false}, // unknown
	}
	for _, tc := range testCases {
		if got := l.IsSufficient(tc.node, 20); got != tc.want {
			t.Errorf("IsSufficient(%s): expected %v, got %v", tc.node, tc.want, got)
		}
	}

	if l.AllSufficient(graph.Path{"a", "b"}, 20) {
		t.Errorf("Expected path through b to be insufficient")
	}
	if !l.AllSufficient(graph.Path{"a"}, 20) {
		t.Errorf("Expected path [a] to be sufficient")
	}
}

func TestLedgerSnapshotIsCopy(t *testing.T) {
	l := NewLedger([]graph.Node{"a"}, map[graph.Node]float64{"a": 5})
	snap := l.Snapshot()
	snap["a"] = 100
	if l.Get("a") != 5 {
		t.Errorf("Snapshot must not alias ledger state")
	}
}
