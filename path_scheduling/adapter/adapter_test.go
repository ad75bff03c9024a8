package adapter

import (
	"context"
	"errors"
	"testing"

	"energy_routing/path_scheduling/common"
	"energy_routing/path_scheduling/energy_multipath"
	"energy_routing/path_scheduling/graph"
)

func sampleFlow() (*graph.WeightedGraph, common.Flow) {
	g, _ := graph.NewWeightedGraphFromEdges([]graph.Edge{
		{From: "1", To: "2", Weight: 10}, {From: "1", To: "3", Weight: 5}, {From: "2", To: "3", Weight: 3},
		{From: "2", To: "4", Weight: 2}, {From: "3", To: "4", Weight: 7}, {From: "3", To: "5", Weight: 5},
		{From: "4", To: "5", Weight: 10}, {From: "4", To: "6", Weight: 1}, {From: "5", To: "6", Weight: 2},
	})
	return g, common.Flow{
		Source:      "1",
		Destination: "4",
		Energy:      map[graph.Node]float64{"1": 100, "2": 80, "3": 70, "4": 50, "5": 30, "6": 10},
		Threshold:   20,
		NumPaths:    3,
	}
}

func TestBuiltinsRegistered(t *testing.T) {
	for _, name := range []string{EnergyMultipath, EnergyMultipathSplice} {
		if _, err := common.GetGlobal(name); err != nil {
			t.Errorf("Expected %s to be registered: %v", name, err)
		}
	}
}

func TestAdapterComputePaths(t *testing.T) {
	g, flow := sampleFlow()

	testCases := []struct {
		algorithm string
		want      []graph.Path
		costs     []float64
	}{
		{EnergyMultipath, []graph.Path{{"1", "3", "2", "4"}, {"3", "1"}, {"2", "3"}}, []float64{10, 5, 3}},
		{EnergyMultipathSplice, []graph.Path{{"1", "3", "2", "4"}}, []float64{10}},
	}

	for _, tc := range testCases {
		t.Run(tc.algorithm, func(t *testing.T) {
			calc, err := common.GetGlobal(tc.algorithm)
			if err != nil {
				t.Fatalf("GetGlobal failed: %v", err)
			}
			out, err := calc.ComputePaths(context.Background(), g, flow)
			if err != nil {
				t.Fatalf("ComputePaths failed: %v", err)
			}
			if len(out.Paths) != len(tc.want) {
				t.Fatalf("Expected %d paths, got %v", len(tc.want), out.Paths)
			}
			for i, p := range out.Paths {
				if !graph.Path(p.Nodes).Equal(tc.want[i]) {
					t.Errorf("Path %d: expected %v, got %v", i, tc.want[i], p.Nodes)
				}
				if p.Cost != tc.costs[i] {
					t.Errorf("Path %d: expected cost %v, got %v", i, tc.costs[i], p.Cost)
				}
			}
		})
	}
}

func TestAdapterWrapsEngineErrors(t *testing.T) {
	g, flow := sampleFlow()
	flow.Destination = "99"

	calc := NewEnergyMultipathAdapter(energy_multipath.Options{})
	_, err := calc.ComputePaths(context.Background(), g, flow)
	if !errors.Is(err, energy_multipath.ErrUnknownNode) {
		t.Errorf("Expected ErrUnknownNode, got %v", err)
	}
}

func TestDefaultAlgorithmQueuesRawDetours(t *testing.T) {
	calc, err := common.GetGlobal(EnergyMultipath)
	if err != nil {
		t.Fatalf("GetGlobal failed: %v", err)
	}
	g, flow := sampleFlow()
	out, err := calc.ComputePaths(context.Background(), g, flow)
	if err != nil {
		t.Fatalf("ComputePaths failed: %v", err)
	}
	if out.Stats.Accepted != 3 || out.Stats.Duplicates != 0 {
		t.Errorf("Expected three accepted routes and no duplicates, got %+v", out.Stats)
	}
}

func TestFlowMaxIterations(t *testing.T) {
	g, flow := sampleFlow()
	flow.MaxIterations = 1

	calc, err := common.GetGlobal(EnergyMultipath)
	if err != nil {
		t.Fatalf("GetGlobal failed: %v", err)
	}
	out, err := calc.ComputePaths(context.Background(), g, flow)
	if err != nil {
		t.Fatalf("ComputePaths failed: %v", err)
	}
	if len(out.Paths) != 1 || !out.Stats.Truncated {
		t.Errorf("Expected one path and a truncated search, got %v %+v", out.Paths, out.Stats)
	}

	// the registered calculator keeps its unbounded engine
	flow.MaxIterations = 0
	out, err = calc.ComputePaths(context.Background(), g, flow)
	if err != nil {
		t.Fatalf("ComputePaths failed: %v", err)
	}
	if len(out.Paths) != 3 || out.Stats.Truncated {
		t.Errorf("Expected three paths without truncation, got %v %+v", out.Paths, out.Stats)
	}
}
