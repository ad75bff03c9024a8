package common

import (
	"context"

	"energy_routing/path_scheduling/energy_multipath"
	"energy_routing/path_scheduling/graph"
)

// Flow describes one routing request between source and destination
type Flow struct {
	Source      graph.Node
	Destination graph.Node
	Energy      map[graph.Node]float64 // initial energy per node, must cover the whole graph
	Threshold   float64
	NumPaths    int
	// MaxIterations > 0 caps the search, overriding the calculator's own bound
	MaxIterations int
}

// PathWithCost is one route handed back to the service layer
type PathWithCost struct {
	Nodes []graph.Node `json:"nodes"`
	Cost  float64      `json:"cost"`
}

// Outcome is the full answer of a calculator run
type Outcome struct {
	Paths     []PathWithCost
	Remaining map[graph.Node]float64
	Stats     energy_multipath.Stats
}

// PathCalculator defines the interface for routing algorithms
type PathCalculator interface {
	// ComputePaths computes up to flow.NumPaths routes over g.
	// g is read-only and may be shared with concurrent calls.
	ComputePaths(ctx context.Context, g *graph.WeightedGraph, flow Flow) (*Outcome, error)
}
