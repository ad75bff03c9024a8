package config

import (
	"energy_routing/path_scheduling/graph"
	"energy_routing/protocol"
)

func (e TopologyEntry) GraphNodes() []graph.Node {
	nodes := make([]graph.Node, len(e.Nodes))
	for i, n := range e.Nodes {
		nodes[i] = graph.Node(n)
	}
	return nodes
}

func (e TopologyEntry) GraphEdges() []graph.Edge {
	edges := make([]graph.Edge, len(e.Edges))
	for i, ed := range e.Edges {
		edges[i] = graph.Edge{From: graph.Node(ed.From), To: graph.Node(ed.To), Weight: ed.Weight}
	}
	return edges
}

func (e TopologyEntry) GraphEnergy() map[graph.Node]float64 {
	if len(e.Energy) == 0 {
		return nil
	}
	energy := make(map[graph.Node]float64, len(e.Energy))
	for n, v := range e.Energy {
		energy[graph.Node(n)] = v
	}
	return energy
}

// Request builds the wire request for a query. A query with neither edges
// nor a topology runs on the sample graph, with the sample energies unless
// it names its own.
func (q QueryEntry) Request() *protocol.RouteRequest {
	req := &protocol.RouteRequest{
		Algorithm: q.Algorithm,
		Topology:  q.Topology,
		Energy:    q.Energy,
		Source:    q.Source,
		Dest:      q.Dest,
		Threshold: q.Threshold,
		NumPaths:  q.NumPaths,
	}

	switch {
	case len(q.Edges) > 0:
		spec := &protocol.GraphSpec{Edges: make([]protocol.EdgeSpec, len(q.Edges))}
		for i, e := range q.Edges {
			spec.Edges[i] = protocol.EdgeSpec{From: e.From, To: e.To, Weight: e.Weight}
		}
		req.Graph = spec
	case q.Topology == "":
		req.Graph = protocol.SampleGraph()
		if len(req.Energy) == 0 {
			req.Energy = protocol.SampleEnergy()
		}
	}
	return req
}
