package config

import (
	"testing"

	"energy_routing/path_scheduling/graph"
	"energy_routing/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopologyEntryConversion(t *testing.T) {
	entry := TopologyEntry{
		Name:   "t",
		Nodes:  []string{"z"},
		Edges:  []EdgeEntry{{From: "a", To: "b", Weight: 2}},
		Energy: map[string]float64{"a": 1, "b": 2},
	}

	assert.Equal(t, []graph.Node{"z"}, entry.GraphNodes())
	assert.Equal(t, []graph.Edge{{From: "a", To: "b", Weight: 2}}, entry.GraphEdges())
	assert.Equal(t, map[graph.Node]float64{"a": 1, "b": 2}, entry.GraphEnergy())

	assert.Nil(t, TopologyEntry{}.GraphEnergy())
}

func TestQueryRequestDefaultsToSample(t *testing.T) {
	req := DefaultClientConfig().Queries[0].Request()
	assert.Equal(t, protocol.SampleRequest(), req)
	require.NoError(t, req.Validate())
}

func TestQueryRequestWithTopology(t *testing.T) {
	q := QueryEntry{Topology: "sample", Algorithm: "energy_multipath_splice", Source: "1", Dest: "4", Threshold: 20}
	req := q.Request()
	assert.Nil(t, req.Graph)
	assert.Nil(t, req.Energy)
	assert.Equal(t, "sample", req.Topology)
	assert.Equal(t, "energy_multipath_splice", req.Algorithm)
}

func TestQueryRequestWithEdges(t *testing.T) {
	q := QueryEntry{
		Edges:     []EdgeEntry{{From: "a", To: "b", Weight: 1}},
		Energy:    map[string]float64{"a": 5, "b": 5},
		Source:    "a",
		Dest:      "b",
		Threshold: 1,
	}
	req := q.Request()
	require.NotNil(t, req.Graph)
	assert.Equal(t, []protocol.EdgeSpec{{From: "a", To: "b", Weight: 1}}, req.Graph.Edges)
	assert.Equal(t, map[string]float64{"a": 5, "b": 5}, req.Energy)
}
