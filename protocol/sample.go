package protocol

// SampleGraph is the six-node network used by the demo client and the tests
func SampleGraph() *GraphSpec {
	return &GraphSpec{
		Edges: []EdgeSpec{
			{From: "1", To: "2", Weight: 10}, {From: "1", To: "3", Weight: 5}, {From: "2", To: "3", Weight: 3},
			{From: "2", To: "4", Weight: 2}, {From: "3", To: "4", Weight: 7}, {From: "3", To: "5", Weight: 5},
			{From: "4", To: "5", Weight: 10}, {From: "4", To: "6", Weight: 1}, {From: "5", To: "6", Weight: 2},
		},
	}
}

func SampleEnergy() map[string]float64 {
	return map[string]float64{"1": 100, "2": 80, "3": 70, "4": 50, "5": 30, "6": 10}
}

// SampleRequest routes from 5 to 2 over SampleGraph with threshold 20 and 3 paths
func SampleRequest() *RouteRequest {
	return &RouteRequest{
		Graph:     SampleGraph(),
		Energy:    SampleEnergy(),
		Source:    "5",
		Dest:      "2",
		Threshold: 20,
		NumPaths:  3,
	}
}
