package common

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"energy_routing/path_scheduling/graph"

	log "github.com/sirupsen/logrus"
)

var ErrUnknownTopology = errors.New("unknown topology")

// Topology is a named network preloaded on the server. Graph is never
// mutated after registration, so it is shared by concurrent requests.
type Topology struct {
	Name   string
	Graph  *graph.WeightedGraph
	Energy map[graph.Node]float64 // default energy per node, may be nil
}

// EnergyCopy returns a private copy of the default energies
func (t *Topology) EnergyCopy() map[graph.Node]float64 {
	if t.Energy == nil {
		return nil
	}
	out := make(map[graph.Node]float64, len(t.Energy))
	for n, e := range t.Energy {
		out[n] = e
	}
	return out
}

type TopologyManager struct {
	topologies map[string]*Topology
	mutex      sync.RWMutex
}

var (
	instance *TopologyManager
	once     sync.Once
)

func GetInstance() *TopologyManager {
	once.Do(func() {
		instance = NewTopologyManager()
	})
	return instance
}

func NewTopologyManager() *TopologyManager {
	return &TopologyManager{topologies: make(map[string]*Topology)}
}

// SetTopology builds a graph from nodes and edges and stores it under name,
// replacing any previous topology with that name
func (tm *TopologyManager) SetTopology(name string, nodes []graph.Node, edges []graph.Edge, energy map[graph.Node]float64) error {
	if name == "" {
		return fmt.Errorf("topology name is empty")
	}

	g := graph.NewWeightedGraph()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		if err := g.AddEdge(e.From, e.To, e.Weight); err != nil {
			return fmt.Errorf("topology %s: edge %s-%s: %w", name, e.From, e.To, err)
		}
	}

	var defaults map[graph.Node]float64
	if len(energy) > 0 {
		defaults = make(map[graph.Node]float64, len(energy))
		for n, v := range energy {
			if !g.HasNode(n) {
				return fmt.Errorf("topology %s: energy for %s: %w", name, n, graph.ErrUnknownNode)
			}
			defaults[n] = v
		}
	}

	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.topologies[name] = &Topology{Name: name, Graph: g, Energy: defaults}

	log.Infof("SetTopology, name: %s, node num: %d, edge num: %d", name, g.NodeCount(), g.EdgeCount())
	return nil
}

func (tm *TopologyManager) GetTopology(name string) (*Topology, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	t, exists := tm.topologies[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopology, name)
	}
	return t, nil
}

func (tm *TopologyManager) RemoveTopology(name string) bool {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if _, exists := tm.topologies[name]; !exists {
		return false
	}
	delete(tm.topologies, name)
	return true
}

// Names returns the registered topology names, sorted
func (tm *TopologyManager) Names() []string {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	names := make([]string, 0, len(tm.topologies))
	for name := range tm.topologies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
