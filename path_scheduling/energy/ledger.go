package energy

import (
	"energy_routing/path_scheduling/graph"
)

// Ledger tracks the remaining energy of every node during one routing invocation.
// Values are never clamped, repeated depletion can drive them below zero.
type Ledger struct {
	nodes     []graph.Node
	remaining map[graph.Node]float64
}

// NewLedger copies capacities for the given nodes. Nodes without a capacity start at zero.
func NewLedger(nodes []graph.Node, capacities map[graph.Node]float64) *Ledger {
	l := &Ledger{
		nodes:     make([]graph.Node, len(nodes)),
		remaining: make(map[graph.Node]float64, len(nodes)),
	}
	copy(l.nodes, nodes)
	for _, n := range nodes {
		l.remaining[n] = capacities[n]
	}
	return l
}

func (l *Ledger) Get(n graph.Node) float64 {
	return l.remaining[n]
}

// DepleteAll subtracts amount from every node, not only the ones on a path
func (l *Ledger) DepleteAll(amount float64) {
	for _, n := range l.nodes {
		l.remaining[n] -= amount
	}
}

// IsSufficient reports energy(n) >= threshold. Unknown nodes are never sufficient.
func (l *Ledger) IsSufficient(n graph.Node, threshold float64) bool {
	e, ok := l.remaining[n]
	if !ok {
		return false
	}
	return e >= threshold
}

// AllSufficient reports whether every node of p passes IsSufficient
func (l *Ledger) AllSufficient(p graph.Path, threshold float64) bool {
	for _, n := range p {
		if !l.IsSufficient(n, threshold) {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of the current energies
func (l *Ledger) Snapshot() map[graph.Node]float64 {
	snap := make(map[graph.Node]float64, len(l.remaining))
	for n, e := range l.remaining {
		snap[n] = e
	}
	return snap
}
