package graph

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Node identifies a point in the network topology
type Node string

// Arc is one directed hop out of a node
type Arc struct {
	To     Node
	Weight float64
}

// Edge is an undirected link between two nodes
type Edge struct {
	From   Node    `json:"from"`
	To     Node    `json:"to"`
	Weight float64 `json:"weight"`
}

// Path is an ordered node sequence, identity is the exact sequence
type Path []Node

// Key returns a string usable as a map key for the exact node sequence.
// Each node is length-prefixed, so IDs may contain any byte.
func (p Path) Key() string {
	var b strings.Builder
	for _, n := range p {
		b.WriteString(strconv.Itoa(len(n)))
		b.WriteByte(':')
		b.WriteString(string(n))
	}
	return b.String()
}

func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (p Path) Clone() Path {
	c := make(Path, len(p))
	copy(c, p)
	return c
}

// Reverse returns a reversed copy
func (p Path) Reverse() Path {
	r := make(Path, len(p))
	for i, n := range p {
		r[len(p)-1-i] = n
	}
	return r
}

// IsSimple reports whether no node appears twice
func (p Path) IsSimple() bool {
	seen := make(map[Node]struct{}, len(p))
	for _, n := range p {
		if _, ok := seen[n]; ok {
			return false
		}
		seen[n] = struct{}{}
	}
	return true
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = string(n)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// WeightedGraph is an undirected graph with non-negative edge weights.
// Nodes and neighbours are kept in insertion order so that every traversal
// over the same input is deterministic.
type WeightedGraph struct {
	nodes []Node
	adj   map[Node][]Arc
	edges []Edge
}

func NewWeightedGraph() *WeightedGraph {
	return &WeightedGraph{
		adj: make(map[Node][]Arc),
	}
}

// NewWeightedGraphFromEdges builds a graph from an edge list
func NewWeightedGraphFromEdges(edges []Edge) (*WeightedGraph, error) {
	g := NewWeightedGraph()
	for _, e := range edges {
		if err := g.AddEdge(e.From, e.To, e.Weight); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *WeightedGraph) AddNode(n Node) {
	if _, exists := g.adj[n]; exists {
		return
	}
	g.adj[n] = nil
	g.nodes = append(g.nodes, n)
}

// AddEdge adds the undirected edge u-v. Adding an existing edge updates its weight.
func (g *WeightedGraph) AddEdge(u, v Node, weight float64) error {
	if err := checkWeight(weight); err != nil {
		return fmt.Errorf("%w: edge %s-%s", err, u, v)
	}
	g.AddNode(u)
	g.AddNode(v)

	if setArc(g.adj, u, v, weight) {
		if u != v {
			setArc(g.adj, v, u, weight)
		}
		for i := range g.edges {
			e := &g.edges[i]
			if (e.From == u && e.To == v) || (e.From == v && e.To == u) {
				e.Weight = weight
				break
			}
		}
		return nil
	}

	g.adj[u] = append(g.adj[u], Arc{To: v, Weight: weight})
	if u != v {
		g.adj[v] = append(g.adj[v], Arc{To: u, Weight: weight})
	}
	g.edges = append(g.edges, Edge{From: u, To: v, Weight: weight})
	return nil
}

func (g *WeightedGraph) HasNode(n Node) bool {
	_, exists := g.adj[n]
	return exists
}

// Nodes returns a copy of the node list in insertion order
func (g *WeightedGraph) Nodes() []Node {
	nodes := make([]Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Edges returns a copy of the edge list in insertion order
func (g *WeightedGraph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Neighbors returns the arcs leaving n in both directions of every incident edge.
// The returned slice is shared with the graph and must not be modified.
func (g *WeightedGraph) Neighbors(n Node) []Arc {
	return g.adj[n]
}

// Weight returns the weight of the edge u-v
func (g *WeightedGraph) Weight(u, v Node) (float64, error) {
	arcs, exists := g.adj[u]
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrUnknownNode, u)
	}
	if !g.HasNode(v) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownNode, v)
	}
	for _, a := range arcs {
		if a.To == v {
			return a.Weight, nil
		}
	}
	return 0, fmt.Errorf("%w: %s-%s", ErrEdgeNotFound, u, v)
}

func (g *WeightedGraph) NodeCount() int {
	return len(g.nodes)
}

func (g *WeightedGraph) EdgeCount() int {
	return len(g.edges)
}

// ValidatePath checks that every node exists and consecutive nodes share an edge
func (g *WeightedGraph) ValidatePath(p Path) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, n := range p {
		if !g.HasNode(n) {
			return fmt.Errorf("%w: %s", ErrUnknownNode, n)
		}
	}
	for i := 0; i < len(p)-1; i++ {
		if _, err := g.Weight(p[i], p[i+1]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
	}
	return nil
}

// PathWeight sums the edge weights along p
func (g *WeightedGraph) PathWeight(p Path) (float64, error) {
	total := 0.0
	for i := 0; i < len(p)-1; i++ {
		w, err := g.Weight(p[i], p[i+1])
		if err != nil {
			return 0, err
		}
		total += w
	}
	return total, nil
}

// Clone creates a deep copy of the graph
func (g *WeightedGraph) Clone() *WeightedGraph {
	c := &WeightedGraph{
		nodes: make([]Node, len(g.nodes)),
		adj:   make(map[Node][]Arc, len(g.adj)),
		edges: make([]Edge, len(g.edges)),
	}
	copy(c.nodes, g.nodes)
	copy(c.edges, g.edges)
	for n, arcs := range g.adj {
		if arcs == nil {
			c.adj[n] = nil
			continue
		}
		c.adj[n] = append([]Arc(nil), arcs...)
	}
	return c
}

// Digraph is a directed weighted graph with insertion-ordered arcs
type Digraph struct {
	nodes []Node
	out   map[Node][]Arc
	arcs  int
}

func NewDigraph() *Digraph {
	return &Digraph{
		out: make(map[Node][]Arc),
	}
}

func (d *Digraph) AddNode(n Node) {
	if _, exists := d.out[n]; exists {
		return
	}
	d.out[n] = nil
	d.nodes = append(d.nodes, n)
}

// AddArc adds u->v, or updates its weight when the arc already exists
func (d *Digraph) AddArc(u, v Node, weight float64) {
	d.AddNode(u)
	d.AddNode(v)
	if setArc(d.out, u, v, weight) {
		return
	}
	d.out[u] = append(d.out[u], Arc{To: v, Weight: weight})
	d.arcs++
}

// RemoveArc deletes u->v and reports whether it existed
func (d *Digraph) RemoveArc(u, v Node) bool {
	arcs := d.out[u]
	for i, a := range arcs {
		if a.To == v {
			d.out[u] = append(arcs[:i:i], arcs[i+1:]...)
			d.arcs--
			return true
		}
	}
	return false
}

// Arc returns the weight of u->v
func (d *Digraph) Arc(u, v Node) (float64, bool) {
	for _, a := range d.out[u] {
		if a.To == v {
			return a.Weight, true
		}
	}
	return 0, false
}

func (d *Digraph) HasNode(n Node) bool {
	_, exists := d.out[n]
	return exists
}

// Neighbors returns the outgoing arcs of n. The slice must not be modified.
func (d *Digraph) Neighbors(n Node) []Arc {
	return d.out[n]
}

func (d *Digraph) Nodes() []Node {
	nodes := make([]Node, len(d.nodes))
	copy(nodes, d.nodes)
	return nodes
}

func (d *Digraph) ArcCount() int {
	return d.arcs
}

// setArc updates the weight of an existing u->v arc in place
func setArc(adj map[Node][]Arc, u, v Node, weight float64) bool {
	arcs := adj[u]
	for i := range arcs {
		if arcs[i].To == v {
			arcs[i].Weight = weight
			return true
		}
	}
	return false
}

func checkWeight(weight float64) error {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, weight)
	}
	return nil
}
