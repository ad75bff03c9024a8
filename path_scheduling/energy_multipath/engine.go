package energy_multipath

import (
	"context"
	"errors"
	"fmt"
	"math"

	"energy_routing/path_scheduling/detour"
	"energy_routing/path_scheduling/energy"
	"energy_routing/path_scheduling/graph"
	"energy_routing/path_scheduling/shortest_path"

	log "github.com/sirupsen/logrus"
)

// DefaultNumPaths is the number of routes requested when the caller does not say
const DefaultNumPaths = 3

var (
	ErrInvalidArgument = errors.New("invalid argument")

	ErrNoPath      = graph.ErrNoPath
	ErrUnknownNode = graph.ErrUnknownNode
)

// DetourMode selects how a detour found in H becomes a new candidate
type DetourMode int

const (
	// DetourRaw queues the v->u shortest path found in H as the next candidate
	DetourRaw DetourMode = iota
	// DetourSplice reverses the v->u detour and splices it into the accepted
	// path in place of the (u, v) hop, keeping candidates source->dest.
	DetourSplice
)

func (m DetourMode) String() string {
	switch m {
	case DetourRaw:
		return "raw"
	case DetourSplice:
		return "splice"
	default:
		return fmt.Sprintf("DetourMode(%d)", int(m))
	}
}

type Options struct {
	Mode DetourMode
	// MaxIterations bounds the number of queue pops, 0 means unbounded
	MaxIterations int
}

// Request carries one routing invocation
type Request struct {
	Source    graph.Node
	Dest      graph.Node
	Energy    map[graph.Node]float64
	Threshold float64
	NumPaths  int
}

type Stats struct {
	Iterations       int  `json:"iterations"`
	Duplicates       int  `json:"duplicates"`
	Rejected         int  `json:"rejected"`
	Accepted         int  `json:"accepted"`
	CandidatesPushed int  `json:"candidates_pushed"`
	DetourFailures   int  `json:"detour_failures"`
	LoopsDropped     int  `json:"loops_dropped"`
	Truncated        bool `json:"truncated"`
}

type Result struct {
	Paths []graph.Path
	// Costs[i] is the total edge weight of Paths[i]
	Costs     []float64
	Remaining map[graph.Node]float64
	Stats     Stats
}

// Engine computes energy-aware multipath routes. An Engine holds no state
// between calls and may be shared by concurrent invocations.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

func (e *Engine) Options() Options {
	return e.opts
}

// Route runs the priority-driven search. The graph is only read; the ledger,
// detour graph, explored set and queue all belong to this call.
func (e *Engine) Route(ctx context.Context, g *graph.WeightedGraph, req Request) (*Result, error) {
	if err := validateRequest(g, req); err != nil {
		return nil, err
	}

	initial, _, err := shortest_path.ShortestPath(g, req.Source, req.Dest)
	if err != nil {
		return nil, err
	}

	inv := &invocation{
		g:         g,
		h:         detour.Build(g),
		ledger:    energy.NewLedger(g.Nodes(), req.Energy),
		explored:  make(map[string]struct{}),
		threshold: req.Threshold,
		mode:      e.opts.Mode,
	}
	inv.queue.push(initial)
	inv.stats.CandidatesPushed++

	log.Debugf("Route: source=%s dest=%s threshold=%v numPaths=%d mode=%s initial=%v",
		req.Source, req.Dest, req.Threshold, req.NumPaths, e.opts.Mode, initial)

	for inv.queue.size() > 0 && len(inv.valid) < req.NumPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.opts.MaxIterations > 0 && inv.stats.Iterations >= e.opts.MaxIterations {
			inv.stats.Truncated = true
			log.Warnf("Route: stopped after %d iterations with %d paths (source=%s dest=%s)",
				inv.stats.Iterations, len(inv.valid), req.Source, req.Dest)
			break
		}
		inv.stats.Iterations++

		path := inv.queue.pop()
		key := path.Key()
		if _, seen := inv.explored[key]; seen {
			inv.stats.Duplicates++
			continue
		}
		inv.explored[key] = struct{}{}

		if !inv.ledger.AllSufficient(path, req.Threshold) {
			inv.stats.Rejected++
			continue
		}

		inv.ledger.DepleteAll(req.Threshold)
		inv.valid = append(inv.valid, path)
		inv.stats.Accepted++
		log.Debugf("Route: accepted path[%d]=%v", len(inv.valid)-1, path)

		if err := inv.deriveCandidates(path); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Paths:     inv.valid,
		Costs:     make([]float64, len(inv.valid)),
		Remaining: inv.ledger.Snapshot(),
		Stats:     inv.stats,
	}
	if result.Paths == nil {
		result.Paths = []graph.Path{}
	}
	for i, p := range inv.valid {
		cost, err := g.PathWeight(p)
		if err != nil {
			return nil, fmt.Errorf("accepted path %v is not in the graph: %w", p, err)
		}
		result.Costs[i] = cost
	}
	return result, nil
}

type invocation struct {
	g         *graph.WeightedGraph
	h         *graph.Digraph
	ledger    *energy.Ledger
	queue     candidateQueue
	explored  map[string]struct{}
	valid     []graph.Path
	threshold float64
	mode      DetourMode
	stats     Stats
}

// deriveCandidates looks for a detour around every hop (u, v) of an accepted
// path whose next node still has enough energy, and queues what it finds.
func (inv *invocation) deriveCandidates(path graph.Path) error {
	for i := 0; i < len(path)-1; i++ {
		u, v := path[i], path[i+1]
		if !inv.ledger.IsSufficient(v, inv.threshold) {
			continue
		}
		weight, err := inv.g.Weight(u, v)
		if err != nil {
			return fmt.Errorf("hop %s-%s of accepted path: %w", u, v, err)
		}

		var found graph.Path
		err = detour.WithTempArc(inv.h, v, u, weight, func(h *graph.Digraph) error {
			p, _, err := shortest_path.ShortestPath(h, v, u)
			found = p
			return err
		})
		if errors.Is(err, graph.ErrNoPath) {
			inv.stats.DetourFailures++
			continue
		}
		if err != nil {
			return err
		}

		next := found
		if inv.mode == DetourSplice {
			next = splice(path, i, found)
			if !next.IsSimple() {
				inv.stats.LoopsDropped++
				continue
			}
		}
		inv.queue.push(next)
		inv.stats.CandidatesPushed++
	}
	return nil
}

// splice replaces hop i of path with the reversed v->u detour
func splice(path graph.Path, i int, detourVU graph.Path) graph.Path {
	bridge := detourVU.Reverse()
	out := make(graph.Path, 0, len(path)+len(bridge))
	out = append(out, path[:i]...)
	out = append(out, bridge...)
	out = append(out, path[i+2:]...)
	return out
}

func validateRequest(g *graph.WeightedGraph, req Request) error {
	if g == nil {
		return fmt.Errorf("%w: graph is nil", ErrInvalidArgument)
	}
	if math.IsNaN(req.Threshold) || math.IsInf(req.Threshold, 0) || req.Threshold <= 0 {
		return fmt.Errorf("%w: threshold must be positive, got %v", ErrInvalidArgument, req.Threshold)
	}
	if req.NumPaths < 0 {
		return fmt.Errorf("%w: num_paths must not be negative, got %d", ErrInvalidArgument, req.NumPaths)
	}
	if !g.HasNode(req.Source) {
		return fmt.Errorf("%w: source %s", ErrUnknownNode, req.Source)
	}
	if !g.HasNode(req.Dest) {
		return fmt.Errorf("%w: dest %s", ErrUnknownNode, req.Dest)
	}
	for n, e := range req.Energy {
		if !g.HasNode(n) {
			return fmt.Errorf("%w: energy entry for %s", ErrUnknownNode, n)
		}
		if math.IsNaN(e) {
			return fmt.Errorf("%w: energy of %s is NaN", ErrInvalidArgument, n)
		}
	}
	for _, n := range g.Nodes() {
		if _, ok := req.Energy[n]; !ok {
			return fmt.Errorf("%w: no energy given for node %s", ErrInvalidArgument, n)
		}
	}
	return nil
}
