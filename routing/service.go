package routing

import (
	"context"
	"fmt"
	"time"

	"energy_routing/common"
	"energy_routing/path_scheduling/adapter"
	psc "energy_routing/path_scheduling/common"
	"energy_routing/path_scheduling/energy_multipath"
	"energy_routing/path_scheduling/graph"
	"energy_routing/protocol"
	"energy_routing/status"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultAlgorithm = adapter.EnergyMultipath
	DefaultNumPaths  = energy_multipath.DefaultNumPaths
)

type ServiceConfig struct {
	DefaultAlgorithm string
	DefaultNumPaths  int
	RequestTimeout   time.Duration
	// MaxIterations > 0 caps the candidate pops of every search
	MaxIterations int
}

// RouteService answers route requests coming from any transport. Requests
// run on the shared ants pool, each bounded by RequestTimeout.
type RouteService struct {
	cfg        ServiceConfig
	pool       *ants.Pool
	topologies *common.TopologyManager
	registry   *psc.AlgorithmRegistry
	metrics    *RouteMetrics
}

func NewRouteService(cfg ServiceConfig, pool *ants.Pool, topologies *common.TopologyManager,
	registry *psc.AlgorithmRegistry, metrics *RouteMetrics) *RouteService {
	if cfg.DefaultAlgorithm == "" {
		cfg.DefaultAlgorithm = DefaultAlgorithm
	}
	if cfg.DefaultNumPaths <= 0 {
		cfg.DefaultNumPaths = DefaultNumPaths
	}
	if topologies == nil {
		topologies = common.GetInstance()
	}
	if registry == nil {
		registry = psc.GetGlobalRegistry()
	}
	return &RouteService{
		cfg:        cfg,
		pool:       pool,
		topologies: topologies,
		registry:   registry,
		metrics:    metrics,
	}
}

type computeResult struct {
	outcome *psc.Outcome
	err     error
}

// Compute never returns a nil response; failures are reported through
// ErrorCode and Error
func (s *RouteService) Compute(ctx context.Context, req *protocol.RouteRequest) *protocol.RouteResponse {
	start := time.Now()
	req.EnsureDefaults()

	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = s.cfg.DefaultAlgorithm
	}
	resp := &protocol.RouteResponse{
		RequestID: req.RequestID,
		Algorithm: algorithm,
		Paths:     [][]string{},
	}

	outcome, err := s.compute(ctx, req, algorithm)
	resp.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000

	code := "OK"
	if err != nil {
		resp.ErrorCode = CodeFor(err)
		resp.Error = err.Error()
		code = string(resp.ErrorCode)
		log.Warnf("Compute: request=%s algorithm=%s %s -> %s failed: %s: %v",
			req.RequestID, algorithm, req.Source, req.Dest, resp.ErrorCode, err)
	} else {
		fillResponse(resp, outcome)
		log.Infof("Compute: request=%s algorithm=%s %s -> %s paths=%d elapsed=%.3fms",
			req.RequestID, algorithm, req.Source, req.Dest, len(resp.Paths), resp.ElapsedMs)
	}

	if s.metrics != nil {
		iterations := 0
		if outcome != nil {
			iterations = outcome.Stats.Iterations
		}
		s.metrics.observe(algorithm, code, time.Since(start), len(resp.Paths), iterations)
	}
	return resp
}

func (s *RouteService) compute(ctx context.Context, req *protocol.RouteRequest, algorithm string) (*psc.Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g, energy, err := s.resolveNetwork(req)
	if err != nil {
		return nil, err
	}

	calc, err := s.registry.Get(algorithm)
	if err != nil {
		return nil, err
	}

	numPaths := req.NumPaths
	if numPaths == 0 {
		numPaths = s.cfg.DefaultNumPaths
	}
	flow := psc.Flow{
		Source:        graph.Node(req.Source),
		Destination:   graph.Node(req.Dest),
		Energy:        energy,
		Threshold:     req.Threshold,
		NumPaths:      numPaths,
		MaxIterations: s.cfg.MaxIterations,
	}

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}
	return s.run(ctx, func() (*psc.Outcome, error) {
		return calc.ComputePaths(ctx, g, flow)
	})
}

// run executes fn on the pool and waits for it or for ctx
func (s *RouteService) run(ctx context.Context, fn func() (*psc.Outcome, error)) (*psc.Outcome, error) {
	if s.pool == nil {
		return fn()
	}
	if s.metrics != nil {
		s.metrics.inflight.Inc()
		defer s.metrics.inflight.Dec()
	}

	done := make(chan computeResult, 1)
	if err := s.pool.Submit(func() {
		outcome, err := fn()
		done <- computeResult{outcome: outcome, err: err}
	}); err != nil {
		return nil, fmt.Errorf("submit route computation: %w", err)
	}

	select {
	case r := <-done:
		return r.outcome, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolveNetwork returns the graph and energy map a request refers to.
// Inline graphs are built per request; named topologies are shared read-only.
func (s *RouteService) resolveNetwork(req *protocol.RouteRequest) (*graph.WeightedGraph, map[graph.Node]float64, error) {
	switch {
	case req.Graph != nil && req.Topology != "":
		return nil, nil, errGraphAndTopology
	case req.Graph != nil:
		g, err := BuildGraph(req.Graph)
		if err != nil {
			return nil, nil, err
		}
		return g, toNodeMap(req.Energy), nil
	case req.Topology != "":
		topo, err := s.topologies.GetTopology(req.Topology)
		if err != nil {
			return nil, nil, err
		}
		if len(req.Energy) > 0 {
			return topo.Graph, toNodeMap(req.Energy), nil
		}
		energy := topo.EnergyCopy()
		if energy == nil {
			return nil, nil, fmt.Errorf("topology %s: %w", req.Topology, errNoEnergy)
		}
		return topo.Graph, energy, nil
	default:
		return nil, nil, errNoNetwork
	}
}

// Status reports host health plus service counters
func (s *RouteService) Status(ctx context.Context) *protocol.StatusResponse {
	host, err := status.Collect(ctx)
	if err != nil {
		log.Debugf("Status: partial host status: %v", err)
	}
	resp := &protocol.StatusResponse{
		Hostname:       host.Hostname,
		UptimeSeconds:  host.UptimeSeconds,
		CPUPercent:     host.CPUPercent,
		MemUsedPercent: host.MemUsedPercent,
		Load1:          host.Load1,
		Goroutines:     host.Goroutines,
		Algorithms:     s.registry.List(),
		Topologies:     s.topologies.Names(),
	}
	if s.metrics != nil {
		resp.RequestsServed = s.metrics.Served()
		resp.RequestsFailed = s.metrics.Failed()
	}
	return resp
}

// BuildGraph turns a wire graph into a WeightedGraph. Listed nodes come
// first so their order is kept.
func BuildGraph(spec *protocol.GraphSpec) (*graph.WeightedGraph, error) {
	g := graph.NewWeightedGraph()
	for _, n := range spec.Nodes {
		g.AddNode(graph.Node(n))
	}
	for _, e := range spec.Edges {
		if err := g.AddEdge(graph.Node(e.From), graph.Node(e.To), e.Weight); err != nil {
			return nil, fmt.Errorf("edge %s-%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

func fillResponse(resp *protocol.RouteResponse, outcome *psc.Outcome) {
	resp.Paths = make([][]string, len(outcome.Paths))
	resp.Costs = make([]float64, len(outcome.Paths))
	for i, p := range outcome.Paths {
		nodes := make([]string, len(p.Nodes))
		for j, n := range p.Nodes {
			nodes[j] = string(n)
		}
		resp.Paths[i] = nodes
		resp.Costs[i] = p.Cost
	}
	resp.Weights = TrafficWeights(resp.Costs)

	resp.Remaining = make(map[string]float64, len(outcome.Remaining))
	for n, e := range outcome.Remaining {
		resp.Remaining[string(n)] = e
	}

	st := outcome.Stats
	resp.Stats = &protocol.RouteStats{
		Iterations:       st.Iterations,
		Duplicates:       st.Duplicates,
		Rejected:         st.Rejected,
		Accepted:         st.Accepted,
		CandidatesPushed: st.CandidatesPushed,
		DetourFailures:   st.DetourFailures,
		LoopsDropped:     st.LoopsDropped,
		Truncated:        st.Truncated,
	}
}

func toNodeMap(in map[string]float64) map[graph.Node]float64 {
	if in == nil {
		return nil
	}
	out := make(map[graph.Node]float64, len(in))
	for k, v := range in {
		out[graph.Node(k)] = v
	}
	return out
}
