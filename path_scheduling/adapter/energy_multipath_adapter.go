package adapter

import (
	"context"
	"fmt"

	"energy_routing/path_scheduling/common"
	"energy_routing/path_scheduling/energy_multipath"
	"energy_routing/path_scheduling/graph"

	log "github.com/sirupsen/logrus"
)

// EnergyMultipathAdapter implements common.PathCalculator on top of the
// energy_multipath engine
type EnergyMultipathAdapter struct {
	engine *energy_multipath.Engine
}

func NewEnergyMultipathAdapter(opts energy_multipath.Options) *EnergyMultipathAdapter {
	return &EnergyMultipathAdapter{engine: energy_multipath.NewEngine(opts)}
}

// engineFor returns the shared engine unless the flow asks for its own bound
func (ea *EnergyMultipathAdapter) engineFor(flow common.Flow) *energy_multipath.Engine {
	if flow.MaxIterations <= 0 {
		return ea.engine
	}
	opts := ea.engine.Options()
	opts.MaxIterations = flow.MaxIterations
	return energy_multipath.NewEngine(opts)
}

func (ea *EnergyMultipathAdapter) ComputePaths(ctx context.Context, g *graph.WeightedGraph, flow common.Flow) (*common.Outcome, error) {
	engine := ea.engineFor(flow)
	log.Debugf("EnergyMultipathAdapter.ComputePaths: mode=%s source=%s dest=%s threshold=%v numPaths=%d maxIterations=%d",
		engine.Options().Mode, flow.Source, flow.Destination, flow.Threshold, flow.NumPaths, engine.Options().MaxIterations)

	res, err := engine.Route(ctx, g, energy_multipath.Request{
		Source:    flow.Source,
		Dest:      flow.Destination,
		Energy:    flow.Energy,
		Threshold: flow.Threshold,
		NumPaths:  flow.NumPaths,
	})
	if err != nil {
		return nil, fmt.Errorf("energy multipath %s -> %s: %w", flow.Source, flow.Destination, err)
	}

	out := &common.Outcome{
		Paths:     make([]common.PathWithCost, 0, len(res.Paths)),
		Remaining: res.Remaining,
		Stats:     res.Stats,
	}
	for i, p := range res.Paths {
		out.Paths = append(out.Paths, common.PathWithCost{Nodes: p.Clone(), Cost: res.Costs[i]})
	}

	log.Infof("EnergyMultipathAdapter.ComputePaths: %d paths for %s -> %s (iterations=%d, pushed=%d, truncated=%v)",
		len(out.Paths), flow.Source, flow.Destination, res.Stats.Iterations, res.Stats.CandidatesPushed, res.Stats.Truncated)
	return out, nil
}
