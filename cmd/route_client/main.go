package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"energy_routing/config"
	"energy_routing/protocol"
	"energy_routing/routing"
	"energy_routing/transport"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// routeClient is satisfied by both transports
type routeClient interface {
	Route(ctx context.Context, req *protocol.RouteRequest) (*protocol.RouteResponse, error)
	Close() error
}

func newClient(cfg *config.ClientConfig) (routeClient, error) {
	switch cfg.Transport {
	case "grpc":
		return transport.NewGRPCClient(cfg.ServerAddr)
	default:
		return transport.NewTCPClient(cfg.ServerAddr), nil
	}
}

func printResponse(i int, req *protocol.RouteRequest, resp *protocol.RouteResponse) {
	var b strings.Builder
	fmt.Fprintf(&b, "query %d: %s -> %s (request %s, algorithm %s, %.3fms)\n",
		i, req.Source, req.Dest, resp.RequestID, resp.Algorithm, resp.ElapsedMs)
	if len(resp.Paths) == 0 {
		b.WriteString("  no path satisfies the energy threshold\n")
	}
	for j, p := range resp.Paths {
		fmt.Fprintf(&b, "  path %d: %s cost=%v weight=%d%%\n", j, strings.Join(p, "->"), resp.Costs[j], resp.Weights[j])
	}

	// preview how a sender would spread ten packets over the paths
	if len(resp.Weights) > 0 {
		rr := routing.NewWeightedRoundRobin(resp.Weights)
		picks := make([]string, 0, 10)
		for k := 0; k < 10; k++ {
			picks = append(picks, fmt.Sprint(rr.Next()))
		}
		fmt.Fprintf(&b, "  packet schedule: %s\n", strings.Join(picks, " "))
	}
	fmt.Print(b.String())
}

func main() {
	configPath := flag.String("config", "route_client_config.toml", "path to the client config file")
	flag.Parse()

	cfg, err := config.LoadClientConfig(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("loading configuration failed, err:%v", err)
		}
		log.Warningf("config file %s not found, sending the sample request", *configPath)
		cfg = config.DefaultClientConfig()
	}

	client, err := newClient(cfg)
	if err != nil {
		log.Fatalf("create %s client failed, err:%v", cfg.Transport, err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	responses := make([]*protocol.RouteResponse, len(cfg.Queries))
	requests := make([]*protocol.RouteRequest, len(cfg.Queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range cfg.Queries {
		requests[i] = q.Request()
		requests[i].EnsureDefaults()
		i := i
		g.Go(func() error {
			resp, err := client.Route(gctx, requests[i])
			if err != nil && resp == nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("route queries failed, err:%v", err)
	}

	failed := 0
	for i, resp := range responses {
		if err := resp.Err(); err != nil {
			failed++
			fmt.Printf("query %d: %s -> %s failed: %v\n", i, requests[i].Source, requests[i].Dest, err)
			continue
		}
		printResponse(i, requests[i], resp)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
