package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"energy_routing/common"
	"energy_routing/config"
	"energy_routing/etcd"
	"energy_routing/routing"
	"energy_routing/transport"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func loadConfig(path string) *config.ServerConfig {
	cfg, err := config.LoadServerConfig(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("loading configuration failed, err:%v", err)
		}
		log.Warningf("config file %s not found, using defaults", path)
		cfg = config.DefaultServerConfig()
	}
	return cfg
}

func loadTopologies(tm *common.TopologyManager, entries []config.TopologyEntry) {
	for _, e := range entries {
		if err := tm.SetTopology(e.Name, e.GraphNodes(), e.GraphEdges(), e.GraphEnergy()); err != nil {
			log.Fatalf("loading topology %q failed, err:%v", e.Name, err)
		}
	}
}

func startMetricsServer(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server failed, addr:%s, err:%v", addr, err)
		}
	}()
	log.Infof("metrics server listening, addr:%s", addr)
	return srv
}

func startEtcdWorker(ctx context.Context, cfg config.EtcdSection, svc *routing.RouteService) *etcd.TaskWorker {
	worker, err := etcd.NewTaskWorker(etcd.EtcdConfig{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout(),
	}, cfg.WorkerID)
	if err != nil {
		log.Errorf("etcd worker disabled, err:%v", err)
		return nil
	}
	worker.RegisterRouteProcessor(svc)
	go func() {
		if err := worker.Start(ctx); err != nil {
			log.Errorf("etcd worker stopped, err:%v", err)
		}
	}()
	return worker
}

func main() {
	configPath := flag.String("config", "route_server_config.toml", "path to the server config file")
	flag.Parse()

	cfg := loadConfig(*configPath)
	if err := common.InitLogger(common.LogConfig{
		Dir:        cfg.Logging.Dir,
		File:       cfg.Logging.File,
		Level:      cfg.Logging.Level,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		log.Fatalf("init logger failed, err:%v", err)
	}

	// route computations and stream handlers wait on each other, so they
	// cannot share a pool
	computePool, err := common.NewPool(common.PoolConfig{MaxWorkers: cfg.Server.MaxWorkers})
	if err != nil {
		log.Fatalf("create compute pool failed, err:%v", err)
	}
	defer computePool.Release()
	streamPool, err := common.NewPool(common.PoolConfig{MaxWorkers: cfg.Server.MaxWorkers, Nonblocking: true})
	if err != nil {
		log.Fatalf("create stream pool failed, err:%v", err)
	}
	defer streamPool.Release()

	topologies := common.GetInstance()
	loadTopologies(topologies, cfg.Topologies)

	registry := prometheus.NewRegistry()
	svc := routing.NewRouteService(routing.ServiceConfig{
		DefaultAlgorithm: cfg.Routing.DefaultAlgorithm,
		DefaultNumPaths:  cfg.Routing.DefaultNumPaths,
		RequestTimeout:   cfg.Server.RequestTimeout(),
		MaxIterations:    cfg.Routing.MaxIterations,
	}, computePool, topologies, nil, routing.NewRouteMetrics(registry))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsServer := startMetricsServer(cfg.Server.MetricsAddr, registry)

	tcpServer := transport.NewTCPServer(svc, streamPool, transport.TCPServerConfig{
		MaxBodyBytes: cfg.Server.MaxFrameBytes,
		ReadTimeout:  cfg.Server.RequestTimeout(),
	})
	go func() {
		if err := tcpServer.ListenAndServe(cfg.Server.TCPAddr); err != nil {
			log.Fatalf("tcp server failed, addr:%s, err:%v", cfg.Server.TCPAddr, err)
		}
	}()

	grpcServer := transport.NewGRPCServer(svc)
	go func() {
		if err := grpcServer.ListenAndServe(cfg.Server.GRPCAddr); err != nil {
			log.Fatalf("grpc server failed, addr:%s, err:%v", cfg.Server.GRPCAddr, err)
		}
	}()

	var worker *etcd.TaskWorker
	if cfg.Etcd.Enabled {
		worker = startEtcdWorker(ctx, cfg.Etcd, svc)
	}

	log.Infof("route server init success, algorithms:%v, topologies:%v",
		svc.Status(ctx).Algorithms, topologies.Names())

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan
	log.Infof("received signal, shutting down")

	cancel()
	if err := tcpServer.Close(); err != nil {
		log.Warnf("tcp server close, err:%v", err)
	}
	grpcServer.GracefulStop()
	if worker != nil {
		worker.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("metrics server shutdown, err:%v", err)
	}
	log.Infof("route server stopped")
}
