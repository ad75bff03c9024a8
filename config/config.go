package config

import (
	"fmt"
	"time"

	"energy_routing/path_scheduling/energy_multipath"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

// ServerConfig maps to route_server_config.toml
type ServerConfig struct {
	Server     ServerSection   `toml:"server"`
	Routing    RoutingSection  `toml:"routing"`
	Logging    LoggingSection  `toml:"logging"`
	Etcd       EtcdSection     `toml:"etcd"`
	Topologies []TopologyEntry `toml:"topology"`
}

type ServerSection struct {
	TCPAddr          string `toml:"tcp_addr"`
	GRPCAddr         string `toml:"grpc_addr"`
	MetricsAddr      string `toml:"metrics_addr"`
	RequestTimeoutMs int    `toml:"request_timeout_ms"`
	MaxWorkers       int    `toml:"max_workers"`
	MaxFrameBytes    int    `toml:"max_frame_bytes"`
}

type RoutingSection struct {
	DefaultAlgorithm string `toml:"default_algorithm"`
	DefaultNumPaths  int    `toml:"default_num_paths"`
	// MaxIterations > 0 caps the candidate pops of every search
	MaxIterations int `toml:"max_iterations"`
}

type LoggingSection struct {
	Dir        string `toml:"dir"`
	File       string `toml:"file"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type EtcdSection struct {
	Enabled       bool     `toml:"enabled"`
	Endpoints     []string `toml:"endpoints"`
	DialTimeoutMs int      `toml:"dial_timeout_ms"`
	WorkerID      string   `toml:"worker_id"`
}

// TopologyEntry maps to one [[topology]] item
type TopologyEntry struct {
	Name   string             `toml:"name"`
	Nodes  []string           `toml:"nodes,omitempty"`
	Edges  []EdgeEntry        `toml:"edges"`
	Energy map[string]float64 `toml:"energy,omitempty"`
}

type EdgeEntry struct {
	From   string  `toml:"from"`
	To     string  `toml:"to"`
	Weight float64 `toml:"weight"`
}

func (s ServerSection) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutMs) * time.Millisecond
}

func (e EtcdSection) DialTimeout() time.Duration {
	return time.Duration(e.DialTimeoutMs) * time.Millisecond
}

// LoadServerConfig reads path and fills every missing field with its default
func LoadServerConfig(path string) (*ServerConfig, error) {
	var cfg ServerConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config file %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultServerConfig is what an empty config file yields
func DefaultServerConfig() *ServerConfig {
	cfg := &ServerConfig{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *ServerConfig) applyDefaults() {
	if cfg.Server.TCPAddr == "" {
		log.Warningf("server.tcp_addr not specified, using :10000")
		cfg.Server.TCPAddr = ":10000"
	}
	if cfg.Server.GRPCAddr == "" {
		log.Warningf("server.grpc_addr not specified, using :50051")
		cfg.Server.GRPCAddr = ":50051"
	}
	if cfg.Server.MetricsAddr == "" {
		cfg.Server.MetricsAddr = ":9100"
	}
	if cfg.Server.RequestTimeoutMs <= 0 {
		cfg.Server.RequestTimeoutMs = 5000
	}
	if cfg.Server.MaxWorkers <= 0 {
		cfg.Server.MaxWorkers = 64
	}
	if cfg.Server.MaxFrameBytes <= 0 {
		cfg.Server.MaxFrameBytes = 4 << 20
	}

	if cfg.Routing.DefaultAlgorithm == "" {
		cfg.Routing.DefaultAlgorithm = "energy_multipath"
	}
	if cfg.Routing.DefaultNumPaths <= 0 {
		cfg.Routing.DefaultNumPaths = energy_multipath.DefaultNumPaths
	}
	if cfg.Routing.MaxIterations < 0 {
		log.Warningf("routing.max_iterations %d is negative, disabling the bound", cfg.Routing.MaxIterations)
		cfg.Routing.MaxIterations = 0
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = 100
	}
	if cfg.Logging.MaxBackups <= 0 {
		cfg.Logging.MaxBackups = 7
	}
	if cfg.Logging.MaxAgeDays <= 0 {
		cfg.Logging.MaxAgeDays = 30
	}

	if cfg.Etcd.Enabled && len(cfg.Etcd.Endpoints) == 0 {
		log.Warningf("etcd enabled without endpoints, using 127.0.0.1:2379")
		cfg.Etcd.Endpoints = []string{"127.0.0.1:2379"}
	}
	if cfg.Etcd.DialTimeoutMs <= 0 {
		cfg.Etcd.DialTimeoutMs = 5000
	}
	if cfg.Etcd.WorkerID == "" {
		cfg.Etcd.WorkerID = "route-worker"
	}
}

// ClientConfig maps to route_client_config.toml
type ClientConfig struct {
	ServerAddr string       `toml:"server_addr"`
	Transport  string       `toml:"transport"` // tcp or grpc
	TimeoutMs  int          `toml:"timeout_ms"`
	Queries    []QueryEntry `toml:"query"`
}

// QueryEntry is one request the client sends. Empty Edges with an empty
// Topology means the built-in sample graph.
type QueryEntry struct {
	Algorithm string             `toml:"algorithm,omitempty"`
	Topology  string             `toml:"topology,omitempty"`
	Edges     []EdgeEntry        `toml:"edges,omitempty"`
	Energy    map[string]float64 `toml:"energy,omitempty"`
	Source    string             `toml:"source"`
	Dest      string             `toml:"dest"`
	Threshold float64            `toml:"threshold"`
	NumPaths  int                `toml:"num_paths"`
}

func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func LoadClientConfig(path string) (*ClientConfig, error) {
	var cfg ClientConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load client config file %s: %w", path, err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func DefaultClientConfig() *ClientConfig {
	cfg := &ClientConfig{}
	_ = cfg.applyDefaults()
	return cfg
}

func (cfg *ClientConfig) applyDefaults() error {
	if cfg.Transport == "" {
		cfg.Transport = "tcp"
	}
	switch cfg.Transport {
	case "tcp":
		if cfg.ServerAddr == "" {
			log.Warningf("server_addr not specified, using localhost:10000")
			cfg.ServerAddr = "localhost:10000"
		}
	case "grpc":
		if cfg.ServerAddr == "" {
			log.Warningf("server_addr not specified, using localhost:50051")
			cfg.ServerAddr = "localhost:50051"
		}
	default:
		return fmt.Errorf("unknown transport %q, expected tcp or grpc", cfg.Transport)
	}
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = 5000
	}
	if len(cfg.Queries) == 0 {
		cfg.Queries = []QueryEntry{{Source: "5", Dest: "2", Threshold: 20, NumPaths: 3}}
	}
	return nil
}
