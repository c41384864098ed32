// Package config loads the worker configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
	"github.com/zeusync/asteroidworker/internal/core/protocol/quic"
)

var ErrInvalidConfig = errors.New("invalid worker configuration")

const (
	TransportWebSocket = "websocket"
	TransportQUIC      = "quic"

	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	Worker      WorkerConfig      `yaml:"worker"`
	Authority   AuthorityConfig   `yaml:"authority"`
	Protocol    protocol.Config   `yaml:"protocol"`
	Systems     SystemsConfig     `yaml:"systems"`
	Store       StoreConfig       `yaml:"store"`
	Collections CollectionsConfig `yaml:"collections"`
	Log         LogConfig         `yaml:"log"`
	Noise       NoiseConfig       `yaml:"noise"`
}

type WorkerConfig struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
	// PollTimeout bounds how long the main loop waits for inbound operations.
	PollTimeout time.Duration `yaml:"poll_timeout"`
}

type AuthorityConfig struct {
	// Transport is "websocket" or "quic".
	Transport string `yaml:"transport"`
	// Address is a ws:// URL for websocket and host:port for quic.
	Address string      `yaml:"address"`
	QUIC    quic.Config `yaml:"quic"`
}

// SystemsConfig holds the tick period of every feature loop.
type SystemsConfig struct {
	Inventory  time.Duration `yaml:"inventory"`
	Generation time.Duration `yaml:"generation"`
	Extraction time.Duration `yaml:"extraction"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// Timeout bounds each background store call.
	Timeout time.Duration `yaml:"timeout"`
}

type CollectionsConfig struct {
	Asteroids string `yaml:"asteroids"`
}

type LogConfig struct {
	Level log.Level `yaml:"level"`
	// RemoteLevel is the minimum level mirrored to the authority. "none" disables it.
	RemoteLevel log.Level `yaml:"remote_level"`
}

type NoiseConfig struct {
	Seed uint64 `yaml:"seed"`
}

func Default() Config {
	return Config{
		Worker: WorkerConfig{
			ID:          "asteroid-worker-1",
			Type:        "asteroid_worker",
			PollTimeout: 100 * time.Millisecond,
		},
		Authority: AuthorityConfig{
			Transport: TransportWebSocket,
			Address:   "ws://127.0.0.1:7777/worker",
			QUIC:      quic.DefaultQUICConfig(),
		},
		Protocol: protocol.DefaultConfig(),
		Systems: SystemsConfig{
			Inventory:  100 * time.Millisecond,
			Generation: 100 * time.Millisecond,
			Extraction: 100 * time.Millisecond,
		},
		Store: StoreConfig{
			Driver:  StoreSQLite,
			Path:    "data/asteroids.sqlite",
			Timeout: 10 * time.Second,
		},
		Collections: CollectionsConfig{
			Asteroids: "rocks",
		},
		Log: LogConfig{
			Level:       log.LevelInfo,
			RemoteLevel: log.LevelWarn,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, cfg.Validate()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []string
	if c.Worker.ID == "" {
		problems = append(problems, "worker.id is empty")
	}
	if c.Worker.PollTimeout <= 0 {
		problems = append(problems, "worker.poll_timeout must be positive")
	}
	switch c.Authority.Transport {
	case TransportWebSocket, TransportQUIC:
	default:
		problems = append(problems, fmt.Sprintf("authority.transport %q is not supported", c.Authority.Transport))
	}
	if c.Authority.Address == "" {
		problems = append(problems, "authority.address is empty")
	}
	switch strings.ToLower(c.Protocol.Compression) {
	case "", "none", "zstd":
	default:
		problems = append(problems, fmt.Sprintf("protocol.compression %q is not supported", c.Protocol.Compression))
	}
	if c.Systems.Inventory <= 0 || c.Systems.Generation <= 0 || c.Systems.Extraction <= 0 {
		problems = append(problems, "systems periods must be positive")
	}
	switch c.Store.Driver {
	case StoreSQLite:
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for sqlite")
		}
	case StoreMemory:
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}
	if c.Collections.Asteroids == "" {
		problems = append(problems, "collections.asteroids is empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
