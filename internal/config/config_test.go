package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/asteroidworker/internal/core/observability/log"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
worker:
  id: w-7
authority:
  transport: quic
  address: 10.0.0.1:4433
  quic:
    insecure_skip_verify: true
protocol:
  compression: zstd
systems:
  generation: 250ms
store:
  driver: memory
log:
  level: debug
  remote_level: none
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "w-7", cfg.Worker.ID)
	assert.Equal(t, "asteroid_worker", cfg.Worker.Type)
	assert.Equal(t, TransportQUIC, cfg.Authority.Transport)
	assert.True(t, cfg.Authority.QUIC.InsecureSkipVerify)
	assert.Equal(t, 30*time.Second, cfg.Authority.QUIC.MaxIdleTimeout)
	assert.Equal(t, "zstd", cfg.Protocol.Compression)
	assert.Equal(t, 250*time.Millisecond, cfg.Systems.Generation)
	assert.Equal(t, 100*time.Millisecond, cfg.Systems.Extraction)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, log.LevelDebug, cfg.Log.Level)
	assert.Equal(t, log.LevelNone, cfg.Log.RemoteLevel)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"transport":   func(c *Config) { c.Authority.Transport = "carrier-pigeon" },
		"address":     func(c *Config) { c.Authority.Address = "" },
		"compression": func(c *Config) { c.Protocol.Compression = "lz4" },
		"period":      func(c *Config) { c.Systems.Extraction = 0 },
		"driver":      func(c *Config) { c.Store.Driver = "postgres" },
		"sqlite path": func(c *Config) { c.Store.Path = "" },
		"collection":  func(c *Config) { c.Collections.Asteroids = "" },
		"poll":        func(c *Config) { c.Worker.PollTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unterminated"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
