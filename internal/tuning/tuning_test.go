package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/drowned-chart/internal/engine"
	"github.com/talgya/drowned-chart/internal/provisions"
	"github.com/talgya/drowned-chart/internal/world"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultsMatchEngine(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, world.DefaultGenConfig(), cfg.GenConfig())

	s := cfg.StartConfig()
	d := engine.DefaultStart()
	assert.Equal(t, d.Food, s.Food)
	assert.Equal(t, d.Water, s.Water)
	assert.Equal(t, d.Materials, s.Materials)
	assert.Equal(t, d.ShipWidth, s.ShipWidth)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvAdminKey, "hunter2")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int32(42), cfg.Seed)
	assert.Equal(t, "hunter2", cfg.AdminKey)
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
seed: 7
api_port: 9000
world:
  island_chance: 0.5
start:
  hour: 0
  food: {citrus: 3}
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, int32(7), cfg.Seed)
	assert.Equal(t, 9000, cfg.APIPort)
	assert.InDelta(t, 0.5, cfg.World.IslandChance, 1e-9)
	assert.InDelta(t, 80, cfg.World.ChunkSize, 1e-9, "unset fields keep defaults")

	s := cfg.StartConfig()
	assert.Zero(t, s.Hour)
	assert.InDelta(t, 3, s.Food[provisions.Citrus], 1e-9)
	assert.InDelta(t, 20, s.Food[provisions.Salt], 1e-9)
}

func TestLoadFromEnvPath(t *testing.T) {
	p := writeConfig(t, "seed: 11\n")
	t.Setenv(EnvConfig, p)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int32(11), cfg.Seed)
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "drownedchart.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().World, cfg.World)
	assert.Equal(t, Default().RateLimit, cfg.RateLimit)
	assert.False(t, cfg.RateLimit.TrustProxy)
	assert.Equal(t, "data/exports", cfg.ExportDir)
}

func TestLoadTrustProxy(t *testing.T) {
	p := writeConfig(t, "rate_limit:\n  trust_proxy: true\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.True(t, cfg.RateLimit.TrustProxy)
	assert.Equal(t, 30, cfg.RateLimit.AdvancePerMinute, "unset fields keep defaults")
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"chunk":  func(c *Config) { c.World.ChunkSize = 0 },
		"chance": func(c *Config) { c.World.IslandChance = 1.5 },
		"ship":   func(c *Config) { c.Ship.Width = -1 },
		"hour":   func(c *Config) { c.Start.Hour = 24 },
		"bilge":  func(c *Config) { c.Start.Bilge = 100 },
		"port":   func(c *Config) { c.APIPort = 0 },
		"food":   func(c *Config) { c.Start.Food["hardtack"] = 1 },
		"water":  func(c *Config) { c.Start.Water["brine"] = 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "seed: [unterminated"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
