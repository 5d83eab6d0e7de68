// Package tuning loads server configuration from YAML with environment
// overrides for secrets.
package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/drowned-chart/internal/engine"
	"github.com/talgya/drowned-chart/internal/provisions"
	"github.com/talgya/drowned-chart/internal/world"
)

// Environment variables read by Load.
const (
	EnvConfig     = "DROWNED_CONFIG"
	EnvAdminKey   = "DROWNED_ADMIN_KEY"
	EnvWeatherKey = "OPENWEATHER_API_KEY"
	EnvRandomOrg  = "RANDOM_ORG_API_KEY"
)

type Config struct {
	Seed     int32  `yaml:"seed"`
	DBPath   string `yaml:"db_path"`
	Slot     string `yaml:"slot"`
	APIPort  int    `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`
	Autosave bool   `yaml:"autosave"`

	// ExportDir holds save files written by /snapshot?export=.
	ExportDir string `yaml:"export_dir"`

	World       World       `yaml:"world"`
	Ship        Ship        `yaml:"ship"`
	Start       Start       `yaml:"start"`
	LiveWeather LiveWeather `yaml:"live_weather"`
	RateLimit   RateLimit   `yaml:"rate_limit"`

	// Secrets come from the environment only.
	AdminKey      string `yaml:"-"`
	WeatherAPIKey string `yaml:"-"`
	RandomOrgKey  string `yaml:"-"`
}

type World struct {
	ChunkSize          float64 `yaml:"chunk_size"`
	IslandChance       float64 `yaml:"island_chance"`
	MaxIslandsPerChunk int     `yaml:"max_islands_per_chunk"`
	EncounterRadius    float64 `yaml:"encounter_radius"`
	SightingRadius     float64 `yaml:"sighting_radius"`
	FogRevealRadius    float64 `yaml:"fog_reveal_radius"`
	FogCellSize        float64 `yaml:"fog_cell_size"`
}

type Ship struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Start struct {
	Hour      int                `yaml:"hour"`
	Bilge     float64            `yaml:"bilge"`
	Morale    float64            `yaml:"morale"`
	NavError  float64            `yaml:"nav_error"`
	Food      map[string]float64 `yaml:"food"`
	Water     map[string]float64 `yaml:"water"`
	Materials map[string]int     `yaml:"materials"`
}

type LiveWeather struct {
	Enabled  bool   `yaml:"enabled"`
	Location string `yaml:"location"`
}

type RateLimit struct {
	AdvancePerMinute int  `yaml:"advance_per_minute"`
	TrustProxy       bool `yaml:"trust_proxy"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	g := world.DefaultGenConfig()
	s := engine.DefaultStart()

	food := make(map[string]float64, len(s.Food))
	for k, v := range s.Food {
		food[string(k)] = v
	}
	water := make(map[string]float64, len(s.Water))
	for k, v := range s.Water {
		water[string(k)] = v
	}
	mats := make(map[string]int, len(s.Materials))
	for k, v := range s.Materials {
		mats[k] = v
	}

	return Config{
		Seed:      42,
		DBPath:    "data/drowned.db",
		Slot:      "dc_txt_v2",
		APIPort:   8080,
		LogLevel:  "info",
		Autosave:  true,
		ExportDir: "data/exports",
		World: World{
			ChunkSize:          g.ChunkSize,
			IslandChance:       g.IslandChance,
			MaxIslandsPerChunk: g.MaxIslandsPerChunk,
			EncounterRadius:    g.EncounterRadius,
			SightingRadius:     g.SightingRadius,
			FogRevealRadius:    g.FogRevealRadius,
			FogCellSize:        g.FogCellSize,
		},
		Ship: Ship{Width: s.ShipWidth, Height: s.ShipHeight},
		Start: Start{
			Hour:      s.Hour,
			Bilge:     s.Bilge,
			Morale:    s.Morale,
			NavError:  s.NavError,
			Food:      food,
			Water:     water,
			Materials: mats,
		},
		LiveWeather: LiveWeather{Location: "Reykjavik,IS"},
		RateLimit:   RateLimit{AdvancePerMinute: 30},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path falls back to $DROWNED_CONFIG, then to defaults alone.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}

	cfg.AdminKey = os.Getenv(EnvAdminKey)
	cfg.WeatherAPIKey = os.Getenv(EnvWeatherKey)
	cfg.RandomOrgKey = os.Getenv(EnvRandomOrg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	positive("world.chunk_size", c.World.ChunkSize)
	positive("world.max_islands_per_chunk", float64(c.World.MaxIslandsPerChunk))
	positive("world.encounter_radius", c.World.EncounterRadius)
	positive("world.sighting_radius", c.World.SightingRadius)
	positive("world.fog_reveal_radius", c.World.FogRevealRadius)
	positive("world.fog_cell_size", c.World.FogCellSize)
	positive("ship.width", float64(c.Ship.Width))
	positive("ship.height", float64(c.Ship.Height))

	if c.World.IslandChance < 0 || c.World.IslandChance > 1 {
		errs = append(errs, fmt.Errorf("world.island_chance must be in [0,1], got %v", c.World.IslandChance))
	}
	if c.Start.Hour < 0 || c.Start.Hour > 23 {
		errs = append(errs, fmt.Errorf("start.hour must be in [0,23], got %d", c.Start.Hour))
	}
	if c.Start.Bilge < 0 || c.Start.Bilge >= 100 {
		errs = append(errs, fmt.Errorf("start.bilge must be in [0,100), got %v", c.Start.Bilge))
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("api_port out of range: %d", c.APIPort))
	}
	for k := range c.Start.Food {
		if _, ok := provisions.Foods[provisions.FoodType(k)]; !ok {
			errs = append(errs, fmt.Errorf("start.food: unknown type %q", k))
		}
	}
	for k := range c.Start.Water {
		if _, ok := provisions.Waters[provisions.WaterType(k)]; !ok {
			errs = append(errs, fmt.Errorf("start.water: unknown type %q", k))
		}
	}
	return errors.Join(errs...)
}

// GenConfig returns the world generator settings.
func (c Config) GenConfig() world.GenConfig {
	return world.GenConfig{
		ChunkSize:          c.World.ChunkSize,
		IslandChance:       c.World.IslandChance,
		MaxIslandsPerChunk: c.World.MaxIslandsPerChunk,
		EncounterRadius:    c.World.EncounterRadius,
		SightingRadius:     c.World.SightingRadius,
		FogRevealRadius:    c.World.FogRevealRadius,
		FogCellSize:        c.World.FogCellSize,
	}
}

// StartConfig returns the opening state of a new voyage.
func (c Config) StartConfig() engine.Start {
	s := engine.DefaultStart()
	s.ShipWidth, s.ShipHeight = c.Ship.Width, c.Ship.Height
	s.Hour = c.Start.Hour
	s.Bilge = c.Start.Bilge
	s.Morale = c.Start.Morale
	s.NavError = c.Start.NavError

	s.Food = provisions.NewFoodStocks(0, 0, 0)
	for k, v := range c.Start.Food {
		s.Food[provisions.FoodType(k)] = v
	}
	s.Water = provisions.NewWaterStocks(0, 0, 0, 0)
	for k, v := range c.Start.Water {
		s.Water[provisions.WaterType(k)] = v
	}
	s.Materials = provisions.Materials{}
	for k, v := range c.Start.Materials {
		s.Materials[k] = v
	}
	return s
}
