// Command drownedchart runs a voyage of The Drowned Chart behind the HTTP API.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/talgya/drowned-chart/internal/api"
	"github.com/talgya/drowned-chart/internal/engine"
	"github.com/talgya/drowned-chart/internal/entropy"
	"github.com/talgya/drowned-chart/internal/persistence"
	"github.com/talgya/drowned-chart/internal/tuning"
	"github.com/talgya/drowned-chart/internal/weather"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := tuning.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("The Drowned Chart", "seed", cfg.Seed, "slot", cfg.Slot)

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Entropy ───────────────────────────────────────────────────────
	rng := entropy.Default(cfg.RandomOrgKey)
	if cfg.RandomOrgKey == "" {
		slog.Info("RANDOM_ORG_API_KEY not set, using crypto/rand")
	}

	// ── Load or Start Voyage ─────────────────────────────────────────
	gen := cfg.GenConfig()
	newVoyage := func() *engine.State {
		seed := cfg.Seed
		if seed == 0 {
			seed = int32(entropy.Intn(rng, math.MaxInt32))
		}
		return engine.NewState(seed, gen, cfg.StartConfig())
	}

	var st *engine.State
	has, err := db.HasSave(cfg.Slot)
	if err != nil {
		slog.Error("failed to check save slot", "error", err)
		os.Exit(1)
	}
	if has {
		st, err = db.LoadGame(cfg.Slot, gen)
	} else {
		err = persistence.ErrNoSave
	}
	switch {
	case errors.Is(err, persistence.ErrNoSave):
		st = newVoyage()
		slog.Info("no saved voyage, starting fresh", "run", st.RunID, "seed", st.WorldSeed)
	case err != nil:
		slog.Error("failed to load voyage", "error", err)
		os.Exit(1)
	default:
		lastTick, _ := db.GetMeta("last_tick")
		slog.Info("voyage restored",
			"run", st.RunID,
			"sim_time", engine.SimTime(st.Day, st.Hour),
			"last_tick", lastTick,
			"discoveries", len(st.Chart.Discovered),
		)
	}

	eng := engine.New(st, gen, rng)

	// ── Live Weather ──────────────────────────────────────────────────
	var wx *weather.Client
	if cfg.LiveWeather.Enabled {
		wx = weather.NewClient(cfg.WeatherAPIKey, cfg.LiveWeather.Location)
		if wx == nil {
			slog.Warn("OPENWEATHER_API_KEY not set, live weather disabled")
		} else {
			slog.Info("live weather enabled", "location", cfg.LiveWeather.Location)
		}
	}

	// Real conditions set the glass each dawn.
	eng.OnDay = func(st *engine.State) {
		if wx == nil {
			return
		}
		c, err := wx.Fetch()
		if err != nil {
			slog.Warn("weather fetch failed", "error", err)
			return
		}
		weather.Apply(&st.Weather, c)
		slog.Info("live weather applied", "description", c.Description, "category", st.Weather.Category)
	}

	// Save after every advance; a lost voyage clears its slot.
	eng.OnAdvance = func(st *engine.State, res engine.Result) {
		events := eng.DrainEvents()
		if res.Terminal != engine.Alive {
			if err := db.SaveEvents(st.RunID, events); err != nil {
				slog.Error("event archive failed", "error", err)
			}
			if err := db.DeleteSave(cfg.Slot); err != nil {
				slog.Error("failed to clear save", "error", err)
			}
			return
		}
		if !cfg.Autosave {
			return
		}
		if err := db.SaveVoyage(cfg.Slot, st, events); err != nil {
			slog.Error("autosave failed", "error", err)
		}
	}

	// Save on fresh start so a crash before the first advance keeps the run.
	if st.Day == 1 && cfg.Autosave {
		if err := db.SaveVoyage(cfg.Slot, st, nil); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("DROWNED_ADMIN_KEY not set, helm endpoints will be disabled")
	}

	apiServer := api.NewServer(eng, db, cfg.Slot, cfg.APIPort, cfg.AdminKey)
	apiServer.AdvancePerMinute = cfg.RateLimit.AdvancePerMinute
	apiServer.TrustProxy = cfg.RateLimit.TrustProxy
	apiServer.ExportDir = cfg.ExportDir
	apiServer.NewVoyage = newVoyage
	apiServer.Start()

	fmt.Printf("\n%s, %s.\n", st.LocationName, engine.SimTime(st.Day, st.Hour))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	fmt.Println("Waiting for the helm... (Ctrl+C to stop)")

	// ── Run until signalled ──────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	// Final save on shutdown.
	slog.Info("final save...")
	if err := apiServer.Save(); err != nil {
		slog.Error("final save failed", "error", err)
		fmt.Println("Voyage stopped.")
		return
	}
	fmt.Println("Voyage stopped. Chart saved.")
}
