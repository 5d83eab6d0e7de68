// Command helmsman sails a running voyage unattended. It observes the
// ship, decides on one helm action per cycle, and acts via the helm API.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/drowned-chart/internal/helmsman"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment.
	apiURL := envOrDefault("DROWNED_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("DROWNED_ADMIN_KEY")
	intervalSec := envIntOrDefault("HELMSMAN_INTERVAL", 5)
	memoryPath := envOrDefault("HELMSMAN_MEMORY", "helmsman_memory.json")

	if adminKey == "" {
		slog.Error("DROWNED_ADMIN_KEY is required")
		os.Exit(1)
	}

	interval := time.Duration(intervalSec) * time.Second

	slog.Info("helmsman starting",
		"api_url", apiURL,
		"interval", interval,
	)

	observer := helmsman.NewObserver(apiURL)
	actor := helmsman.NewActor(apiURL, adminKey)
	mem := helmsman.LoadMemory(memoryPath)

	// Wait for the voyage API to be ready before first cycle.
	slog.Info("waiting for drownedchart API...")
	waitForAPI(apiURL)

	if done := runCycle(observer, actor, mem); done {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if done := runCycle(observer, actor, mem); done {
				fmt.Println("The voyage is over. Helmsman stood down.")
				return
			}
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			mem.Save()
			fmt.Println("Helmsman stopped.")
			return
		}
	}
}

// runCycle executes one observe → decide → act cycle. Reports true once
// the voyage has ended.
func runCycle(observer *helmsman.Observer, actor *helmsman.Actor, mem *helmsman.CycleMemory) bool {
	snap, err := observer.Observe()
	if err != nil {
		slog.Error("observation failed", "error", err)
		return false
	}
	health := helmsman.Triage(snap)
	slog.Info("observation complete",
		"time", snap.Status.SimTime,
		"mode", snap.Status.Mode,
		"bilge", fmt.Sprintf("%.0f", snap.Status.Bilge),
		"nav_error", fmt.Sprintf("%.1f", snap.Status.NavError),
		"level", health.Level,
		"need", health.Need,
	)
	if snap.Status.Lost {
		mem.Save()
		return true
	}

	decision := helmsman.Decide(snap, health, mem)
	slog.Info("decision made", "action", decision.ActionName(), "rationale", decision.Rationale)

	mem.Record(helmsman.CycleRecord{
		Tick:      snap.Status.Tick,
		Action:    decision.ActionName(),
		Level:     health.Level,
		Rationale: decision.Rationale,
	})
	defer mem.Save()

	if decision.Action == helmsman.ActionNone {
		return false
	}

	out, err := actor.Act(decision)
	if err != nil {
		slog.Error("helm action failed", "error", err)
		return false
	}
	slog.Info("helm action executed",
		"time", out.SimTime,
		"scene", out.Scene,
		"hours", out.Result.Hours,
		"encounter", out.Result.Encounter,
	)
	return out.Lost
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. Exits after 5 minutes if the API never becomes ready.
func waitForAPI(apiURL string) {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for {
		resp, err := http.Get(apiURL + "/api/v1/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == 200 {
				slog.Info("drownedchart API is ready")
				return
			}
		}
		if time.Now().After(deadline) {
			slog.Error("drownedchart API did not become ready within 5 minutes")
			os.Exit(1)
		}
		slog.Info("drownedchart not ready, retrying...", "backoff", backoff)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
