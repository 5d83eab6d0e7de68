package engine

import (
	"log/slog"
	"math"

	"github.com/talgya/drowned-chart/internal/entropy"
	"github.com/talgya/drowned-chart/internal/weather"
	"github.com/talgya/drowned-chart/internal/world"
)

// Encounter odds. Treated as tuning, not contract.
const (
	sightingChance  = 0.05
	nightReefChance = 0.05
	doldrumsChance  = 0.2
	randomChance    = 0.1
	doldrumsAfter   = 24
)

// TryEncounter checks what the sea offers at the current position. Hourly
// checks only look for islands; the end-of-advance check also rolls the
// random encounters.
func (e *Engine) TryEncounter(hourly bool) Encounter {
	st := e.State
	rng := e.RNG
	cfg := st.Chart.Cfg

	var near *world.Island
	nearDist := math.Inf(1)
	for _, isl := range e.Gen.IslandsNear(st.X, st.Y, 0, st.TutorialActive()) {
		found := st.Chart.State(isl.ID).Found
		d := isl.DistanceTo(st.X, st.Y)
		switch {
		case !found && d < cfg.EncounterRadius:
			if d < nearDist {
				isl := isl
				near, nearDist = &isl, d
			}
		case found && d < cfg.EncounterRadius && st.Mode == ModeUnderway:
			isl := isl
			st.CurrentIsland = &isl
			return IslandApproach
		case !found && d < cfg.SightingRadius && entropy.Chance(rng, sightingChance):
			e.emit(EffectSighting, world.Bearing(st.X, st.Y, isl.X, isl.Y).String())
		}
	}

	if near != nil {
		is := st.Chart.State(near.ID)
		is.Found = true
		st.Chart.Commit(*near, is, st.NavError)
		st.NavError = clamp(st.NavError-3, MinNavError, MaxNavError)
		st.CurrentIsland = near
		if near.ID == world.TutorialID {
			st.TutorialPhase = TutorialComplete
		}
		slog.Info("landfall", "island", near.Name, "id", near.ID, "time", SimTime(st.Day, st.Hour))
		return IslandApproach
	}

	if st.NoEncounters {
		return NoEncounter
	}
	if weather.IsNight(st.Hour) && entropy.Chance(rng, nightReefChance) {
		return NightReef
	}
	if st.CalmHours > doldrumsAfter && entropy.Chance(rng, doldrumsChance) {
		return Doldrums
	}
	if !hourly && entropy.Chance(rng, randomChance) {
		if st.Weather.Category == weather.Storm {
			return StormEvent
		}
		pool := []Encounter{Debris, Derelict, Omen}
		if st.Weather.Category == weather.Calm {
			pool = append(pool, Madness)
		}
		return pool[entropy.Intn(rng, len(pool))]
	}
	return NoEncounter
}
