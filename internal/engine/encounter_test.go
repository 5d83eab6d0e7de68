package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/drowned-chart/internal/entropy"
	"github.com/talgya/drowned-chart/internal/weather"
	"github.com/talgya/drowned-chart/internal/world"
)

func TestLandfallOnTutorialRock(t *testing.T) {
	e := newTestEngine(t)
	st := e.State
	rock := world.TutorialIsland()
	st.X, st.Y = rock.X, rock.Y
	st.NavError = 10
	require.NoError(t, e.MakeSail())

	enc := e.TryEncounter(true)
	assert.Equal(t, IslandApproach, enc)
	require.NotNil(t, st.CurrentIsland)
	assert.Equal(t, world.TutorialID, st.CurrentIsland.ID)
	assert.True(t, st.Chart.State(world.TutorialID).Found)
	assert.Contains(t, st.Chart.Discovered, world.TutorialID)
	assert.InDelta(t, 7, st.NavError, 1e-9)
	assert.Equal(t, TutorialComplete, st.TutorialPhase)

	// With the tutorial finished the rock leaves the sea.
	assert.False(t, st.TutorialActive())
	for _, isl := range e.Gen.IslandsNear(st.X, st.Y, 0, st.TutorialActive()) {
		assert.NotEqual(t, world.TutorialID, isl.ID)
	}

	// While the tutorial runs, a found rock is approached again only underway.
	st.TutorialPhase = TutorialStart
	st.CurrentIsland = nil
	assert.Equal(t, IslandApproach, e.TryEncounter(true))
	assert.Equal(t, world.TutorialID, st.CurrentIsland.ID)
	require.NoError(t, e.HeaveTo())
	st.CurrentIsland = nil
	assert.Equal(t, NoEncounter, e.TryEncounter(true))
}

func TestAdvanceAnchorsAtIsland(t *testing.T) {
	e := newTestEngine(t)
	st := e.State
	rock := world.TutorialIsland()
	st.X, st.Y = rock.X, rock.Y+1
	require.NoError(t, e.MakeSail())

	res, err := e.AdvanceTime(4, AdvanceOptions{})
	require.NoError(t, err)
	assert.Equal(t, IslandApproach, res.Encounter)
	assert.Equal(t, 1, res.Hours)
	assert.Equal(t, ModeAnchored, st.Mode)
	assert.Equal(t, "island_approach", res.Scene)
	require.NotNil(t, st.CurrentIsland)
	assert.Equal(t, st.CurrentIsland.Name, st.LocationName)

	// Anchored time offers the island again without a roll.
	res, err = e.AdvanceTime(1, AdvanceOptions{})
	require.NoError(t, err)
	assert.Equal(t, IslandApproach, res.Encounter)
}

func TestQuietSeaHasNoEncounters(t *testing.T) {
	e := newTestEngine(t)
	st := e.State
	st.X, st.Y = 100000, 100000
	st.Mode = ModeUnderway
	st.Chart.Cfg.EncounterRadius = 0
	st.Chart.Cfg.SightingRadius = 0

	e.RNG = entropy.Fixed(0)
	st.NoEncounters = true
	assert.Equal(t, NoEncounter, e.TryEncounter(false))

	st.NoEncounters = false
	st.Hour = 22
	assert.Equal(t, NightReef, e.TryEncounter(false))

	st.Hour = 12
	st.CalmHours = 30
	assert.Equal(t, Doldrums, e.TryEncounter(false))

	st.CalmHours = 0
	assert.Equal(t, NoEncounter, e.TryEncounter(true), "hourly checks skip the random pool")

	st.Weather.Category = weather.Storm
	assert.Equal(t, StormEvent, e.TryEncounter(false))

	st.Weather.Category = weather.Clear
	assert.Equal(t, Debris, e.TryEncounter(false))
	e.RNG = entropy.NewSequence(0, 0.99)
	assert.Equal(t, Omen, e.TryEncounter(false))

	st.Weather.Category = weather.Calm
	e.RNG = entropy.NewSequence(0, 0.99)
	assert.Equal(t, Madness, e.TryEncounter(false))
}

func TestSightingReportsBearing(t *testing.T) {
	e := newTestEngine(t)
	st := e.State
	rock := world.TutorialIsland()
	st.X, st.Y = rock.X, rock.Y+20
	st.NoEncounters = true
	st.Chart.Cfg.EncounterRadius = 0
	e.RNG = entropy.Fixed(0)

	assert.Equal(t, NoEncounter, e.TryEncounter(true))
	var found bool
	for _, fx := range e.pending {
		if fx.Kind == EffectSighting && fx.Tag == "N" {
			found = true
		}
	}
	assert.True(t, found, "rock lies due north: %v", e.pending)
}
