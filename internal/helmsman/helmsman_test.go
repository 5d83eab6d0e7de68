package helmsman

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/drowned-chart/internal/api"
	"github.com/talgya/drowned-chart/internal/crew"
	"github.com/talgya/drowned-chart/internal/engine"
	"github.com/talgya/drowned-chart/internal/entropy"
	"github.com/talgya/drowned-chart/internal/persistence"
	"github.com/talgya/drowned-chart/internal/world"
)

func calmSnapshot() *Snapshot {
	snap := &Snapshot{}
	snap.Status.Mode = "Underway"
	snap.Status.Heading = "N"
	snap.Status.Weather = "Clear"
	snap.Status.Bilge = 10
	snap.Status.Hull = 20
	snap.Status.MaxHull = 20
	snap.Status.Food = 10
	snap.Status.Water = 10
	snap.Status.NavError = 2
	snap.Status.Crew = crew.New()
	return snap
}

func TestTriageLevels(t *testing.T) {
	snap := calmSnapshot()
	assert.Equal(t, "STEADY", Triage(snap).Level)

	snap.Status.Weather = "Storm"
	assert.Equal(t, "WATCH", Triage(snap).Level)

	snap.Status.Food = 1
	h := Triage(snap)
	assert.Equal(t, "WARNING", h.Level)
	assert.True(t, h.FoodLow)

	snap.Status.Bilge = 85
	assert.Equal(t, "CRITICAL", Triage(snap).Level)

	snap = calmSnapshot()
	snap.Status.MaxHull = 0
	assert.InDelta(t, 1.0, Triage(snap).HullFraction, 1e-9)
}

func TestTriageReadsCrewPriority(t *testing.T) {
	snap := calmSnapshot()
	assert.Equal(t, crew.NeedNone, Triage(snap).Need)

	snap.Status.Crew.Scurvy = 60
	h := Triage(snap)
	assert.Equal(t, crew.NeedScurvy, h.Need)
	assert.Equal(t, "WATCH", h.Level)

	snap.Status.Crew.HP = 20
	h = Triage(snap)
	assert.Equal(t, crew.NeedHealth, h.Need)
	assert.Equal(t, "CRITICAL", h.Level)
}

func TestDecideRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Snapshot)
		want   string
	}{
		{"lost voyage", func(s *Snapshot) { s.Status.Lost = true }, ActionNone},
		{"busy", func(s *Snapshot) { s.Status.Busy = true }, ActionNone},
		{"bilge", func(s *Snapshot) { s.Status.Bilge = 70 }, "pump"},
		{"storm underway", func(s *Snapshot) { s.Status.Weather = "Storm" }, "heave_to"},
		{"hull with timber", func(s *Snapshot) {
			s.Status.Hull = 5
			s.Ship.Materials = map[string]int{"timber": 2}
		}, "patch_hull"},
		{"hull without timber", func(s *Snapshot) { s.Status.Hull = 5 }, ActionAdvance},
		{"hungry underway", func(s *Snapshot) { s.Status.Food = 1 }, "heave_to"},
		{"hungry hove-to", func(s *Snapshot) {
			s.Status.Food = 1
			s.Status.Mode = "Hove-to"
		}, "fish"},
		{"noon fix", func(s *Snapshot) {
			s.Status.NavError = 25
			s.Status.CanSunSight = true
		}, "sun_sight"},
		{"night fix", func(s *Snapshot) {
			s.Status.NavError = 25
			s.Status.CanStarFix = true
		}, "star_fix"},
		{"anchored unsearched", func(s *Snapshot) {
			s.Status.Mode = "Anchored"
			s.Status.Location = "Gull Rock"
			s.Chart.Marks = []Mark{{Name: "Gull Rock", Confirmed: true}}
		}, "scavenge"},
		{"anchored searched", func(s *Snapshot) {
			s.Status.Mode = "Anchored"
			s.Status.Location = "Gull Rock"
			s.Chart.Marks = []Mark{{Name: "Gull Rock", Confirmed: true, Scavenged: true}}
		}, "make_sail"},
		{"cruising", func(s *Snapshot) {}, ActionAdvance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := calmSnapshot()
			tt.mutate(snap)
			d := Decide(snap, Triage(snap), LoadMemory(""))
			assert.Equal(t, tt.want, d.ActionName(), d.Rationale)
		})
	}
}

func TestDecideSteersForNearestMark(t *testing.T) {
	snap := calmSnapshot()
	snap.Chart.Marks = []Mark{
		{Name: "Far", EstX: 0, EstY: 500},
		{Name: "Pale", EstX: 10, EstY: 0, Pale: true},
		{Name: "Near", EstX: 60, EstY: 0},
	}
	d := Decide(snap, Triage(snap), nil)
	require.NotNil(t, d.Command)
	assert.Equal(t, "steer", d.Command.Action)
	assert.Equal(t, world.Bearing(0, 0, 60, 0).String(), d.Command.Heading)

	// Already on course: keep running.
	snap.Status.Heading = d.Command.Heading
	assert.Equal(t, ActionAdvance, Decide(snap, Triage(snap), nil).Action)
}

func TestDecideGivesUpFishing(t *testing.T) {
	snap := calmSnapshot()
	snap.Status.Mode = "Hove-to"
	snap.Status.Food = 0.5

	mem := LoadMemory("")
	for i := 0; i < maxFishAttempts; i++ {
		mem.Record(CycleRecord{Action: "fish"})
	}
	assert.Equal(t, "make_sail", Decide(snap, Triage(snap), mem).ActionName())
}

func TestMemoryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helmsman.json")
	mem := LoadMemory(path)
	for i := 0; i < maxRecords+5; i++ {
		mem.Record(CycleRecord{Tick: uint64(i), Action: "advance"})
	}
	mem.Record(CycleRecord{Action: "pump"})
	mem.Save()

	back := LoadMemory(path)
	require.Len(t, back.Records, maxRecords)
	assert.Equal(t, 1, back.Streak("pump"))
	assert.Equal(t, 0, back.Streak("advance"))
}

func TestCycleAgainstLiveServer(t *testing.T) {
	st := engine.NewState(1234, world.DefaultGenConfig(), engine.DefaultStart())
	st.Bilge = 0
	eng := engine.New(st, world.DefaultGenConfig(), entropy.Fixed(0.5))
	srv := httptest.NewServer(api.NewServer(eng, nil, persistence.DefaultSlot, 0, "key").Handler())
	defer srv.Close()

	snap, err := NewObserver(srv.URL).Observe()
	require.NoError(t, err)
	assert.Equal(t, "Hove-to", snap.Status.Mode)
	assert.Equal(t, 6, snap.Ship.Materials["timber"])

	d := Decide(snap, Triage(snap), nil)
	require.Equal(t, "make_sail", d.ActionName())

	out, err := NewActor(srv.URL, "key").Act(d)
	require.NoError(t, err)
	assert.Equal(t, "Underway", out.Mode)

	_, err = NewActor(srv.URL, "wrong").Act(d)
	assert.Error(t, err)

	_, err = NewActor(srv.URL, "key").Act(Decision{Action: ActionNone})
	assert.Error(t, err)
}
