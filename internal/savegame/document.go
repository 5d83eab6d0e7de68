// Package savegame converts a voyage to and from its persisted document.
package savegame

import (
	"errors"
	"fmt"
	"time"

	"github.com/talgya/drowned-chart/internal/crew"
	"github.com/talgya/drowned-chart/internal/engine"
	"github.com/talgya/drowned-chart/internal/nav"
	"github.com/talgya/drowned-chart/internal/provisions"
	"github.com/talgya/drowned-chart/internal/ship"
	"github.com/talgya/drowned-chart/internal/weather"
	"github.com/talgya/drowned-chart/internal/world"
)

// Version is the current document version. Documents without a version
// are treated as legacy browser saves.
const Version = 2

// ErrCorrupt wraps every decode, migration, schema, or restore failure.
var ErrCorrupt = errors.New("save data corrupt")

// Document is the persisted form of a voyage. The island chunk cache is
// never stored: it regenerates from the world seed.
type Document struct {
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	SavedAt   time.Time `json:"saved_at"`
	WorldSeed int32     `json:"world_seed"`

	Day      int             `json:"day"`
	Hour     int             `json:"hour"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Heading  world.Direction `json:"heading"`
	Speed    float64         `json:"speed"`
	Mode     string          `json:"mode"`
	Maneuver string          `json:"maneuver,omitempty"`

	Weather   weather.State `json:"weather"`
	CalmHours int           `json:"calm_hours"`

	Food      provisions.FoodStocks  `json:"food"`
	Water     provisions.WaterStocks `json:"water"`
	Materials provisions.Materials   `json:"materials"`
	Crew      crew.Crew              `json:"crew"`

	Bilge    float64 `json:"bilge"`
	NavError float64 `json:"nav_error"`
	RopeWear float64 `json:"rope_wear"`

	TutorialPhase string        `json:"tutorial_phase"`
	NoEncounters  bool          `json:"no_encounters"`
	CurrentIsland *world.Island `json:"current_island,omitempty"`
	LocationName  string        `json:"location_name"`
	Scene         string        `json:"scene"`
	Artifacts     []string      `json:"artifacts"`
	Terminal      string        `json:"terminal,omitempty"`

	IslandState     map[string]nav.IslandState `json:"island_state"`
	Discovered      map[string]nav.Discovery   `json:"discovered"`
	ChartMarks      map[string]*nav.Mark       `json:"chart_marks"`
	FogCleared      []string                   `json:"fog_cleared"`
	Looted          map[string]bool            `json:"looted"`
	ScavengedCoords map[string]bool            `json:"scavenged_coords"`

	Trail    []nav.Point `json:"trail"`
	Explored []nav.Point `json:"explored"`
	Rumors   []nav.Rumor `json:"rumors"`

	Ship ship.Snapshot `json:"ship"`
}

// orEmpty keeps nil slices out of the document so they encode as [].
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Capture copies st into a document.
func Capture(st *engine.State) Document {
	ch := st.Chart
	return Document{
		Version:   Version,
		RunID:     st.RunID,
		SavedAt:   time.Now().UTC(),
		WorldSeed: st.WorldSeed,

		Day:      st.Day,
		Hour:     st.Hour,
		X:        st.X,
		Y:        st.Y,
		Heading:  st.Heading,
		Speed:    st.Speed,
		Mode:     string(st.Mode),
		Maneuver: string(st.Maneuver),

		Weather:   st.Weather,
		CalmHours: st.CalmHours,

		Food:      st.Food,
		Water:     st.Water,
		Materials: st.Materials,
		Crew:      st.Crew,

		Bilge:    st.Bilge,
		NavError: st.NavError,
		RopeWear: st.RopeWear,

		TutorialPhase: st.TutorialPhase,
		NoEncounters:  st.NoEncounters,
		CurrentIsland: st.CurrentIsland,
		LocationName:  st.LocationName,
		Scene:         st.Scene,
		Artifacts:     orEmpty(st.Artifacts),
		Terminal:      string(st.Terminal),

		IslandState:     ch.Islands,
		Discovered:      ch.Discovered,
		ChartMarks:      ch.Marks,
		FogCleared:      ch.FogKeys(),
		Looted:          ch.Looted,
		ScavengedCoords: ch.Scavenged,

		Trail:    orEmpty(st.Trail),
		Explored: orEmpty(ch.Explored),
		Rumors:   orEmpty(ch.Rumors),

		Ship: st.Ship.Snapshot(),
	}
}

var modes = map[string]engine.Mode{
	string(engine.ModeHoveTo):   engine.ModeHoveTo,
	string(engine.ModeUnderway): engine.ModeUnderway,
	string(engine.ModeAnchored): engine.ModeAnchored,
	string(engine.ModeLost):     engine.ModeLost,
}

// Restore rebuilds live state from doc using cfg for the chart.
func Restore(doc Document, cfg world.GenConfig) (*engine.State, error) {
	mode, ok := modes[doc.Mode]
	if !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrCorrupt, doc.Mode)
	}
	grid, err := ship.Restore(doc.Ship)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	ch := nav.NewChart(doc.WorldSeed, cfg)
	for id, s := range doc.IslandState {
		ch.Islands[id] = s
	}
	for id, d := range doc.Discovered {
		ch.Discovered[id] = d
	}
	for id, m := range doc.ChartMarks {
		if m != nil {
			ch.Marks[id] = m
		}
	}
	for _, k := range doc.FogCleared {
		ch.Fog.Put(k)
	}
	for id, v := range doc.Looted {
		ch.Looted[id] = v
	}
	for k, v := range doc.ScavengedCoords {
		ch.Scavenged[k] = v
	}
	ch.Explored = doc.Explored
	ch.Rumors = doc.Rumors
	ch.Sync(doc.NavError)

	st := &engine.State{
		RunID:     doc.RunID,
		WorldSeed: doc.WorldSeed,

		Day:      doc.Day,
		Hour:     doc.Hour % engine.HoursPerDay,
		X:        doc.X,
		Y:        doc.Y,
		Heading:  doc.Heading.Normalize(),
		Speed:    doc.Speed,
		Mode:     mode,
		Maneuver: engine.Maneuver(doc.Maneuver),

		Weather:   doc.Weather,
		CalmHours: doc.CalmHours,

		Food:      doc.Food,
		Water:     doc.Water,
		Materials: doc.Materials,
		Crew:      doc.Crew,

		Bilge:    doc.Bilge,
		NavError: doc.NavError,
		RopeWear: doc.RopeWear,

		Ship:  grid,
		Chart: ch,
		Trail: doc.Trail,

		TutorialPhase: doc.TutorialPhase,
		NoEncounters:  doc.NoEncounters,
		CurrentIsland: doc.CurrentIsland,
		LocationName:  doc.LocationName,
		Scene:         doc.Scene,
		Artifacts:     doc.Artifacts,
		Terminal:      engine.Terminal(doc.Terminal),
	}
	st.Weather.WindDir = st.Weather.WindDir.Normalize()
	if st.Food == nil {
		st.Food = provisions.NewFoodStocks(0, 0, 0)
	}
	if st.Water == nil {
		st.Water = provisions.NewWaterStocks(0, 0, 0, 0)
	}
	if st.Materials == nil {
		st.Materials = provisions.Materials{}
	}
	if st.TutorialPhase == "" {
		st.TutorialPhase = engine.TutorialStart
	}
	if st.NavError <= 0 {
		st.NavError = 2
	}
	st.Weather.Classify()
	st.Crew.Clamp()
	return st, nil
}
