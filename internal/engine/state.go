package engine

import (
	"github.com/google/uuid"

	"github.com/talgya/drowned-chart/internal/crew"
	"github.com/talgya/drowned-chart/internal/nav"
	"github.com/talgya/drowned-chart/internal/provisions"
	"github.com/talgya/drowned-chart/internal/ship"
	"github.com/talgya/drowned-chart/internal/weather"
	"github.com/talgya/drowned-chart/internal/world"
)

// Mode is what the ship is doing.
type Mode string

const (
	ModeHoveTo   Mode = "Hove-to"
	ModeUnderway Mode = "Underway"
	ModeAnchored Mode = "Anchored"
	ModeLost     Mode = "Lost"
)

// Maneuver is a pending change of heading through or away from the wind.
type Maneuver string

const (
	NoManeuver Maneuver = ""
	Tack       Maneuver = "tack"
	Wear       Maneuver = "wear"
)

// Tutorial phases.
const (
	TutorialStart    = "start"
	TutorialComplete = "complete"
)

// Trail and nav limits.
const (
	MaxTrail    = 200
	MinNavError = 1
	MaxNavError = 40
)

// State is everything that changes during a voyage. The engine owns it;
// readers outside the engine must not mutate it.
type State struct {
	RunID     string `json:"run_id"`
	WorldSeed int32  `json:"world_seed"`

	Day  int `json:"day"`
	Hour int `json:"hour"`

	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Heading  world.Direction `json:"heading"`
	Speed    float64         `json:"speed"`
	Mode     Mode            `json:"mode"`
	Maneuver Maneuver        `json:"maneuver,omitempty"`

	Weather   weather.State `json:"weather"`
	CalmHours int           `json:"calm_hours"`

	Food      provisions.FoodStocks  `json:"food"`
	Water     provisions.WaterStocks `json:"water"`
	Materials provisions.Materials   `json:"materials"`
	Crew      crew.Crew              `json:"crew"`

	Bilge    float64 `json:"bilge"`
	NavError float64 `json:"nav_error"`
	RopeWear float64 `json:"rope_wear"`

	Ship  *ship.Grid  `json:"-"`
	Chart *nav.Chart  `json:"-"`
	Trail []nav.Point `json:"trail"`

	TutorialPhase string        `json:"tutorial_phase"`
	NoEncounters  bool          `json:"no_encounters"`
	CurrentIsland *world.Island `json:"current_island,omitempty"`
	LocationName  string        `json:"location_name"`
	Scene         string        `json:"scene"`
	Artifacts     []string      `json:"artifacts"`
	Terminal      Terminal      `json:"terminal,omitempty"`
}

// Start configures a new voyage.
type Start struct {
	ShipWidth  int
	ShipHeight int
	Food       provisions.FoodStocks
	Water      provisions.WaterStocks
	Materials  provisions.Materials
	Bilge      float64
	Morale     float64
	NavError   float64
	Heading    world.Direction
	Hour       int
}

// DefaultStart is the sinking hulk every voyage begins on.
func DefaultStart() Start {
	return Start{
		ShipWidth:  9,
		ShipHeight: 15,
		Food:       provisions.NewFoodStocks(20, 0, 0),
		Water:      provisions.NewWaterStocks(10, 0, 0, 0),
		Materials:  provisions.Materials{provisions.Timber: 6, provisions.Canvas: 0, provisions.Rope: 0, provisions.Metal: 0},
		Bilge:      50,
		Morale:     70,
		NavError:   2,
		Heading:    world.South,
		Hour:       8,
	}
}

// NewState builds the opening state of a voyage on seed.
func NewState(seed int32, cfg world.GenConfig, start Start) *State {
	c := crew.New()
	c.Morale = start.Morale

	food := provisions.FoodStocks{}
	for k, v := range start.Food {
		food[k] = v
	}
	water := provisions.WaterStocks{}
	for k, v := range start.Water {
		water[k] = v
	}
	mats := provisions.Materials{}
	for k, v := range start.Materials {
		mats[k] = v
	}

	return &State{
		RunID:         uuid.NewString(),
		WorldSeed:     seed,
		Day:           1,
		Hour:          start.Hour % HoursPerDay,
		Heading:       start.Heading,
		Mode:          ModeHoveTo,
		Weather:       weather.NewState(),
		Food:          food,
		Water:         water,
		Materials:     mats,
		Crew:          c,
		Bilge:         start.Bilge,
		NavError:      start.NavError,
		Ship:          ship.NewStarter(start.ShipWidth, start.ShipHeight),
		Chart:         nav.NewChart(seed, cfg),
		TutorialPhase: TutorialStart,
		LocationName:  "The Drowned Vessel",
		Scene:         "awakening",
	}
}

// Lost reports whether the voyage has ended.
func (s *State) Lost() bool {
	return s.Mode == ModeLost
}

// TutorialActive reports whether the tutorial island is still in play.
func (s *State) TutorialActive() bool {
	return s.TutorialPhase != TutorialComplete
}
