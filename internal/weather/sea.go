package weather

import (
	"math"

	"github.com/talgya/drowned-chart/internal/entropy"
	"github.com/talgya/drowned-chart/internal/world"
)

// Category is the broad weather condition.
type Category string

const (
	Calm  Category = "Calm"
	Clear Category = "Clear"
	Gale  Category = "Gale"
	Storm Category = "Storm"
)

// Limits on the random walk.
const (
	MaxWind  = 45.0
	MinBaro  = 960.0
	MaxBaro  = 1030.0
	StormBar = 980.0 // pressure below this is a storm whatever the wind
)

// State is the weather at the ship. Wind speed is in knots, pressure in hPa.
type State struct {
	WindDir    world.Direction `json:"wind_dir"`
	WindSpeed  float64         `json:"wind_speed"`
	Baro       float64         `json:"baro"`
	BaroTarget float64         `json:"baro_target"`
	Beaufort   int             `json:"beaufort"`
	SeaState   string          `json:"sea_state"`
	Category   Category        `json:"category"`
}

// NewState returns the fair weather a voyage opens with.
func NewState() State {
	s := State{WindDir: world.North, WindSpeed: 12, Baro: 1012, BaroTarget: 1012}
	s.Classify()
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Roll advances the weather one step: the wind may veer or back a point,
// speed and the pressure target wander, and pressure eases toward its
// target. Returns true when the category changed.
func (s *State) Roll(rng entropy.Source) bool {
	if rng.Float() < 0.2 {
		step := world.Direction(-1)
		if rng.Float() < 0.5 {
			step = 1
		}
		s.WindDir = (s.WindDir + step).Normalize()
	}
	s.WindSpeed = clamp(s.WindSpeed+(rng.Float()-0.5)*10, 0, MaxWind)
	s.BaroTarget = clamp(s.BaroTarget+(rng.Float()-0.5)*10, MinBaro, MaxBaro)
	s.Baro += (s.BaroTarget - s.Baro) * 0.2

	old := s.Category
	s.Classify()
	return old != s.Category
}

// Classify derives Beaufort force, sea state, and category from wind and
// pressure.
func (s *State) Classify() {
	s.Beaufort = min(12, int(math.Floor((s.WindSpeed+1)/5)))
	switch {
	case s.Beaufort >= 8:
		s.SeaState = "Very Rough"
	case s.Beaufort >= 6:
		s.SeaState = "Rough"
	case s.Beaufort >= 4:
		s.SeaState = "Moderate"
	case s.Beaufort >= 2:
		s.SeaState = "Slight"
	default:
		s.SeaState = "Calm"
	}
	switch {
	case s.WindSpeed > 35 || s.Baro < StormBar:
		s.Category = Storm
	case s.WindSpeed > 25:
		s.Category = Gale
	case s.WindSpeed < 4:
		s.Category = Calm
	default:
		s.Category = Clear
	}
}

// Heat is the warmth factor used for food spoilage.
func (s State) Heat() float64 {
	switch s.Category {
	case Calm:
		return 1.2
	case Storm:
		return 0.6
	}
	return 0.9
}

// pointOfSail maps compass points between wind and heading to drive.
var pointOfSail = [5]float64{0.8, 1.0, 1.2, 0.5, 0}

// WindMultiplier returns how well the sails draw on heading. A calm gives
// nothing on any heading.
func (s State) WindMultiplier(heading world.Direction) float64 {
	if s.Category == Calm {
		return 0
	}
	return pointOfSail[world.Separation(s.WindDir, heading)]
}

// IsNight reports whether hour falls in the 20:00 to 03:00 watch.
func IsNight(hour int) bool {
	return hour >= 20 || hour <= 3
}
