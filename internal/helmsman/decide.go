package helmsman

import (
	"fmt"
	"math"

	"github.com/talgya/drowned-chart/internal/world"
)

// Actions.
const (
	ActionNone    = "none"
	ActionAdvance = "advance"
	ActionCommand = "command"
)

// cruiseHours is how long the helmsman lets the ship run between checks.
const cruiseHours = 4

// maxFishAttempts stops a hungry helmsman from fishing forever.
const maxFishAttempts = 3

// Decision is the helmsman's chosen move for one cycle.
type Decision struct {
	Action    string   `json:"action"`
	Rationale string   `json:"rationale"`
	Command   *Command `json:"command,omitempty"`
	Hours     int      `json:"hours,omitempty"`
}

// Command is the payload for POST /api/v1/command.
type Command struct {
	Action   string `json:"action"`
	Heading  string `json:"heading,omitempty"`
	Maneuver string `json:"maneuver,omitempty"`
	Label    string `json:"label,omitempty"`
}

func command(action, why string) Decision {
	return Decision{Action: ActionCommand, Rationale: why, Command: &Command{Action: action}}
}

// Decide picks one move. Rules run in priority order: survival, then
// provisions, then navigation, then progress.
func Decide(snap *Snapshot, h *Health, mem *CycleMemory) Decision {
	st := snap.Status
	switch {
	case st.Lost:
		return Decision{Action: ActionNone, Rationale: "the voyage is over"}
	case st.Busy:
		return Decision{Action: ActionNone, Rationale: "time is already passing"}
	}

	underway := st.Mode == "Underway"
	anchored := st.Mode == "Anchored"

	if h.BilgeHigh {
		return command("pump", fmt.Sprintf("bilge at %.0f%%", st.Bilge))
	}
	if underway && st.Weather == "Storm" {
		return command("heave_to", "riding out the storm")
	}
	if h.HullFraction < hullWarn && snap.Ship.Materials["timber"] > 0 {
		return command("patch_hull", fmt.Sprintf("hull at %.0f%%", h.HullFraction*100))
	}

	if anchored {
		if m := markNamed(snap.Chart.Marks, st.Location); m != nil && !m.Scavenged {
			return command("scavenge", "unsearched shore at "+st.Location)
		}
	}

	if (h.FoodLow || h.WaterLow) && mem.Streak("fish") < maxFishAttempts {
		if underway {
			return command("heave_to", "stopping to fish")
		}
		return command("fish", fmt.Sprintf("food %.1f, water %.1f", st.Food, st.Water))
	}

	if h.Lost {
		switch {
		case st.CanSunSight:
			return command("sun_sight", fmt.Sprintf("nav error %.1f", st.NavError))
		case st.CanStarFix:
			return command("star_fix", fmt.Sprintf("nav error %.1f", st.NavError))
		}
	}

	if target := nearestUnvisited(snap.Chart.Marks, st.EstimatedX, st.EstimatedY); target != nil {
		heading := world.Bearing(st.EstimatedX, st.EstimatedY, target.EstX, target.EstY).String()
		if heading != st.Heading {
			return Decision{
				Action:    ActionCommand,
				Rationale: "bearing for " + target.Name,
				Command:   &Command{Action: "steer", Heading: heading},
			}
		}
	}

	if !underway && st.Weather != "Storm" {
		return command("make_sail", "fair enough to sail")
	}
	return Decision{Action: ActionAdvance, Rationale: "holding course", Hours: cruiseHours}
}

func markNamed(marks []Mark, name string) *Mark {
	for i := range marks {
		if marks[i].Name == name {
			return &marks[i]
		}
	}
	return nil
}

// nearestUnvisited returns the closest island mark not yet scavenged.
// Pale islands are skipped.
func nearestUnvisited(marks []Mark, x, y float64) *Mark {
	var best *Mark
	bestDist := math.Inf(1)
	for i := range marks {
		m := &marks[i]
		if m.Scavenged || m.Pale {
			continue
		}
		if d := math.Hypot(m.EstX-x, m.EstY-y); d < bestDist {
			best, bestDist = m, d
		}
	}
	return best
}
