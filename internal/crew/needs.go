// Package crew tracks the sailor's body and mind: health, sanity, morale,
// and scurvy. Every stat lives in [0, 100].
package crew

import (
	"github.com/talgya/drowned-chart/internal/provisions"
)

// Crew is the sailor's condition.
type Crew struct {
	HP     float64 `json:"hp"`
	Sanity float64 `json:"sanity"`
	Morale float64 `json:"morale"`
	Scurvy float64 `json:"scurvy"`
}

// New returns a sailor at the start of a voyage.
func New() Crew {
	return Crew{HP: 100, Sanity: 100, Morale: 70}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AdjustMorale changes morale and clamps it.
func (c *Crew) AdjustMorale(d float64) {
	c.Morale = clamp(c.Morale+d, 0, 100)
}

// AdjustHP changes health and clamps it.
func (c *Crew) AdjustHP(d float64) {
	c.HP = clamp(c.HP+d, 0, 100)
}

// AdjustSanity changes sanity and clamps it.
func (c *Crew) AdjustSanity(d float64) {
	c.Sanity = clamp(c.Sanity+d, 0, 100)
}

// Eat applies one hour's diet: scurvy moves by the sum of each food's
// scurvy rate times the amount eaten, then morale shifts per food and
// per water in priority order.
func (c *Crew) Eat(eaten map[provisions.FoodType]float64, drunk map[provisions.WaterType]float64) {
	delta := 0.0
	for ft, amt := range eaten {
		delta += amt * provisions.Foods[ft].ScurvyRate
	}
	c.Scurvy = clamp(c.Scurvy+delta, 0, 100)

	for _, ft := range provisions.FoodPriority {
		if amt := eaten[ft]; amt > 0 {
			c.AdjustMorale(provisions.Foods[ft].Morale * amt)
		}
	}
	for _, wt := range provisions.WaterPriority {
		if amt := drunk[wt]; amt > 0 {
			c.AdjustMorale(provisions.Waters[wt].Morale * amt)
		}
	}
}

// Starve applies one hour without enough food or water.
func (c *Crew) Starve() {
	c.AdjustHP(-5)
	c.AdjustSanity(-3)
	c.AdjustMorale(-3)
}

// Scurvy thresholds. Penalties stack: a sailor past 50 pays the 10, 30
// and 50 tolls every hour.
const (
	ScurvyMild     = 10
	ScurvyModerate = 30
	ScurvySevere   = 50
	ScurvyBedrid   = 70
)

// ScurvyToll applies the hour's scurvy penalties and reports whether the
// sailor is bedridden.
func (c *Crew) ScurvyToll() (bedridden bool) {
	if c.Scurvy > ScurvyMild {
		c.AdjustHP(-1)
		c.AdjustMorale(-1)
	}
	if c.Scurvy > ScurvyModerate {
		c.AdjustHP(-2)
		c.AdjustSanity(-1)
	}
	if c.Scurvy > ScurvySevere {
		c.AdjustHP(-3)
		c.AdjustSanity(-2)
	}
	if c.Scurvy > ScurvyBedrid {
		c.AdjustHP(-4)
		c.AdjustSanity(-3)
		return true
	}
	return false
}

// Clamp forces every stat back into range.
func (c *Crew) Clamp() {
	c.HP = clamp(c.HP, 0, 100)
	c.Sanity = clamp(c.Sanity, 0, 100)
	c.Morale = clamp(c.Morale, 0, 100)
	c.Scurvy = clamp(c.Scurvy, 0, 100)
}

// Need names the most pressing problem, lowest first.
type Need uint8

const (
	NeedNone Need = iota
	NeedHealth
	NeedSanity
	NeedScurvy
	NeedMorale
)

// Priority returns the most urgent condition. Health failing outranks a
// breaking mind, which outranks scurvy, which outranks low spirits.
func (c Crew) Priority() Need {
	switch {
	case c.HP < 30:
		return NeedHealth
	case c.Sanity < 30:
		return NeedSanity
	case c.Scurvy > ScurvyModerate:
		return NeedScurvy
	case c.Morale < 20:
		return NeedMorale
	}
	return NeedNone
}

func (n Need) String() string {
	switch n {
	case NeedHealth:
		return "health"
	case NeedSanity:
		return "sanity"
	case NeedScurvy:
		return "scurvy"
	case NeedMorale:
		return "morale"
	}
	return "none"
}
