package helmsman

import "github.com/talgya/drowned-chart/internal/crew"

// Health holds derived danger signals. Runs before Decide.
type Health struct {
	HullFraction float64 // cur/max, 1 for an unbuilt hull
	BilgeHigh    bool
	FoodLow      bool
	WaterLow     bool
	Lost         bool      // navigation, not the voyage
	Need         crew.Need // the sailor's most pressing condition
	Level        string    // "CRITICAL", "WARNING", "WATCH", "STEADY"
}

// Thresholds.
const (
	bilgeWarn    = 60
	bilgeCrit    = 80
	hullCrit     = 0.25
	hullWarn     = 0.5
	provisionLow = 3
	navLost      = 20
)

// Triage computes Health from a snapshot.
func Triage(snap *Snapshot) *Health {
	st := snap.Status
	h := &Health{
		HullFraction: 1,
		BilgeHigh:    st.Bilge >= bilgeWarn,
		FoodLow:      st.Food < provisionLow,
		WaterLow:     st.Water < provisionLow,
		Lost:         st.NavError > navLost,
		Need:         st.Crew.Priority(),
	}
	if st.MaxHull > 0 {
		h.HullFraction = float64(st.Hull) / float64(st.MaxHull)
	}

	h.Level = "STEADY"
	switch {
	case st.Bilge >= bilgeCrit, h.HullFraction < hullCrit, h.Need == crew.NeedHealth:
		h.Level = "CRITICAL"
	case h.BilgeHigh, h.FoodLow, h.WaterLow, h.HullFraction < hullWarn:
		h.Level = "WARNING"
	case st.Weather == "Storm", h.Lost, h.Need != crew.NeedNone:
		h.Level = "WATCH"
	}
	return h
}
