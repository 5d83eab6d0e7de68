package ship

import "log/slog"

// Stats is an aggregate snapshot of the ship. The keel is excluded from
// hull totals; a ship reduced to its bare keel has zero hull.
type Stats struct {
	MaxHull int `json:"max_hull"`
	CurHull int `json:"cur_hull"`

	Weight    float64 `json:"weight"`
	SailPower float64 `json:"sail_power"`
	MaxWater  float64 `json:"max_water"`
	MaxFood   float64 `json:"max_food"`
	MaxRain   float64 `json:"max_rain"`
	PumpRate  float64 `json:"pump_rate"`

	StayCount int `json:"stay_count"`
	MastCount int `json:"mast_count"`
	Unsealed  int `json:"unsealed"`

	EdgeMissing  int     `json:"edge_missing"`
	DamagedEdges float64 `json:"damaged_edges"`
	LeakBow      int     `json:"leak_bow"`
	LeakMid      int     `json:"leak_mid"`
	LeakStern    int     `json:"leak_stern"`
	LeakRate     float64 `json:"leak_rate"`

	List float64 `json:"list"`

	Accuracy float64 `json:"accuracy"` // best celestial instrument
	Charts   int     `json:"charts"`

	Storage map[string]float64 `json:"storage"`
	Blocks  map[string]int     `json:"blocks"`
}

// Leak-rate coefficients.
const (
	leakPerGap        = 0.4
	leakPerDamaged    = 3
	leakPerUnsealed   = 0.6
	damagedEdgeWeight = 0.5
)

// Stats scans the grid. O(W·H).
func (g *Grid) Stats() Stats {
	st := Stats{
		Storage: map[string]float64{
			"hold":             100,
			"pantry":           0,
			"water_cask":       0,
			"equipment_locker": 10,
			"artifact_case":    5,
		},
		Blocks: make(map[string]int),
	}
	var sumX, sumW float64

	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			c := g.Get(x, y)
			if c == nil {
				if g.hasNeighbour(x, y) {
					st.EdgeMissing++
					switch {
					case float64(y) < float64(g.H)*0.33:
						st.LeakBow++
					case float64(y) > float64(g.H)*0.66:
						st.LeakStern++
					default:
						st.LeakMid++
					}
				}
				continue
			}

			b := c.Def()
			st.Blocks[c.Type]++
			st.Weight += b.Weight
			sumX += float64(x) * b.Weight
			sumW += b.Weight

			switch b.Func {
			case FuncKeel:
				// Structural anchor only.
			case FuncHull:
				if !c.Sealed {
					st.Unsealed++
				}
			case FuncArmor, FuncBallast:
			case FuncSail:
				st.SailPower += b.Power
				st.MastCount++
			case FuncStay:
				st.StayCount++
			case FuncWater:
				st.MaxWater += b.Capacity
				st.Storage["water_cask"] += b.Capacity
			case FuncFood:
				st.MaxFood += b.Capacity
				st.Storage["pantry"] += b.Capacity
			case FuncPump:
				st.PumpRate += b.Clear
			case FuncRain:
				st.MaxRain += b.Capacity
			case FuncCelestial:
				st.Accuracy = max(st.Accuracy, b.Accuracy)
				st.Charts += b.Charts
			}

			if b.Func != FuncKeel {
				st.MaxHull += b.HP
				st.CurHull += c.HP
			}

			if g.onBoundary(x, y) || g.exposed(x, y) {
				if float64(c.HP) < float64(b.HP)*0.5 {
					st.DamagedEdges += damagedEdgeWeight
				}
			}
		}
	}

	st.LeakRate = float64(st.EdgeMissing)*leakPerGap + st.DamagedEdges*leakPerDamaged + float64(st.Unsealed)*leakPerUnsealed
	if sumW > 0 {
		st.List = sumX/sumW - float64(g.KeelX)
	}
	st.Weight = max(1, st.Weight)

	if st.LeakRate > 5 {
		slog.Debug("high leak rate", "leak", st.LeakRate, "gaps", st.EdgeMissing, "unsealed", st.Unsealed)
	}
	return st
}

func (g *Grid) onBoundary(x, y int) bool {
	return x == 0 || y == 0 || x == g.W-1 || y == g.H-1
}

func (g *Grid) hasNeighbour(x, y int) bool {
	for _, d := range neighbours {
		if g.Get(x+d[0], y+d[1]) != nil {
			return true
		}
	}
	return false
}
