// Package nav keeps the sailor's picture of the world: which islands have
// been found, where the chart believes they lie, which waters have been
// seen, and the rumours picked up in port.
package nav

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/drowned-chart/internal/noise"
	"github.com/talgya/drowned-chart/internal/world"
)

// Limits on the chart's growing collections.
const (
	MaxExplored = 600
	MaxRumors   = 8
)

// Hash salts for chart placement.
const (
	saltMarkX = 301
	saltMarkY = 302
	saltFixX  = 401
	saltFixY  = 402
)

// IslandState is the only mutable fact kept about an island.
type IslandState struct {
	Found     bool `json:"found"`
	Scavenged bool `json:"scavenged"`
}

// Discovery is a snapshot of a found island for map rendering.
type Discovery struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Pale      bool    `json:"pale"`
	Port      bool    `json:"port"`
	Found     bool    `json:"found"`
	Scavenged bool    `json:"scavenged"`
}

// Mark is the chart's belief about an island or a noted position. Its
// estimate converges on the truth with each visit.
type Mark struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Pale      bool    `json:"pale"`
	EstX      float64 `json:"est_x"`
	EstY      float64 `json:"est_y"`
	Error     float64 `json:"error"`
	Scavenged bool    `json:"scavenged"`
	Confirmed bool    `json:"confirmed"`
}

// Point is a position in world units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rumor is hearsay about an island, copied from its mark when heard.
type Rumor struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	EstX  float64 `json:"est_x"`
	EstY  float64 `json:"est_y"`
	Error float64 `json:"error"`
	When  string  `json:"when"` // "day:hour"
}

// Chart is the navigation state of one voyage.
type Chart struct {
	Seed int32
	Cfg  world.GenConfig

	Islands    map[string]IslandState
	Discovered map[string]Discovery
	Marks      map[string]*Mark
	Fog        mapset.Set[string]
	Explored   []Point
	Rumors     []Rumor
	Looted     map[string]bool
	Scavenged  map[string]bool // keyed by rounded "x,y"
}

// NewChart returns a blank chart.
func NewChart(seed int32, cfg world.GenConfig) *Chart {
	return &Chart{
		Seed:       seed,
		Cfg:        cfg,
		Islands:    make(map[string]IslandState),
		Discovered: make(map[string]Discovery),
		Marks:      make(map[string]*Mark),
		Fog:        mapset.New[string](),
		Looted:     make(map[string]bool),
		Scavenged:  make(map[string]bool),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round rounds half up, so -2.5 becomes -2.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// State returns the recorded state for an island id.
func (c *Chart) State(id string) IslandState {
	return c.Islands[id]
}

// Commit records an island's state. A found island gains a discovery
// entry; its chart mark is created or refined either way.
func (c *Chart) Commit(isl world.Island, st IslandState, navError float64) {
	c.Islands[isl.ID] = st

	if st.Found {
		if _, seen := c.Discovered[isl.ID]; !seen {
			slog.Info("island discovered", "id", isl.ID, "name", isl.Name, "x", isl.X, "y", isl.Y)
		}
		c.Discovered[isl.ID] = Discovery{
			ID:        isl.ID,
			Name:      isl.Name,
			X:         isl.X,
			Y:         isl.Y,
			Pale:      isl.Pale,
			Port:      isl.Port,
			Found:     true,
			Scavenged: st.Scavenged,
		}
	}

	c.UpdateMark(isl, st, navError)

	if st.Scavenged {
		c.Scavenged[fmt.Sprintf("%d,%d", round(isl.X), round(isl.Y))] = true
	}
	c.Looted[isl.ID] = st.Scavenged
}

// markError is the uncertainty of a fresh mark under the current nav error.
func markError(navError float64) float64 {
	if navError <= 0 {
		navError = 2
	}
	return clamp(navError+6, 4, 26)
}

// UpdateMark creates the island's mark at a hashed offset from the truth,
// or pulls an existing estimate 35% closer and shrinks its error.
func (c *Chart) UpdateMark(isl world.Island, st IslandState, navError float64) *Mark {
	baseErr := markError(navError)
	ix, iy := int32(round(isl.X)), int32(round(isl.Y))
	hx := (noise.Hash01(ix, iy, c.Seed, saltMarkX) - 0.5) * baseErr * 2
	hy := (noise.Hash01(iy, ix, c.Seed, saltMarkY) - 0.5) * baseErr * 2

	m, ok := c.Marks[isl.ID]
	if !ok {
		m = &Mark{
			ID:        isl.ID,
			Name:      isl.Name,
			Pale:      isl.Pale,
			EstX:      isl.X + hx,
			EstY:      isl.Y + hy,
			Error:     baseErr,
			Scavenged: st.Scavenged,
		}
		c.Marks[isl.ID] = m
	} else {
		m.Name = isl.Name
		m.Pale = isl.Pale
		m.Scavenged = st.Scavenged
		m.EstX += (isl.X - m.EstX) * 0.35
		m.EstY += (isl.Y - m.EstY) * 0.35
		if m.Error <= 0 {
			m.Error = 4
		}
		m.Error = math.Max(2, m.Error*0.7)
	}

	if st.Found || st.Scavenged {
		m.Confirmed = true
	}
	return m
}

// FogKey formats a fog cell coordinate.
func FogKey(gx, gy int) string {
	return fmt.Sprintf("%d,%d", gx, gy)
}

// RevealFogAt clears every fog cell whose centre lies within radius of
// (x, y) and thins the explored trail. Returns the number of newly
// cleared cells; repeating a call clears nothing new.
func (c *Chart) RevealFogAt(x, y, radius float64) int {
	cs := c.Cfg.FogCellSize
	minX := int(math.Floor((x - radius) / cs))
	maxX := int(math.Floor((x + radius) / cs))
	minY := int(math.Floor((y - radius) / cs))
	maxY := int(math.Floor((y + radius) / cs))
	r2 := radius * radius

	revealed := 0
	for gx := minX; gx <= maxX; gx++ {
		for gy := minY; gy <= maxY; gy++ {
			dx := (float64(gx)+0.5)*cs - x
			dy := (float64(gy)+0.5)*cs - y
			if dx*dx+dy*dy > r2 {
				continue
			}
			key := FogKey(gx, gy)
			if !c.Fog.Has(key) {
				c.Fog.Put(key)
				revealed++
			}
		}
	}

	n := len(c.Explored)
	if n == 0 || math.Hypot(x-c.Explored[n-1].X, y-c.Explored[n-1].Y) >= c.Cfg.FogRevealRadius*0.5 {
		c.Explored = append(c.Explored, Point{X: x, Y: y})
		if len(c.Explored) > MaxExplored {
			c.Explored = c.Explored[1:]
		}
	}
	return revealed
}

// FogKeys returns the cleared cells in sorted order.
func (c *Chart) FogKeys() []string {
	keys := make([]string, 0, c.Fog.Size())
	c.Fog.Each(func(k string) {
		keys = append(keys, k)
	})
	sort.Strings(keys)
	return keys
}

// AddRumor records hearsay about a mark, evicting the oldest past MaxRumors.
func (c *Chart) AddRumor(m Mark, day, hour int) {
	if len(c.Rumors) >= MaxRumors {
		c.Rumors = c.Rumors[1:]
	}
	c.Rumors = append(c.Rumors, Rumor{
		ID:    m.ID,
		Name:  m.Name,
		EstX:  m.EstX,
		EstY:  m.EstY,
		Error: m.Error,
		When:  fmt.Sprintf("%d:%d", day, hour),
	})
	slog.Debug("rumor heard", "name", m.Name, "est_x", m.EstX, "est_y", m.EstY)
}

// AddNote pins a labelled mark at the sailor's estimated position.
func (c *Chart) AddNote(label string, x, y, navError float64, day, hour int) *Mark {
	if label == "" {
		label = "Note"
	}
	ex, ey := EstimatedPosition(x, y, navError, day, hour, c.Seed)
	if navError <= 0 {
		navError = 2
	}
	m := &Mark{
		ID:    fmt.Sprintf("note:%d:%d:%d", day, hour, len(c.Marks)),
		Name:  label,
		EstX:  ex,
		EstY:  ey,
		Error: clamp(navError+6, 4, 30),
	}
	c.Marks[m.ID] = m
	return m
}

// EstimatedPosition is where dead reckoning puts the ship. The offset is
// hashed from the four-hour watch so it holds steady within a watch.
func EstimatedPosition(x, y, navError float64, day, hour int, seed int32) (float64, float64) {
	drift := math.Max(0, navError)
	watch := int32(math.Floor(float64(day*24+hour) / 4))
	ox := (noise.Hash01(watch, 11, seed, saltFixX) - 0.5) * drift * 2
	oy := (noise.Hash01(watch, 17, seed, saltFixY) - 0.5) * drift * 2
	return x + ox, y + oy
}

// Sync repairs older charts: every discovery gets an island state and a
// confirmed mark if it lacks them.
func (c *Chart) Sync(navError float64) {
	for id, d := range c.Discovered {
		if d.ID == "" {
			d.ID = id
			c.Discovered[id] = d
		}
		if _, ok := c.Islands[d.ID]; !ok {
			c.Islands[d.ID] = IslandState{Found: d.Found, Scavenged: d.Scavenged}
		}
		if _, ok := c.Marks[d.ID]; !ok {
			c.Marks[d.ID] = &Mark{
				ID:        d.ID,
				Name:      d.Name,
				Pale:      d.Pale,
				EstX:      d.X,
				EstY:      d.Y,
				Error:     markError(navError),
				Scavenged: d.Scavenged,
				Confirmed: true,
			}
		}
	}
}
