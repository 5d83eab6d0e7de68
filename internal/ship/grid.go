package ship

import (
	"log/slog"

	"github.com/zyedidia/generic/mapset"
)

// Cell is a placed block instance.
type Cell struct {
	Type   string `json:"type"`
	HP     int    `json:"hp"`
	Sealed bool   `json:"sealed,omitempty"`
}

// Def returns the cell's block definition.
func (c *Cell) Def() Block {
	return Catalog[c.Type]
}

// Grid is the ship's structure. The keel sits at (KeelX, KeelY) and can
// never be removed or damaged.
type Grid struct {
	W, H         int
	KeelX, KeelY int
	cells        []*Cell
}

// New creates a w×h grid holding only the keel at its centre.
func New(w, h int) *Grid {
	g := &Grid{
		W:     w,
		H:     h,
		KeelX: w / 2,
		KeelY: h / 2,
		cells: make([]*Cell, w*h),
	}
	g.cells[g.idx(g.KeelX, g.KeelY)] = &Cell{Type: Keel, HP: Catalog[Keel].HP, Sealed: true}
	return g
}

// NewStarter returns the broken hulk a voyage begins with: a plank below
// the keel and a mast above it.
func NewStarter(w, h int) *Grid {
	g := New(w, h)
	g.Set(g.KeelX, g.KeelY+1, &Cell{Type: Plank, HP: Catalog[Plank].HP})
	g.Set(g.KeelX, g.KeelY-1, &Cell{Type: Mast, HP: Catalog[Mast].HP, Sealed: true})
	return g
}

func (g *Grid) idx(x, y int) int { return y*g.W + x }

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// IsKeel reports whether (x, y) is the keel position.
func (g *Grid) IsKeel(x, y int) bool {
	return x == g.KeelX && y == g.KeelY
}

// Get returns the cell at (x, y), or nil when empty or out of bounds.
func (g *Grid) Get(x, y int) *Cell {
	if !g.InBounds(x, y) {
		return nil
	}
	return g.cells[g.idx(x, y)]
}

// Set places c at (x, y). Out-of-bounds writes and writes over the keel
// are ignored. Set does not check connectivity; call CheckIntegrity once
// a batch of edits is done.
func (g *Grid) Set(x, y int, c *Cell) {
	if !g.InBounds(x, y) {
		slog.Debug("ship set out of bounds", "x", x, "y", y)
		return
	}
	if g.IsKeel(x, y) {
		return
	}
	g.cells[g.idx(x, y)] = c
}

// Remove empties (x, y) and drops anything stranded by the removal.
// Returns the number of blocks that fell away besides the removed one.
func (g *Grid) Remove(x, y int) int {
	if g.Get(x, y) == nil || g.IsKeel(x, y) {
		return 0
	}
	g.cells[g.idx(x, y)] = nil
	dropped := g.CheckIntegrity()
	if dropped > 0 {
		slog.Warn("block removal detached structure", "x", x, "y", y, "dropped", dropped)
	}
	return dropped
}

var neighbours = [4][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

// CheckIntegrity flood-fills from the keel and empties every occupied cell
// it cannot reach. O(W·H). Returns the number of cells dropped.
func (g *Grid) CheckIntegrity() int {
	visited := mapset.New[int]()
	start := g.idx(g.KeelX, g.KeelY)
	visited.Put(start)
	queue := [][2]int{{g.KeelX, g.KeelY}}

	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, d := range neighbours {
			nx, ny := p[0]+d[0], p[1]+d[1]
			if g.Get(nx, ny) == nil {
				continue
			}
			ni := g.idx(nx, ny)
			if visited.Has(ni) {
				continue
			}
			visited.Put(ni)
			queue = append(queue, [2]int{nx, ny})
		}
	}

	dropped := 0
	for i, c := range g.cells {
		if c != nil && !visited.Has(i) {
			slog.Debug("detached block lost", "type", c.Type, "x", i%g.W, "y", i/g.W)
			g.cells[i] = nil
			dropped++
		}
	}
	return dropped
}

// exposed reports whether any 4-neighbour of (x, y) is empty or off-grid.
func (g *Grid) exposed(x, y int) bool {
	for _, d := range neighbours {
		if g.Get(x+d[0], y+d[1]) == nil {
			return true
		}
	}
	return false
}

// Each calls fn for every occupied cell in row-major order.
func (g *Grid) Each(fn func(x, y int, c *Cell)) {
	for i, c := range g.cells {
		if c != nil {
			fn(i%g.W, i/g.W, c)
		}
	}
}

// Count returns the number of occupied cells, keel included.
func (g *Grid) Count() int {
	n := 0
	for _, c := range g.cells {
		if c != nil {
			n++
		}
	}
	return n
}
