package ship

import (
	"fmt"
)

// Snapshot is the persisted form of a grid: cells in row-major order,
// nil for empty.
type Snapshot struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Cells  []*Cell `json:"cells"`
}

// Snapshot copies the grid into its persisted form.
func (g *Grid) Snapshot() Snapshot {
	cells := make([]*Cell, len(g.cells))
	for i, c := range g.cells {
		if c != nil {
			cp := *c
			cells[i] = &cp
		}
	}
	return Snapshot{Width: g.W, Height: g.H, Cells: cells}
}

// Restore rebuilds a live grid from a snapshot. Unknown block types are
// rejected; the keel is reinstated at the centre whatever the snapshot
// holds there, and connectivity is enforced before returning.
func Restore(s Snapshot) (*Grid, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("restore ship: bad dimensions %dx%d", s.Width, s.Height)
	}
	if len(s.Cells) != s.Width*s.Height {
		return nil, fmt.Errorf("restore ship: %d cells for %dx%d grid", len(s.Cells), s.Width, s.Height)
	}

	g := New(s.Width, s.Height)
	for i, c := range s.Cells {
		if c == nil {
			continue
		}
		if _, ok := Lookup(c.Type); !ok {
			return nil, fmt.Errorf("restore ship: unknown block %q at %d", c.Type, i)
		}
		x, y := i%s.Width, i/s.Width
		if g.IsKeel(x, y) || c.Type == Keel || c.HP <= 0 {
			continue
		}
		cp := *c
		g.Set(x, y, &cp)
	}
	g.CheckIntegrity()
	return g, nil
}
