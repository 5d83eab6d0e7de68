package ship

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds  = errors.New("outside the ship grid")
	ErrOccupied     = errors.New("cell already occupied")
	ErrEmpty        = errors.New("cell is empty")
	ErrUnknownBlock = errors.New("unknown block")
	ErrNoNeighbor   = errors.New("block must touch the existing structure")
	ErrNeedsStay    = errors.New("a mast must be braced by an adjacent stay")
	ErrCost         = errors.New("not enough materials")
	ErrKeel         = errors.New("the keel cannot be altered")
	ErrNotHull      = errors.New("only hull planking can be caulked")
	ErrSealed       = errors.New("already sealed")
)

// Affordable reports whether have covers cost.
func Affordable(cost, have map[string]int) bool {
	for k, n := range cost {
		if have[k] < n {
			return false
		}
	}
	return true
}

// CanPlace applies the shipwright's rules for putting block id at (x, y):
// the cell is empty, it touches the structure, a sail touches a stay, and
// the materials cover the cost. The grid itself never enforces these.
func CanPlace(g *Grid, x, y int, id string, have map[string]int) error {
	b, ok := Lookup(id)
	if !ok || b.Func == FuncKeel {
		return fmt.Errorf("%w: %q", ErrUnknownBlock, id)
	}
	if !g.InBounds(x, y) {
		return ErrOutOfBounds
	}
	if g.Get(x, y) != nil {
		return ErrOccupied
	}
	if !Affordable(b.Cost, have) {
		return ErrCost
	}
	if !g.hasNeighbour(x, y) {
		return ErrNoNeighbor
	}
	if b.Func == FuncSail && !g.touches(x, y, Stay) {
		return ErrNeedsStay
	}
	return nil
}

func (g *Grid) touches(x, y int, id string) bool {
	for _, d := range neighbours {
		if c := g.Get(x+d[0], y+d[1]); c != nil && c.Type == id {
			return true
		}
	}
	return false
}

// Place puts a fresh block at (x, y). Hull planking goes in unsealed and
// needs caulking; everything else is sealed on placement.
func Place(g *Grid, x, y int, id string) *Cell {
	b := Catalog[id]
	c := &Cell{Type: id, HP: b.HP, Sealed: b.Func != FuncHull}
	g.Set(x, y, c)
	return c
}

// Seal caulks the hull plank at (x, y).
func (g *Grid) Seal(x, y int) error {
	c := g.Get(x, y)
	switch {
	case c == nil:
		return ErrEmpty
	case c.Def().Func != FuncHull:
		return ErrNotHull
	case c.Sealed:
		return ErrSealed
	}
	c.Sealed = true
	return nil
}
