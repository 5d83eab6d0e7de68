package ship

import (
	"log/slog"

	"github.com/talgya/drowned-chart/internal/entropy"
)

type target struct {
	x, y   int
	weight float64
}

// exposure biases damage toward the outside of the hull: +2 on the top or
// bottom row, +2 on the left or right column, +1 beside any gap.
func (g *Grid) exposure(x, y int) int {
	e := 0
	if y == 0 || y == g.H-1 {
		e += 2
	}
	if x == 0 || x == g.W-1 {
		e += 2
	}
	if g.exposed(x, y) {
		e++
	}
	return e
}

func (g *Grid) targets() ([]target, float64) {
	var out []target
	total := 0.0
	g.Each(func(x, y int, c *Cell) {
		if c.HP <= 0 || c.Type == Keel {
			return
		}
		w := float64(1 + g.exposure(x, y))
		out = append(out, target{x: x, y: y, weight: w})
		total += w
	})
	return out, total
}

// TakeDamage removes amount hit points one at a time, each landing on a
// random block weighted by exposure. A block at zero hp is destroyed and
// the connectivity check runs at once, so damage can cascade. Returns the
// hp removed and whether any structure detached.
func (g *Grid) TakeDamage(amount int, storm bool, rng entropy.Source) (removed int, detached bool) {
	destroyed := 0
	for i := 0; i < amount; i++ {
		ts, total := g.targets()
		if len(ts) == 0 {
			break
		}
		roll := rng.Float() * total
		pick := ts[len(ts)-1]
		for _, t := range ts {
			roll -= t.weight
			if roll <= 0 {
				pick = t
				break
			}
		}

		c := g.Get(pick.x, pick.y)
		c.HP--
		removed++
		if c.HP <= 0 {
			g.cells[g.idx(pick.x, pick.y)] = nil
			destroyed++
			if g.CheckIntegrity() > 0 {
				detached = true
			}
		}
	}

	if removed > 0 {
		slog.Debug("ship damaged", "hp", removed, "destroyed", destroyed, "detached", detached, "storm", storm)
	}
	return removed, detached
}

// DamageFirst strikes the first block of the given function in row-major
// order. Returns whether a block was hit and whether it was destroyed.
func (g *Grid) DamageFirst(fn Function, amount int) (hit, destroyed bool) {
	for i, c := range g.cells {
		if c == nil || c.Def().Func != fn {
			continue
		}
		c.HP -= amount
		if c.HP <= 0 {
			g.cells[i] = nil
			g.CheckIntegrity()
			return true, true
		}
		return true, false
	}
	return false, false
}

// Repair restores up to amount hp at (x, y), capped at the block's maximum.
// Returns the hp actually restored.
func (g *Grid) Repair(x, y, amount int) int {
	c := g.Get(x, y)
	if c == nil || c.Type == Keel {
		return 0
	}
	full := c.Def().HP
	before := c.HP
	c.HP = min(full, c.HP+amount)
	return c.HP - before
}

// MostDamaged returns the non-keel block missing the most hp.
func (g *Grid) MostDamaged() (x, y int, ok bool) {
	worst := 0
	g.Each(func(cx, cy int, c *Cell) {
		if c.Type == Keel {
			return
		}
		if missing := c.Def().HP - c.HP; missing > worst {
			worst, x, y, ok = missing, cx, cy, true
		}
	})
	return x, y, ok
}
