package ship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/drowned-chart/internal/entropy"
)

func plank() *Cell { return &Cell{Type: Plank, HP: Catalog[Plank].HP} }

func TestNewPlacesKeelAtCentre(t *testing.T) {
	g := New(9, 15)
	assert.Equal(t, 4, g.KeelX)
	assert.Equal(t, 7, g.KeelY)
	c := g.Get(4, 7)
	require.NotNil(t, c)
	assert.Equal(t, Keel, c.Type)
	assert.Equal(t, 1, g.Count())
}

func TestOutOfBoundsIsQuiet(t *testing.T) {
	g := New(9, 15)
	assert.Nil(t, g.Get(-1, 0))
	assert.Nil(t, g.Get(9, 0))
	assert.Nil(t, g.Get(0, 15))
	g.Set(-1, -1, plank())
	g.Set(100, 3, plank())
	assert.Equal(t, 1, g.Count())
}

func TestIsolatedBlockIsDropped(t *testing.T) {
	g := New(9, 15)
	g.Set(0, 0, plank())
	require.NotNil(t, g.Get(0, 0))

	assert.Equal(t, 1, g.CheckIntegrity())
	assert.Nil(t, g.Get(0, 0))
}

func TestConnectedChainSurvives(t *testing.T) {
	g := New(9, 15)
	for y := 6; y >= 3; y-- {
		g.Set(4, y, plank())
	}
	assert.Equal(t, 0, g.CheckIntegrity())
	for y := 6; y >= 3; y-- {
		assert.NotNil(t, g.Get(4, y), "y=%d", y)
	}
}

func TestRemoveStrandsTheRestOfTheChain(t *testing.T) {
	g := New(9, 15)
	for y := 6; y >= 3; y-- {
		g.Set(4, y, plank())
	}
	dropped := g.Remove(4, 5)
	assert.Equal(t, 2, dropped)
	assert.NotNil(t, g.Get(4, 6))
	assert.Nil(t, g.Get(4, 4))
	assert.Nil(t, g.Get(4, 3))
}

func TestKeelCannotBeRemovedOrOverwritten(t *testing.T) {
	g := New(9, 15)
	assert.Equal(t, 0, g.Remove(4, 7))
	g.Set(4, 7, plank())
	g.Set(4, 7, nil)
	assert.Equal(t, Keel, g.Get(4, 7).Type)
}

func TestEveryBlockReachableAfterEdits(t *testing.T) {
	g := New(9, 15)
	rng := entropy.NewSeeded(3)
	for i := 0; i < 200; i++ {
		x := entropy.Intn(rng, g.W)
		y := entropy.Intn(rng, g.H)
		if rng.Float() < 0.7 {
			g.Set(x, y, plank())
		} else {
			g.Remove(x, y)
		}
	}
	g.CheckIntegrity()

	// A second pass must find nothing left to drop.
	assert.Equal(t, 0, g.CheckIntegrity())
	g.Each(func(x, y int, c *Cell) {
		if !g.IsKeel(x, y) {
			assert.True(t, g.hasNeighbour(x, y))
		}
	})
}

func TestExposure(t *testing.T) {
	g := New(9, 15)
	g.Set(0, 0, plank())
	assert.Equal(t, 5, g.exposure(0, 0))
	assert.Equal(t, 1, g.exposure(4, 6))
}

func TestTakeDamageSparesKeel(t *testing.T) {
	g := NewStarter(9, 15)
	removed, _ := g.TakeDamage(10000, true, entropy.NewSeeded(1))
	assert.Equal(t, 60, removed)
	assert.Equal(t, 1, g.Count())
	assert.Equal(t, Keel, g.Get(4, 7).Type)
	assert.Equal(t, 0, g.Stats().CurHull)
}

func TestTakeDamageCascades(t *testing.T) {
	g := New(9, 15)
	g.Set(4, 6, plank())
	g.Set(4, 5, plank())

	// 0.99 always lands on the last candidate in row-major order: (4,6).
	removed, detached := g.TakeDamage(20, false, entropy.Fixed(0.99))
	assert.Equal(t, 20, removed)
	assert.True(t, detached)
	assert.Nil(t, g.Get(4, 6))
	assert.Nil(t, g.Get(4, 5))
}

func TestTakeDamageFirstCandidate(t *testing.T) {
	g := New(9, 15)
	g.Set(4, 6, plank())
	g.Set(4, 5, plank())
	removed, detached := g.TakeDamage(3, false, entropy.Fixed(0))
	assert.Equal(t, 3, removed)
	assert.False(t, detached)
	assert.Equal(t, 17, g.Get(4, 5).HP)
	assert.Equal(t, 20, g.Get(4, 6).HP)
}

func TestDamageFirstAndRepair(t *testing.T) {
	g := NewStarter(9, 15)
	hit, destroyed := g.DamageFirst(FuncSail, 15)
	assert.True(t, hit)
	assert.False(t, destroyed)
	assert.Equal(t, 25, g.Get(4, 6).HP)

	x, y, ok := g.MostDamaged()
	require.True(t, ok)
	assert.Equal(t, [2]int{4, 6}, [2]int{x, y})
	assert.Equal(t, 15, g.Repair(x, y, 50))
	assert.Equal(t, 40, g.Get(4, 6).HP)

	hit, destroyed = g.DamageFirst(FuncSail, 40)
	assert.True(t, hit)
	assert.True(t, destroyed)
	hit, _ = g.DamageFirst(FuncSail, 1)
	assert.False(t, hit)
}
