package ship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarterStats(t *testing.T) {
	st := NewStarter(9, 15).Stats()
	assert.Equal(t, 60, st.MaxHull)
	assert.Equal(t, 60, st.CurHull)
	assert.Equal(t, 15.0, st.SailPower)
	assert.Equal(t, 3.0, st.Weight)
	assert.Equal(t, 8, st.EdgeMissing)
	assert.Equal(t, 1, st.Unsealed)
	assert.InDelta(t, 8*0.4+0.6, st.LeakRate, 1e-9)
	assert.InDelta(t, 0, st.List, 1e-9)
	assert.Equal(t, 1, st.MastCount)
	assert.Equal(t, 0.0, st.PumpRate)
	assert.Equal(t, 100.0, st.Storage["hold"])
}

func TestBareKeelWeightFloor(t *testing.T) {
	st := New(9, 15).Stats()
	assert.Equal(t, 1.0, st.Weight)
	assert.Equal(t, 0, st.CurHull)
}

func TestLightRigWeightFloor(t *testing.T) {
	g := New(9, 15)
	Place(g, g.KeelX, g.KeelY-1, Stay)
	st := g.Stats()
	assert.Equal(t, 1.0, st.Weight)
	assert.Equal(t, 15, st.CurHull)
}

// sealedBlock fills x0..x1, y0..y1 with caulked planks.
func sealedBlock(g *Grid, x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if g.IsKeel(x, y) {
				continue
			}
			Place(g, x, y, Plank)
			_ = g.Seal(x, y)
		}
	}
}

func TestRemovingInteriorPlankRaisesLeak(t *testing.T) {
	g := New(9, 15)
	sealedBlock(g, 2, 5, 6, 9)
	before := g.Stats()
	assert.Equal(t, 20, before.EdgeMissing)
	assert.Equal(t, 0, before.Unsealed)

	for _, p := range [][2]int{{3, 6}, {5, 8}, {4, 6}} {
		prev := g.Stats().LeakRate
		g.Remove(p[0], p[1])
		assert.Greater(t, g.Stats().LeakRate, prev, "removing %v", p)
	}
}

func TestDamagedEdgeLeaks(t *testing.T) {
	g := New(9, 15)
	sealedBlock(g, 3, 6, 5, 8)
	base := g.Stats().LeakRate

	g.Get(3, 6).HP = 5
	st := g.Stats()
	assert.InDelta(t, base+0.5*3, st.LeakRate, 1e-9)
}

func TestPumpsReduceNetInflow(t *testing.T) {
	g := New(9, 15)
	sealedBlock(g, 3, 6, 5, 8)
	leak := g.Stats().LeakRate
	net0 := leak - g.Stats().PumpRate

	Place(g, 4, 9, Pump)
	net1 := leak - g.Stats().PumpRate
	Place(g, 4, 10, Pump)
	net2 := leak - g.Stats().PumpRate

	assert.Less(t, net1, net0)
	assert.Less(t, net2, net1)
}

func TestListFollowsWeight(t *testing.T) {
	g := New(9, 15)
	Place(g, 5, 7, Plank)
	Place(g, 6, 7, Ballast)
	st := g.Stats()
	// (5*1 + 6*6) / 7 - 4
	assert.InDelta(t, 41.0/7.0-4, st.List, 1e-9)
	assert.Greater(t, st.List, 1.0)
}

func TestLeakBuckets(t *testing.T) {
	g := New(9, 15)
	for y := 6; y >= 1; y-- {
		Place(g, 4, y, Iron)
	}
	st := g.Stats()
	require.Greater(t, st.LeakBow, 0)
	assert.Greater(t, st.LeakBow, st.LeakStern)
	assert.Equal(t, st.EdgeMissing, st.LeakBow+st.LeakMid+st.LeakStern)
}

func TestFunctionCounts(t *testing.T) {
	g := New(9, 15)
	Place(g, 4, 8, Cask)
	Place(g, 4, 9, Pantry)
	Place(g, 3, 7, RainCollector)
	Place(g, 5, 7, Telescope)
	Place(g, 4, 6, Stay)
	st := g.Stats()
	assert.Equal(t, 15.0, st.MaxWater)
	assert.Equal(t, 20.0, st.MaxFood)
	assert.Equal(t, 3.0, st.MaxRain)
	assert.Equal(t, 0.8, st.Accuracy)
	assert.Equal(t, 1, st.StayCount)
	assert.Equal(t, 20.0, st.Storage["pantry"])
	assert.Equal(t, 15.0, st.Storage["water_cask"])
	assert.Equal(t, "celestial", FuncCelestial.String())
}
