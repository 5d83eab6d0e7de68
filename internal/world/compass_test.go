package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearing(t *testing.T) {
	assert.Equal(t, North, Bearing(0, 0, 0, -10))
	assert.Equal(t, East, Bearing(0, 0, 10, 0))
	assert.Equal(t, South, Bearing(0, 0, 0, 10))
	assert.Equal(t, West, Bearing(0, 0, -10, 0))
	assert.Equal(t, SouthEast, Bearing(0, 0, 10, 10))
	assert.Equal(t, NorthWest, Bearing(0, 0, -10, -10))
}

func TestSeparation(t *testing.T) {
	assert.Equal(t, 0, Separation(North, North))
	assert.Equal(t, 1, Separation(North, NorthWest))
	assert.Equal(t, 4, Separation(East, West))
	assert.Equal(t, 2, Separation(South, West))
}

func TestSeparationWrapsOutOfRangePoints(t *testing.T) {
	for _, d := range []Direction{-9, -1, 8, 20, 100} {
		sep := Separation(d, North)
		assert.GreaterOrEqual(t, sep, 0, "dir %d", d)
		assert.LessOrEqual(t, sep, 4, "dir %d", d)
		assert.Equal(t, Separation(d.Normalize(), North), sep)
	}
	assert.Equal(t, 4, Separation(20, North)) // 20 wraps to S
}

func TestDirectionHelpers(t *testing.T) {
	assert.Equal(t, East, North.Beam())
	assert.Equal(t, North, West.Beam())
	assert.Equal(t, NorthEast, NorthWest.Beam())
	assert.Equal(t, "NW", Direction(-1).String())
	d, ok := ParseDirection("SE")
	assert.True(t, ok)
	assert.Equal(t, SouthEast, d)
	_, ok = ParseDirection("up")
	assert.False(t, ok)
}

func TestCurrentsDeterministicAndBounded(t *testing.T) {
	a, b := NewCurrents(12345), NewCurrents(12345)
	for _, p := range [][2]float64{{0, 0}, {123.4, -56}, {-900, 400}} {
		ax, ay := a.DriftAt(p[0], p[1])
		bx, by := b.DriftAt(p[0], p[1])
		assert.Equal(t, ax, bx)
		assert.Equal(t, ay, by)
		assert.LessOrEqual(t, ax, a.Strength)
		assert.GreaterOrEqual(t, ay, -a.Strength)
	}
	var nilCurrents *Currents
	dx, dy := nilCurrents.DriftAt(1, 1)
	assert.Zero(t, dx)
	assert.Zero(t, dy)
}
