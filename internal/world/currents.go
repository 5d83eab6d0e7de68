package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Currents is a slow, seed-derived set and drift field. Two independent
// noise layers give the east-west and north-south components.
type Currents struct {
	Strength  float64 // Maximum drift per hour in world units
	Frequency float64

	u, v opensimplex.Noise
}

// NewCurrents builds the current field for a world seed.
func NewCurrents(seed int32) *Currents {
	s := int64(seed)
	return &Currents{
		Strength:  0.05,
		Frequency: 1.0 / 400.0,
		u:         opensimplex.NewNormalized(s + 1),
		v:         opensimplex.NewNormalized(s + 2),
	}
}

// DriftAt returns the current's displacement for one hour at (x, y).
func (c *Currents) DriftAt(x, y float64) (dx, dy float64) {
	if c == nil {
		return 0, 0
	}
	u := octaveNoise(c.u, x, y, 3, c.Frequency, 0.5)
	v := octaveNoise(c.v, x, y, 3, c.Frequency, 0.5)
	// Normalized noise is in [0, 1]; recentre on zero.
	return (u*2 - 1) * c.Strength, (v*2 - 1) * c.Strength
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
