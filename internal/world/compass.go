package world

import "math"

// Direction is a compass point, 0 = N clockwise to 7 = NW. Screen
// coordinates: y grows southward.
type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var directionNames = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

var directionVectors = [8][2]float64{
	{0, -1}, {0.7, -0.7}, {1, 0}, {0.7, 0.7},
	{0, 1}, {-0.7, 0.7}, {-1, 0}, {-0.7, -0.7},
}

// Normalize wraps d into 0..7.
func (d Direction) Normalize() Direction {
	return Direction(((int(d) % 8) + 8) % 8)
}

func (d Direction) String() string {
	return directionNames[d.Normalize()]
}

// Vector returns the unit-ish step for the direction.
func (d Direction) Vector() (dx, dy float64) {
	v := directionVectors[d.Normalize()]
	return v[0], v[1]
}

// Beam returns the direction 90 degrees clockwise, the side leeway pushes toward.
func (d Direction) Beam() Direction {
	return (d + 2).Normalize()
}

// Separation is the number of compass points between a and b (0..4).
func Separation(a, b Direction) int {
	a, b = a.Normalize(), b.Normalize()
	d1 := (int(a) - int(b) + 8) % 8
	d2 := (int(b) - int(a) + 8) % 8
	return min(d1, d2)
}

// ParseDirection accepts "N".."NW". ok is false for anything else.
func ParseDirection(s string) (Direction, bool) {
	for i, n := range directionNames {
		if n == s {
			return Direction(i), true
		}
	}
	return 0, false
}

// Bearing returns the compass point from (x1, y1) toward (x2, y2).
func Bearing(x1, y1, x2, y2 float64) Direction {
	angle := math.Atan2(y2-y1, x2-x1) * 180 / math.Pi
	// Half-up rounding so -2.5 becomes -2.
	d := int(math.Floor((angle+90)/45+0.5)) + 8
	return Direction(d).Normalize()
}
