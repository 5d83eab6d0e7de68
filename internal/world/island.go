package world

import "math"

// TutorialID is the reserved id of the tutorial island.
const TutorialID = "tutorial:tern-rock"

// Island is a generated landmass. Found and scavenged flags live in the
// navigation chart, keyed by ID, never here.
type Island struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Pale bool    `json:"pale"`
	Port bool    `json:"port"`
}

// DistanceTo returns the straight-line distance from (x, y).
func (i Island) DistanceTo(x, y float64) float64 {
	return math.Hypot(i.X-x, i.Y-y)
}

// TutorialIsland is the fixed first landfall just north of the origin.
func TutorialIsland() Island {
	return Island{
		ID:   TutorialID,
		Name: "Tern Rock (Tutorial)",
		X:    0,
		Y:    -10,
	}
}
