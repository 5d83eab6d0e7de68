package world

import (
	"math"

	"github.com/talgya/drowned-chart/internal/noise"
)

var islandNames = []string{
	"Morrow's End",
	"The Grey Shelf",
	"Sable Isle",
	"Tern Rock",
	"Deadman's Ledge",
	"Cape Hollow",
	"Tallow Island",
}

// islandName picks a name by hashed index, rarely adding a numeral.
func islandName(cx, cy, seed int32, i int) string {
	n := len(islandNames)
	idx := int(math.Floor(noise.Hash01(cx, cy, seed, saltName+i)*float64(n))) % n
	name := islandNames[idx]
	if noise.Hash01(cx, cy, seed, saltSuffix+i) > 0.93 {
		name += " II"
	}
	return name
}
