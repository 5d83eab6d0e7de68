package nav

import (
	"github.com/talgya/drowned-chart/internal/entropy"
	"github.com/talgya/drowned-chart/internal/world"
)

// GenerateRumor picks an island two to five chunks away on each axis, in a
// random quadrant. ok is false when the chosen chunk is empty water.
func GenerateRumor(gen *world.Generator, x, y float64, rng entropy.Source) (isl world.Island, ok bool) {
	cx, cy := gen.ChunkOf(x), gen.ChunkOf(y)
	dx := 2 + entropy.Intn(rng, 4)
	dy := 2 + entropy.Intn(rng, 4)
	if rng.Float() < 0.5 {
		dx = -dx
	}
	if rng.Float() < 0.5 {
		dy = -dy
	}

	islands := gen.IslandsForChunk(cx+dx, cy+dy)
	if len(islands) == 0 {
		return world.Island{}, false
	}
	return islands[entropy.Intn(rng, len(islands))], true
}
