// Package world generates the ocean lazily, one chunk at a time.
// Every island is a pure function of (seed, chunk, index); the chunk cache
// is derived data and may be dropped and rebuilt at any time.
package world

import (
	"fmt"
	"math"
	"sync"

	"github.com/talgya/drowned-chart/internal/noise"
)

// Hash salts. Changing any of these changes every world ever generated.
const (
	saltHasIslands = 1
	saltCount      = 2
	saltName       = 20
	saltSuffix     = 50
	saltPosition   = 70
	saltPale       = 90
	saltPort       = 120
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	ChunkSize          float64 // World units per chunk side
	IslandChance       float64 // Probability a chunk holds any islands
	MaxIslandsPerChunk int
	EncounterRadius    float64 // Distance at which an island is reached
	SightingRadius     float64 // Distance at which an island may be glimpsed
	FogRevealRadius    float64
	FogCellSize        float64
}

// DefaultGenConfig returns the standard ocean.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		ChunkSize:          80,
		IslandChance:       0.22,
		MaxIslandsPerChunk: 2,
		EncounterRadius:    10,
		SightingRadius:     40,
		FogRevealRadius:    40,
		FogCellSize:        8,
	}
}

// Generator produces islands for a fixed seed.
type Generator struct {
	Seed int32
	Cfg  GenConfig

	mu     sync.Mutex
	chunks map[string][]Island
}

// NewGenerator creates a generator with an empty chunk cache.
func NewGenerator(seed int32, cfg GenConfig) *Generator {
	if cfg.ChunkSize <= 0 {
		cfg = DefaultGenConfig()
	}
	return &Generator{
		Seed:   seed,
		Cfg:    cfg,
		chunks: make(map[string][]Island),
	}
}

// ChunkKey formats chunk coordinates as "cx,cy".
func ChunkKey(cx, cy int) string {
	return fmt.Sprintf("%d,%d", cx, cy)
}

// ChunkOf returns the chunk coordinate containing world coordinate v.
func (g *Generator) ChunkOf(v float64) int {
	return int(math.Floor(v / g.Cfg.ChunkSize))
}

// IslandsForChunk returns the islands in chunk (cx, cy). The returned
// slice is a copy; callers may not mutate the cache through it.
func (g *Generator) IslandsForChunk(cx, cy int) []Island {
	key := ChunkKey(cx, cy)

	g.mu.Lock()
	defer g.mu.Unlock()

	isl, ok := g.chunks[key]
	if !ok {
		isl = g.generateChunk(cx, cy)
		g.chunks[key] = isl
	}
	out := make([]Island, len(isl))
	copy(out, isl)
	return out
}

func (g *Generator) generateChunk(cx, cy int) []Island {
	x, y := int32(cx), int32(cy)
	if noise.Hash01(x, y, g.Seed, saltHasIslands) >= g.Cfg.IslandChance {
		return nil
	}
	count := 1 + int(math.Floor(noise.Hash01(x, y, g.Seed, saltCount)*float64(g.Cfg.MaxIslandsPerChunk)))

	islands := make([]Island, 0, count)
	for i := 0; i < count; i++ {
		islands = append(islands, g.buildIsland(cx, cy, i))
	}
	return islands
}

func (g *Generator) buildIsland(cx, cy, i int) Island {
	x, y := int32(cx), int32(cy)
	size := g.Cfg.ChunkSize
	margin := size * 0.12
	span := size - margin*2

	return Island{
		ID:   fmt.Sprintf("%d,%d:%d", cx, cy, i),
		Name: islandName(x, y, g.Seed, i),
		X:    float64(cx)*size + margin + noise.Hash01(x, y, g.Seed, saltPosition+i*2)*span,
		Y:    float64(cy)*size + margin + noise.Hash01(x, y, g.Seed, saltPosition+1+i*2)*span,
		Pale: noise.Hash01(x, y, g.Seed, saltPale+i) < 0.2,
		Port: noise.Hash01(x, y, g.Seed, saltPort+i) < 0.18,
	}
}

// IslandsNear returns islands in every chunk within radius of (x, y).
// A radius of zero or less means one and a half chunks. The tutorial island
// is appended when withTutorial is set.
func (g *Generator) IslandsNear(x, y, radius float64, withTutorial bool) []Island {
	if radius <= 0 {
		radius = g.Cfg.ChunkSize * 1.5
	}
	cx, cy := g.ChunkOf(x), g.ChunkOf(y)
	r := int(math.Ceil(radius / g.Cfg.ChunkSize))

	var out []Island
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			out = append(out, g.IslandsForChunk(cx+dx, cy+dy)...)
		}
	}
	if withTutorial {
		out = append(out, TutorialIsland())
	}
	return out
}

// ClearCache drops every cached chunk.
func (g *Generator) ClearCache() {
	g.mu.Lock()
	g.chunks = make(map[string][]Island)
	g.mu.Unlock()
}

// CachedChunks reports how many chunks have been generated since the last clear.
func (g *Generator) CachedChunks() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.chunks)
}
