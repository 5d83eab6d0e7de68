// Package noise implements the integer hashes every procedural decision is
// derived from. All arithmetic is 32-bit with wraparound so results are
// identical on every platform and across restarts.
package noise

const (
	hashSeed = 0x9e3779b9
	mulA     = 0x21f0aaad
	mulB     = 0x735a2d97

	mixX = 0x27d4eb2d
	mixY = 0x165667b1

	saltPrimeX = 374761393
	saltPrimeY = 668265263
)

// Hash32 is an avalanche mix of a single 32-bit value.
func Hash32(v int32) uint32 {
	return mix(uint32(v))
}

func mix(h uint32) uint32 {
	h ^= hashSeed
	h = (h ^ h>>16) * mulA
	h = (h ^ h>>15) * mulB
	return h ^ h>>15
}

// Hash3i combines two coordinates and a seed: seed first, then x, then y,
// each scaled by its own odd multiplier.
func Hash3i(x, y, seed int32) uint32 {
	h := mix(uint32(seed))
	h = mix(h ^ uint32(x)*mixX)
	h = mix(h ^ uint32(y)*mixY)
	return h
}

// Hash01 maps (x, y, seed, salt) to a float in [0, 1). Distinct salts give
// independent streams over the same coordinates.
func Hash01(x, y, seed int32, salt int) float64 {
	s := uint32(int32(salt))
	hx := uint32(x) + s*saltPrimeX
	hy := uint32(y) ^ s*saltPrimeY
	return float64(Hash3i(int32(hx), int32(hy), seed)) / 4294967296.0
}
