package entropy

import (
	"math/rand"
	"sync"
)

// Source is the injectable random stream used by the simulation.
// Float returns a value in [0, 1).
type Source interface {
	Float() float64
}

// Crypto is a Source backed by crypto/rand.
type Crypto struct{}

func (Crypto) Float() float64 { return cryptoRandFloat() }

// Seeded is a reproducible Source for replays and tests.
type Seeded struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeeded returns a Source whose stream is fixed by seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{r: rand.New(rand.NewSource(seed))}
}

func (s *Seeded) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Fixed always returns the same value. Fixed(0.5) fails every "< p" check
// with p <= 0.5 and leaves weather drift at zero.
type Fixed float64

func (f Fixed) Float() float64 { return float64(f) }

// Sequence replays values in order and then repeats the last one.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequence returns a Source that yields values in order.
func NewSequence(values ...float64) *Sequence {
	if len(values) == 0 {
		values = []float64{0.5}
	}
	return &Sequence{values: values}
}

func (s *Sequence) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next]
	if s.next < len(s.values)-1 {
		s.next++
	}
	return v
}

// Chance reports whether a draw from src falls below p.
func Chance(src Source, p float64) bool {
	return src.Float() < p
}

// Intn returns an integer in [0, n). Returns 0 when n <= 0.
func Intn(src Source, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(src.Float() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Default returns the random.org client when a key is configured,
// otherwise crypto/rand.
func Default(apiKey string) Source {
	if c := NewClient(apiKey); c != nil {
		return c
	}
	return Crypto{}
}
