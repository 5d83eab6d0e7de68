package provisions

import (
	"errors"
	"fmt"
	"sort"
)

// Material names.
const (
	Timber = "timber"
	Metal  = "metal"
	Canvas = "canvas"
	Rope   = "rope"
	Glass  = "glass"
)

var ErrShort = errors.New("not enough materials")

// Materials counts building stock by name.
type Materials map[string]int

// Covers reports whether m holds at least cost.
func (m Materials) Covers(cost map[string]int) bool {
	for k, n := range cost {
		if m[k] < n {
			return false
		}
	}
	return true
}

// Spend removes cost from m, or changes nothing and returns ErrShort.
func (m Materials) Spend(cost map[string]int) error {
	if !m.Covers(cost) {
		return fmt.Errorf("spend %v: %w", cost, ErrShort)
	}
	for k, n := range cost {
		m[k] -= n
	}
	return nil
}

// Add adds n of material k.
func (m Materials) Add(k string, n int) {
	m[k] += n
}

// Names returns the held material names in a stable order.
func (m Materials) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
