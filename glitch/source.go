package glitch

import (
	"math/rand/v2"
)

// Source provides the random draws the filter consumes. Implementations
// need not be safe for concurrent use; give every goroutine its own.
type Source interface {
	// Uniform returns a value drawn uniformly from [low, high).
	Uniform(low, high float64) float64
	// Bool returns true or false with equal probability.
	Bool() bool
}

type randSource struct {
	r *rand.Rand
}

// NewSource returns a Source seeded with seed. Two sources created with
// the same seed produce the same sequence of draws.
func NewSource(seed uint64) Source {
	return &randSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomSource returns a Source seeded from the runtime generator.
func NewRandomSource() Source {
	return NewSource(rand.Uint64())
}

func (s *randSource) Uniform(low, high float64) float64 {
	return low + s.r.Float64()*(high-low)
}

func (s *randSource) Bool() bool {
	return s.r.Float64() > 0.5
}
