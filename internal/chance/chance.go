// Package chance provides the randomness source for all stochastic draws.
//
// Every independent draw (backlash, protest ignition, agitator plants,
// injury rolls, suppression gambles) pulls a distinct value from a Source,
// so tests can substitute a deterministic sequence and exercise every
// branch of a probabilistic outcome.
package chance

import (
	"math/rand/v2"
	"sync"
)

// Source yields pseudo-random values for independent draws.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// Rand is the production Source backed by math/rand/v2.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand creates a Source seeded from the global generator.
func NewRand() *Rand {
	return &Rand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeeded creates a reproducible Source, used by simulation replays.
func NewSeeded(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Rand) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *Rand) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Bernoulli reports whether a draw from src succeeds with probability p.
func Bernoulli(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

// Between returns a uniform value in [lo, hi).
func Between(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// IntBetween returns a uniform integer in [lo, hi] inclusive.
func IntBetween(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Fixed is a deterministic Source for tests: it replays the given values
// in order, wrapping around when exhausted.
type Fixed struct {
	mu   sync.Mutex
	vals []float64
	i    int
}

// NewFixed creates a Fixed source. Panics if no values are given.
func NewFixed(vals ...float64) *Fixed {
	if len(vals) == 0 {
		panic("chance: Fixed source needs at least one value")
	}
	return &Fixed{vals: vals}
}

func (f *Fixed) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.vals[f.i%len(f.vals)]
	f.i++
	return v
}

func (f *Fixed) IntN(n int) int {
	return int(f.Float64() * float64(n))
}
