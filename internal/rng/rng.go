// Package rng provides the seeded random source used for weight initialization
// and data shuffling.
package rng

import (
	"math"
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// Source is a mutex-guarded pseudo random generator.
// The zero value is not usable; create one with New.
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New creates a Source seeded with seed.
func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

var (
	defaultOnce   sync.Once
	defaultSource *Source
)

// Default returns the process-wide source, seeded from the clock on first use.
func Default() *Source {
	defaultOnce.Do(func() {
		defaultSource = New(uint64(time.Now().UnixNano()))
	})
	return defaultSource
}

// SetSeed reseeds the process-wide source.
func SetSeed(seed uint64) {
	Default().Seed(seed)
}

// Seed replaces the generator state with a fresh one seeded by seed.
func (s *Source) Seed(seed uint64) {
	s.mu.Lock()
	s.r = rand.New(rand.NewSource(seed))
	s.mu.Unlock()
}

// Float32 returns a value in [0, 1).
func (s *Source) Float32() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float32()
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Range returns a value in [lo, hi).
func (s *Source) Range(lo, hi float32) float32 {
	v := lo + (hi-lo)*s.Float32()
	// float32 rounding can land exactly on hi
	if v >= hi && hi > lo {
		v = math.Nextafter32(hi, lo)
	}
	return v
}

// Intn returns a value in [0, n). It panics if n <= 0, like math/rand.
func (s *Source) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

// Shuffle randomizes the order of n elements using swap.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}

// Indexes returns 0..n-1 in random order.
func (s *Source) Indexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	s.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	return idx
}

// Gaussian draws from N(mean, stdDev²).
func (s *Source) Gaussian(mean, stdDev float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mean + stdDev*s.r.NormFloat64()
}

// Choose returns a random element of items. ok is false when items is empty.
func Choose[T any](s *Source, items []T) (item T, ok bool) {
	if len(items) == 0 {
		return item, false
	}
	return items[s.Intn(len(items))], true
}

// Guard holds the generator that was active before a Scope call.
type Guard struct {
	src      *Source
	previous *rand.Rand
	once     sync.Once
}

// Scope swaps in a generator seeded with seed until Restore is called.
func (s *Source) Scope(seed uint64) *Guard {
	s.mu.Lock()
	g := &Guard{src: s, previous: s.r}
	s.r = rand.New(rand.NewSource(seed))
	s.mu.Unlock()
	return g
}

// Restore reinstates the generator captured by Scope. Extra calls are no-ops.
func (g *Guard) Restore() {
	g.once.Do(func() {
		g.src.mu.Lock()
		g.src.r = g.previous
		g.src.mu.Unlock()
	})
}

// Scoped runs fn with the source temporarily seeded by seed and restores the
// previous generator afterwards, even if fn panics.
func (s *Source) Scoped(seed uint64, fn func()) {
	g := s.Scope(seed)
	defer g.Restore()
	fn()
}
