package utils

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the subset of *rand.Rand the games draw from
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRand returns a time-seeded source that is safe for concurrent use
func NewRand() Rand {
	return &lockedRand{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

func (r *lockedRand) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng.Shuffle(n, swap)
}

// RandRange returns a uniform value in [min, max]
func RandRange(r Rand, min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + int64(r.Intn(int(max-min+1)))
}

// NewSeededRand returns a reproducible source
func NewSeededRand(seed int64) Rand {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}
