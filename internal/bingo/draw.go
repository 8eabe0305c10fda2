package bingo

import (
	"errors"
	"math/rand"
	"sync"
)

// PoolSize is the fixed universe of callable numbers, 1..75.
const PoolSize = 75

// ErrExhausted signals that every number has been drawn. It is the normal
// terminal state of a pool, not a failure.
var ErrExhausted = errors.New("draw pool exhausted")

// DrawPool tracks the undrawn numbers for one room. All operations are
// serialized, concurrent draws never record the same number twice.
type DrawPool struct {
	mu      sync.Mutex
	drawn   map[int]bool
	history []int
	current int
}

func NewDrawPool() *DrawPool {
	return &DrawPool{
		drawn:   make(map[int]bool, PoolSize),
		history: make([]int, 0, PoolSize),
	}
}

// DrawNext picks one of the remaining numbers uniformly at random, appends
// it to the history and records it as the current call. Returns
// ErrExhausted once all 75 numbers have been drawn.
func (p *DrawPool) DrawNext() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := make([]int, 0, PoolSize-len(p.history))
	for n := 1; n <= PoolSize; n++ {
		if !p.drawn[n] {
			remaining = append(remaining, n)
		}
	}
	if len(remaining) == 0 {
		return 0, ErrExhausted
	}

	n := remaining[rand.Intn(len(remaining))]
	p.drawn[n] = true
	p.history = append(p.history, n)
	p.current = n
	return n, nil
}

// History returns a copy of the draw history, oldest first.
func (p *DrawPool) History() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.history...)
}

// Current returns the most recently drawn number, or false before the
// first draw.
func (p *DrawPool) Current() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, len(p.history) > 0
}

// Remaining reports how many numbers are still undrawn.
func (p *DrawPool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolSize - len(p.history)
}
