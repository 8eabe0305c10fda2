package bingo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawNextNoDuplicates(t *testing.T) {
	pool := NewDrawPool()

	seen := make(map[int]bool)
	for i := 0; i < PoolSize; i++ {
		n, err := pool.DrawNext()
		require.NoError(t, err)
		assert.False(t, seen[n], "number %d drawn twice", n)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, PoolSize)
		seen[n] = true
	}

	assert.Equal(t, 0, pool.Remaining())
	assert.Len(t, pool.History(), PoolSize)

	// 76th draw signals exhaustion, not a failure
	_, err := pool.DrawNext()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestDrawNextCurrentTracksLastCall(t *testing.T) {
	pool := NewDrawPool()

	_, ok := pool.Current()
	assert.False(t, ok)

	n, err := pool.DrawNext()
	require.NoError(t, err)

	cur, ok := pool.Current()
	assert.True(t, ok)
	assert.Equal(t, n, cur)
}

func TestDrawNextConcurrent(t *testing.T) {
	pool := NewDrawPool()

	var wg sync.WaitGroup
	results := make(chan int, PoolSize)
	for i := 0; i < PoolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if n, err := pool.DrawNext(); err == nil {
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	count := 0
	for n := range results {
		assert.False(t, seen[n], "number %d drawn twice", n)
		seen[n] = true
		count++
	}
	assert.Equal(t, PoolSize, count)
	assert.Equal(t, 0, pool.Remaining())
}
