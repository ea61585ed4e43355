package localcache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLRU_GetSetDelete(t *testing.T) {
	c := New(Config{Capacity: 4})
	ctx := context.Background()

	got, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "k", []byte("v1"), 0))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, c.Set(ctx, "k", []byte("v2"), 0))
	got, _ = c.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), got)
	assert.Equal(t, 1, c.Len())

	existed, err := c.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, existed)
	existed, _ = c.Delete(ctx, "k")
	assert.False(t, existed)

	s := c.Stats()
	assert.Equal(t, uint64(2), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
}

func TestLRU_TTL(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(Config{Capacity: 4, Now: clk.Now})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	clk.Advance(30 * time.Second)
	got, _ := c.Get(ctx, "k")
	assert.NotNil(t, got)

	clk.Advance(31 * time.Second)
	got, _ = c.Get(ctx, "k")
	assert.Nil(t, got)
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.Set(ctx, "e", []byte("v"), time.Second))
	clk.Advance(2 * time.Second)
	existed, _ := c.Delete(ctx, "e")
	assert.False(t, existed)
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(Config{Capacity: 2})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("b"), 0))
	_, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", []byte("c"), 0))

	got, _ := c.Get(ctx, "b")
	assert.Nil(t, got)
	got, _ = c.Get(ctx, "a")
	assert.Equal(t, []byte("a"), got)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
	assert.Equal(t, 2, c.Stats().Capacity)
}

func TestLRU_CopiesValues(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, 0))
	buf[0] = 'x'

	got, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), got)
	got[1] = 'y'

	again, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
	assert.Equal(t, DefaultCapacity, c.Stats().Capacity)
}

func TestLRU_Concurrent(t *testing.T) {
	c := New(Config{Capacity: 16})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (i+j)%32)
				_ = c.Set(ctx, key, []byte(key), time.Minute)
				_, _ = c.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}
