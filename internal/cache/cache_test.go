package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)}
}

func TestTTL_RoundTripAndLazyExpiry(t *testing.T) {
	clock := newClock()
	c := New[string](WithClock(clock.Now))

	c.Set("k", "v", 30*time.Second)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	clock.Advance(29 * time.Second)
	_, ok = c.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	assert.Equal(t, 1, c.Size(), "expired entry is kept until looked up")
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
	assert.Empty(t, c.Keys())
}

func TestTTL_SetOverwritesAndResetsExpiry(t *testing.T) {
	clock := newClock()
	c := New[int](WithClock(clock.Now))

	c.Set("k", 1, 10*time.Second)
	clock.Advance(8 * time.Second)
	c.Set("k", 2, 10*time.Second)
	clock.Advance(8 * time.Second)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestTTL_MissingKey(t *testing.T) {
	c := New[int]()
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestTTL_Admin(t *testing.T) {
	c := New[int]()
	c.Set("b", 2, time.Minute)
	c.Set("a", 1, time.Minute)
	c.Set("c", 3, time.Minute)

	assert.Equal(t, 3, c.Size())
	assert.Equal(t, []string{"a", "b", "c"}, c.Keys())

	c.Remove("b")
	assert.Equal(t, []string{"a", "c"}, c.Keys())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestTTL_ConcurrentAccess(t *testing.T) {
	c := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			c.Set(key, i, time.Minute)
			c.Get(key)
			c.Keys()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, c.Size())
}
