package expiring

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/utils/cache"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) advance(d time.Duration) { c.now = c.now.Add(d) }

func testCache(clk *clock, opts ...Option[string, int]) *Cache[string, int] {
	opts = append([]Option[string, int]{
		WithExpiration[string, int](time.Minute),
		WithClock[string, int](clk.Now),
		WithLogger[string, int](log.New(os.Stderr, log.ErrorLevel)),
	}, opts...)
	return New(opts...)
}

func value(v int) *int { return &v }

func TestGetSet(t *testing.T) {
	c := testCache(&clock{now: time.Now()})
	ctx := context.Background()

	_, err := c.Get(ctx, "a")
	assert.True(t, errors.Is(err, cache.ErrCacheMiss))

	c.Set(ctx, "a", value(1))
	got, err := c.Get(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 1, *got)
	assert.Equal(t, 1, c.Len())

	c.Invalidate(ctx, "a")
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	assert.Equal(t, 0, c.Len())
}

func TestExpiration(t *testing.T) {
	ctx := context.Background()
	t.Run("sliding", func(t *testing.T) {
		clk := &clock{now: time.Now()}
		c := testCache(clk)
		c.Set(ctx, "a", value(1))
		for range 3 {
			clk.advance(50 * time.Second)
			_, err := c.Get(ctx, "a")
			assert.NoError(t, err, "access extends the expiration")
		}
		clk.advance(61 * time.Second)
		_, err := c.Get(ctx, "a")
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
		assert.Equal(t, 0, c.Len(), "expired entry is removed")
	})
	t.Run("fixed", func(t *testing.T) {
		clk := &clock{now: time.Now()}
		c := testCache(clk, WithSliding[string, int](false))
		c.Set(ctx, "a", value(1))
		clk.advance(50 * time.Second)
		_, err := c.Get(ctx, "a")
		assert.NoError(t, err)
		clk.advance(50 * time.Second)
		_, err = c.Get(ctx, "a")
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: time.Now()}
	c := testCache(clk)
	c.Set(ctx, "a", value(1))
	clk.advance(30 * time.Second)
	c.Set(ctx, "b", value(2))
	clk.advance(40 * time.Second)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
	_, err := c.Get(ctx, "b")
	assert.NoError(t, err)
}
