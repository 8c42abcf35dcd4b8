package expiring

import (
	"context"
	"sync"
	"time"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/utils/cache"
)

type (
	Option[K comparable, V any] func(*config[K, V])
	item[T any]                 struct {
		data    T
		expires time.Time
	}
	config[K comparable, V any] struct {
		expiration time.Duration
		sliding    bool
		now        func() time.Time
		l          *log.Logger
	}
	// Cache keeps entries in memory until they expire
	Cache[K comparable, V any] struct {
		mutex  sync.Mutex
		items  map[K]item[*V]
		config *config[K, V]
	}
)

func WithExpiration[K comparable, V any](expiration time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.expiration = expiration
	}
}

// WithSliding extends the expiration of an entry on each Get
func WithSliding[K comparable, V any](sliding bool) Option[K, V] {
	return func(c *config[K, V]) {
		c.sliding = sliding
	}
}

func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *config[K, V]) {
		c.now = now
	}
}

func WithLogger[K comparable, V any](arg *log.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		c.l = arg
	}
}

var _ cache.Cache[string, int] = (*Cache[string, int])(nil)

func New[K comparable, V any](opts ...Option[K, V]) *Cache[K, V] {
	c := &config[K, V]{
		expiration: 30 * time.Minute,
		sliding:    true,
		now:        time.Now,
		l:          log.Default().Named("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return &Cache[K, V]{
		items:  make(map[K]item[*V]),
		config: c,
	}
}

func (c *Cache[K, V]) Get(ctx context.Context, key K) (*V, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	cacheItem, ok := c.items[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	now := c.config.now()
	if cacheItem.expires.Before(now) {
		c.config.l.Debug("entry expired", log.Any("key", key))
		delete(c.items, key)
		return nil, cache.ErrCacheMiss
	}
	if c.config.sliding {
		cacheItem.expires = now.Add(c.config.expiration)
		c.items[key] = cacheItem
	}
	return cacheItem.data, nil
}

func (c *Cache[K, V]) Set(ctx context.Context, key K, value *V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items[key] = item[*V]{data: value, expires: c.config.now().Add(c.config.expiration)}
	c.config.l.Debug("Set", log.Any("key", key), log.Int("items", len(c.items)))
}

func (c *Cache[K, V]) Invalidate(ctx context.Context, key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
	c.config.l.Debug("Invalidate", log.Any("key", key), log.Int("remain items", len(c.items)))
}

func (c *Cache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}

// Sweep removes all expired entries and returns how many were removed
func (c *Cache[K, V]) Sweep() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	now := c.config.now()
	removed := 0
	for k, v := range c.items {
		if v.expires.Before(now) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

// Run sweeps the cache every interval until ctx is done
func (c *Cache[K, V]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.config.l.Debug("removed expired entries", log.Int("count", n))
			}
		}
	}
}
