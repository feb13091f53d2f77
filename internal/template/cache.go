package template

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Cache holds prepared templates keyed by template ID, which is derived
// from (dialect, table fingerprint, template text).
//
// Cache is safe for concurrent use. Concurrent first requests for the same
// key prepare once and share the result. Failed prepares are not cached.
type Cache struct {
	entries sync.Map // uuid string -> *Template
	group   singleflight.Group
	opts    []Option
	logger  *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache returns an empty cache. opts are passed to every Prepare.
func NewCache(opts ...Option) *Cache {
	return &Cache{opts: opts, logger: newConfig(opts).logger}
}

// Get returns the prepared template for text and ctx, preparing it on
// first use.
func (c *Cache) Get(text string, ctx Context) (*Template, error) {
	key := TemplateID(text, ctx).String()
	if v, ok := c.entries.Load(key); ok {
		c.hits.Add(1)
		return v.(*Template), nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		if v, ok := c.entries.Load(key); ok {
			return v, nil
		}
		c.misses.Add(1)
		c.logger.Debug("template cache miss", "id", key, "dialect", ctx.Dialect.Name)
		t, err := Prepare(text, ctx, c.opts...)
		if err != nil {
			return nil, err
		}
		c.entries.Store(key, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("template prepare shared", "id", key)
	}
	return v.(*Template), nil
}

// Render prepares text through the cache and renders it with b.
func (c *Cache) Render(text string, ctx Context, b Bindings) (*Rendered, error) {
	t, err := c.Get(text, ctx)
	if err != nil {
		return nil, err
	}
	return t.Render(b)
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Stats returns cache hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
