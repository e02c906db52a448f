package greeting

import (
	"context"
	"sync"
)

// Cache answers immediately with the last greeting it has for a role (or
// the fallback) and refreshes in the background. Callers never wait on the
// underlying generator.
type Cache struct {
	ctx      context.Context
	gen      Generator
	fallback func(Role) string

	mu       sync.Mutex
	latest   map[Role]string
	inflight map[Role]bool
}

// NewCache wraps gen. Background refreshes stop when ctx ends.
func NewCache(ctx context.Context, gen Generator, fallback func(Role) string) *Cache {
	return &Cache{
		ctx:      ctx,
		gen:      gen,
		fallback: fallback,
		latest:   make(map[Role]string),
		inflight: make(map[Role]bool),
	}
}

// Greeting implements Generator without blocking.
func (c *Cache) Greeting(_ context.Context, role Role) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	text, ok := c.latest[role]
	if !ok {
		text = c.fallback(role)
	}

	if !c.inflight[role] && c.ctx.Err() == nil {
		c.inflight[role] = true
		go c.refresh(role)
	}
	return text
}

func (c *Cache) refresh(role Role) {
	text := c.gen.Greeting(c.ctx, role)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[role] = false
	if c.ctx.Err() == nil {
		c.latest[role] = text
	}
}
