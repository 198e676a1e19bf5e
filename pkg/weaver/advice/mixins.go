package advice

import (
	"context"
	"sync"
)

// HasContext is implemented by types carrying a context across calls
type HasContext interface {
	Context() context.Context
	SetContext(ctx context.Context)
}

// ContextCarrier is the embeddable implementation of HasContext
type ContextCarrier struct {
	mu  sync.RWMutex
	ctx context.Context
}

var _ HasContext = (*ContextCarrier)(nil)

// Context returns the carried context, or context.Background if none was set
func (c *ContextCarrier) Context() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// SetContext replaces the carried context
func (c *ContextCarrier) SetContext(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = ctx
}
