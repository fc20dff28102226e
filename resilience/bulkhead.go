package resilience

import (
	"context"
)

// Bulkhead bounds the number of concurrent holders. A bulkhead created with
// a limit <= 0 never blocks.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead admitting at most limit holders.
func NewBulkhead(limit int) *Bulkhead {
	if limit <= 0 {
		return &Bulkhead{}
	}
	return &Bulkhead{sem: make(chan struct{}, limit)}
}

// Acquire waits for a slot. The returned release must be called exactly once.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	if b.sem == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return func() {}, nil
	}
	select {
	case b.sem <- struct{}{}:
		return func() { <-b.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InUse returns the number of slots currently held.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// Limit returns the configured limit, 0 when unbounded.
func (b *Bulkhead) Limit() int {
	return cap(b.sem)
}
