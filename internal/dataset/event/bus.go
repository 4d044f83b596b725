package event

import (
	"context"
	"errors"
	"sync"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
)

var ErrBusClosed = errors.New("event bus is closed")

// Bus is a bounded in-process queue of orphan events. Publish blocks while
// the buffer is full until ctx is done.
type Bus struct {
	mu     sync.RWMutex
	closed bool
	queue  chan entity.OrphanEvent
}

func NewBus(buffer int) *Bus {
	return &Bus{queue: make(chan entity.OrphanEvent, max(buffer, 1))}
}

// Publish implements usecase.OrphanPublisher.
func (b *Bus) Publish(ctx context.Context, event entity.OrphanEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events is closed by Close once queued events are drained.
func (b *Bus) Events() <-chan entity.OrphanEvent {
	return b.queue
}

// Pending reports how many events wait in the buffer.
func (b *Bus) Pending() int {
	return len(b.queue)
}

// Close rejects further publishes. It is safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.queue)
	}
}
