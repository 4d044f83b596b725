package event

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
)

const (
	defaultWorkers     = 1
	defaultBaseBackoff = 100 * time.Millisecond
	defaultMaxBackoff  = 30 * time.Second

	// maxAbandoned bounds the list of events kept for Abandoned.
	maxAbandoned = 100
)

// Handler reaps the object named by one orphan event.
type Handler interface {
	Handle(ctx context.Context, event entity.OrphanEvent) error
}

type ConsumerConfig struct {
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// ReaperConsumer drains the bus with a fixed pool of workers. A failing event
// is retried with capped exponential backoff, and an object already being
// reaped by another worker is not reaped twice at the same time.
type ReaperConsumer struct {
	bus     *Bus
	handler Handler
	cfg     ConsumerConfig
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	inflight  map[string]struct{}
	abandoned []entity.OrphanEvent
	skipped   atomic.Int64
}

func NewReaperConsumer(bus *Bus, handler Handler, cfg ConsumerConfig) *ReaperConsumer {
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	cfg.MaxRetries = max(cfg.MaxRetries, 0)
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaultBaseBackoff
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = max(defaultMaxBackoff, cfg.BaseBackoff)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ReaperConsumer{
		bus:      bus,
		handler:  handler,
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
	}
}

func (c *ReaperConsumer) Start() {
	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for event := range c.bus.Events() {
				c.process(event)
			}
		}()
	}
}

// Stop closes the bus and waits for queued events to drain. When ctx is done
// first, pending retries and queued events are abandoned.
func (c *ReaperConsumer) Stop(ctx context.Context) error {
	c.bus.Close()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		slog.WarnContext(ctx, "orphan reaper stopped before draining", "queued", c.bus.Pending())
	}
	c.cancel()

	if abandoned := c.Abandoned(); len(abandoned) > 0 {
		names := make([]string, len(abandoned))
		for i, e := range abandoned {
			names[i] = e.ObjectName
		}
		slog.ErrorContext(ctx, "orphan objects left in the object store", "objects", names)
	}

	return err
}

// Abandoned returns the most recent events that exhausted their retries.
func (c *ReaperConsumer) Abandoned() []entity.OrphanEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]entity.OrphanEvent, len(c.abandoned))
	copy(out, c.abandoned)
	return out
}

func (c *ReaperConsumer) process(event entity.OrphanEvent) {
	if !c.acquire(event.ObjectName) {
		c.skipped.Add(1)
		slog.Info("orphan object already being reaped", "event_id", event.EventID, "object", event.ObjectName)
		return
	}
	defer c.release(event.ObjectName)

	backoff := c.cfg.BaseBackoff
	for attempt := 0; ; attempt++ {
		err := c.handler.Handle(c.ctx, event)
		if err == nil {
			return
		}

		if attempt == c.cfg.MaxRetries {
			slog.Error("giving up on orphan object", "event_id", event.EventID, "object", event.ObjectName, "attempts", attempt+1, "error", err)
			c.abandon(event)
			return
		}

		slog.Warn("orphan reaping failed, retrying", "event_id", event.EventID, "object", event.ObjectName, "backoff", backoff, "error", err)
		if !sleepBackoff(c.ctx, backoff) {
			slog.Warn("orphan reaping abandoned on shutdown", "event_id", event.EventID, "object", event.ObjectName)
			c.abandon(event)
			return
		}
		backoff = min(backoff*2, c.cfg.MaxBackoff)
	}
}

func (c *ReaperConsumer) acquire(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inflight[name]; busy {
		return false
	}
	c.inflight[name] = struct{}{}
	return true
}

func (c *ReaperConsumer) release(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inflight, name)
}

func (c *ReaperConsumer) abandon(event entity.OrphanEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.abandoned) == maxAbandoned {
		c.abandoned = c.abandoned[1:]
	}
	c.abandoned = append(c.abandoned, event)
}

func sleepBackoff(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
