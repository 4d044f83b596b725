package pkgroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 10

// Manager runs named background tasks with a concurrency limit. Returned
// errors and recovered panics are collected and reported by Wait.
type Manager struct {
	slots chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	errs    []error
	running map[string]int
}

// NewManager creates a Manager running at most limit tasks at once.
func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = DefaultMaxGoroutine
	}

	return &Manager{
		slots:   make(chan struct{}, limit),
		running: make(map[string]int),
	}
}

// Go runs f in a new goroutine once a slot is free. If ctx is done before a
// slot frees up, or before f starts, f is not run.
func (m *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) {
	select {
	case m.slots <- struct{}{}:
	case <-ctx.Done():
		slog.WarnContext(ctx, "task not scheduled", "task", name, "because", ctx.Err())
		return
	}

	m.wg.Add(1)
	m.track(name, 1)

	go func() {
		start := time.Now()
		defer m.wg.Done()
		defer func() {
			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "panic in background task", "task", name, "panic", rvr, "stack", string(debug.Stack()))
				m.fail(fmt.Errorf("%s: panic: %v", name, rvr))
			}
			m.track(name, -1)
			<-m.slots
			slog.DebugContext(ctx, "task finished", "task", name, "elapsed_ms", time.Since(start).Milliseconds())
		}()

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "task canceled before start", "task", name, "because", err)
			return
		}
		if err := f(ctx); err != nil {
			m.fail(fmt.Errorf("%s: %w", name, err))
		}
	}()
}

// Running lists the names of tasks currently holding a slot, sorted. A name
// appears once per running instance.
func (m *Manager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.running))
	for name, n := range m.running {
		for i := 0; i < n; i++ {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Wait blocks until every scheduled task finishes and joins their errors.
func (m *Manager) Wait() error {
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.errs...)
}

func (m *Manager) track(name string, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running[name] += delta
	if m.running[name] <= 0 {
		delete(m.running, name)
	}
}

func (m *Manager) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errs = append(m.errs, err)
}
