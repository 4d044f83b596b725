package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgerror"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)}
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

type seqTokens struct {
	n atomic.Int64
}

func (s *seqTokens) Generate() string {
	return fmt.Sprintf("h%d", s.n.Add(1))
}

func newTestCache(clock *fakeClock, maxEntries int) *StagingCache {
	return NewStagingCache(StagingConfig{
		TTL:        time.Minute,
		MaxEntries: maxEntries,
		Tokens:     &seqTokens{},
		Now:        clock.Now,
	})
}

func TestStagingCache_StageAndPeek(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	cache := newTestCache(clock, 0)

	staged, err := cache.Stage(ctx, []byte("payload"), "a.csv inner b.csv on id")
	if err != nil {
		t.Fatalf("Stage() err = %v", err)
	}
	if staged.Handle == "" {
		t.Fatal("Stage() returned empty handle")
	}
	if got := staged.ExpiresAt.Sub(staged.CreatedAt); got != time.Minute {
		t.Fatalf("Stage() ttl = %v, want 1m", got)
	}

	peeked, err := cache.Peek(ctx, staged.Handle)
	if err != nil {
		t.Fatalf("Peek() err = %v", err)
	}
	if string(peeked.Payload) != "payload" || peeked.Lineage != staged.Lineage {
		t.Fatalf("Peek() = %+v", peeked)
	}
}

func TestStagingCache_TTL(t *testing.T) {
	t.Parallel()

	if got := newTestCache(newFakeClock(), 0).TTL(); got != time.Minute {
		t.Fatalf("TTL() = %v, want %v", got, time.Minute)
	}
	if got := NewStagingCache(StagingConfig{}).TTL(); got != defaultStagingTTL {
		t.Fatalf("default TTL() = %v, want %v", got, defaultStagingTTL)
	}
}

func TestStagingCache_HandlesAreDistinct(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := NewStagingCache(StagingConfig{TTL: time.Minute})

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		staged, err := cache.Stage(ctx, nil, "")
		if err != nil {
			t.Fatalf("Stage() err = %v", err)
		}
		if len(staged.Handle) != 32 {
			t.Fatalf("handle %q is not 128-bit hex", staged.Handle)
		}
		if _, dup := seen[staged.Handle]; dup {
			t.Fatalf("duplicate handle %q", staged.Handle)
		}
		seen[staged.Handle] = struct{}{}
	}
}

func TestStagingCache_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	cache := newTestCache(clock, 0)

	staged, _ := cache.Stage(ctx, []byte("x"), "")

	clock.Advance(59 * time.Second)
	if _, err := cache.Peek(ctx, staged.Handle); err != nil {
		t.Fatalf("Peek() before expiry err = %v", err)
	}

	clock.Advance(time.Second)
	if _, err := cache.Peek(ctx, staged.Handle); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("Peek() after expiry err = %v, want ErrNotFound", err)
	}
	if _, err := cache.Claim(ctx, staged.Handle); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("Claim() after expiry err = %v, want ErrNotFound", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("Len() = %d, want expired entry removed", cache.Len())
	}
}

func TestStagingCache_Discard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := newTestCache(newFakeClock(), 0)

	staged, _ := cache.Stage(ctx, []byte("x"), "")
	if !cache.Discard(ctx, staged.Handle) {
		t.Fatal("Discard() = false, want true")
	}
	if cache.Discard(ctx, staged.Handle) {
		t.Fatal("second Discard() = true, want false")
	}
	if cache.Discard(ctx, "unknown") {
		t.Fatal("Discard(unknown) = true, want false")
	}
	if _, err := cache.Peek(ctx, staged.Handle); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("Peek() after discard err = %v, want ErrNotFound", err)
	}
}

func TestStagingCache_ClaimLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := newTestCache(newFakeClock(), 0)
	staged, _ := cache.Stage(ctx, []byte("x"), "")

	if _, err := cache.Claim(ctx, staged.Handle); err != nil {
		t.Fatalf("Claim() err = %v", err)
	}
	if _, err := cache.Claim(ctx, staged.Handle); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("second Claim() err = %v, want ErrNotFound", err)
	}
	if cache.Discard(ctx, staged.Handle) {
		t.Fatal("Discard() of claimed handle = true, want false")
	}

	cache.Release(ctx, staged.Handle)
	if _, err := cache.Claim(ctx, staged.Handle); err != nil {
		t.Fatalf("Claim() after Release err = %v", err)
	}

	cache.Commit(ctx, staged.Handle)
	if _, err := cache.Peek(ctx, staged.Handle); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("Peek() after Commit err = %v, want ErrNotFound", err)
	}
}

func TestStagingCache_ReleaseAfterExpiryDrops(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	cache := newTestCache(clock, 0)
	staged, _ := cache.Stage(ctx, []byte("x"), "")

	if _, err := cache.Claim(ctx, staged.Handle); err != nil {
		t.Fatalf("Claim() err = %v", err)
	}

	clock.Advance(2 * time.Minute)
	if n := cache.Sweep(ctx); n != 0 {
		t.Fatalf("Sweep() removed %d claimed entries", n)
	}

	cache.Release(ctx, staged.Handle)
	if cache.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", cache.Len())
	}
}

func TestStagingCache_Sweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	cache := newTestCache(clock, 0)

	_, _ = cache.Stage(ctx, nil, "")
	_, _ = cache.Stage(ctx, nil, "")
	clock.Advance(30 * time.Second)
	fresh, _ := cache.Stage(ctx, nil, "")
	clock.Advance(40 * time.Second)

	if n := cache.Sweep(ctx); n != 2 {
		t.Fatalf("Sweep() = %d, want 2", n)
	}
	if _, err := cache.Peek(ctx, fresh.Handle); err != nil {
		t.Fatalf("Peek() fresh err = %v", err)
	}
}

func TestStagingCache_MaxEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	cache := newTestCache(clock, 2)

	_, _ = cache.Stage(ctx, nil, "")
	_, _ = cache.Stage(ctx, nil, "")
	if _, err := cache.Stage(ctx, nil, ""); !errors.Is(err, pkgerror.ErrConflict) {
		t.Fatalf("Stage() when full err = %v, want ErrConflict", err)
	}

	clock.Advance(time.Minute)
	if _, err := cache.Stage(ctx, nil, ""); err != nil {
		t.Fatalf("Stage() after expiry err = %v", err)
	}
}

func TestStagingCache_ConcurrentClaimHasOneWinner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := newTestCache(newFakeClock(), 0)
	staged, _ := cache.Stage(ctx, []byte("x"), "")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Claim(ctx, staged.Handle); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("claim winners = %d, want 1", wins.Load())
	}
}

func TestStagingCache_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cache := newTestCache(newFakeClock(), 0)

	done := make(chan error, 1)
	go func() {
		done <- cache.Run(ctx, time.Millisecond)
	}()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
