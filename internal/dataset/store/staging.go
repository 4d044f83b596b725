package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgerror"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkguid"
)

const defaultStagingTTL = 10 * time.Minute

type StagingConfig struct {
	TTL        time.Duration
	MaxEntries int
	Tokens     pkguid.StringID
	Now        func() time.Time
}

// StagingCache holds computed merges under short-lived handles until they are
// promoted, discarded, or expire.
//
// A handle moves staged -> claimed -> gone. While claimed it is invisible to
// Claim and Discard, which keeps promotion of a single handle linearizable.
// Expiry is evaluated against the injected clock on every access and by Sweep.
type StagingCache struct {
	mu         sync.Mutex
	entries    map[string]*stagedEntry
	ttl        time.Duration
	maxEntries int
	tokens     pkguid.StringID
	now        func() time.Time
}

type stagedEntry struct {
	merge   entity.StagedMerge
	claimed bool
}

func NewStagingCache(cfg StagingConfig) *StagingCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultStagingTTL
	}

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = pkguid.NewToken()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	maxEntries := cfg.MaxEntries
	if maxEntries < 0 {
		maxEntries = 0
	}

	return &StagingCache{
		entries:    make(map[string]*stagedEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		tokens:     tokens,
		now:        now,
	}
}

// TTL is the lifetime given to every staged entry.
func (c *StagingCache) TTL() time.Duration {
	return c.ttl
}

// Stage stores payload under a fresh handle.
func (c *StagingCache) Stage(ctx context.Context, payload []byte, lineage string) (entity.StagedMerge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.sweepLocked(ctx, now)
		if len(c.entries) >= c.maxEntries {
			return entity.StagedMerge{}, fmt.Errorf("staging cache holds %d entries: %w", len(c.entries), pkgerror.ErrConflict)
		}
	}

	handle := c.tokens.Generate()
	if _, taken := c.entries[handle]; taken {
		return entity.StagedMerge{}, fmt.Errorf("staging handle collision: %w", pkgerror.ErrConflict)
	}

	merge := entity.StagedMerge{
		Handle:    handle,
		Payload:   payload,
		Lineage:   lineage,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.entries[handle] = &stagedEntry{merge: merge}

	return merge, nil
}

// Peek returns the staged merge without changing its state. Missing and
// expired handles both report pkgerror.ErrNotFound.
func (c *StagingCache) Peek(ctx context.Context, handle string) (entity.StagedMerge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.liveLocked(ctx, handle)
	if !ok {
		return entity.StagedMerge{}, pkgerror.ErrNotFound
	}

	return e.merge, nil
}

// Discard removes a staged handle and reports whether anything was removed.
// Claimed handles are left alone, so false also covers a handle claimed by an
// in-flight promote. If that promote fails and releases the claim, the handle
// is promotable again until it expires.
func (c *StagingCache) Discard(ctx context.Context, handle string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.liveLocked(ctx, handle)
	if !ok || e.claimed {
		return false
	}
	delete(c.entries, handle)

	return true
}

// Claim marks the handle as in flight and returns its merge. A second Claim
// before Release or Commit reports pkgerror.ErrNotFound.
func (c *StagingCache) Claim(ctx context.Context, handle string) (entity.StagedMerge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.liveLocked(ctx, handle)
	if !ok || e.claimed {
		return entity.StagedMerge{}, pkgerror.ErrNotFound
	}
	e.claimed = true

	return e.merge, nil
}

// Release returns a claimed handle to the staged state. A handle that expired
// while claimed is dropped instead.
func (c *StagingCache) Release(ctx context.Context, handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[handle]
	if !ok || !e.claimed {
		return
	}
	if c.expired(e, c.now()) {
		delete(c.entries, handle)
		slog.DebugContext(ctx, "staged merge expired while claimed", "handle", handle)
		return
	}
	e.claimed = false
}

// Commit destroys a claimed handle after a successful promotion.
func (c *StagingCache) Commit(ctx context.Context, handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, handle)
}

// Sweep drops every expired, unclaimed entry and returns how many were dropped.
func (c *StagingCache) Sweep(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sweepLocked(ctx, c.now())
}

// Len reports the number of entries, including claimed ones.
func (c *StagingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Run sweeps every interval until ctx is done.
func (c *StagingCache) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := c.Sweep(ctx); n > 0 {
				slog.DebugContext(ctx, "swept expired staged merges", "count", n)
			}
		}
	}
}

func (c *StagingCache) liveLocked(ctx context.Context, handle string) (*stagedEntry, bool) {
	e, ok := c.entries[handle]
	if !ok {
		return nil, false
	}
	if !e.claimed && c.expired(e, c.now()) {
		delete(c.entries, handle)
		slog.DebugContext(ctx, "staged merge expired", "handle", handle)
		return nil, false
	}

	return e, true
}

func (c *StagingCache) sweepLocked(ctx context.Context, now time.Time) int {
	n := 0
	for handle, e := range c.entries {
		if e.claimed || !c.expired(e, now) {
			continue
		}
		delete(c.entries, handle)
		slog.DebugContext(ctx, "staged merge expired", "handle", handle)
		n++
	}

	return n
}

func (c *StagingCache) expired(e *stagedEntry, now time.Time) bool {
	return !now.Before(e.merge.ExpiresAt)
}
