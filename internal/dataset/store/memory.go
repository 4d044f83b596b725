package store

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgerror"
)

// InMemoryIndex is a Metadata Index kept in process memory. IDs are assigned
// sequentially starting at 1.
type InMemoryIndex struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]entity.Dataset
	now     func() time.Time
}

func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{
		records: make(map[int64]entity.Dataset),
		now:     time.Now,
	}
}

func (s *InMemoryIndex) Insert(ctx context.Context, rec entity.Dataset) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Durable() {
		for _, cur := range s.records {
			if cur.Name == rec.Name && cur.Durable() {
				return 0, fmt.Errorf("insert dataset %q: %w", rec.Name, pkgerror.ErrConflict)
			}
		}
	}

	s.nextID++
	rec.ID = s.nextID
	rec.UploadTime = s.now().UTC()
	s.records[rec.ID] = rec

	return rec.ID, nil
}

func (s *InMemoryIndex) Get(ctx context.Context, id int64) (entity.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return entity.Dataset{}, pkgerror.ErrNotFound
	}

	return rec, nil
}

func (s *InMemoryIndex) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return pkgerror.ErrNotFound
	}
	delete(s.records, id)

	return nil
}

func (s *InMemoryIndex) ListActive(ctx context.Context) ([]entity.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Dataset, 0, len(s.records))
	for _, rec := range s.records {
		if !rec.Durable() {
			continue
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b entity.Dataset) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	return out, nil
}

// InMemoryObjectStore keeps object bytes in a map. Stored and returned slices
// are copies.
type InMemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewInMemoryObjectStore() *InMemoryObjectStore {
	return &InMemoryObjectStore{
		objects: make(map[string][]byte),
	}
}

func (s *InMemoryObjectStore) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[name]
	if !ok {
		return nil, pkgerror.ErrNotFound
	}

	return bytes.Clone(data), nil
}

func (s *InMemoryObjectStore) Put(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[name] = bytes.Clone(data)

	return nil
}

// Delete removes name. Deleting an absent object succeeds.
func (s *InMemoryObjectStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, name)

	return nil
}

func (s *InMemoryObjectStore) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[name]

	return ok, nil
}

// Names lists the stored object names in lexical order.
func (s *InMemoryObjectStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}
