// Package memory implements store.Store as an in-memory LRU with size and
// count caps, for tests and local development.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/store"
)

// Config bounds the LRU's retention.
type Config struct {
	// MaxCount caps the number of retained artifacts. Zero means unbounded.
	MaxCount int
	// MaxBytes caps the total serialized size of retained artifacts. Zero
	// means unbounded.
	MaxBytes int64
}

type record struct {
	artifact artifact.SealedArtifact
	size     int64
	elem     *list.Element
}

// Store is an in-memory, LRU-evicting store.Store implementation.
type Store struct {
	cfg Config

	mu        sync.Mutex
	byID      map[string]*record
	order     *list.List // front = most recently used
	totalSize int64
	partial   map[string]artifact.SealedArtifact
}

// New returns an empty Store bounded by cfg.
func New(cfg Config) *Store {
	return &Store{
		cfg:     cfg,
		byID:    make(map[string]*record),
		order:   list.New(),
		partial: make(map[string]artifact.SealedArtifact),
	}
}

// Put inserts or overwrites a, evicting least-recently-used entries until
// the configured caps are satisfied.
func (s *Store) Put(ctx context.Context, a artifact.SealedArtifact) error {
	payload, err := artifact.Serialize(a)
	if err != nil {
		return err
	}
	size := int64(len(payload))

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byID[a.ID]; ok {
		s.order.Remove(existing.elem)
		s.totalSize -= existing.size
		delete(s.byID, a.ID)
	}

	elem := s.order.PushFront(a.ID)
	rec := &record{artifact: a, size: size, elem: elem}
	s.byID[a.ID] = rec
	s.totalSize += size

	s.evictLocked()
	return nil
}

// PutPartial stashes a under a not-yet-visible key, exempt from LRU
// eviction and invisible to Get/GetByRunID/ListByTenant/ListAll until
// Promote is called with the same ID.
func (s *Store) PutPartial(ctx context.Context, a artifact.SealedArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partial[a.ID] = a
	return nil
}

// Promote finalizes a, making it visible under its real ID and discarding
// whatever PutPartial had stashed for that ID.
func (s *Store) Promote(ctx context.Context, a artifact.SealedArtifact) error {
	if err := s.Put(ctx, a); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.partial, a.ID)
	s.mu.Unlock()
	return nil
}

func (s *Store) evictLocked() {
	for {
		if s.cfg.MaxCount > 0 && len(s.byID) > s.cfg.MaxCount {
			s.evictOneLocked()
			continue
		}
		if s.cfg.MaxBytes > 0 && s.totalSize > s.cfg.MaxBytes {
			s.evictOneLocked()
			continue
		}
		return
	}
}

func (s *Store) evictOneLocked() {
	back := s.order.Back()
	if back == nil {
		return
	}
	id := back.Value.(string)
	if rec, ok := s.byID[id]; ok {
		s.totalSize -= rec.size
		delete(s.byID, id)
	}
	s.order.Remove(back)
}

// Get returns the artifact with the given ID, marking it most-recently-used.
func (s *Store) Get(ctx context.Context, id string) (artifact.SealedArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	s.order.MoveToFront(rec.elem)
	return rec.artifact, nil
}

// GetByRunID scans for the most recently created artifact with the given
// run ID.
func (s *Store) GetByRunID(ctx context.Context, runID string) (artifact.SealedArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *record
	for _, rec := range s.byID {
		if rec.artifact.RunID != runID {
			continue
		}
		if best == nil || rec.artifact.CreatedAt.After(best.artifact.CreatedAt) {
			best = rec
		}
	}
	if best == nil {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	return best.artifact, nil
}

// ListByTenant returns index entries for tenantID, newest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]store.IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.IndexEntry
	for _, rec := range s.byID {
		if rec.artifact.TenantID == tenantID {
			out = append(out, store.EntryFromArtifact(rec.artifact))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListAll returns index entries across every tenant, newest first, bounded
// to limit entries (0 means no bound).
func (s *Store) ListAll(ctx context.Context, limit int) ([]store.IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.IndexEntry, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, store.EntryFromArtifact(rec.artifact))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes the artifact with the given ID, if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil
	}
	s.order.Remove(rec.elem)
	s.totalSize -= rec.size
	delete(s.byID, id)
	return nil
}
