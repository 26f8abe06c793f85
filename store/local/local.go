// Package local implements store.Store over a local filesystem directory:
// one JSON file per artifact (<id>.kurral) plus a sidecar index.json
// mirroring the fields needed for run_id lookup and tenant listing. A run_id
// lookup scans the index entries; it does not read artifact payloads.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/store"
)

const indexFileName = "index.json"

// Store is a local-filesystem store.Store implementation.
type Store struct {
	dir      string
	indexPath string
}

// New returns a Store rooted at dir, creating dir if it does not exist.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store/local: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir, indexPath: filepath.Join(dir, indexFileName)}, nil
}

func (s *Store) artifactPath(id string) string {
	return filepath.Join(s.dir, id+".kurral")
}

func (s *Store) partialPath(id string) string {
	return filepath.Join(s.dir, id+".partial.kurral")
}

// Put writes a's payload atomically (write-to-temp, fsync, rename; the
// temp file is unlinked on failure) and updates the sidecar index under an
// exclusive file lock.
func (s *Store) Put(ctx context.Context, a artifact.SealedArtifact) error {
	payload, err := artifact.Serialize(a)
	if err != nil {
		return fmt.Errorf("store/local: put: serialize: %w", err)
	}
	if err := atomicWrite(s.artifactPath(a.ID), payload); err != nil {
		return fmt.Errorf("store/local: put: %w", err)
	}
	if err := s.updateIndex(func(idx *store.Index) {
		entries := idx.Artifacts[:0]
		replaced := false
		for _, e := range idx.Artifacts {
			if e.ID == a.ID {
				entries = append(entries, store.EntryFromArtifact(a))
				replaced = true
				continue
			}
			entries = append(entries, e)
		}
		if !replaced {
			entries = append(entries, store.EntryFromArtifact(a))
		}
		idx.Artifacts = entries
	}); err != nil {
		return fmt.Errorf("store/local: put: index: %w", err)
	}
	return nil
}

// PutPartial writes a's payload to a path outside the <id>.kurral
// namespace Get/ListAll/ListByTenant read from, so the artifact is not
// yet visible. It does not touch the sidecar index.
func (s *Store) PutPartial(ctx context.Context, a artifact.SealedArtifact) error {
	payload, err := artifact.Serialize(a)
	if err != nil {
		return fmt.Errorf("store/local: put partial: serialize: %w", err)
	}
	if err := atomicWrite(s.partialPath(a.ID), payload); err != nil {
		return fmt.Errorf("store/local: put partial: %w", err)
	}
	return nil
}

// Promote performs the real Put, then removes whatever PutPartial had
// stashed for a.ID, if anything.
func (s *Store) Promote(ctx context.Context, a artifact.SealedArtifact) error {
	if err := s.Put(ctx, a); err != nil {
		return fmt.Errorf("store/local: promote: %w", err)
	}
	if err := os.Remove(s.partialPath(a.ID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store/local: promote: remove partial: %w", err)
	}
	return nil
}

// Get reads and deserializes the artifact with the given ID.
func (s *Store) Get(ctx context.Context, id string) (artifact.SealedArtifact, error) {
	data, err := os.ReadFile(s.artifactPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("store/local: get: %w", err)
	}
	a, err := artifact.Deserialize(data)
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("store/local: get: %w", err)
	}
	return a, nil
}

// GetByRunID resolves runID via the index, returning the most recently
// created match.
func (s *Store) GetByRunID(ctx context.Context, runID string) (artifact.SealedArtifact, error) {
	idx, err := s.readIndex()
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("store/local: get by run id: %w", err)
	}
	var best *store.IndexEntry
	for i := range idx.Artifacts {
		e := idx.Artifacts[i]
		if e.RunID != runID {
			continue
		}
		if best == nil || e.CreatedAt.After(best.CreatedAt) {
			best = &idx.Artifacts[i]
		}
	}
	if best == nil {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	return s.Get(ctx, best.ID)
}

// ListByTenant returns index entries for tenantID, newest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]store.IndexEntry, error) {
	idx, err := s.readIndex()
	if err != nil {
		return nil, fmt.Errorf("store/local: list by tenant: %w", err)
	}
	var out []store.IndexEntry
	for _, e := range idx.Artifacts {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListAll returns index entries across every tenant, newest first, bounded
// to limit entries (0 means no bound).
func (s *Store) ListAll(ctx context.Context, limit int) ([]store.IndexEntry, error) {
	idx, err := s.readIndex()
	if err != nil {
		return nil, fmt.Errorf("store/local: list all: %w", err)
	}
	out := append([]store.IndexEntry(nil), idx.Artifacts...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes the artifact payload and its index entry, if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.artifactPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store/local: delete: %w", err)
	}
	return s.updateIndex(func(idx *store.Index) {
		entries := idx.Artifacts[:0]
		for _, e := range idx.Artifacts {
			if e.ID != id {
				entries = append(entries, e)
			}
		}
		idx.Artifacts = entries
	})
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// updateIndex reads the current index (empty if absent), applies mutate,
// and writes it back, all while holding an exclusive flock on a lock file
// sibling to index.json so concurrent processes serialize their updates.
func (s *Store) updateIndex(mutate func(*store.Index)) error {
	lock := flock.New(s.indexPath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock index: %w", err)
	}
	defer lock.Unlock()

	idx, err := s.readIndexLocked()
	if err != nil {
		return err
	}
	mutate(&idx)
	idx.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	return atomicWrite(s.indexPath, payload)
}

func (s *Store) readIndex() (store.Index, error) {
	lock := flock.New(s.indexPath + ".lock")
	if err := lock.RLock(); err != nil {
		return store.Index{}, fmt.Errorf("rlock index: %w", err)
	}
	defer lock.Unlock()
	return s.readIndexLocked()
}

func (s *Store) readIndexLocked() (store.Index, error) {
	data, err := os.ReadFile(s.indexPath)
	if errors.Is(err, os.ErrNotExist) {
		return store.Index{}, nil
	}
	if err != nil {
		return store.Index{}, fmt.Errorf("read index: %w", err)
	}
	var idx store.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return store.Index{}, fmt.Errorf("decode index: %w", err)
	}
	return idx, nil
}
