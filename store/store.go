// Package store defines the Artifact Store facade: a key-value interface
// over sealed artifacts, backed by one of a local filesystem, object
// storage, an in-memory LRU, or a SQL/NoSQL index.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kurral/kurral/artifact"
)

// ErrNotFound is returned by Get/GetByRunID when no artifact matches.
var ErrNotFound = errors.New("store: artifact not found")

// IndexEntry is the sidecar index record mirrored for every stored
// artifact, enabling lookup by run_id and listing by tenant without reading
// full artifact payloads. The entries form a list, not a keyed map, so the
// file-based backends scan them for a run_id rather than look it up in O(1).
type IndexEntry struct {
	ID              string    `json:"kurral_id"`
	RunID           string    `json:"run_id"`
	CreatedAt       time.Time `json:"created_at"`
	TenantID        string    `json:"tenant_id"`
	SemanticBuckets []string  `json:"semantic_buckets,omitempty"`
}

// Index is the on-disk/sidecar shape of a store's full index.
type Index struct {
	Artifacts []IndexEntry `json:"artifacts"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// EntryFromArtifact builds the index entry mirrored for a.
func EntryFromArtifact(a artifact.SealedArtifact) IndexEntry {
	return IndexEntry{
		ID:              a.ID,
		RunID:           a.RunID,
		CreatedAt:       a.CreatedAt,
		TenantID:        a.TenantID,
		SemanticBuckets: a.SemanticBuckets,
	}
}

// Store is the facade every backend implements.
type Store interface {
	// Put persists a, overwriting any existing artifact with the same ID.
	Put(ctx context.Context, a artifact.SealedArtifact) error
	// PutPartial persists a under a not-yet-visible key: Get, GetByRunID,
	// ListByTenant, and ListAll must not return it until Promote finalizes
	// the same ID. Used by package capture's seal-then-enrich pipeline so a
	// reader polling the store during the enrichment settle window sees no
	// entry at all, rather than a half-enriched one that then silently
	// changes underneath it.
	PutPartial(ctx context.Context, a artifact.SealedArtifact) error
	// Promote finalizes a, making it visible under its real ID and
	// discarding whatever PutPartial had stashed for that ID. Equivalent to
	// Put when called without a prior PutPartial.
	Promote(ctx context.Context, a artifact.SealedArtifact) error
	// Get returns the artifact with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (artifact.SealedArtifact, error)
	// GetByRunID returns the artifact with the given run ID via the index,
	// or ErrNotFound. When multiple artifacts share a run ID, the most
	// recently created one is returned.
	GetByRunID(ctx context.Context, runID string) (artifact.SealedArtifact, error)
	// ListByTenant returns index entries for tenantID, newest first.
	ListByTenant(ctx context.Context, tenantID string) ([]IndexEntry, error)
	// ListAll returns index entries across every tenant, newest first,
	// bounded to limit entries (0 means no bound). Used by operator-facing
	// tooling (e.g. the kurral CLI's list command) that browses a store
	// without knowing a tenant ID up front.
	ListAll(ctx context.Context, limit int) ([]IndexEntry, error)
	// Delete removes the artifact with the given ID, if present.
	Delete(ctx context.Context, id string) error
}
