// Package pgstore implements store.Store over PostgreSQL: one row per
// artifact in kurral_artifacts, with the full canonical payload alongside
// indexed columns for run_id/tenant_id/created_at lookups. Schema is
// ported from the original kurral_runs table design (original_source's
// PostgreSQL storage module) adapted to Go's pgx driver.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/store"
)

// pool is the subset of *pgxpool.Pool's surface Store depends on, narrowed
// so tests can supply a fake without standing up a real database.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Schema is the DDL a deployment must apply before using Store. It is not
// executed automatically: migrations are an operational concern owned by
// the deployment, not the library.
const Schema = `
CREATE TABLE IF NOT EXISTS kurral_artifacts (
	kurral_id        TEXT PRIMARY KEY,
	run_id           TEXT NOT NULL,
	tenant_id        TEXT NOT NULL,
	semantic_buckets TEXT[],
	created_at       TIMESTAMPTZ NOT NULL,
	payload          BYTEA NOT NULL,
	pending          BOOLEAN NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS kurral_artifacts_run_id_idx ON kurral_artifacts (run_id);
CREATE INDEX IF NOT EXISTS kurral_artifacts_tenant_created_idx ON kurral_artifacts (tenant_id, created_at DESC);
`

// Store is a PostgreSQL-backed store.Store implementation.
type Store struct {
	pool pool
}

// New wraps an existing connection pool. The caller owns the pool's
// lifecycle (including Close).
func New(p *pgxpool.Pool) *Store {
	return &Store{pool: p}
}

// Put upserts a's payload and index columns, marking the row visible
// (pending = false).
func (s *Store) Put(ctx context.Context, a artifact.SealedArtifact) error {
	return s.upsert(ctx, a, false)
}

// PutPartial upserts a's payload marked pending = true, so Get/GetByRunID/
// ListByTenant/ListAll (all of which filter on pending = false) never
// surface it until Promote finalizes the same ID.
func (s *Store) PutPartial(ctx context.Context, a artifact.SealedArtifact) error {
	return s.upsert(ctx, a, true)
}

// Promote finalizes a, marking its row visible (pending = false) and
// overwriting whatever PutPartial had stashed for that ID.
func (s *Store) Promote(ctx context.Context, a artifact.SealedArtifact) error {
	return s.upsert(ctx, a, false)
}

func (s *Store) upsert(ctx context.Context, a artifact.SealedArtifact, pending bool) error {
	payload, err := artifact.Serialize(a)
	if err != nil {
		return fmt.Errorf("store/pgstore: put: serialize: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO kurral_artifacts (kurral_id, run_id, tenant_id, semantic_buckets, created_at, payload, pending)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (kurral_id) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			tenant_id = EXCLUDED.tenant_id,
			semantic_buckets = EXCLUDED.semantic_buckets,
			created_at = EXCLUDED.created_at,
			payload = EXCLUDED.payload,
			pending = EXCLUDED.pending
	`, a.ID, a.RunID, a.TenantID, a.SemanticBuckets, a.CreatedAt, payload, pending)
	if err != nil {
		return fmt.Errorf("store/pgstore: put: %w", err)
	}
	return nil
}

// Get fetches and deserializes the artifact with the given ID.
func (s *Store) Get(ctx context.Context, id string) (artifact.SealedArtifact, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM kurral_artifacts WHERE kurral_id = $1 AND pending = false`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("store/pgstore: get: %w", err)
	}
	return artifact.Deserialize(payload)
}

// GetByRunID returns the most recently created artifact for runID.
func (s *Store) GetByRunID(ctx context.Context, runID string) (artifact.SealedArtifact, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM kurral_artifacts WHERE run_id = $1 AND pending = false ORDER BY created_at DESC LIMIT 1
	`, runID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("store/pgstore: get by run id: %w", err)
	}
	return artifact.Deserialize(payload)
}

// ListByTenant returns index entries for tenantID, newest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]store.IndexEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT kurral_id, run_id, tenant_id, semantic_buckets, created_at
		FROM kurral_artifacts WHERE tenant_id = $1 AND pending = false ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("store/pgstore: list by tenant: %w", err)
	}
	defer rows.Close()

	var out []store.IndexEntry
	for rows.Next() {
		var e store.IndexEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.TenantID, &e.SemanticBuckets, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("store/pgstore: list by tenant: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store/pgstore: list by tenant: %w", err)
	}
	return out, nil
}

// ListAll returns index entries across every tenant, newest first, bounded
// to limit entries (0 means no bound).
func (s *Store) ListAll(ctx context.Context, limit int) ([]store.IndexEntry, error) {
	sql := `SELECT kurral_id, run_id, tenant_id, semantic_buckets, created_at FROM kurral_artifacts WHERE pending = false ORDER BY created_at DESC`
	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = s.pool.Query(ctx, sql+` LIMIT $1`, limit)
	} else {
		rows, err = s.pool.Query(ctx, sql)
	}
	if err != nil {
		return nil, fmt.Errorf("store/pgstore: list all: %w", err)
	}
	defer rows.Close()

	var out []store.IndexEntry
	for rows.Next() {
		var e store.IndexEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.TenantID, &e.SemanticBuckets, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("store/pgstore: list all: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store/pgstore: list all: %w", err)
	}
	return out, nil
}

// Delete removes the artifact row with the given ID, if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM kurral_artifacts WHERE kurral_id = $1`, id); err != nil {
		return fmt.Errorf("store/pgstore: delete: %w", err)
	}
	return nil
}
