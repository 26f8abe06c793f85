// Package sqliteindex implements store.Store over a local SQLite database,
// for single-process deployments that want SQL query access without an
// external database server.
package sqliteindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/store"
)

// Store is a SQLite-backed store.Store implementation.
type Store struct {
	db *sql.DB
}

// New opens (creating if absent) a SQLite database at path and ensures the
// artifacts table exists.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store/sqliteindex: open: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS artifacts (
			kurral_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			semantic_buckets TEXT,
			created_at_unix INTEGER NOT NULL,
			payload BLOB NOT NULL,
			pending INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("store/sqliteindex: create table: %w", err)
	}
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts(run_id)",
		"CREATE INDEX IF NOT EXISTS idx_artifacts_tenant_created ON artifacts(tenant_id, created_at_unix)",
	}
	for _, idx := range indexes {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("store/sqliteindex: create index: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put upserts the row for a, marking it visible (pending = 0).
func (s *Store) Put(ctx context.Context, a artifact.SealedArtifact) error {
	return s.upsert(ctx, a, false)
}

// PutPartial upserts the row for a marked pending = 1, so Get/GetByRunID/
// ListByTenant/ListAll (all of which filter on pending = 0) never surface
// it until Promote finalizes the same ID.
func (s *Store) PutPartial(ctx context.Context, a artifact.SealedArtifact) error {
	return s.upsert(ctx, a, true)
}

// Promote finalizes a, marking its row visible (pending = 0) and
// overwriting whatever PutPartial had stashed for that ID.
func (s *Store) Promote(ctx context.Context, a artifact.SealedArtifact) error {
	return s.upsert(ctx, a, false)
}

func (s *Store) upsert(ctx context.Context, a artifact.SealedArtifact, pending bool) error {
	payload, err := artifact.Serialize(a)
	if err != nil {
		return fmt.Errorf("store/sqliteindex: put: serialize: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifacts (kurral_id, run_id, tenant_id, semantic_buckets, created_at_unix, payload, pending)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kurral_id) DO UPDATE SET
			run_id = excluded.run_id,
			tenant_id = excluded.tenant_id,
			semantic_buckets = excluded.semantic_buckets,
			created_at_unix = excluded.created_at_unix,
			payload = excluded.payload,
			pending = excluded.pending
	`, a.ID, a.RunID, a.TenantID, encodeBuckets(a.SemanticBuckets), a.CreatedAt.UnixNano(), payload, pending)
	if err != nil {
		return fmt.Errorf("store/sqliteindex: put: %w", err)
	}
	return nil
}

// Get fetches and deserializes the artifact with the given ID.
func (s *Store) Get(ctx context.Context, id string) (artifact.SealedArtifact, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM artifacts WHERE kurral_id = ? AND pending = 0`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("store/sqliteindex: get: %w", err)
	}
	return artifact.Deserialize(payload)
}

// GetByRunID returns the most recently created artifact for runID.
func (s *Store) GetByRunID(ctx context.Context, runID string) (artifact.SealedArtifact, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM artifacts WHERE run_id = ? AND pending = 0 ORDER BY created_at_unix DESC LIMIT 1
	`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("store/sqliteindex: get by run id: %w", err)
	}
	return artifact.Deserialize(payload)
}

// ListByTenant returns index entries for tenantID, newest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]store.IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kurral_id, run_id, tenant_id, semantic_buckets, created_at_unix
		FROM artifacts WHERE tenant_id = ? AND pending = 0 ORDER BY created_at_unix DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("store/sqliteindex: list by tenant: %w", err)
	}
	defer rows.Close()

	var out []store.IndexEntry
	for rows.Next() {
		var e store.IndexEntry
		var buckets string
		var createdAtUnix int64
		if err := rows.Scan(&e.ID, &e.RunID, &e.TenantID, &buckets, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("store/sqliteindex: list by tenant: scan: %w", err)
		}
		e.SemanticBuckets = decodeBuckets(buckets)
		e.CreatedAt = time.Unix(0, createdAtUnix).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store/sqliteindex: list by tenant: %w", err)
	}
	return out, nil
}

// ListAll returns index entries across every tenant, newest first, bounded
// to limit entries (0 means no bound).
func (s *Store) ListAll(ctx context.Context, limit int) ([]store.IndexEntry, error) {
	query := `SELECT kurral_id, run_id, tenant_id, semantic_buckets, created_at_unix FROM artifacts WHERE pending = 0 ORDER BY created_at_unix DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store/sqliteindex: list all: %w", err)
	}
	defer rows.Close()

	var out []store.IndexEntry
	for rows.Next() {
		var e store.IndexEntry
		var buckets string
		var createdAtUnix int64
		if err := rows.Scan(&e.ID, &e.RunID, &e.TenantID, &buckets, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("store/sqliteindex: list all: scan: %w", err)
		}
		e.SemanticBuckets = decodeBuckets(buckets)
		e.CreatedAt = time.Unix(0, createdAtUnix).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store/sqliteindex: list all: %w", err)
	}
	return out, nil
}

// Delete removes the row with the given ID, if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE kurral_id = ?`, id); err != nil {
		return fmt.Errorf("store/sqliteindex: delete: %w", err)
	}
	return nil
}

const bucketSeparator = "\x1f"

func encodeBuckets(buckets []string) string {
	out := ""
	for i, b := range buckets {
		if i > 0 {
			out += bucketSeparator
		}
		out += b
	}
	return out
}

func decodeBuckets(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == bucketSeparator[0] {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
