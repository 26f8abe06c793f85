package sqliteindex

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/store"
)

type fixedScorer struct{}

func (fixedScorer) Score(*artifact.Artifact) (artifact.DeterminismReport, error) {
	return artifact.DeterminismReport{OverallScore: 0.9}, nil
}

func sealedArtifact(t *testing.T, id, runID, tenantID string, buckets ...string) artifact.SealedArtifact {
	t.Helper()
	a := artifact.NewOpen(id, runID, tenantID)
	a.SemanticBuckets = buckets
	a.RecordToolCall(artifact.ToolCall{
		Name: "search", Input: json.RawMessage(`{}`), Output: json.RawMessage(`{}`),
		Status: artifact.StatusOK, Effect: artifact.EffectHTTP,
	})
	sealed, err := artifact.Seal(a, fixedScorer{})
	require.NoError(t, err)
	return sealed
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorePutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	a := sealedArtifact(t, "id-1", "run-1", "tenant-1", "greeting", "tool-use")

	require.NoError(t, s.Put(context.Background(), a))
	got, err := s.Get(context.Background(), "id-1")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
}

func TestStoreGetMissingReturnsErrNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreGetByRunIDReturnsMostRecent(t *testing.T) {
	s := newTestStore(t)
	older := sealedArtifact(t, "id-older", "run-shared", "tenant-1")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := sealedArtifact(t, "id-newer", "run-shared", "tenant-1")

	require.NoError(t, s.Put(context.Background(), older))
	require.NoError(t, s.Put(context.Background(), newer))

	got, err := s.GetByRunID(context.Background(), "run-shared")
	require.NoError(t, err)
	require.Equal(t, "id-newer", got.ID)
}

func TestStoreListByTenantRoundTripsSemanticBuckets(t *testing.T) {
	s := newTestStore(t)
	a := sealedArtifact(t, "id-1", "run-1", "tenant-1", "greeting", "tool-use")
	require.NoError(t, s.Put(context.Background(), a))

	entries, err := s.ListByTenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, []string{"greeting", "tool-use"}, entries[0].SemanticBuckets)
}

func TestStorePutUpsertsOnConflict(t *testing.T) {
	s := newTestStore(t)
	a := sealedArtifact(t, "id-1", "run-1", "tenant-1")
	require.NoError(t, s.Put(context.Background(), a))
	require.NoError(t, s.Put(context.Background(), a))

	entries, err := s.ListByTenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestStorePutPartialIsInvisibleUntilPromoted(t *testing.T) {
	s := newTestStore(t)
	a := sealedArtifact(t, "id-1", "run-1", "tenant-1")

	require.NoError(t, s.PutPartial(context.Background(), a))
	_, err := s.Get(context.Background(), "id-1")
	require.ErrorIs(t, err, store.ErrNotFound)
	entries, err := s.ListByTenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Empty(t, entries)

	require.NoError(t, s.Promote(context.Background(), a))
	got, err := s.Get(context.Background(), "id-1")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
}

func TestStoreDeleteRemovesRow(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(context.Background(), sealedArtifact(t, "id-1", "run-1", "tenant-1")))
	require.NoError(t, s.Delete(context.Background(), "id-1"))

	_, err := s.Get(context.Background(), "id-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEncodeDecodeBucketsRoundTrip(t *testing.T) {
	require.Equal(t, []string(nil), decodeBuckets(encodeBuckets(nil)))
	require.Equal(t, []string{"a"}, decodeBuckets(encodeBuckets([]string{"a"})))
	require.Equal(t, []string{"a", "b", "c"}, decodeBuckets(encodeBuckets([]string{"a", "b", "c"})))
}
