package memory

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

func sealedArtifact(t *testing.T, id, runID, tenantID string) artifact.SealedArtifact {
	t.Helper()
	a := artifact.NewOpen(id, runID, tenantID)
	a.RecordToolCall(artifact.ToolCall{
		Name: "search", Input: json.RawMessage(`{}`), Output: json.RawMessage(`{}`),
		Status: artifact.StatusOK, Effect: artifact.EffectHTTP,
	})
	sealed, err := artifact.Seal(a, fixedScorer{})
	require.NoError(t, err)
	return sealed
}

func TestStorePutGetRoundTrip(t *testing.T) {
	s := New(Config{})
	a := sealedArtifact(t, "id-1", "run-1", "tenant-1")

	require.NoError(t, s.Put(context.Background(), a))
	got, err := s.Get(context.Background(), "id-1")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
}

func TestStoreGetMissingReturnsErrNotFound(t *testing.T) {
	s := New(Config{})
	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreGetByRunIDReturnsMostRecent(t *testing.T) {
	s := New(Config{})
	older := sealedArtifact(t, "id-older", "run-shared", "tenant-1")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := sealedArtifact(t, "id-newer", "run-shared", "tenant-1")

	require.NoError(t, s.Put(context.Background(), older))
	require.NoError(t, s.Put(context.Background(), newer))

	got, err := s.GetByRunID(context.Background(), "run-shared")
	require.NoError(t, err)
	require.Equal(t, "id-newer", got.ID)
}

func TestStoreListByTenantFiltersAndOrders(t *testing.T) {
	s := New(Config{})
	a1 := sealedArtifact(t, "id-1", "run-1", "tenant-a")
	a1.CreatedAt = time.Now().Add(-time.Minute)
	a2 := sealedArtifact(t, "id-2", "run-2", "tenant-a")
	a3 := sealedArtifact(t, "id-3", "run-3", "tenant-b")

	require.NoError(t, s.Put(context.Background(), a1))
	require.NoError(t, s.Put(context.Background(), a2))
	require.NoError(t, s.Put(context.Background(), a3))

	entries, err := s.ListByTenant(context.Background(), "tenant-a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "id-2", entries[0].ID)
}

func TestStoreDeleteRemovesEntry(t *testing.T) {
	s := New(Config{})
	a := sealedArtifact(t, "id-1", "run-1", "tenant-1")
	require.NoError(t, s.Put(context.Background(), a))
	require.NoError(t, s.Delete(context.Background(), "id-1"))

	_, err := s.Get(context.Background(), "id-1")
	require.Error(t, err)
}

func TestStoreEvictsByMaxCount(t *testing.T) {
	s := New(Config{MaxCount: 1})
	require.NoError(t, s.Put(context.Background(), sealedArtifact(t, "id-1", "run-1", "tenant-1")))
	require.NoError(t, s.Put(context.Background(), sealedArtifact(t, "id-2", "run-2", "tenant-1")))

	_, err := s.Get(context.Background(), "id-1")
	require.Error(t, err, "least-recently-used entry should have been evicted")

	got, err := s.Get(context.Background(), "id-2")
	require.NoError(t, err)
	require.Equal(t, "id-2", got.ID)
}
