package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/store/memory"
)

func sealedForModel(t *testing.T, runID, model, text string) artifact.SealedArtifact {
	t.Helper()
	a := artifact.NewOpen(runID+"-"+model, runID, "tenant-1")
	a.Model = artifact.ModelConfig{Name: model, Provider: "test"}
	a.Outputs = artifact.Outputs{FullText: text}
	sealed, err := artifact.Seal(a, nil)
	require.NoError(t, err)
	return sealed
}

func TestPairByRunIDMatchesAcrossModels(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New(memory.Config{})

	require.NoError(t, s.Put(ctx, sealedForModel(t, "run-1", "model-a", "hi")))
	require.NoError(t, s.Put(ctx, sealedForModel(t, "run-1", "model-b", "hi")))
	require.NoError(t, s.Put(ctx, sealedForModel(t, "run-2", "model-a", "orphan")))

	entries, err := s.ListAll(ctx, 0)
	require.NoError(t, err)

	baselines, candidates, err := pairByRunID(ctx, s, entries, "model-a", "model-b")
	require.NoError(t, err)
	require.Len(t, baselines, 1)
	require.Len(t, candidates, 1)
	require.Equal(t, "run-1", baselines[0].RunID)
	require.Equal(t, "run-1", candidates[0].RunID)
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()
	require.Equal(t, "b", firstNonEmpty("", "b", "c"))
	require.Equal(t, "", firstNonEmpty())
}
