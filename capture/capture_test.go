package capture

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/store"
	"github.com/kurral/kurral/store/memory"
)

type fixedScorer struct {
	score float64
}

func (f fixedScorer) Score(*artifact.Artifact) (artifact.DeterminismReport, error) {
	return artifact.DeterminismReport{OverallScore: f.score}, nil
}

func newOptions(st *memory.Store) Options {
	return Options{Store: st, Scorer: fixedScorer{score: 0.95}}
}

func TestCaptureSealsAndPersistsSuccessfulRun(t *testing.T) {
	st := memory.New(memory.Config{})
	opts := newOptions(st)

	sealed, err := Capture(context.Background(), "id-1", "run-1", "tenant-1", func(ctx context.Context, rec *Recorder) (string, error) {
		tc := rec.StartToolCall("search", json.RawMessage(`{"q":"golang"}`), artifact.EffectHTTP)
		tc.Succeed(json.RawMessage(`{"hits":3}`))
		rec.RecordFragment("hello")
		return "hello", nil
	}, opts)

	require.NoError(t, err)
	require.True(t, sealed.IsSealed())
	require.Len(t, sealed.ToolCalls, 1)
	require.Equal(t, "hello", sealed.Outputs.FullText)

	stored, err := st.Get(context.Background(), "id-1")
	require.NoError(t, err)
	require.Equal(t, sealed.ID, stored.ID)
}

func TestCaptureRecordsAgentError(t *testing.T) {
	st := memory.New(memory.Config{})
	opts := newOptions(st)

	wantErr := errors.New("boom")
	sealed, err := Capture(context.Background(), "id-2", "run-2", "tenant-1", func(ctx context.Context, rec *Recorder) (string, error) {
		return "", wantErr
	}, opts)

	require.ErrorIs(t, err, wantErr)
	require.Equal(t, "boom", sealed.Error)
}

func TestCaptureRecoversAgentPanic(t *testing.T) {
	st := memory.New(memory.Config{})
	opts := newOptions(st)

	sealed, err := Capture(context.Background(), "id-3", "run-3", "tenant-1", func(ctx context.Context, rec *Recorder) (string, error) {
		panic("unexpected")
	}, opts)

	require.Error(t, err)
	require.NotEmpty(t, sealed.Error)
}

func TestCaptureFailedToolCallRecordsError(t *testing.T) {
	st := memory.New(memory.Config{})
	opts := newOptions(st)

	sealed, err := Capture(context.Background(), "id-4", "run-4", "tenant-1", func(ctx context.Context, rec *Recorder) (string, error) {
		tc := rec.StartToolCall("search", json.RawMessage(`{}`), artifact.EffectHTTP)
		tc.Fail("timeout")
		return "done", nil
	}, opts)

	require.NoError(t, err)
	require.Len(t, sealed.ToolCalls, 1)
	require.Equal(t, artifact.StatusError, sealed.ToolCalls[0].Status)
	require.Equal(t, "timeout", sealed.ToolCalls[0].Error)
}

type stubTrace struct {
	mu       sync.Mutex
	fetched  chan struct{}
	enrichment Enrichment
	err      error
}

func (s *stubTrace) FetchTrace(ctx context.Context, runID string) (Enrichment, error) {
	defer close(s.fetched)
	if s.err != nil {
		return Enrichment{}, s.err
	}
	return s.enrichment, nil
}

func TestCaptureEnrichesArtifactInBackground(t *testing.T) {
	st := memory.New(memory.Config{})
	trace := &stubTrace{
		fetched:    make(chan struct{}),
		enrichment: Enrichment{Tags: map[string]string{"external": "indexed"}},
	}
	opts := Options{
		Store:            st,
		Scorer:           fixedScorer{score: 0.95},
		Trace:            trace,
		EnrichSettleWait: time.Millisecond,
		EnrichDeadline:   time.Second,
	}

	sealed, err := Capture(context.Background(), "id-5", "run-5", "tenant-1", func(ctx context.Context, rec *Recorder) (string, error) {
		return "done", nil
	}, opts)
	require.NoError(t, err)

	select {
	case <-trace.fetched:
	case <-time.After(time.Second):
		t.Fatal("enrichment never ran")
	}

	require.Eventually(t, func() bool {
		got, err := st.Get(context.Background(), sealed.ID)
		return err == nil && got.Tags["external"] == "indexed"
	}, time.Second, 5*time.Millisecond)
}

func TestCaptureHidesArtifactDuringEnrichmentSettleWindow(t *testing.T) {
	st := memory.New(memory.Config{})
	trace := &stubTrace{
		fetched:    make(chan struct{}),
		enrichment: Enrichment{Tags: map[string]string{"external": "indexed"}},
	}
	opts := Options{
		Store:            st,
		Scorer:           fixedScorer{score: 0.95},
		Trace:            trace,
		EnrichSettleWait: 200 * time.Millisecond,
		EnrichDeadline:   time.Second,
	}

	sealed, err := Capture(context.Background(), "id-9", "run-9", "tenant-1", func(ctx context.Context, rec *Recorder) (string, error) {
		return "done", nil
	}, opts)
	require.NoError(t, err)

	_, err = st.Get(context.Background(), sealed.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	entries, err := st.ListAll(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, entries)

	select {
	case <-trace.fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("enrichment never ran")
	}
	require.Eventually(t, func() bool {
		got, err := st.Get(context.Background(), sealed.ID)
		return err == nil && got.Tags["external"] == "indexed"
	}, time.Second, 5*time.Millisecond)
}

func TestCaptureSetGraphAttachesGraphVersion(t *testing.T) {
	st := memory.New(memory.Config{})
	opts := newOptions(st)

	sealed, err := Capture(context.Background(), "id-7", "run-7", "tenant-1", func(ctx context.Context, rec *Recorder) (string, error) {
		err := rec.SetGraph(
			[]string{"start", "llm", "tool", "end"},
			[]string{"start->llm", "llm->tool", "tool->end"},
			[]artifact.ToolSchema{
				{Name: "search", Description: "web search", Schema: json.RawMessage(`{"type":"object"}`)},
			},
		)
		require.NoError(t, err)
		return "done", nil
	}, opts)

	require.NoError(t, err)
	require.NotNil(t, sealed.GraphVersion)
	require.NotEmpty(t, sealed.GraphVersion.GraphHash)
	require.NotEmpty(t, sealed.GraphVersion.ToolSchemaHash)
	require.Len(t, sealed.GraphVersion.Tools, 1)
	require.Equal(t, "search", sealed.GraphVersion.Tools[0].Name)
}

func TestCaptureSetGraphPropagatesInvalidSchemaError(t *testing.T) {
	st := memory.New(memory.Config{})
	opts := newOptions(st)

	var setGraphErr error
	sealed, err := Capture(context.Background(), "id-8", "run-8", "tenant-1", func(ctx context.Context, rec *Recorder) (string, error) {
		setGraphErr = rec.SetGraph(nil, nil, []artifact.ToolSchema{{Name: "broken", Schema: nil}})
		return "done", nil
	}, opts)

	require.Error(t, setGraphErr)
	require.NoError(t, err)
	require.Nil(t, sealed.GraphVersion)
}

func TestCaptureSkipsEnrichmentOnCancellation(t *testing.T) {
	st := memory.New(memory.Config{})
	trace := &stubTrace{fetched: make(chan struct{})}
	opts := Options{Store: st, Scorer: fixedScorer{score: 0.95}, Trace: trace}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sealed, err := Capture(ctx, "id-6", "run-6", "tenant-1", func(ctx context.Context, rec *Recorder) (string, error) {
		return "partial", nil
	}, opts)

	require.Error(t, err)
	require.NotEmpty(t, sealed.Error)

	select {
	case <-trace.fetched:
		t.Fatal("enrichment should have been skipped on cancellation")
	case <-time.After(50 * time.Millisecond):
	}
}
