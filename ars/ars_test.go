package ars

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kurral/kurral/artifact"
)

func sealed(t *testing.T, outputs artifact.Outputs, toolCalls []artifact.ToolCall, errText string) *artifact.SealedArtifact {
	t.Helper()
	a := artifact.NewOpen("id", "run", "tenant")
	a.Outputs = outputs
	a.ToolCalls = toolCalls
	a.Error = errText
	sealedArtifact, err := artifact.Seal(a, noopScorer{})
	require.NoError(t, err)
	return &sealedArtifact
}

type noopScorer struct{}

func (noopScorer) Score(*artifact.Artifact) (artifact.DeterminismReport, error) {
	return artifact.DeterminismReport{OverallScore: 1.0}, nil
}

func TestCompareIdenticalArtifactsScoresOne(t *testing.T) {
	out := artifact.Outputs{FullText: "hello"}
	calls := []artifact.ToolCall{{Name: "search", Input: json.RawMessage(`{"q":1}`), Status: artifact.StatusOK}}
	a := sealed(t, out, calls, "")
	b := sealed(t, out, calls, "")
	result, err := Compare(a, b)
	require.NoError(t, err)
	require.InDelta(t, 1.0, result.Score, 1e-9)
}

func TestOutputSimilarityPartialMatch(t *testing.T) {
	a := sealed(t, artifact.Outputs{FullText: "hello world"}, nil, "")
	b := sealed(t, artifact.Outputs{FullText: "hello there"}, nil, "")
	result, err := Compare(a, b)
	require.NoError(t, err)
	require.Less(t, result.OutputSimilarity, 1.0)
	require.Greater(t, result.OutputSimilarity, 0.0)
}

func TestToolMatchRateJaccardBothEmpty(t *testing.T) {
	a := sealed(t, artifact.Outputs{}, nil, "")
	b := sealed(t, artifact.Outputs{}, nil, "")
	result, err := Compare(a, b)
	require.NoError(t, err)
	require.Equal(t, 1.0, result.ToolMatchRate)
}

func TestErrorDeltaBothNilIsOne(t *testing.T) {
	a := sealed(t, artifact.Outputs{}, nil, "")
	b := sealed(t, artifact.Outputs{}, nil, "")
	result, err := Compare(a, b)
	require.NoError(t, err)
	require.Equal(t, 1.0, result.ErrorDelta)
}

func TestErrorDeltaOneErroredIsZero(t *testing.T) {
	a := sealed(t, artifact.Outputs{}, nil, "")
	b := sealed(t, artifact.Outputs{}, nil, "boom")
	result, err := Compare(a, b)
	require.NoError(t, err)
	require.Equal(t, 0.0, result.ErrorDelta)
}

func TestSideEffectDivergenceFiltersByNameSubstring(t *testing.T) {
	a := sealed(t, artifact.Outputs{}, []artifact.ToolCall{
		{Name: "search", Input: json.RawMessage(`{}`), Status: artifact.StatusOK},
		{Name: "create_record", Input: json.RawMessage(`{"id":1}`), Status: artifact.StatusOK},
	}, "")
	b := sealed(t, artifact.Outputs{}, []artifact.ToolCall{
		{Name: "search", Input: json.RawMessage(`{}`), Status: artifact.StatusOK},
		{Name: "create_record", Input: json.RawMessage(`{"id":1}`), Status: artifact.StatusOK},
	}, "")
	result, err := Compare(a, b)
	require.NoError(t, err)
	require.Equal(t, 1.0, result.SideEffectDivergence)
}

func TestCompareBatchComputesSummaryStats(t *testing.T) {
	out := artifact.Outputs{FullText: "x"}
	a := sealed(t, out, nil, "")
	b := sealed(t, artifact.Outputs{FullText: "y"}, nil, "")
	// Output similarity is the LCS ratio of the canonical JSON strings
	// {"full_text":"x"} and {"full_text":"y"}: 2*16/34 ≈ 0.941, so the a/b
	// pair scores 0.4*0.941 + 0.6 ≈ 0.976 and only fails a 0.99 threshold.
	batch, err := CompareBatch([]*artifact.SealedArtifact{a, a}, []*artifact.SealedArtifact{a, b}, 0.99)
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)
	require.Equal(t, 1, batch.FailedCount)
}

func TestCompareBatchRejectsMismatchedLengths(t *testing.T) {
	a := sealed(t, artifact.Outputs{}, nil, "")
	_, err := CompareBatch([]*artifact.SealedArtifact{a}, nil, 0.90)
	require.Error(t, err)
}

func TestLCSRatioBothEmptyIsOne(t *testing.T) {
	require.Equal(t, 1.0, lcsRatio("", ""))
}

func TestLCSRatioOneEmptyIsZero(t *testing.T) {
	require.Equal(t, 0.0, lcsRatio("abc", ""))
}
