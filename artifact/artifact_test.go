package artifact

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedScorer struct {
	report DeterminismReport
	err    error
}

func (f fixedScorer) Score(*Artifact) (DeterminismReport, error) { return f.report, f.err }

func newSealableArtifact() *Artifact {
	a := NewOpen("11111111-1111-4111-8111-111111111111", "run-1", "tenant-1")
	a.Model = ModelConfig{Name: "claude-opus-4-20250514", Provider: "anthropic"}
	a.Prompt = ResolvedPrompt{
		Template:  "Summarize: {{doc}}",
		Variables: map[string]string{"doc": "hello world"},
		FinalText: "Summarize: hello world",
	}
	a.RecordToolCall(ToolCall{
		Name:   "search",
		Input:  json.RawMessage(`{"q":"golang"}`),
		Output: json.RawMessage(`{"hits":3}`),
		Status: StatusOK,
		Effect: EffectHTTP,
	})
	a.RecordToolCall(ToolCall{
		Name: "nested-lookup",
		Input: json.RawMessage(`{"a":{"b":{"c":{"d":"deep-input"}}}}`),
		Output: json.RawMessage(`{"a":{"b":{"c":{"d":"deep-output","e":[1,2,{"f":"g"}]}}}}`),
		Status: StatusOK,
		Effect: EffectHTTP,
	})
	a.RecordStreamFragment("hello ", 0)
	a.RecordStreamFragment("world", 12)
	return a
}

func TestNewOpenSetsSchemaVersionAndUTCTimestamp(t *testing.T) {
	a := NewOpen("id", "run", "tenant")
	require.Equal(t, CurrentSchemaVersion, a.SchemaVersion)
	require.Equal(t, "UTC", a.CreatedAt.Location().String())
}

func TestNewOpenGeneratesIDWhenEmpty(t *testing.T) {
	a := NewOpen("", "run", "tenant")
	require.NotEmpty(t, a.ID)
	require.Len(t, a.ID, 36)

	b := NewOpen("", "run", "tenant")
	require.NotEqual(t, a.ID, b.ID)
}

func TestSealComputesCacheKeyAndOutputHash(t *testing.T) {
	a := newSealableArtifact()
	sealed, err := Seal(a, fixedScorer{report: DeterminismReport{OverallScore: 0.95}})
	require.NoError(t, err)
	require.True(t, sealed.IsSealed())
	require.NotEmpty(t, sealed.ToolCalls[0].CacheKey)
	require.NotEmpty(t, sealed.ToolCalls[0].OutputHash)

	wantKey, err := ToolCacheKey("search", json.RawMessage(`{"q":"golang"}`))
	require.NoError(t, err)
	require.Equal(t, wantKey, sealed.ToolCalls[0].CacheKey)
}

func TestSealAssignsReplayClassFromScore(t *testing.T) {
	cases := []struct {
		score float64
		class ReplayClass
	}{
		{0.95, ReplayClassA},
		{0.90, ReplayClassA},
		{0.75, ReplayClassB},
		{0.50, ReplayClassB},
		{0.49, ReplayClassC},
		{0.0, ReplayClassC},
	}
	for _, tc := range cases {
		a := newSealableArtifact()
		sealed, err := Seal(a, fixedScorer{report: DeterminismReport{OverallScore: tc.score}})
		require.NoError(t, err)
		require.Equal(t, tc.class, sealed.Confidence())
	}
}

func TestSealRejectsOutOfRangeScore(t *testing.T) {
	a := newSealableArtifact()
	_, err := Seal(a, fixedScorer{report: DeterminismReport{OverallScore: 1.5}})
	require.ErrorIs(t, err, ErrInvariantViolation)
}

func TestTwoToolCallsWithEqualInputShareCacheKey(t *testing.T) {
	a := newSealableArtifact()
	a.RecordToolCall(ToolCall{
		Name:   "search",
		Input:  json.RawMessage(`{"q":"golang"}`),
		Status: StatusOK,
	})
	sealed, err := Seal(a, fixedScorer{report: DeterminismReport{OverallScore: 0.5}})
	require.NoError(t, err)
	require.Equal(t, sealed.ToolCalls[0].CacheKey, sealed.ToolCalls[2].CacheKey)
}

func TestSealRejectsBrokenStreamMap(t *testing.T) {
	a := newSealableArtifact()
	a.Outputs.FullText = "mismatched"
	_, err := Seal(a, fixedScorer{report: DeterminismReport{OverallScore: 0.8}})
	require.Error(t, err)
	var iv *InvariantViolation
	require.ErrorAs(t, err, &iv)
}

func TestSerializeRoundTrip(t *testing.T) {
	a := newSealableArtifact()
	sealed, err := Seal(a, fixedScorer{report: DeterminismReport{OverallScore: 0.8}})
	require.NoError(t, err)

	bytes1, err := Serialize(sealed)
	require.NoError(t, err)

	back, err := Deserialize(bytes1)
	require.NoError(t, err)

	// Field-level equality first: this is what would have caught the
	// wire-format encoder silently truncating anything nested deeper than
	// a few levels (stream map, deeply nested tool call input/output).
	require.Equal(t, sealed.Outputs.StreamMap, back.Outputs.StreamMap)
	require.Equal(t, sealed.Outputs.FullText, back.Outputs.FullText)
	require.Len(t, back.ToolCalls, len(sealed.ToolCalls))
	for i := range sealed.ToolCalls {
		require.JSONEq(t, string(sealed.ToolCalls[i].Input), string(back.ToolCalls[i].Input))
		require.JSONEq(t, string(sealed.ToolCalls[i].Output), string(back.ToolCalls[i].Output))
		require.Equal(t, sealed.ToolCalls[i].CacheKey, back.ToolCalls[i].CacheKey)
		require.Equal(t, sealed.ToolCalls[i].OutputHash, back.ToolCalls[i].OutputHash)
	}

	bytes2, err := Serialize(back)
	require.NoError(t, err)
	require.Equal(t, bytes1, bytes2)
}

func TestDeserializeRejectsNewerMajorSchemaVersion(t *testing.T) {
	a := newSealableArtifact()
	a.SchemaVersion = "99.0"
	raw, err := json.Marshal(a)
	require.NoError(t, err)
	_, err = Deserialize(raw)
	require.ErrorIs(t, err, ErrUnsupportedSchemaVersion)
}

func TestCanonicalizeSortsKeysAndOmitsWhitespace(t *testing.T) {
	out, err := Canonicalize(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	require.Equal(t, `{"a":2,"b":1}`, string(out))
}

func TestCanonicalizeIsStableAcrossFieldOrder(t *testing.T) {
	type orderA struct {
		Z string `json:"z"`
		A string `json:"a"`
	}
	type orderB struct {
		A string `json:"a"`
		Z string `json:"z"`
	}
	out1, err := Canonicalize(orderA{Z: "1", A: "2"})
	require.NoError(t, err)
	out2, err := Canonicalize(orderB{A: "2", Z: "1"})
	require.NoError(t, err)
	require.Equal(t, out1, out2)
}
