// Package ars implements the Agent Regression Score (ARS) comparator: a
// weighted score in [0,1] between two sealed artifacts, combining output
// similarity, tool-call match rate, side-effect divergence, and error delta.
package ars

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kurral/kurral/artifact"
)

// Weights are the per-component weights used by Compare.
type Weights struct {
	OutputSimilarity      float64
	ToolMatchRate         float64
	SideEffectDivergence  float64
	ErrorDelta            float64
}

// DefaultWeights is the weight set specified for the comparator.
var DefaultWeights = Weights{
	OutputSimilarity:     0.40,
	ToolMatchRate:        0.30,
	SideEffectDivergence: 0.20,
	ErrorDelta:           0.10,
}

// DefaultFailureThreshold is the score below which a batch comparison
// counts a pair as a failure.
const DefaultFailureThreshold = 0.90

// Result is the outcome of comparing one baseline/candidate pair.
type Result struct {
	Score                float64 `json:"score"`
	OutputSimilarity     float64 `json:"output_similarity"`
	ToolMatchRate        float64 `json:"tool_match_rate"`
	SideEffectDivergence float64 `json:"side_effect_divergence"`
	ErrorDelta           float64 `json:"error_delta"`
}

// Compare computes the weighted similarity between baseline and candidate
// using DefaultWeights.
func Compare(baseline, candidate *artifact.SealedArtifact) (Result, error) {
	return CompareWeighted(baseline, candidate, DefaultWeights)
}

// CompareWeighted computes the weighted similarity using w.
func CompareWeighted(baseline, candidate *artifact.SealedArtifact, w Weights) (Result, error) {
	output, err := outputSimilarity(baseline, candidate)
	if err != nil {
		return Result{}, fmt.Errorf("ars: compare: %w", err)
	}
	toolMatch, err := toolMatchRate(baseline, candidate)
	if err != nil {
		return Result{}, fmt.Errorf("ars: compare: %w", err)
	}
	sideEffect, err := sideEffectDivergence(baseline, candidate)
	if err != nil {
		return Result{}, fmt.Errorf("ars: compare: %w", err)
	}
	errDelta, err := errorDelta(baseline, candidate)
	if err != nil {
		return Result{}, fmt.Errorf("ars: compare: %w", err)
	}

	score := w.OutputSimilarity*output + w.ToolMatchRate*toolMatch +
		w.SideEffectDivergence*sideEffect + w.ErrorDelta*errDelta

	return Result{
		Score:                score,
		OutputSimilarity:     output,
		ToolMatchRate:        toolMatch,
		SideEffectDivergence: sideEffect,
		ErrorDelta:           errDelta,
	}, nil
}

// BatchResult summarizes a batch comparison of equal-length baseline and
// candidate lists.
type BatchResult struct {
	Results     []Result
	Mean        float64
	Min         float64
	Max         float64
	FailedCount int
}

// CompareBatch compares baselines[i] against candidates[i] for every i,
// using threshold (DefaultFailureThreshold if <= 0) to count failures.
func CompareBatch(baselines, candidates []*artifact.SealedArtifact, threshold float64) (BatchResult, error) {
	if len(baselines) != len(candidates) {
		return BatchResult{}, fmt.Errorf("ars: compare batch: baseline and candidate lists have different lengths (%d != %d)", len(baselines), len(candidates))
	}
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if len(baselines) == 0 {
		return BatchResult{}, nil
	}
	results := make([]Result, len(baselines))
	var sum, min, max float64
	min = 1.0
	var failed int
	for i := range baselines {
		r, err := Compare(baselines[i], candidates[i])
		if err != nil {
			return BatchResult{}, fmt.Errorf("ars: compare batch[%d]: %w", i, err)
		}
		results[i] = r
		sum += r.Score
		if r.Score < min {
			min = r.Score
		}
		if r.Score > max {
			max = r.Score
		}
		if r.Score < threshold {
			failed++
		}
	}
	return BatchResult{
		Results:     results,
		Mean:        sum / float64(len(results)),
		Min:         min,
		Max:         max,
		FailedCount: failed,
	}, nil
}

func outputSimilarity(baseline, candidate *artifact.SealedArtifact) (float64, error) {
	a, err := artifact.Canonicalize(baseline.Outputs)
	if err != nil {
		return 0, err
	}
	b, err := artifact.Canonicalize(candidate.Outputs)
	if err != nil {
		return 0, err
	}
	if string(a) == string(b) {
		return 1.0, nil
	}
	return lcsRatio(string(a), string(b)), nil
}

func toolCallTuples(a *artifact.SealedArtifact) ([]string, error) {
	tuples := make([]string, 0, len(a.ToolCalls)+len(a.MCPToolCalls))
	for _, tc := range a.ToolCalls {
		c, err := artifact.CanonicalizeRaw(tc.Input)
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, tc.Name+"\x00"+string(c))
	}
	for _, tc := range a.MCPToolCalls {
		c, err := artifact.CanonicalizeRaw(tc.Input)
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, tc.Name+"\x00"+string(c))
	}
	return tuples, nil
}

func toolMatchRate(baseline, candidate *artifact.SealedArtifact) (float64, error) {
	a, err := toolCallTuples(baseline)
	if err != nil {
		return 0, err
	}
	b, err := toolCallTuples(candidate)
	if err != nil {
		return 0, err
	}
	return jaccard(a, b), nil
}

// sideEffectSubstrings matches tool names treated as side-effecting for the
// purposes of side_effect_divergence, per spec.
var sideEffectSubstrings = []string{"write", "delete", "update", "create", "send", "post", "put", "patch"}

func isSideEffectName(name string) bool {
	lower := strings.ToLower(name)
	for _, sub := range sideEffectSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

func sideEffectDivergence(baseline, candidate *artifact.SealedArtifact) (float64, error) {
	allBaseline, err := toolCallTuples(baseline)
	if err != nil {
		return 0, err
	}
	allCandidate, err := toolCallTuples(candidate)
	if err != nil {
		return 0, err
	}
	a := filterSideEffects(allBaseline)
	b := filterSideEffects(allCandidate)

	setA := toSet(a)
	setB := toSet(b)
	if setsEqual(setA, setB) {
		return 1.0, nil
	}
	aJoined, err := json.Marshal(a)
	if err != nil {
		return 0, err
	}
	bJoined, err := json.Marshal(b)
	if err != nil {
		return 0, err
	}
	return lcsRatio(string(aJoined), string(bJoined)), nil
}

func filterSideEffects(tuples []string) []string {
	out := make([]string, 0, len(tuples))
	for _, t := range tuples {
		name := t
		if idx := strings.IndexByte(t, 0x00); idx >= 0 {
			name = t[:idx]
		}
		if isSideEffectName(name) {
			out = append(out, t)
		}
	}
	return out
}

func errorDelta(baseline, candidate *artifact.SealedArtifact) (float64, error) {
	a, b := baseline.Error, candidate.Error
	switch {
	case a == "" && b == "":
		return 1.0, nil
	case a == b:
		return 1.0, nil
	case a == "" || b == "":
		return 0, nil
	default:
		return lcsRatio(a, b) * 0.5, nil
	}
}
