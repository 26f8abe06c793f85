// Package score implements the Determinism Scorer: six weighted components
// folded into one reproducibility score. The replay-confidence
// classification derived from that score is artifact.SealedArtifact's
// Confidence method, not part of this package.
package score

import (
	"fmt"

	"github.com/kurral/kurral/artifact"
)

// Weights holds the per-component weights used by Scorer.Score. They must
// sum to 1.0.
type Weights struct {
	ModelVersion float64
	RandomSeed   float64
	Prompt       float64
	ToolCache    float64
	Environment  float64
	Parameters   float64
}

// DefaultWeights is the weight set specified for Kurral's scorer.
var DefaultWeights = Weights{
	ModelVersion: 0.25,
	RandomSeed:   0.20,
	Prompt:       0.20,
	ToolCache:    0.15,
	Environment:  0.10,
	Parameters:   0.10,
}

func (w Weights) sum() float64 {
	return w.ModelVersion + w.RandomSeed + w.Prompt + w.ToolCache + w.Environment + w.Parameters
}

const weightSumTolerance = 1e-9

// Scorer computes artifact.DeterminismReport values. It implements
// artifact.Scorer so Seal can invoke it without artifact importing score.
type Scorer struct {
	weights Weights
}

// NewScorer constructs a Scorer with the given weights, panicking if they do
// not sum to 1.0. Passing a zero Weights uses DefaultWeights.
func NewScorer(w Weights) *Scorer {
	if w == (Weights{}) {
		w = DefaultWeights
	}
	if diff := w.sum() - 1.0; diff > weightSumTolerance || diff < -weightSumTolerance {
		panic(fmt.Sprintf("score: weights sum to %.6f, want 1.0", w.sum()))
	}
	return &Scorer{weights: w}
}

// Score computes the weighted determinism report for a.
func (s *Scorer) Score(a *artifact.Artifact) (artifact.DeterminismReport, error) {
	var missing []string
	var warnings []string

	modelVersion := scoreModelVersion(a.Model, &missing)
	seed := scoreRandomSeed(a.Model.Parameters, &missing)
	prompt := scorePrompt(a.Prompt, &missing)
	toolCache := scoreToolCache(a.ToolCalls, a.MCPToolCalls)
	environment := scoreEnvironment(a.TimeEnv, a.Environment, &missing)
	parameters := scoreParameters(a.Model.Parameters)

	overall := s.weights.ModelVersion*modelVersion +
		s.weights.RandomSeed*seed +
		s.weights.Prompt*prompt +
		s.weights.ToolCache*toolCache +
		s.weights.Environment*environment +
		s.weights.Parameters*parameters

	if overall < 0.50 {
		warnings = append(warnings, "overall determinism score below 0.50; replay output may diverge")
	}

	return artifact.DeterminismReport{
		OverallScore: overall,
		Components: artifact.DeterminismComponents{
			ModelVersion: modelVersion,
			RandomSeed:   seed,
			Prompt:       prompt,
			ToolCache:    toolCache,
			Environment:  environment,
			Parameters:   parameters,
		},
		MissingFields: missing,
		Warnings:      warnings,
	}, nil
}
