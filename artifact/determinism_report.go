package artifact

// DeterminismReport is the Determinism Scorer's (package score) output,
// embedded into a sealed Artifact. The scorer is the only producer; this
// package only defines the shape so Artifact can reference it without
// importing score (which itself depends on artifact).
type DeterminismReport struct {
	// OverallScore is the weighted sum of the six component scores, in
	// [0.0, 1.0].
	OverallScore float64 `json:"overall_score"`
	// Components breaks the overall score down by contributing factor.
	Components DeterminismComponents `json:"components"`
	// MissingFields lists fields the scorer expected but did not find,
	// each scored as contributing zero to its component.
	MissingFields []string `json:"missing_fields,omitempty"`
	// Warnings carries non-fatal notes surfaced during scoring.
	Warnings []string `json:"warnings,omitempty"`
}

// DeterminismComponents holds the six weighted component scores that sum
// (after weighting) to DeterminismReport.OverallScore. Weights themselves
// live in package score, not here, since they are scoring configuration
// rather than part of the artifact's recorded data.
type DeterminismComponents struct {
	ModelVersion float64 `json:"model_version"`
	RandomSeed   float64 `json:"random_seed"`
	Prompt       float64 `json:"prompt"`
	ToolCache    float64 `json:"tool_cache"`
	Environment  float64 `json:"environment"`
	Parameters   float64 `json:"parameters"`
}
