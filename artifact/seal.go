package artifact

import (
	"fmt"
)

// Scorer computes a DeterminismReport for an artifact. Package score
// implements this; artifact depends only on the interface so the two
// packages do not form an import cycle.
type Scorer interface {
	Score(a *Artifact) (DeterminismReport, error)
}

// Seal computes derived hashes, validates invariants I2–I5, runs scorer
// over a, assigns the replay class, and returns a read-only SealedArtifact.
// a is left untouched on error.
func Seal(a *Artifact, scorer Scorer) (SealedArtifact, error) {
	sealedCopy := *a
	sealedCopy.ToolCalls = append([]ToolCall(nil), a.ToolCalls...)
	sealedCopy.MCPToolCalls = append([]MCPToolCall(nil), a.MCPToolCalls...)

	if err := computeToolCallHashes(&sealedCopy); err != nil {
		return SealedArtifact{}, fmt.Errorf("artifact: seal: %w", err)
	}
	if err := computePromptHashes(&sealedCopy); err != nil {
		return SealedArtifact{}, fmt.Errorf("artifact: seal: %w", err)
	}

	viol := &InvariantViolation{}
	checkCacheKeyDeterminism(&sealedCopy, viol)
	checkOutputHashes(&sealedCopy, viol)
	checkStreamMapIntegrity(&sealedCopy, viol)
	if len(viol.Violations) > 0 {
		return SealedArtifact{}, viol
	}

	if scorer != nil {
		report, err := scorer.Score(&sealedCopy)
		if err != nil {
			return SealedArtifact{}, fmt.Errorf("artifact: seal: score: %w", err)
		}
		sealedCopy.DeterminismReport = &report
		sealedCopy.ReplayClass = classify(report.OverallScore)
		if report.OverallScore < 0 || report.OverallScore > 1 {
			viol.add("determinism_report.overall_score %.4f out of [0,1]", report.OverallScore)
			return SealedArtifact{}, viol
		}
	}

	return SealedArtifact{Artifact: sealedCopy, sealed: true}, nil
}

func classify(score float64) ReplayClass {
	switch {
	case score >= 0.90:
		return ReplayClassA
	case score >= 0.50:
		return ReplayClassB
	default:
		return ReplayClassC
	}
}

func computeToolCallHashes(a *Artifact) error {
	for i := range a.ToolCalls {
		tc := &a.ToolCalls[i]
		key, err := ToolCacheKey(tc.Name, tc.Input)
		if err != nil {
			return fmt.Errorf("tool_calls[%d]: cache key: %w", i, err)
		}
		tc.CacheKey = key
		if tc.Status == StatusOK && len(tc.Output) > 0 {
			h, err := Hash(tc.Output)
			if err != nil {
				return fmt.Errorf("tool_calls[%d]: output hash: %w", i, err)
			}
			tc.OutputHash = h
		}
	}
	for i := range a.MCPToolCalls {
		tc := &a.MCPToolCalls[i].ToolCall
		key, err := ToolCacheKey(tc.Name, tc.Input)
		if err != nil {
			return fmt.Errorf("mcp_tool_calls[%d]: cache key: %w", i, err)
		}
		tc.CacheKey = key
		if tc.Status == StatusOK && len(tc.Output) > 0 {
			h, err := Hash(tc.Output)
			if err != nil {
				return fmt.Errorf("mcp_tool_calls[%d]: output hash: %w", i, err)
			}
			tc.OutputHash = h
		}
	}
	return nil
}

func computePromptHashes(a *Artifact) error {
	p := &a.Prompt
	if p.Template != "" {
		h, err := HashString(p.Template)
		if err != nil {
			return fmt.Errorf("resolved_prompt.template: %w", err)
		}
		p.TemplateHash = h
	}
	if p.FinalText != "" {
		h, err := HashString(p.FinalText)
		if err != nil {
			return fmt.Errorf("resolved_prompt.final_text: %w", err)
		}
		p.FinalTextHash = h
	}
	if len(p.Variables) > 0 {
		h, err := Hash(p.Variables)
		if err != nil {
			return fmt.Errorf("resolved_prompt.variables: %w", err)
		}
		p.VariablesHash = h
	}
	return nil
}

// checkCacheKeyDeterminism enforces I2: tool calls with equal (name, input)
// must share a cache key. Since CacheKey is derived from exactly those two
// fields by computeToolCallHashes, a violation here indicates the hash
// function itself disagreed across calls, which can only happen if Input
// contains non-canonicalizable data; we surface that as a violation rather
// than panicking.
func checkCacheKeyDeterminism(a *Artifact, viol *InvariantViolation) {
	seen := map[string]string{}
	check := func(label, name string, input []byte, key string) {
		recomputed, err := ToolCacheKey(name, input)
		if err != nil || recomputed != key {
			viol.add("%s: cache_key not a deterministic function of (name, input)", label)
			return
		}
		if prior, ok := seen[name+"\x00"+string(input)]; ok && prior != key {
			viol.add("%s: equal (name, input) pair produced differing cache keys", label)
		}
		seen[name+"\x00"+string(input)] = key
	}
	for i, tc := range a.ToolCalls {
		check(fmt.Sprintf("tool_calls[%d]", i), tc.Name, tc.Input, tc.CacheKey)
	}
	for i, tc := range a.MCPToolCalls {
		check(fmt.Sprintf("mcp_tool_calls[%d]", i), tc.Name, tc.Input, tc.CacheKey)
	}
}

// checkOutputHashes enforces I3.
func checkOutputHashes(a *Artifact, viol *InvariantViolation) {
	check := func(label string, tc ToolCall) {
		if len(tc.Output) == 0 {
			return
		}
		want, err := Hash(tc.Output)
		if err != nil || want != tc.OutputHash {
			viol.add("%s: output_hash does not equal SHA-256(canonical_json(output))", label)
		}
	}
	for i, tc := range a.ToolCalls {
		check(fmt.Sprintf("tool_calls[%d]", i), tc)
	}
	for i, tc := range a.MCPToolCalls {
		check(fmt.Sprintf("mcp_tool_calls[%d]", i), tc.ToolCall)
	}
}

// checkStreamMapIntegrity enforces I5.
func checkStreamMapIntegrity(a *Artifact, viol *InvariantViolation) {
	sm := a.Outputs.StreamMap
	if len(sm) == 0 {
		return
	}
	var sum int
	prevOffset := int64(-1)
	for i, f := range sm {
		sum += f.Length
		if f.ByteOffset <= prevOffset {
			viol.add("outputs.stream_map[%d]: byte_offset not strictly increasing", i)
		}
		prevOffset = f.ByteOffset
	}
	if !a.Outputs.Truncated && sum != len(a.Outputs.FullText) {
		viol.add("outputs.stream_map: sum(length) %d != len(full_text) %d", sum, len(a.Outputs.FullText))
	}
}
