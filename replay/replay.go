// Package replay reconstructs a sealed artifact's recorded execution: it
// primes the content-addressed cache with every tool call's stub, rebuilds
// the streaming representation of the output, and validates the
// reconstruction against the artifact's own recorded outputs. With no
// overrides this is a pure, side-effect-free replay of what was captured.
// Overrides (alternate model, temperature, prompt, inputs) only change the
// result when a Rerun hook is supplied, since Kurral itself never invokes a
// live model.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/cache"
)

// Overrides supplies alternate parameters for a what-if replay. A zero
// Overrides means "replay exactly as recorded".
type Overrides struct {
	// Inputs, if set, replaces the artifact's recorded Inputs snapshot for
	// the purposes of a Rerun hook; it is not consulted for tool-call cache
	// lookups, since each tool call already carries its own recorded input.
	Inputs json.RawMessage
	// PromptText, if set, replaces the resolved prompt template text.
	PromptText *string
	// Temperature, if set, replaces the model's sampling temperature.
	Temperature *float64
	// ModelName, if set, replaces the model identifier.
	ModelName *string
	// MaxTokens, if set, replaces the requested completion length.
	MaxTokens *int
}

func (o Overrides) isZero() bool {
	return len(o.Inputs) == 0 && o.PromptText == nil && o.Temperature == nil &&
		o.ModelName == nil && o.MaxTokens == nil
}

// Rerun invokes whatever would actually produce new outputs under overrides
// (typically a live model call via package modeladapter, with any tool call
// the agent makes served from the cache Replay has already primed). It is
// the only path by which a replayed output can diverge from the artifact's
// recorded one: without it, Replay reports the recorded outputs verbatim
// regardless of which overrides were supplied.
type Rerun func(ctx context.Context, overrides Overrides, state LLMState) (artifact.Outputs, error)

// LLMState snapshots the model identity and sampling parameters a replay
// ran (or would run) under, after overrides have been applied.
type LLMState struct {
	ModelName    string                  `json:"model_name"`
	ModelVersion string                  `json:"model_version,omitempty"`
	Provider     string                  `json:"provider,omitempty"`
	Parameters   artifact.ModelParameters `json:"parameters"`
}

// Options configures a Replay call.
type Options struct {
	// Cache is primed with the artifact's tool-call stubs before the
	// reconstruction runs. A nil Cache gets a throwaway one, still useful
	// for counting hits/misses but not shared across calls.
	Cache *cache.Cache
	// CacheTTL is passed to Cache.PopulateFromArtifact; zero uses its
	// default.
	CacheTTL time.Duration
	// Rerun is invoked only when overrides is non-zero. Nil means overrides
	// affect only the reported LLMState (model name, temperature, max
	// tokens), never the outputs or the stubbed tool calls.
	Rerun Rerun
}

// ReplayResult is the full outcome of one Replay call.
type ReplayResult struct {
	ArtifactID           string                   `json:"kurral_id"`
	ReplayedAt           time.Time                `json:"replayed_at"`
	Outputs              artifact.Outputs         `json:"outputs"`
	Match                bool                     `json:"match"`
	HashMatch            bool                     `json:"hash_match"`
	StructuralMatch      bool                     `json:"structural_match"`
	Diff                 *Diff                    `json:"diff,omitempty"`
	StubbedToolCalls     []artifact.ToolCall      `json:"stubbed_tool_calls,omitempty"`
	DurationMS           int64                    `json:"duration_ms"`
	CacheHits            int                      `json:"cache_hits"`
	CacheMisses          int                      `json:"cache_misses"`
	StreamRepresentation []artifact.StreamFragment `json:"stream_representation,omitempty"`
	GraphVersion         *artifact.GraphVersion   `json:"graph_version,omitempty"`
	LLMState             LLMState                 `json:"llm_state"`
}

// Replay reconstructs sealed's execution under overrides. It never aborts
// on a cache miss (the miss is counted, not raised) and never returns an
// error on output divergence (divergence is reported via Match and Diff);
// the only error path is a malformed artifact (ErrArtifactInvalid) or a
// failing Rerun hook.
func Replay(ctx context.Context, sealed artifact.SealedArtifact, overrides Overrides, opts Options) (ReplayResult, error) {
	start := time.Now()

	if err := validate(sealed); err != nil {
		return ReplayResult{}, err
	}

	c := opts.Cache
	if c == nil {
		c = cache.New()
	}
	c.PopulateFromArtifact(&sealed.Artifact, opts.CacheTTL)

	stubbed, hits, misses := primeToolCalls(&sealed.Artifact, c)
	streamRepr := reconstructStream(sealed.Outputs)

	state := LLMState{
		ModelName:    sealed.Model.Name,
		ModelVersion: sealed.Model.Version,
		Provider:     sealed.Model.Provider,
		Parameters:   sealed.Model.Parameters,
	}
	applyOverrides(&state, overrides)

	replayedOutputs := sealed.Outputs
	if !overrides.isZero() && opts.Rerun != nil {
		out, err := opts.Rerun(ctx, overrides, state)
		if err != nil {
			return ReplayResult{}, fmt.Errorf("replay: rerun: %w", err)
		}
		replayedOutputs = out
	}

	origHash, err := artifact.Hash(sealed.Outputs)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("%w: hashing original outputs: %v", ErrArtifactInvalid, err)
	}
	replayedHash, err := artifact.Hash(replayedOutputs)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("%w: hashing replayed outputs: %v", ErrArtifactInvalid, err)
	}
	hashMatch := origHash == replayedHash

	structMatch, err := structuralMatch(sealed.Outputs, replayedOutputs)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: structural match: %w", err)
	}

	var diff *Diff
	if !hashMatch {
		diff, err = computeDiff(sealed.Outputs, replayedOutputs)
		if err != nil {
			return ReplayResult{}, fmt.Errorf("replay: %w", err)
		}
	}

	return ReplayResult{
		ArtifactID:           sealed.ID,
		ReplayedAt:           time.Now().UTC(),
		Outputs:              replayedOutputs,
		Match:                hashMatch,
		HashMatch:            hashMatch,
		StructuralMatch:      structMatch,
		Diff:                 diff,
		StubbedToolCalls:     stubbed,
		DurationMS:           time.Since(start).Milliseconds(),
		CacheHits:            hits,
		CacheMisses:          misses,
		StreamRepresentation: streamRepr,
		GraphVersion:         sealed.GraphVersion,
		LLMState:             state,
	}, nil
}

func applyOverrides(state *LLMState, ov Overrides) {
	if ov.ModelName != nil {
		state.ModelName = *ov.ModelName
	}
	if ov.Temperature != nil {
		state.Parameters.Temperature = *ov.Temperature
	}
	if ov.MaxTokens != nil {
		state.Parameters.MaxTokens = *ov.MaxTokens
	}
}

// primeToolCalls looks up every tool call's cache key (in observed-start
// order, per the ordering guarantee tool calls are captured under) and
// returns a stubbed copy of each: a hit serves the cached output and marks
// Stubbed true, a miss is counted but left unaltered rather than aborting
// the replay.
func primeToolCalls(a *artifact.Artifact, c *cache.Cache) ([]artifact.ToolCall, int, int) {
	all := make([]artifact.ToolCall, 0, len(a.ToolCalls)+len(a.MCPToolCalls))
	all = append(all, a.ToolCalls...)
	for _, tc := range a.MCPToolCalls {
		all = append(all, tc.ToolCall)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].StartedAt.Before(all[j].StartedAt) })

	var hits, misses int
	stubbed := make([]artifact.ToolCall, len(all))
	for i, tc := range all {
		stub, ok := c.Get(tc.CacheKey)
		if !ok {
			misses++
			tc.Stubbed = false
			stubbed[i] = tc
			continue
		}
		hits++
		tc.Output = stub.Output
		tc.Status = stub.Status
		tc.Error = stub.ErrorText
		tc.Stubbed = true
		stubbed[i] = tc
	}
	return stubbed, hits, misses
}
