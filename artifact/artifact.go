// Package artifact defines the immutable trace schema Kurral captures from an
// agent execution and the canonical serialization used to hash, store, and
// replay it.
//
// An Artifact is mutable only while open (during capture). Seal computes the
// derived hashes, runs the determinism scorer, assigns the replay class, and
// returns a SealedArtifact that is safe to persist and read concurrently.
package artifact

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReplayClass is the reproducibility rating assigned at sealing time. It is
// metadata only: replay execution (package replay) is identical across
// classes. CLI and API surfaces should prefer Confidence() over the raw
// class value, since "class C" reads as unreplayable when it only means
// low-confidence.
type ReplayClass string

const (
	// ReplayClassA indicates overall determinism score >= 0.90.
	ReplayClassA ReplayClass = "A"
	// ReplayClassB indicates 0.50 <= overall determinism score < 0.90.
	ReplayClassB ReplayClass = "B"
	// ReplayClassC indicates overall determinism score < 0.50.
	ReplayClassC ReplayClass = "C"
	// ReplayClassUnset indicates the artifact has not been scored.
	ReplayClassUnset ReplayClass = ""
)

// EffectType classifies the side-effect surface of a tool call.
type EffectType string

const (
	EffectHTTP    EffectType = "HTTP"
	EffectDBWrite EffectType = "DB_WRITE"
	EffectEmail   EffectType = "EMAIL"
	EffectFS      EffectType = "FS"
	EffectMCP     EffectType = "MCP"
	EffectOther   EffectType = "OTHER"
)

// ToolCallStatus is the outcome of a tool invocation.
type ToolCallStatus string

const (
	StatusOK    ToolCallStatus = "OK"
	StatusError ToolCallStatus = "ERROR"
)

type (
	// Artifact is the root, mutable-while-open record of one agent execution.
	//
	// Optional fields use pointers or zero-value-is-absent semantics so the
	// canonical encoder (canonical.go) can omit them rather than serialize
	// null.
	Artifact struct {
		// ID is the artifact's UUID v4. Unique across a Store (invariant I1).
		ID string `json:"kurral_id"`
		// RunID is the originating run identifier (free-form, caller-chosen).
		RunID string `json:"run_id"`
		// TenantID scopes the artifact to a tenant.
		TenantID string `json:"tenant_id"`
		// SemanticBuckets tags the artifact with free-form business-meaning labels.
		SemanticBuckets []string `json:"semantic_buckets,omitempty"`
		// Environment is a free-form environment label (e.g. "staging").
		Environment string `json:"environment,omitempty"`
		// SchemaVersion is the artifact schema version. Monotone per invariant I4.
		SchemaVersion string `json:"schema_version"`
		// CreatedAt is the UTC creation timestamp.
		CreatedAt time.Time `json:"created_at"`
		// CreatorID optionally identifies who/what created the artifact.
		CreatorID string `json:"creator_id,omitempty"`
		// Deterministic is a coarse caller-asserted determinism flag.
		Deterministic bool `json:"deterministic"`
		// ReplayClass is assigned at sealing time; ReplayClassUnset before that.
		ReplayClass ReplayClass `json:"replay_class,omitempty"`
		// DeterminismReport is the scorer's output (see package score).
		DeterminismReport *DeterminismReport `json:"determinism_report,omitempty"`
		// Inputs is the sanitized snapshot of the agent's invocation inputs.
		Inputs json.RawMessage `json:"inputs,omitempty"`
		// Outputs carries the agent's final/streamed output payload.
		Outputs Outputs `json:"outputs"`
		// Error is set when the run terminated with an error.
		Error string `json:"error,omitempty"`
		// Model describes the model configuration used for this run.
		Model ModelConfig `json:"model_config"`
		// Prompt is the resolved prompt with derived hashes.
		Prompt ResolvedPrompt `json:"resolved_prompt"`
		// GraphVersion optionally fingerprints the agent's graph/tool schema set.
		GraphVersion *GraphVersion `json:"graph_version,omitempty"`
		// ToolCalls is the ordered list of tool invocations observed during capture.
		ToolCalls []ToolCall `json:"tool_calls,omitempty"`
		// MCPToolCalls is the ordered list of tool invocations captured via the
		// MCP proxy (package mcpproxy), kept separate from in-process ToolCalls
		// because they cross a process boundary and carry SSE framing metadata.
		MCPToolCalls []MCPToolCall `json:"mcp_tool_calls,omitempty"`
		// TimeEnv captures the wall-clock/environment snapshot at capture time.
		TimeEnv *TimeEnv `json:"time_env,omitempty"`
		// DurationMS is the total run duration in milliseconds.
		DurationMS int64 `json:"duration_ms"`
		// CostUSD is an optional estimated cost for the run.
		CostUSD *float64 `json:"cost_usd,omitempty"`
		// Usage is the aggregated token usage for the run.
		Usage TokenUsage `json:"token_usage"`
		// Tags is a free-form key/value map for caller metadata.
		Tags map[string]string `json:"tags,omitempty"`
	}

	// TimeEnv snapshots the wall-clock and environment state visible at capture
	// time, used by the Determinism Scorer's environment component.
	TimeEnv struct {
		// CapturedAt is when the snapshot was taken.
		CapturedAt time.Time `json:"captured_at"`
		// Timezone is the IANA timezone name in effect.
		Timezone string `json:"timezone,omitempty"`
		// EnvironmentVars lists the names (not values) of environment variables
		// observed relevant to the run, to avoid leaking secrets into artifacts.
		EnvironmentVars []string `json:"environment_vars,omitempty"`
	}

	// GraphVersion fingerprints the agent's graph structure and tool schema set.
	GraphVersion struct {
		// GraphHash is the SHA-256 hash of the graph's node set and edge list.
		GraphHash string `json:"graph_hash"`
		// ToolSchemaHash is a combined SHA-256 hash of every tool's declared JSON
		// schema plus description.
		ToolSchemaHash string `json:"tool_schema_hash"`
		// Tools optionally enumerates per-tool schema hashes.
		Tools []ToolSchemaVersion `json:"tools,omitempty"`
	}

	// ToolSchemaVersion is a single tool's schema fingerprint.
	ToolSchemaVersion struct {
		Name       string `json:"name"`
		SchemaHash string `json:"schema_hash"`
	}
)

// SealedArtifact is an Artifact after Seal: read-only, fully hashed, scored.
type SealedArtifact struct {
	Artifact
	// sealed marks that this value came from Seal and must not be mutated.
	// It is unexported so callers cannot construct a SealedArtifact by
	// literal and bypass invariant checking.
	sealed bool
}

// IsSealed reports whether a is the result of a successful Seal call.
func (a SealedArtifact) IsSealed() bool { return a.sealed }

// Confidence returns the human-facing reproducibility rating without the
// "class" framing that implies class C is unreplayable. Replay behavior
// never depends on this value.
func (a SealedArtifact) Confidence() ReplayClass { return a.ReplayClass }

// NewID returns a freshly generated UUID v4, suitable as an Artifact's ID
// (invariant I1) when the caller has no ID of its own to assign.
func NewID() string {
	return uuid.New().String()
}

// NewOpen constructs an empty, mutable Artifact ready for capture. Callers
// populate it via RecordToolCall / RecordStreamFragment and then Seal it. An
// empty id is replaced with a freshly generated UUID v4 (see NewID).
func NewOpen(id, runID, tenantID string) *Artifact {
	if id == "" {
		id = NewID()
	}
	return &Artifact{
		ID:            id,
		RunID:         runID,
		TenantID:      tenantID,
		SchemaVersion: CurrentSchemaVersion,
		CreatedAt:     time.Now().UTC(),
	}
}

// CurrentSchemaVersion is the schema major.minor emitted by this package.
// Per invariant I4, readers must refuse artifacts whose major component
// exceeds their own.
const CurrentSchemaVersion = "1.0"
