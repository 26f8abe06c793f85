package artifact

import (
	"encoding/json"
	"time"
)

// ToolCall is one in-process tool invocation observed during capture.
type ToolCall struct {
	// Name is the tool's registered name.
	Name string `json:"name"`
	// Namespace optionally scopes Name (e.g. an MCP server name, a plugin id).
	Namespace string `json:"namespace,omitempty"`
	// Input is the canonical-JSON-ready tool input payload.
	Input json.RawMessage `json:"input"`
	// Output is the tool's output payload, absent when Status is StatusError.
	Output json.RawMessage `json:"output,omitempty"`
	// Effect classifies the call's side-effect surface.
	Effect EffectType `json:"effect_type"`
	// LatencyMS is the observed call latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`
	// Status is the call outcome.
	Status ToolCallStatus `json:"status"`
	// Error carries the error text when Status is StatusError.
	Error string `json:"error,omitempty"`
	// CacheKey is SHA-256(tool_name ‖ 0x1F ‖ canonical_json(Input)), the
	// content address used by package cache.
	CacheKey string `json:"cache_key"`
	// OutputHash is SHA-256(canonical(Output)), used by Replay's hash-match
	// validation.
	OutputHash string `json:"output_hash,omitempty"`
	// Stubbed reports whether this call's Output was served from cache
	// during a replay rather than executed live.
	Stubbed bool `json:"stubbed,omitempty"`
	// StartedAt and EndedAt bound the call's wall-clock window.
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// MCPToolCall is a tool invocation captured across the MCP proxy boundary.
// It carries the JSON-RPC envelope identifiers and SSE sequencing metadata
// that an in-process ToolCall has no need for.
type MCPToolCall struct {
	ToolCall
	// RequestID is the JSON-RPC request id for this call.
	RequestID string `json:"request_id"`
	// Method is the JSON-RPC method invoked (typically "tools/call").
	Method string `json:"method,omitempty"`
	// ServerName identifies the MCP server the call was routed to.
	ServerName string `json:"server_name,omitempty"`
	// SSESequence is the ordered sequence number of the SSE event(s) carrying
	// this call's response, when the response was streamed.
	SSESequence int `json:"sse_sequence,omitempty"`
	// WasSSE reports whether the upstream answered via text/event-stream
	// rather than a unary JSON-RPC response.
	WasSSE bool `json:"was_sse,omitempty"`
	// Events holds the ordered SSE events observed for this call, present
	// only when WasSSE is true. A unary call's Output alone is sufficient
	// to replay it; an SSE call additionally needs the exact event
	// sequence (names + payloads) to reproduce the original stream.
	Events []MCPEvent `json:"events,omitempty"`
}

// MCPEvent is one Server-Sent-Event record observed during an SSE-streamed
// MCP tool call.
type MCPEvent struct {
	// Type is the SSE "event:" field (e.g. "start", "progress", "complete").
	Type string `json:"event_type"`
	// Data is the event's "data:" payload, parsed as JSON.
	Data json.RawMessage `json:"data"`
	// RelativeTimestampMS is milliseconds since the call started.
	RelativeTimestampMS int64 `json:"relative_timestamp_ms"`
}
