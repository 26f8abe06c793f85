package mcpproxy

import "github.com/kurral/kurral/artifact"

// ReplayIndex answers REPLAY-mode lookups by the same content-address the
// rest of Kurral uses: SHA-256(tool_name ‖ 0x1F ‖ canonical_json(input)).
type ReplayIndex struct {
	byKey map[string]artifact.MCPToolCall
}

// BuildReplayIndex indexes every MCP tool call recorded in a by cache key.
// When two calls share a key (idempotent tool replayed twice), the
// last-recorded one wins, matching the ordering Kurral already stores
// MCPToolCalls under.
func BuildReplayIndex(a *artifact.SealedArtifact) *ReplayIndex {
	idx := &ReplayIndex{byKey: make(map[string]artifact.MCPToolCall, len(a.MCPToolCalls))}
	for _, tc := range a.MCPToolCalls {
		idx.byKey[tc.CacheKey] = tc
	}
	return idx
}

// Lookup returns the captured call for toolName/arguments and true, or a
// zero value and false if no call matches.
func (idx *ReplayIndex) Lookup(toolName string, arguments []byte) (artifact.MCPToolCall, bool, error) {
	key, err := artifact.ToolCacheKey(toolName, arguments)
	if err != nil {
		return artifact.MCPToolCall{}, false, err
	}
	tc, ok := idx.byKey[key]
	return tc, ok, nil
}
