package artifact

// RecordToolCall appends tc to a's ordered tool-call list. a must be open
// (not yet sealed); callers are responsible for not recording against a
// SealedArtifact.
func (a *Artifact) RecordToolCall(tc ToolCall) {
	a.ToolCalls = append(a.ToolCalls, tc)
}

// RecordMCPToolCall appends tc to a's ordered MCP tool-call list.
func (a *Artifact) RecordMCPToolCall(tc MCPToolCall) {
	a.MCPToolCalls = append(a.MCPToolCalls, tc)
}

// RecordStreamFragment appends fragment to a's Outputs.StreamMap at the
// given relative timestamp, computing ByteOffset, Length, and Index from
// the fragments already recorded. FullText is grown to match. Once
// MaxStreamItems fragments have been recorded, further calls only grow
// FullText and set Outputs.Truncated.
func (a *Artifact) RecordStreamFragment(fragment string, relativeTimestampMS int64) {
	offset := int64(len(a.Outputs.FullText))
	a.Outputs.FullText += fragment
	a.Outputs.AppendFragment(StreamFragment{
		Fragment:            fragment,
		ByteOffset:          offset,
		Length:              len(fragment),
		Index:               len(a.Outputs.StreamMap),
		RelativeTimestampMS: relativeTimestampMS,
	})
}
