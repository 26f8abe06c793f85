package artifact

import "encoding/json"

// unitSeparator is the 0x1F byte placed between the tool name and the
// canonicalized input in the cache-key formula.
const unitSeparator = byte(0x1F)

// ToolCacheKey computes SHA-256(toolName ‖ 0x1F ‖ canonical_json(input)),
// the content address invariant I2 requires two tool calls with equal
// (toolName, input) to share.
func ToolCacheKey(toolName string, input json.RawMessage) (string, error) {
	c, err := CanonicalizeRaw(input)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, len(toolName)+1+len(c))
	buf = append(buf, toolName...)
	buf = append(buf, unitSeparator)
	buf = append(buf, c...)
	return HashBytes(buf), nil
}
