package artifact

// MaxStreamItems bounds the number of ordered stream items an Outputs value
// retains. Captures beyond this count are dropped and Truncated is set.
const MaxStreamItems = 100

// StreamFragment is one entry in a streamed output's ordered item list.
type StreamFragment struct {
	// Fragment is the raw text/content chunk.
	Fragment string `json:"fragment"`
	// ByteOffset is the fragment's offset into the fully concatenated text.
	ByteOffset int64 `json:"byte_offset"`
	// Length is len(Fragment) in bytes.
	Length int `json:"length"`
	// Index is the fragment's position in the stream, starting at 0.
	Index int `json:"index"`
	// RelativeTimestampMS is milliseconds since the run's start.
	RelativeTimestampMS int64 `json:"relative_timestamp_ms"`
}

// Outputs is the agent's final output, plus the streamed fragments that
// produced it when the run streamed.
type Outputs struct {
	// FullText is the complete concatenated output text.
	FullText string `json:"full_text"`
	// StreamMap holds up to MaxStreamItems ordered fragments.
	StreamMap []StreamFragment `json:"stream_map,omitempty"`
	// Truncated is set when more than MaxStreamItems fragments were observed.
	Truncated bool `json:"truncated,omitempty"`
}

// AppendFragment appends f to o's StreamMap, enforcing MaxStreamItems and
// setting Truncated once the cap is reached. Callers append in stream order.
func (o *Outputs) AppendFragment(f StreamFragment) {
	if len(o.StreamMap) >= MaxStreamItems {
		o.Truncated = true
		return
	}
	o.StreamMap = append(o.StreamMap, f)
}
