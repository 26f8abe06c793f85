package replay

import "github.com/kurral/kurral/artifact"

// reconstructStream rebuilds the fragment-level view of o for a replay
// consumer. When o already carries a stream map it is returned unchanged.
// Otherwise a single synthetic fragment spanning the full text is emitted,
// with RelativeTimestampMS left at zero: the original run's per-fragment
// timing was never captured, only the concatenated result.
func reconstructStream(o artifact.Outputs) []artifact.StreamFragment {
	if len(o.StreamMap) > 0 {
		return o.StreamMap
	}
	if o.FullText == "" {
		return nil
	}
	return []artifact.StreamFragment{{
		Fragment:            o.FullText,
		ByteOffset:          0,
		Length:              len(o.FullText),
		Index:               0,
		RelativeTimestampMS: 0,
	}}
}
