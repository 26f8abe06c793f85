package replay

import "errors"

// ErrArtifactInvalid is the sentinel wrapped whenever Replay rejects an
// artifact before attempting any reconstruction: an unsealed artifact, or
// one with an empty kurral_id, an empty schema_version, or outputs carrying
// neither full_text nor a stream_map. The model name is not checked. This
// failure is never retried by a caller; the artifact itself is the problem.
var ErrArtifactInvalid = errors.New("replay: artifact invalid")
