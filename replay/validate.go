package replay

import (
	"fmt"

	"github.com/kurral/kurral/artifact"
)

// validate rejects artifacts Replay cannot meaningfully reconstruct. It is
// deliberately narrower than artifact.Seal's invariant checks: Replay only
// needs enough of the artifact to rebuild outputs and prime the cache, not
// every invariant Seal enforced at capture time.
func validate(sealed artifact.SealedArtifact) error {
	if !sealed.IsSealed() {
		return fmt.Errorf("%w: artifact was never sealed", ErrArtifactInvalid)
	}
	if sealed.ID == "" {
		return fmt.Errorf("%w: missing kurral_id", ErrArtifactInvalid)
	}
	if sealed.SchemaVersion == "" {
		return fmt.Errorf("%w: missing schema_version", ErrArtifactInvalid)
	}
	if sealed.Outputs.FullText == "" && len(sealed.Outputs.StreamMap) == 0 {
		return fmt.Errorf("%w: outputs carry neither full_text nor a stream_map", ErrArtifactInvalid)
	}
	return nil
}
