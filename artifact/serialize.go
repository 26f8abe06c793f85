package artifact

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Serialize encodes a sealed artifact as canonical JSON bytes.
func Serialize(a SealedArtifact) ([]byte, error) {
	raw, err := json.Marshal(a.Artifact)
	if err != nil {
		return nil, fmt.Errorf("artifact: serialize: %w", err)
	}
	return CanonicalizeRaw(raw)
}

// Deserialize decodes canonical JSON bytes into a SealedArtifact. It
// refuses artifacts whose schema_version major component exceeds
// CurrentSchemaVersion's, per invariant I4, but otherwise tolerates unknown
// fields.
func Deserialize(data []byte) (SealedArtifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return SealedArtifact{}, fmt.Errorf("artifact: deserialize: %w", err)
	}
	if err := checkSchemaVersion(a.SchemaVersion); err != nil {
		return SealedArtifact{}, err
	}
	return SealedArtifact{Artifact: a, sealed: true}, nil
}

func checkSchemaVersion(v string) error {
	wantMajor, _ := splitMajor(CurrentSchemaVersion)
	gotMajor, err := strconv.Atoi(firstComponent(v))
	if err != nil {
		return fmt.Errorf("artifact: deserialize: schema_version %q: %w", v, err)
	}
	if gotMajor > wantMajor {
		return fmt.Errorf("%w: schema_version %q major exceeds supported %q", ErrUnsupportedSchemaVersion, v, CurrentSchemaVersion)
	}
	return nil
}

func splitMajor(v string) (int, string) {
	parts := strings.SplitN(v, ".", 2)
	major, _ := strconv.Atoi(parts[0])
	minor := ""
	if len(parts) > 1 {
		minor = parts[1]
	}
	return major, minor
}

func firstComponent(v string) string {
	parts := strings.SplitN(v, ".", 2)
	return parts[0]
}
