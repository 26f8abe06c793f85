package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvariantViolation is the sentinel wrapped by every InvariantViolation
// returned from Seal, so callers can test with errors.Is regardless of which
// invariants actually failed.
var ErrInvariantViolation = errors.New("artifact: invariant violation")

// ErrUnsupportedSchemaVersion is returned by Deserialize when an artifact's
// schema_version major component exceeds CurrentSchemaVersion's, per
// invariant I4.
var ErrUnsupportedSchemaVersion = errors.New("artifact: unsupported schema version")

// InvariantViolation reports one or more failed invariants (I2–I6) detected
// during Seal.
type InvariantViolation struct {
	Violations []string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("artifact: invariant violation: %s", strings.Join(e.Violations, "; "))
}

func (e *InvariantViolation) Unwrap() error { return ErrInvariantViolation }

func (e *InvariantViolation) add(format string, args ...any) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}
