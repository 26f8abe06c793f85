package mongoindex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeFromUnixNanoRoundTripsUTC(t *testing.T) {
	want := time.Date(2026, 3, 5, 12, 30, 0, 0, time.UTC)
	got := timeFromUnixNano(want.UnixNano())
	require.True(t, want.Equal(got))
	require.Equal(t, "UTC", got.Location().String())
}

func TestDocumentCarriesIndexedFields(t *testing.T) {
	doc := document{
		ID:              "id-1",
		RunID:           "run-1",
		TenantID:        "tenant-1",
		SemanticBuckets: []string{"greeting"},
		CreatedAtUnix:   1000,
		Payload:         []byte(`{}`),
	}
	require.Equal(t, "id-1", doc.ID)
	require.Equal(t, []string{"greeting"}, doc.SemanticBuckets)
}
