package capture

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizePlainValuesRoundTrip(t *testing.T) {
	data, err := Sanitize(map[string]any{"q": "golang", "n": 3})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, "golang", out["q"])
}

func TestSanitizeReplacesFuncWithPlaceholder(t *testing.T) {
	cb := func() {}
	data, err := Sanitize(map[string]any{"callback": cb})
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, json.Unmarshal(data, &out))
	require.Contains(t, out["callback"], "func()@0x")
}

type cyclic struct {
	Next *cyclic
	Name string
}

func TestSanitizeCutsCyclesAtDepth(t *testing.T) {
	a := &cyclic{Name: "a"}
	b := &cyclic{Name: "b", Next: a}
	a.Next = b

	data, err := Sanitize(a)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestSanitizeTruncatesDeepNesting(t *testing.T) {
	nested := map[string]any{
		"l1": map[string]any{
			"l2": map[string]any{
				"l3": map[string]any{
					"l4": "too deep",
				},
			},
		},
	}
	data, err := Sanitize(nested)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	l1 := out["l1"].(map[string]any)
	l2 := l1["l2"].(map[string]any)
	l3, ok := l2["l3"].(string)
	require.True(t, ok, "depth-3 branch should be truncated to a placeholder string")
	require.Contains(t, l3, "map[string]interface {}@")
}
