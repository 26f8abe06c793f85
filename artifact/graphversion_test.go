package artifact

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildGraphVersionIsStableAndOrderIndependent(t *testing.T) {
	t.Parallel()
	tools := []ToolSchema{
		{Name: "search", Description: "web search", Schema: json.RawMessage(`{"type":"object"}`)},
		{Name: "calculator", Description: "arithmetic", Schema: json.RawMessage(`{"type":"object","properties":{"op":{"type":"string"}}}`)},
	}

	gv1, err := BuildGraphVersion([]string{"start", "llm", "tool", "end"}, []string{"start->llm", "llm->tool", "tool->end"}, tools)
	require.NoError(t, err)

	reversed := []ToolSchema{tools[1], tools[0]}
	gv2, err := BuildGraphVersion([]string{"start", "llm", "tool", "end"}, []string{"start->llm", "llm->tool", "tool->end"}, reversed)
	require.NoError(t, err)

	require.Equal(t, gv1.GraphHash, gv2.GraphHash)
	require.Equal(t, gv1.ToolSchemaHash, gv2.ToolSchemaHash)
	require.Len(t, gv1.Tools, 2)
	require.Equal(t, "calculator", gv1.Tools[0].Name)
	require.Equal(t, "search", gv1.Tools[1].Name)
}

func TestBuildGraphVersionRejectsInvalidSchema(t *testing.T) {
	t.Parallel()
	tools := []ToolSchema{{Name: "broken", Schema: json.RawMessage(`{"type":123}`)}}
	_, err := BuildGraphVersion(nil, nil, tools)
	require.Error(t, err)
}

func TestBuildGraphVersionRejectsEmptySchema(t *testing.T) {
	t.Parallel()
	tools := []ToolSchema{{Name: "broken", Schema: nil}}
	_, err := BuildGraphVersion(nil, nil, tools)
	require.Error(t, err)
}
