package openaiadapter

import (
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"
)

func TestExtractConfigAndTokens(t *testing.T) {
	t.Parallel()
	a := New()
	resp := &openai.ChatCompletion{Model: "gpt-4o"}
	resp.Usage.PromptTokens = 20
	resp.Usage.CompletionTokens = 8
	resp.Usage.TotalTokens = 28

	cfg, err := a.ExtractConfig(resp)
	require.NoError(t, err)
	require.Equal(t, "gpt-4o", cfg.Name)
	require.Equal(t, "openai", cfg.Provider)

	usage, err := a.ExtractTokens(resp)
	require.NoError(t, err)
	require.Equal(t, 20, usage.PromptTokens)
	require.Equal(t, 8, usage.CompletionTokens)
	require.Equal(t, 28, usage.TotalTokens)
}

func TestExtractConfig_WrongType(t *testing.T) {
	t.Parallel()
	a := New()
	_, err := a.ExtractConfig(42)
	require.Error(t, err)
}
