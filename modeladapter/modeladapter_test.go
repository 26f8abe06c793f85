package modeladapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kurral/kurral/artifact"
)

type stubAdapter struct{ provider string }

func (s stubAdapter) Provider() string { return s.provider }
func (s stubAdapter) ExtractConfig(any) (artifact.ModelConfig, error) {
	return artifact.ModelConfig{Name: "stub", Provider: s.provider}, nil
}
func (s stubAdapter) ExtractTokens(any) (artifact.TokenUsage, error) {
	return artifact.TokenUsage{TotalTokens: 1}, nil
}

func TestRegistry_DispatchAndUnknown(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register(stubAdapter{provider: "stub"})

	cfg, err := r.ExtractConfig("stub", nil)
	require.NoError(t, err)
	require.Equal(t, "stub", cfg.Name)

	_, err = r.ExtractTokens("missing", nil)
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestDefault_RegistersKnownProviders(t *testing.T) {
	t.Parallel()
	r := Default()
	providers := r.Providers()
	require.Contains(t, providers, "anthropic")
	require.Contains(t, providers, "openai")
	require.Contains(t, providers, "bedrock")
}
