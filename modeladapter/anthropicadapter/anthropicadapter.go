// Package anthropicadapter implements modeladapter.Adapter for the
// Anthropic Messages API, grounded on features/model/anthropic/client.go's
// response handling (github.com/anthropics/anthropic-sdk-go).
package anthropicadapter

import (
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/kurral/kurral/artifact"
)

// Name is the provider identifier this adapter registers under.
const Name = "anthropic"

// Adapter extracts ModelConfig/TokenUsage from *anthropic.Message.
type Adapter struct{}

// New returns an Anthropic Adapter.
func New() *Adapter { return &Adapter{} }

// Provider implements modeladapter.Adapter.
func (a *Adapter) Provider() string { return Name }

// ExtractConfig implements modeladapter.Adapter.
func (a *Adapter) ExtractConfig(response any) (artifact.ModelConfig, error) {
	msg, ok := response.(*sdk.Message)
	if !ok || msg == nil {
		return artifact.ModelConfig{}, fmt.Errorf("anthropicadapter: expected *anthropic.Message, got %T", response)
	}
	return artifact.ModelConfig{
		Name:     string(msg.Model),
		Provider: Name,
	}, nil
}

// ExtractTokens implements modeladapter.Adapter.
func (a *Adapter) ExtractTokens(response any) (artifact.TokenUsage, error) {
	msg, ok := response.(*sdk.Message)
	if !ok || msg == nil {
		return artifact.TokenUsage{}, fmt.Errorf("anthropicadapter: expected *anthropic.Message, got %T", response)
	}
	u := msg.Usage
	usage := artifact.TokenUsage{
		PromptTokens:     int(u.InputTokens),
		CompletionTokens: int(u.OutputTokens),
		TotalTokens:      int(u.InputTokens + u.OutputTokens),
	}
	if u.CacheCreationInputTokens != 0 {
		v := int(u.CacheCreationInputTokens)
		usage.CacheCreationTokens = &v
	}
	if u.CacheReadInputTokens != 0 {
		v := int(u.CacheReadInputTokens)
		usage.CacheReadTokens = &v
	}
	return usage, nil
}
