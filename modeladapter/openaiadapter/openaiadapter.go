// Package openaiadapter implements modeladapter.Adapter for the OpenAI
// Chat Completions API (github.com/openai/openai-go).
package openaiadapter

import (
	"fmt"

	"github.com/openai/openai-go"

	"github.com/kurral/kurral/artifact"
)

// Name is the provider identifier this adapter registers under.
const Name = "openai"

// Adapter extracts ModelConfig/TokenUsage from openai.ChatCompletion.
type Adapter struct{}

// New returns an OpenAI Adapter.
func New() *Adapter { return &Adapter{} }

// Provider implements modeladapter.Adapter.
func (a *Adapter) Provider() string { return Name }

// ExtractConfig implements modeladapter.Adapter.
func (a *Adapter) ExtractConfig(response any) (artifact.ModelConfig, error) {
	resp, err := asChatCompletion(response)
	if err != nil {
		return artifact.ModelConfig{}, err
	}
	return artifact.ModelConfig{
		Name:     resp.Model,
		Provider: Name,
	}, nil
}

// ExtractTokens implements modeladapter.Adapter.
func (a *Adapter) ExtractTokens(response any) (artifact.TokenUsage, error) {
	resp, err := asChatCompletion(response)
	if err != nil {
		return artifact.TokenUsage{}, err
	}
	u := resp.Usage
	usage := artifact.TokenUsage{
		PromptTokens:     int(u.PromptTokens),
		CompletionTokens: int(u.CompletionTokens),
		TotalTokens:      int(u.TotalTokens),
	}
	if u.PromptTokensDetails.CachedTokens != 0 {
		v := int(u.PromptTokensDetails.CachedTokens)
		usage.CachedTokens = &v
	}
	if u.CompletionTokensDetails.ReasoningTokens != 0 {
		v := int(u.CompletionTokensDetails.ReasoningTokens)
		usage.ReasoningTokens = &v
	}
	return usage, nil
}

func asChatCompletion(response any) (*openai.ChatCompletion, error) {
	switch r := response.(type) {
	case *openai.ChatCompletion:
		if r == nil {
			break
		}
		return r, nil
	case openai.ChatCompletion:
		return &r, nil
	}
	return nil, fmt.Errorf("openaiadapter: expected openai.ChatCompletion, got %T", response)
}
