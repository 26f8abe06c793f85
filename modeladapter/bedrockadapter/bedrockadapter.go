// Package bedrockadapter implements modeladapter.Adapter for Amazon
// Bedrock's Converse API (github.com/aws/aws-sdk-go-v2/service/bedrockruntime),
// grounded on features/model/bedrock/client.go's response handling.
package bedrockadapter

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/kurral/kurral/artifact"
)

// Name is the provider identifier this adapter registers under.
const Name = "bedrock"

// Response pairs a ConverseOutput with the model id the request was issued
// under. bedrockruntime.ConverseOutput carries no model identifier of its
// own (unlike Anthropic/OpenAI's response bodies), so callers that want
// ModelConfig.Name populated wrap the SDK response in a Response; a bare
// *bedrockruntime.ConverseOutput is also accepted and yields an empty name.
type Response struct {
	ModelID string
	Output  *bedrockruntime.ConverseOutput
}

// Adapter extracts ModelConfig/TokenUsage from a Bedrock Converse response.
type Adapter struct{}

// New returns a Bedrock Adapter.
func New() *Adapter { return &Adapter{} }

// Provider implements modeladapter.Adapter.
func (a *Adapter) Provider() string { return Name }

func asOutput(response any) (*bedrockruntime.ConverseOutput, string, error) {
	switch r := response.(type) {
	case Response:
		return r.Output, r.ModelID, nil
	case *Response:
		if r == nil {
			break
		}
		return r.Output, r.ModelID, nil
	case *bedrockruntime.ConverseOutput:
		if r == nil {
			break
		}
		return r, "", nil
	}
	return nil, "", fmt.Errorf("bedrockadapter: expected *bedrockruntime.ConverseOutput or Response, got %T", response)
}

// ExtractConfig implements modeladapter.Adapter.
func (a *Adapter) ExtractConfig(response any) (artifact.ModelConfig, error) {
	_, modelID, err := asOutput(response)
	if err != nil {
		return artifact.ModelConfig{}, err
	}
	return artifact.ModelConfig{
		Name:     modelID,
		Provider: Name,
	}, nil
}

// ExtractTokens implements modeladapter.Adapter.
func (a *Adapter) ExtractTokens(response any) (artifact.TokenUsage, error) {
	out, _, err := asOutput(response)
	if err != nil {
		return artifact.TokenUsage{}, err
	}
	if out == nil || out.Usage == nil {
		return artifact.TokenUsage{}, nil
	}
	u := out.Usage
	usage := artifact.TokenUsage{
		PromptTokens:     int(derefI32(u.InputTokens)),
		CompletionTokens: int(derefI32(u.OutputTokens)),
		TotalTokens:      int(derefI32(u.TotalTokens)),
	}
	if u.CacheReadInputTokens != nil {
		v := int(*u.CacheReadInputTokens)
		usage.CacheReadTokens = &v
	}
	if u.CacheWriteInputTokens != nil {
		v := int(*u.CacheWriteInputTokens)
		usage.CacheCreationTokens = &v
	}
	return usage, nil
}

func derefI32(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}
