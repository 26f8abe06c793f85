package artifact

// ModelConfig describes the model invoked for a run.
type ModelConfig struct {
	// Name is the provider-facing model identifier (e.g. "claude-opus-4-20250514").
	Name string `json:"model_name"`
	// Version is an explicit model version string when the provider exposes one
	// separately from Name.
	Version string `json:"model_version,omitempty"`
	// Provider identifies the serving provider (e.g. "anthropic", "openai", "bedrock").
	Provider string `json:"provider,omitempty"`
	// Parameters carries the sampling/decoding configuration.
	Parameters ModelParameters `json:"parameters"`
	// StopSequences optionally lists stop strings configured for the run.
	StopSequences []string `json:"stop_sequences,omitempty"`
}

// ModelParameters carries provider sampling parameters. Pointer fields
// distinguish "not set" from the zero value, which matters for the
// Determinism Scorer's parameter scoring rules (score/components.go).
type ModelParameters struct {
	// Temperature is the sampling temperature used for the call.
	Temperature float64 `json:"temperature"`
	// Seed is the random seed, when the provider supports and the caller set one.
	Seed *int64 `json:"seed,omitempty"`
	// TopP is nucleus sampling probability mass; nil means provider default (1.0).
	TopP *float64 `json:"top_p,omitempty"`
	// TopK is top-k sampling cutoff, when supported.
	TopK *int `json:"top_k,omitempty"`
	// MaxTokens is the maximum completion length requested.
	MaxTokens int `json:"max_tokens,omitempty"`
	// FrequencyPenalty penalizes repeated tokens by frequency.
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	// PresencePenalty penalizes tokens that have already appeared at all.
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`
}

// TokenUsage aggregates token accounting for a run.
type TokenUsage struct {
	PromptTokens       int      `json:"prompt_tokens"`
	CompletionTokens   int      `json:"completion_tokens"`
	TotalTokens        int      `json:"total_tokens"`
	CachedTokens       *int     `json:"cached_tokens,omitempty"`
	CacheCreationTokens *int    `json:"cache_creation_tokens,omitempty"`
	CacheReadTokens    *int     `json:"cache_read_tokens,omitempty"`
	CacheHitRate       *float64 `json:"cache_hit_rate,omitempty"`
	ReasoningTokens    *int     `json:"reasoning_tokens,omitempty"`
}
