package artifact

// PromptMessage is a single ordered message in a chat-style prompt.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResolvedPrompt is the fully rendered prompt sent to the model, together
// with the template it was rendered from and the hashes the Determinism
// Scorer and Replay Engine compare against.
//
// The three hashes are derived, never caller-supplied: ComputeHashes fills
// them in during Seal.
type ResolvedPrompt struct {
	// Template is the raw, unrendered prompt template (may be empty if the
	// caller only ever had a final rendered string).
	Template string `json:"template,omitempty"`
	// TemplateID optionally names a template registered elsewhere (a prompt
	// library key, a file path, a version tag).
	TemplateID string `json:"template_id,omitempty"`
	// Variables is the name/value map substituted into Template.
	Variables map[string]string `json:"variables,omitempty"`
	// FinalText is the fully rendered prompt text actually sent to the model.
	FinalText string `json:"final_text"`
	// System optionally carries a separate system prompt.
	System string `json:"system,omitempty"`
	// Messages optionally carries an ordered chat message list, when the
	// provider's API is message-based rather than single-string.
	Messages []PromptMessage `json:"messages,omitempty"`

	// TemplateHash is SHA-256(canonical(Template)).
	TemplateHash string `json:"template_hash,omitempty"`
	// FinalTextHash is SHA-256(canonical(FinalText)).
	FinalTextHash string `json:"final_text_hash"`
	// VariablesHash is SHA-256(canonical(Variables)).
	VariablesHash string `json:"variables_hash,omitempty"`
}
