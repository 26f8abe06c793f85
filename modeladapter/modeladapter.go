// Package modeladapter extracts the provider-agnostic model metadata a
// captured artifact needs — ModelConfig and TokenUsage — from a provider
// SDK's native response object. Each provider gets its own subpackage
// (anthropicadapter, openaiadapter, bedrockadapter); Registry dispatches by
// provider name so package capture never imports a provider SDK directly.
package modeladapter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kurral/kurral/artifact"
)

// ErrUnknownProvider is returned when no Adapter is registered under a
// requested provider name.
var ErrUnknownProvider = errors.New("modeladapter: unknown provider")

// Adapter extracts Kurral's artifact-level model metadata from one
// provider's native response object. response is the provider SDK's own
// response type (e.g. *anthropic.Message); an Adapter that receives a value
// of the wrong type returns an error rather than panicking.
type Adapter interface {
	// Provider is the identifier this adapter serves (e.g. "anthropic").
	Provider() string
	// ExtractConfig derives the ModelConfig the run actually used.
	ExtractConfig(response any) (artifact.ModelConfig, error)
	// ExtractTokens derives the run's token usage.
	ExtractTokens(response any) (artifact.TokenUsage, error)
}

// Registry dispatches ExtractConfig/ExtractTokens calls to the Adapter
// registered for a given provider name. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds or replaces the adapter for its own Provider() name.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Provider()] = a
}

// Providers lists the currently registered provider names.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	return out
}

func (r *Registry) adapterFor(provider string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return a, nil
}

// ExtractConfig dispatches to the adapter registered for provider.
func (r *Registry) ExtractConfig(provider string, response any) (artifact.ModelConfig, error) {
	a, err := r.adapterFor(provider)
	if err != nil {
		return artifact.ModelConfig{}, err
	}
	return a.ExtractConfig(response)
}

// ExtractTokens dispatches to the adapter registered for provider.
func (r *Registry) ExtractTokens(provider string, response any) (artifact.TokenUsage, error) {
	a, err := r.adapterFor(provider)
	if err != nil {
		return artifact.TokenUsage{}, err
	}
	return a.ExtractTokens(response)
}
