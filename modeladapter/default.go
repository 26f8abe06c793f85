package modeladapter

import (
	"github.com/kurral/kurral/modeladapter/anthropicadapter"
	"github.com/kurral/kurral/modeladapter/bedrockadapter"
	"github.com/kurral/kurral/modeladapter/openaiadapter"
)

// Default returns a Registry pre-populated with the anthropic, openai, and
// bedrock adapters.
func Default() *Registry {
	r := NewRegistry()
	r.Register(anthropicadapter.New())
	r.Register(openaiadapter.New())
	r.Register(bedrockadapter.New())
	return r
}
