package score

import (
	"regexp"
	"strings"

	"github.com/kurral/kurral/artifact"
)

// versionTailPattern matches a model name ending in a hyphen-separated
// numeric/date tail, e.g. "claude-opus-4-20250514" or "gpt-4-0613".
var versionTailPattern = regexp.MustCompile(`-[0-9]+(-[0-9]+)*$`)

func scoreModelVersion(m artifact.ModelConfig, missing *[]string) float64 {
	if m.Version != "" {
		return 1.0
	}
	if m.Name == "" {
		*missing = append(*missing, "model_config.model_name")
		return 0
	}
	if versionTailPattern.MatchString(m.Name) {
		return 0.8
	}
	if strings.TrimSpace(m.Name) != "" {
		return 0.3
	}
	return 0
}

func scoreRandomSeed(p artifact.ModelParameters, missing *[]string) float64 {
	if p.Seed != nil {
		return 1.0
	}
	*missing = append(*missing, "model_config.parameters.seed")
	return 0
}

func scorePrompt(p artifact.ResolvedPrompt, missing *[]string) float64 {
	var s float64
	if p.Template != "" {
		s += 0.3
	} else {
		*missing = append(*missing, "resolved_prompt.template")
	}
	if len(p.Variables) > 0 && p.FinalText != "" {
		s += 0.4
	}
	if p.FinalText != "" {
		s += 0.3
	} else {
		*missing = append(*missing, "resolved_prompt.final_text")
	}
	if s > 1.0 {
		s = 1.0
	}
	return s
}

func scoreToolCache(calls []artifact.ToolCall, mcpCalls []artifact.MCPToolCall) float64 {
	total := len(calls) + len(mcpCalls)
	if total == 0 {
		return 1.0
	}
	var ok int
	for _, tc := range calls {
		if tc.CacheKey != "" && tc.Status == artifact.StatusOK {
			ok++
		}
	}
	for _, tc := range mcpCalls {
		if tc.CacheKey != "" && tc.Status == artifact.StatusOK {
			ok++
		}
	}
	return float64(ok) / float64(total)
}

func scoreEnvironment(te *artifact.TimeEnv, environment string, missing *[]string) float64 {
	var s float64
	if te != nil {
		s += 0.5
	} else {
		*missing = append(*missing, "time_env")
	}
	if environment != "" {
		s += 0.3
	}
	if te != nil && len(te.EnvironmentVars) > 0 {
		s += 0.2
	}
	if s > 1.0 {
		s = 1.0
	}
	return s
}

func scoreParameters(p artifact.ModelParameters) float64 {
	var s float64
	switch {
	case p.Temperature == 0:
		s += 0.5
	case p.Temperature < 0.3:
		s += 0.3
	case p.Temperature < 0.7:
		s += 0.1
	}
	if p.TopP == nil || *p.TopP == 1 {
		s += 0.3
	} else if *p.TopP > 0.9 {
		s += 0.2
	}
	if p.FrequencyPenalty == nil || *p.FrequencyPenalty == 0 {
		s += 0.1
	}
	if p.PresencePenalty == nil || *p.PresencePenalty == 0 {
		s += 0.1
	}
	if s > 1.0 {
		s = 1.0
	}
	return s
}
