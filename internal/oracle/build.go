package oracle

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Spec selects and parameterizes an oracle. It is the resolved form of the
// oracle section of a simulation config.
type Spec struct {
	Name        string
	Model       string
	BaseURL     string
	APIKey      string
	// Timeout bounds each backend HTTP call. Zero means the client default, negative
	// means unbounded.
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64

	// Responses feeds the scripted oracle.
	Responses []string
	// Rule tunes the rule-based oracle.
	Rule RuleParams
	// Fallback names a second oracle used when the first fails; empty disables it.
	Fallback string
}

// Build constructs the oracle named by spec.Name, wrapped in a Fallback when
// spec.Fallback is set. logger may be nil.
func Build(spec Spec, logger *slog.Logger) (Oracle, error) {
	primary, err := build(spec)
	if err != nil {
		return nil, err
	}
	fb := strings.TrimSpace(spec.Fallback)
	if fb == "" || strings.EqualFold(fb, primary.Name()) {
		return primary, nil
	}
	// The fallback talks to its own backend: endpoint, model and key come from its
	// environment defaults, never from the primary.
	secondarySpec := spec
	secondarySpec.Name = fb
	secondarySpec.Fallback = ""
	secondarySpec.BaseURL = ""
	secondarySpec.Model = ""
	secondarySpec.APIKey = ""
	secondary, err := build(secondarySpec)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return &Fallback{Primary: primary, Secondary: secondary, Logger: logger}, nil
}

func build(spec Spec) (Oracle, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Name)) {
	case "", "rule":
		return NewRule(spec.Rule), nil
	case "hold":
		return Hold{}, nil
	case "scripted":
		if len(spec.Responses) == 0 {
			return nil, fmt.Errorf("scripted oracle requires at least one response")
		}
		return NewScripted(spec.Responses...), nil
	case "ollama":
		return NewOllama(OllamaConfig{
			BaseURL:     spec.BaseURL,
			Model:       spec.Model,
			NumPredict:  spec.MaxTokens,
			Temperature: spec.Temperature,
			Timeout:     spec.Timeout,
		}), nil
	case "openai":
		return NewOpenAI(OpenAIConfig{
			APIKey:      spec.APIKey,
			BaseURL:     spec.BaseURL,
			Model:       spec.Model,
			MaxTokens:   spec.MaxTokens,
			Temperature: spec.Temperature,
			Timeout:     spec.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported oracle: %q", spec.Name)
	}
}

// Names lists the oracle names Build accepts.
func Names() []string {
	return []string{"rule", "hold", "scripted", "ollama", "openai"}
}
