package chat

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Known provider names.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderAnthropic  = "anthropic"
)

// Request carries everything a provider needs to produce the next reply.
type Request struct {
	Preamble string
	History  []Turn
	Message  string
}

// Completer produces the next assistant reply for a conversation. Concrete
// adapters translate the request into each provider's wire shape; failures
// come back as *APIError.
type Completer interface {
	// Name returns the provider identifier.
	Name() string

	// Model returns the model identifier this adapter targets.
	Model() string

	// Complete returns the assistant's reply text.
	Complete(ctx context.Context, req Request) (string, error)
}

// ProviderConfig holds the static per-provider constants.
type ProviderConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Catalog maps provider names to their configuration.
type Catalog map[string]ProviderConfig

// DefaultCatalog returns the compiled-in provider constants.
func DefaultCatalog() Catalog {
	return Catalog{
		ProviderOpenRouter: {
			Endpoint:    "https://openrouter.ai/api/v1",
			Model:       "meta-llama/llama-3.1-8b-instruct:free",
			Temperature: 0.7,
			MaxTokens:   500,
		},
		ProviderOpenAI: {
			Model:       "gpt-3.5-turbo",
			Temperature: 0.7,
			MaxTokens:   500,
		},
		ProviderGemini: {
			Endpoint:    "https://generativelanguage.googleapis.com/v1beta",
			Model:       "gemini-pro",
			Temperature: 0.7,
			MaxTokens:   500,
		},
		ProviderAnthropic: {
			Endpoint:    "https://api.anthropic.com",
			Model:       "claude-3-sonnet-20240229",
			Temperature: 0.7,
			MaxTokens:   500,
		},
	}
}

// LoadCatalog reads a YAML catalog file and merges it over the defaults.
// Only the providers present in the file are overridden.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", path, err)
	}

	var overrides Catalog
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}

	catalog := DefaultCatalog()
	for name, cfg := range overrides {
		base := catalog[name]
		if cfg.Endpoint != "" {
			base.Endpoint = cfg.Endpoint
		}
		if cfg.Model != "" {
			base.Model = cfg.Model
		}
		if cfg.Temperature != 0 {
			base.Temperature = cfg.Temperature
		}
		if cfg.MaxTokens != 0 {
			base.MaxTokens = cfg.MaxTokens
		}
		catalog[name] = base
	}
	return catalog, nil
}

// NewCompleter constructs the adapter for the selected provider. The
// credential is supplied per call at connect time and never persisted.
func NewCompleter(provider, apiKey string, cfg ProviderConfig) (Completer, error) {
	switch provider {
	case ProviderOpenRouter:
		return NewOpenRouter(apiKey, cfg), nil
	case ProviderOpenAI:
		return NewOpenAI(apiKey, cfg), nil
	case ProviderGemini:
		return NewGemini(apiKey, cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(apiKey, cfg), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", provider)
	}
}
