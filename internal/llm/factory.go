package llm

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config selects and configures the text-generation provider. The provider
// set is closed: gemini, groq, or mock. The returned handle is constructed
// once at startup and passed down by parameter; there is no process-wide
// cache.
type Config struct {
	Provider     string
	GeminiAPIKey string
	GroqAPIKey   string
	Model        string
	Params       GenerationParams
	Timeout      time.Duration
}

// New builds the configured provider.
func New(cfg Config, logger zerolog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when provider is gemini")
		}
		return NewGeminiProvider(GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.Model,
			Params:  cfg.Params,
			Timeout: cfg.Timeout,
		}, logger), nil

	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required when provider is groq")
		}
		return NewGroqProvider(GroqConfig{
			APIKey:  cfg.GroqAPIKey,
			Model:   cfg.Model,
			Params:  cfg.Params,
			Timeout: cfg.Timeout,
		}, logger), nil

	case "mock":
		return NewMockProvider(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider %q (expected gemini, groq, or mock)", cfg.Provider)
	}
}
