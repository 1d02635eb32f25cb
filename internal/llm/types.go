// Package llm provides the text-generation capability behind the
// conversation: a closed set of providers selected once at startup.
package llm

import (
	"context"
	"errors"
)

// Common errors. All provider failures are recoverable per turn: the
// orchestrator substitutes a fallback reply and keeps the session alive.
var (
	ErrProviderUnavailable = errors.New("LLM provider unavailable")
	ErrTimeout             = errors.New("generation timeout")
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in the conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Provider is the interface all text-generation providers implement.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini", "groq").
	Name() string

	// Generate produces the assistant's reply to an utterance given the
	// counselor system prompt and accumulated history.
	Generate(ctx context.Context, systemPrompt string, history []Turn, utterance string) (string, error)
}

// GenerationParams are the sampling parameters shared by providers.
type GenerationParams struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

// DefaultGenerationParams returns the reference sampling configuration.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature:     0.7,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 1024,
	}
}
