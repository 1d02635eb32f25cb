package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const groqDefaultBaseURL = "https://api.groq.com/openai/v1"

// GroqConfig holds Groq provider configuration.
type GroqConfig struct {
	APIKey  string
	Model   string // defaults to llama-3.3-70b-versatile
	BaseURL string
	Params  GenerationParams
	Timeout time.Duration
}

// GroqProvider implements text generation against Groq's OpenAI-compatible
// chat completions API.
type GroqProvider struct {
	cfg    GroqConfig
	client *http.Client
	logger zerolog.Logger
}

// NewGroqProvider creates a Groq provider.
func NewGroqProvider(cfg GroqConfig, logger zerolog.Logger) *GroqProvider {
	if cfg.Model == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = groqDefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Params == (GenerationParams{}) {
		cfg.Params = DefaultGenerationParams()
	}
	return &GroqProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("provider", "groq").Logger(),
	}
}

// Name returns the provider identifier.
func (p *GroqProvider) Name() string {
	return "groq"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends the history plus the new utterance to Groq.
func (p *GroqProvider) Generate(ctx context.Context, systemPrompt string, history []Turn, utterance string) (string, error) {
	if p.cfg.APIKey == "" {
		return "", ErrProviderUnavailable
	}

	messages := make([]chatMessage, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	for _, turn := range history {
		messages = append(messages, chatMessage{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: utterance})

	body, err := json.Marshal(chatRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Temperature: p.cfg.Params.Temperature,
		TopP:        p.cfg.Params.TopP,
		MaxTokens:   p.cfg.Params.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		p.logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(respBody)).
			Msg("Groq request failed")
		return "", fmt.Errorf("groq error: status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("groq error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}

	text := out.Choices[0].Message.Content
	p.logger.Debug().
		Dur("latency", time.Since(start)).
		Int("replyLen", len(text)).
		Msg("Groq generation complete")
	return text, nil
}
