package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// OpenAIConfig holds OpenAI TTS configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // tts-1 or tts-1-hd
	Voice   string // alloy, echo, fable, onyx, nova, shimmer
	BaseURL string
	Timeout time.Duration
}

// OpenAISynthesizer implements speech synthesis using OpenAI's TTS API,
// requesting raw PCM so the output feeds the lip-sync path directly.
type OpenAISynthesizer struct {
	cfg    OpenAIConfig
	client *http.Client
	logger zerolog.Logger
}

// NewOpenAISynthesizer creates an OpenAI TTS synthesizer.
func NewOpenAISynthesizer(cfg OpenAIConfig, logger zerolog.Logger) *OpenAISynthesizer {
	if cfg.Model == "" {
		cfg.Model = "tts-1"
	}
	if cfg.Voice == "" {
		cfg.Voice = "nova"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAISynthesizer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("provider", "openai-tts").Logger(),
	}
}

// Name returns the synthesizer identifier.
func (s *OpenAISynthesizer) Name() string {
	return "openai"
}

type ttsRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize converts text to 24kHz 16-bit PCM.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, int, error) {
	if s.cfg.APIKey == "" {
		return nil, 0, ErrProviderUnavailable
	}

	body, err := json.Marshal(ttsRequest{
		Model:          s.cfg.Model,
		Input:          text,
		Voice:          s.cfg.Voice,
		ResponseFormat: "pcm",
	})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("openai tts error: %s", string(respBody))
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	s.logger.Info().
		Int("audioBytes", len(pcm)).
		Dur("processingTime", time.Since(start)).
		Msg("Synthesis complete")

	// OpenAI PCM output is 24kHz 16-bit mono.
	return pcm, 24000, nil
}
