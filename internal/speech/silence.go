package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// wordsPerMinute approximates a calm counseling speaking pace.
const wordsPerMinute = 150

// SilenceSynthesizer is the development placeholder: it emits silence
// whose duration matches the estimated speaking time of the text, so the
// conversation loop, lip-sync path, and render timing stay exercised
// without a TTS backend.
type SilenceSynthesizer struct {
	sampleRate int
	logger     zerolog.Logger
}

// NewSilenceSynthesizer creates the placeholder synthesizer.
func NewSilenceSynthesizer(sampleRate int, logger zerolog.Logger) *SilenceSynthesizer {
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	return &SilenceSynthesizer{
		sampleRate: sampleRate,
		logger:     logger.With().Str("provider", "silence-tts").Logger(),
	}
}

// Name returns the synthesizer identifier.
func (s *SilenceSynthesizer) Name() string {
	return "silence"
}

// Synthesize emits timed 16-bit silence sized from the word count.
func (s *SilenceSynthesizer) Synthesize(_ context.Context, text string) ([]byte, int, error) {
	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	seconds := float64(words) * 60.0 / wordsPerMinute

	samples := int(seconds * float64(s.sampleRate))
	pcm := make([]byte, samples*2)

	s.logger.Debug().
		Int("words", words).
		Str("duration", fmt.Sprintf("%.2fs", seconds)).
		Msg("Placeholder synthesis (silence)")
	return pcm, s.sampleRate, nil
}

// New builds the configured synthesizer. Unknown or empty providers fall
// back to the placeholder so a missing TTS key never blocks a session.
func New(cfg Config, logger zerolog.Logger) Synthesizer {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIAPIKey != "" {
			return NewOpenAISynthesizer(OpenAIConfig{
				APIKey: cfg.OpenAIAPIKey,
				Voice:  cfg.Voice,
			}, logger)
		}
		logger.Warn().Msg("OpenAI TTS selected but no API key set, using placeholder synthesis")
		return NewSilenceSynthesizer(cfg.SampleRate, logger)
	default:
		return NewSilenceSynthesizer(cfg.SampleRate, logger)
	}
}
