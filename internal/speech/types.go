// Package speech provides text-to-speech synthesis for the avatar's voice.
package speech

import (
	"context"
	"errors"
)

// ErrProviderUnavailable is returned when the synthesizer cannot reach its
// backend or has no credentials.
var ErrProviderUnavailable = errors.New("speech provider unavailable")

// Synthesizer converts reply text into 16-bit mono PCM for the rendering
// session's lip-sync path.
type Synthesizer interface {
	// Name returns the synthesizer identifier.
	Name() string

	// Synthesize returns PCM samples and their sample rate.
	Synthesize(ctx context.Context, text string) (pcm []byte, sampleRate int, err error)
}

// Config selects and configures the synthesizer. Closed set: openai or
// silence (the development placeholder).
type Config struct {
	Provider     string
	OpenAIAPIKey string
	Voice        string
	SampleRate   int
}
