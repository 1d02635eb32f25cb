package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSilenceSynthesizer_DurationScalesWithWords(t *testing.T) {
	s := NewSilenceSynthesizer(24000, zerolog.Nop())

	short, rate, err := s.Synthesize(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Equal(t, 24000, rate)

	long, _, err := s.Synthesize(context.Background(), "hello there my friend how are you doing today")
	require.NoError(t, err)

	assert.Greater(t, len(long), len(short), "more words must produce longer audio")

	// Two words at 150wpm is 0.8s -> 0.8 * 24000 samples * 2 bytes.
	assert.Equal(t, 38400, len(short))
}

func TestSilenceSynthesizer_EmptyText(t *testing.T) {
	s := NewSilenceSynthesizer(24000, zerolog.Nop())

	pcm, _, err := s.Synthesize(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, pcm, "even empty text yields a minimal clip")
}

func TestOpenAISynthesizer_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_, _ = w.Write(make([]byte, 4800))
	}))
	defer srv.Close()

	s := NewOpenAISynthesizer(OpenAIConfig{APIKey: "key", BaseURL: srv.URL}, zerolog.Nop())

	pcm, rate, err := s.Synthesize(context.Background(), "Hello!")
	require.NoError(t, err)
	assert.Equal(t, 24000, rate)
	assert.Len(t, pcm, 4800)
}

func TestOpenAISynthesizer_NoKey(t *testing.T) {
	s := NewOpenAISynthesizer(OpenAIConfig{}, zerolog.Nop())

	_, _, err := s.Synthesize(context.Background(), "Hello!")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestNew_FallsBackToPlaceholder(t *testing.T) {
	s := New(Config{Provider: "openai"}, zerolog.Nop())
	assert.Equal(t, "silence", s.Name())

	s = New(Config{Provider: "openai", OpenAIAPIKey: "key"}, zerolog.Nop())
	assert.Equal(t, "openai", s.Name())

	s = New(Config{}, zerolog.Nop())
	assert.Equal(t, "silence", s.Name())
}
