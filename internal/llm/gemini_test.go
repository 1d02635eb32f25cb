package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiProvider_Generate(t *testing.T) {
	var captured geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"That sounds hard. I'm here for you."}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider(GeminiConfig{APIKey: "key", BaseURL: srv.URL}, zerolog.Nop())

	history := []Turn{
		{Role: RoleUser, Content: "Hi"},
		{Role: RoleAssistant, Content: "Hello! How can I help?"},
	}
	reply, err := p.Generate(context.Background(), "You are a counselor.", history, "I had a rough week")
	require.NoError(t, err)
	assert.Equal(t, "That sounds hard. I'm here for you.", reply)

	// System prompt rides in systemInstruction, history precedes the new
	// utterance, and assistant turns map to the "model" role.
	require.NotNil(t, captured.SystemInstruction)
	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.Equal(t, "I had a rough week", captured.Contents[2].Parts[0].Text)
}

func TestGeminiProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewGeminiProvider(GeminiConfig{APIKey: "key", BaseURL: srv.URL}, zerolog.Nop())

	_, err := p.Generate(context.Background(), "", nil, "hello")
	require.Error(t, err)
}

func TestGeminiProvider_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewGeminiProvider(GeminiConfig{
		APIKey:  "key",
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
	}, zerolog.Nop())

	_, err := p.Generate(context.Background(), "", nil, "hello")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGeminiProvider_NoKey(t *testing.T) {
	p := NewGeminiProvider(GeminiConfig{}, zerolog.Nop())

	_, err := p.Generate(context.Background(), "", nil, "hello")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestGroqProvider_Generate(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"You're making real progress."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := NewGroqProvider(GroqConfig{APIKey: "key", BaseURL: srv.URL}, zerolog.Nop())

	reply, err := p.Generate(context.Background(), "You are a counselor.", nil, "I did well today")
	require.NoError(t, err)
	assert.Equal(t, "You're making real progress.", reply)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "llama-3.3-70b-versatile", captured.Model)
}
