package llm

import (
	"context"
	"sync"
)

// MockProvider is a scripted provider for tests and local development.
type MockProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []string
}

// NewMockProvider creates a mock that cycles through the given replies.
func NewMockProvider(replies ...string) *MockProvider {
	if len(replies) == 0 {
		replies = []string{"I hear you. Tell me more about that."}
	}
	return &MockProvider{replies: replies}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string {
	return "mock"
}

// Fail makes every subsequent Generate call return err.
func (m *MockProvider) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the utterances passed to Generate so far.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Generate returns the next scripted reply.
func (m *MockProvider) Generate(_ context.Context, _ string, _ []Turn, utterance string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, utterance)
	if m.err != nil {
		return "", m.err
	}

	reply := m.replies[(len(m.calls)-1)%len(m.replies)]
	return reply, nil
}
