package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscare/avatar-agent/internal/config"
	"github.com/campuscare/avatar-agent/internal/expression"
	"github.com/campuscare/avatar-agent/internal/llm"
	"github.com/campuscare/avatar-agent/internal/render"
	"github.com/campuscare/avatar-agent/internal/speech"
	"github.com/campuscare/avatar-agent/internal/transport"
)

type fakeRoom struct {
	mu         sync.Mutex
	state      transport.ConnectionState
	connectErr error
	published  [][]byte
	events     []string
	onJoin     func(transport.Participant)
}

func (r *fakeRoom) Connect(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connectErr != nil {
		return r.connectErr
	}
	r.state = transport.StateConnected
	r.events = append(r.events, "room.connect")
	return nil
}

func (r *fakeRoom) State() transport.ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *fakeRoom) setState(s transport.ConnectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

func (r *fakeRoom) OnParticipantConnected(fn func(transport.Participant)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onJoin = fn
}

func (r *fakeRoom) OnTrackSubscribed(func(transport.Track, transport.Participant)) {}

func (r *fakeRoom) PublishAudio(_ context.Context, pcm []byte, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, pcm)
	r.events = append(r.events, "room.publish")
	return nil
}

func (r *fakeRoom) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = transport.StateDisconnected
	r.events = append(r.events, "room.disconnect")
	return nil
}

func (r *fakeRoom) publishedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.published)
}

type fakeSession struct {
	mu          sync.Mutex
	connectErr  error
	expressions []string
	speeches    int
	events      []string
}

func (s *fakeSession) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connectErr != nil {
		return s.connectErr
	}
	s.events = append(s.events, "session.connect")
	return nil
}

func (s *fakeSession) RequestExpression(_ context.Context, preset expression.Preset, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expressions = append(s.expressions, preset.Name)
	return nil
}

func (s *fakeSession) RenderSpeech(_ context.Context, _ []byte, _ int, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speeches++
	s.events = append(s.events, "session.speech")
	return nil
}

func (s *fakeSession) NetworkStats(context.Context) (render.Stats, error) {
	return render.Stats{BitrateKbps: 2000, FPS: 30}, nil
}

func (s *fakeSession) SetComplexity(context.Context, render.Complexity) error { return nil }

func (s *fakeSession) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "session.disconnect")
	return nil
}

func (s *fakeSession) expressed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.expressions))
	copy(out, s.expressions)
	return out
}

func (s *fakeSession) speechCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speeches
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Session.Category = "Health"
	cfg.Session.SystemPrompt = "You are a supportive campus counselor."
	cfg.Room.PollInterval = 20 * time.Millisecond
	// Debounce off so every classification lands in assertions.
	cfg.Expression.MinInterval = 0
	cfg.Expression.TransitionDuration = 0
	return cfg
}

func newTestAgent(cfg *config.Config, room *fakeRoom, sess *fakeSession, provider llm.Provider) *Agent {
	return New(Options{
		Config:   cfg,
		Logger:   zerolog.Nop(),
		Provider: provider,
		Synth:    speech.NewSilenceSynthesizer(24000, zerolog.Nop()),
		Room:     room,
		Session:  sess,
	})
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestAgent_GreetsOnStart(t *testing.T) {
	room := &fakeRoom{}
	sess := &fakeSession{}
	provider := llm.NewMockProvider("Of course, I'm glad you're here.")
	a := newTestAgent(testConfig(), room, sess, provider)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	waitFor(t, func() bool { return room.publishedCount() >= 1 }, "greeting never published")

	// Context-setting call carries the Health greeting.
	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "health and wellness")

	// Initial expression is supportive.
	assert.Equal(t, "Supportive", sess.expressed()[0])

	room.setState(transport.StateDisconnected)
	require.NoError(t, <-done)
	assert.Equal(t, PhaseTerminated, a.Phase())
}

func TestAgent_ConversationTurn(t *testing.T) {
	room := &fakeRoom{}
	sess := &fakeSession{}
	provider := llm.NewMockProvider("That sounds hard. I'm proud of you for reaching out.")
	a := newTestAgent(testConfig(), room, sess, provider)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	waitFor(t, func() bool { return a.Phase() == PhaseConversing }, "never reached conversing")

	a.SubmitUtterance("I've been feeling overwhelmed lately")
	waitFor(t, func() bool { return sess.speechCount() >= 2 }, "reply never rendered")

	history := a.History()
	require.Len(t, history, 4) // greeting context pair + conversation pair
	assert.Equal(t, llm.RoleUser, history[2].Role)
	assert.Equal(t, "I've been feeling overwhelmed lately", history[2].Content)
	assert.Equal(t, "That sounds hard. I'm proud of you for reaching out.", history[3].Content)

	room.setState(transport.StateDisconnected)
	require.NoError(t, <-done)
}

func TestAgent_CrisisUtteranceTriggersConcern(t *testing.T) {
	room := &fakeRoom{}
	sess := &fakeSession{}
	a := newTestAgent(testConfig(), room, sess, llm.NewMockProvider())

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	waitFor(t, func() bool { return a.Phase() == PhaseConversing }, "never reached conversing")

	a.SubmitUtterance("some days I feel like I don't want to live anymore")
	waitFor(t, func() bool {
		for _, name := range sess.expressed() {
			if name == "Concerned" {
				return true
			}
		}
		return false
	}, "concerned expression never requested")

	room.setState(transport.StateDisconnected)
	require.NoError(t, <-done)
}

func TestAgent_ModelFailureFallsBack(t *testing.T) {
	room := &fakeRoom{}
	sess := &fakeSession{}
	provider := llm.NewMockProvider()
	a := newTestAgent(testConfig(), room, sess, provider)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	waitFor(t, func() bool { return a.Phase() == PhaseConversing }, "never reached conversing")

	provider.Fail(errors.New("backend down"))
	a.SubmitUtterance("can you help me?")
	waitFor(t, func() bool { return sess.speechCount() >= 2 }, "fallback never spoken")

	history := a.History()
	last := history[len(history)-1]
	assert.Equal(t, llm.RoleAssistant, last.Role)
	assert.Equal(t, apologeticReply, last.Content)

	// Session survives the failure.
	assert.Equal(t, PhaseConversing, a.Phase())

	room.setState(transport.StateDisconnected)
	require.NoError(t, <-done)
}

func TestAgent_RoomConnectFailureIsFatal(t *testing.T) {
	room := &fakeRoom{connectErr: &transport.ConnectionError{Err: errors.New("credentials rejected")}}
	sess := &fakeSession{}
	a := newTestAgent(testConfig(), room, sess, llm.NewMockProvider())

	err := a.Run(context.Background())
	require.Error(t, err)

	var connErr *transport.ConnectionError
	assert.ErrorAs(t, err, &connErr)
	assert.Equal(t, PhaseTerminated, a.Phase())
}

func TestAgent_TeardownOrder(t *testing.T) {
	room := &fakeRoom{}
	sess := &fakeSession{}
	a := newTestAgent(testConfig(), room, sess, llm.NewMockProvider())

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	waitFor(t, func() bool { return a.Phase() == PhaseConversing }, "never reached conversing")

	room.setState(transport.StateDisconnected)
	require.NoError(t, <-done)

	sess.mu.Lock()
	sessEvents := append([]string(nil), sess.events...)
	sess.mu.Unlock()
	assert.Equal(t, "session.disconnect", sessEvents[len(sessEvents)-1])

	room.mu.Lock()
	roomEvents := append([]string(nil), room.events...)
	room.mu.Unlock()
	assert.Equal(t, "room.disconnect", roomEvents[len(roomEvents)-1])
}

func TestAgent_CancellationEndsSession(t *testing.T) {
	room := &fakeRoom{}
	sess := &fakeSession{}
	a := newTestAgent(testConfig(), room, sess, llm.NewMockProvider())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	waitFor(t, func() bool { return a.Phase() == PhaseConversing }, "never reached conversing")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("agent did not stop on cancellation")
	}
	assert.Equal(t, PhaseTerminated, a.Phase())
	assert.Equal(t, transport.StateDisconnected, room.State())
}

func TestTruncate_RuneBoundaries(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 50))

	got := truncate("je suis très débordé en ce moment, ça ne va pas du tout", 20)
	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	assert.Equal(t, "je suis très débordé...", got)
}

func TestAgent_UnknownCategoryUsesDefaultGreeting(t *testing.T) {
	cfg := testConfig()
	cfg.Session.Category = "Quantum Mechanics"

	room := &fakeRoom{}
	sess := &fakeSession{}
	provider := llm.NewMockProvider()
	a := newTestAgent(cfg, room, sess, provider)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	waitFor(t, func() bool { return room.publishedCount() >= 1 }, "greeting never published")

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], defaultGreeting)

	room.setState(transport.StateDisconnected)
	require.NoError(t, <-done)
}
