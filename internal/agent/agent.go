// Package agent orchestrates a counseling session: room connection,
// greeting, the conversation loop, and teardown.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuscare/avatar-agent/internal/config"
	"github.com/campuscare/avatar-agent/internal/expression"
	"github.com/campuscare/avatar-agent/internal/llm"
	"github.com/campuscare/avatar-agent/internal/quality"
	"github.com/campuscare/avatar-agent/internal/render"
	"github.com/campuscare/avatar-agent/internal/speech"
	"github.com/campuscare/avatar-agent/internal/transport"
)

// Phase is the session lifecycle phase.
type Phase string

const (
	PhaseInitializing  Phase = "initializing"
	PhaseConnecting    Phase = "connecting"
	PhaseGreeting      Phase = "greeting"
	PhaseConversing    Phase = "conversing"
	PhaseDisconnecting Phase = "disconnecting"
	PhaseTerminated    Phase = "terminated"
)

// greetings maps a counseling category to its opening line.
var greetings = map[string]string{
	"Health":               "Hi there! I'm here to support your health and wellness. What's on your mind today?",
	"Career":               "Hello! I'm excited to help you explore your career path. What brings you in?",
	"Academic":             "Hi! I'm here to help with your studies. What can I assist you with today?",
	"Financial Aid":        "Hello! I'm here to help you navigate financial aid. What questions do you have?",
	"Social":               "Hi! Let's talk about building connections and campus life. What's up?",
	"Personal Development": "Hello! I'm here to support your personal growth journey. What would you like to work on?",
}

const defaultGreeting = "Hello! How can I help you today?"

// apologeticReply is spoken when the model fails, so the student never
// gets silence.
const apologeticReply = "I apologize, I'm having trouble processing that right now. Could you please rephrase?"

// connectTimeout bounds each external connection attempt.
const connectTimeout = 15 * time.Second

// Options wires the agent's collaborators. Room and Session are injected
// so tests can substitute fakes.
type Options struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Provider llm.Provider
	Synth    speech.Synthesizer
	Room     transport.Room
	Session  render.Session
}

// Agent runs one counseling session end to end.
type Agent struct {
	cfg      *config.Config
	logger   zerolog.Logger
	provider llm.Provider
	synth    speech.Synthesizer
	room     transport.Room
	session  render.Session

	controller *expression.Controller
	monitor    *quality.Monitor

	utterances chan string

	mu      sync.Mutex
	phase   Phase
	history []llm.Turn
}

// New creates an agent for one session.
func New(opts Options) *Agent {
	policy := expression.TransitionPolicy{
		Duration:    opts.Config.Expression.TransitionDuration,
		MinInterval: opts.Config.Expression.MinInterval,
		Easing:      expression.DefaultTransitionPolicy().Easing,
	}

	a := &Agent{
		cfg:        opts.Config,
		logger:     opts.Logger.With().Str("component", "agent").Logger(),
		provider:   opts.Provider,
		synth:      opts.Synth,
		room:       opts.Room,
		session:    opts.Session,
		utterances: make(chan string, 16),
		phase:      PhaseInitializing,
	}
	a.controller = expression.NewController(opts.Session, policy, opts.Logger)
	a.monitor = quality.NewMonitor(opts.Session, quality.Thresholds{
		BitrateKbps: opts.Config.Quality.MinBitrateKbps,
		FPS:         opts.Config.Quality.MinFPS,
	}, opts.Config.Quality.PollInterval, opts.Logger)
	return a
}

// Phase reports the current lifecycle phase.
func (a *Agent) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

func (a *Agent) setPhase(p Phase) {
	a.mu.Lock()
	prev := a.phase
	a.phase = p
	a.mu.Unlock()
	a.logger.Info().Str("from", string(prev)).Str("to", string(p)).Msg("Phase change")
}

// SubmitUtterance feeds a transcribed student utterance into the
// conversation loop. Drops the utterance if the loop is backed up.
func (a *Agent) SubmitUtterance(text string) {
	select {
	case a.utterances <- text:
	default:
		a.logger.Warn().Msg("Utterance dropped, conversation loop backed up")
	}
}

// Run executes the full session lifecycle. It returns nil on a clean
// disconnect and an error on fatal failure; teardown runs either way.
func (a *Agent) Run(ctx context.Context) (err error) {
	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	monitorDone := make(chan struct{})
	monitorStarted := false

	defer func() {
		a.setPhase(PhaseDisconnecting)
		a.teardown(cancelMonitor, monitorDone, monitorStarted)
		a.setPhase(PhaseTerminated)
	}()

	a.setPhase(PhaseConnecting)
	if err := a.connect(ctx); err != nil {
		return err
	}

	go func() {
		defer close(monitorDone)
		a.monitor.Run(monitorCtx)
	}()
	monitorStarted = true

	a.setPhase(PhaseGreeting)
	if err := a.greet(ctx); err != nil {
		return err
	}

	a.setPhase(PhaseConversing)
	a.logger.Info().Msg("Conversation loop started")
	return a.converse(ctx)
}

func (a *Agent) connect(ctx context.Context) error {
	a.room.OnParticipantConnected(func(p transport.Participant) {
		a.logger.Info().Str("identity", p.Identity).Msg("Student joined")
	})
	a.room.OnTrackSubscribed(func(tr transport.Track, p transport.Participant) {
		a.logger.Info().
			Str("kind", string(tr.Kind)).
			Str("identity", p.Identity).
			Msg("Track subscribed")
	})

	roomCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := a.room.Connect(roomCtx); err != nil {
		return fmt.Errorf("connect room: %w", err)
	}

	sessCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := a.session.Connect(sessCtx); err != nil {
		return fmt.Errorf("connect rendering session: %w", err)
	}

	if err := a.controller.RequestChange(ctx, expression.StateSupportive); err != nil {
		return fmt.Errorf("set initial expression: %w", err)
	}
	a.logger.Info().Msg("Avatar initialized with emotional expression system")
	return nil
}

func (a *Agent) greet(ctx context.Context) error {
	greeting, ok := greetings[a.cfg.Session.Category]
	if !ok {
		greeting = defaultGreeting
	}
	a.logger.Info().Str("greeting", greeting).Msg("Sending greeting")

	// Seed conversation context; the scripted greeting is what gets
	// spoken, not the model's reply.
	prompt := fmt.Sprintf("[System: You are starting a counseling session. Greet the student with: '%s']", greeting)
	reply, err := a.generate(ctx, prompt)
	if err == nil {
		a.appendTurns(prompt, reply)
	} else {
		a.logger.Warn().Err(err).Msg("Context-setting call failed, greeting anyway")
	}

	return a.speak(ctx, greeting)
}

// converse runs until the context is canceled or the room drops.
func (a *Agent) converse(ctx context.Context) error {
	pollInterval := a.cfg.Room.PollInterval
	if pollInterval <= 0 {
		pollInterval = 1 * time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if a.room.State() != transport.StateConnected {
				a.logger.Info().Msg("Room disconnected, ending session")
				return nil
			}
		case text := <-a.utterances:
			a.handleUtterance(ctx, text)
		}
	}
}

// handleUtterance reacts to one student utterance: expression and reply
// generation run concurrently, then the reply is spoken.
func (a *Agent) handleUtterance(ctx context.Context, text string) {
	expressed := make(chan struct{})
	go func() {
		defer close(expressed)
		a.express(ctx, text)
	}()

	reply, err := a.generate(ctx, text)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Model generation failed, using fallback reply")
		reply = apologeticReply
	}
	a.appendTurns(text, reply)

	// The rendering session takes commands in order, so the utterance
	// expression must land before the reply is spoken.
	<-expressed

	if err := a.speak(ctx, reply); err != nil {
		a.logger.Error().Err(err).Msg("Failed to speak reply")
	}
}

func (a *Agent) generate(ctx context.Context, utterance string) (string, error) {
	genCtx := ctx
	if a.cfg.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, a.cfg.LLM.Timeout)
		defer cancel()
	}
	return a.provider.Generate(genCtx, a.cfg.Session.SystemPrompt, a.snapshotHistory(), utterance)
}

// express classifies text sentiment and requests the matching expression.
// Failures are logged, never fatal.
func (a *Agent) express(ctx context.Context, text string) {
	state, match := expression.ClassifyWithMatch(text)
	if match == expression.MatchCrisis {
		a.logger.Warn().Str("text", truncate(text, 50)).Msg("Crisis keyword detected")
	}
	if err := a.controller.RequestChange(ctx, state); err != nil {
		a.logger.Warn().Err(err).Str("state", string(state)).Msg("Expression change failed")
	}
}

// speak voices text through the avatar: sentiment expression first, then
// synthesis, lip-synced rendering, and room audio publish.
func (a *Agent) speak(ctx context.Context, text string) error {
	a.logger.Info().Str("text", truncate(text, 50)).Msg("Publishing audio")

	a.express(ctx, text)

	pcm, rate, err := a.synth.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize speech: %w", err)
	}

	if err := a.session.RenderSpeech(ctx, pcm, rate, a.cfg.Render.LipSyncInterval); err != nil {
		return fmt.Errorf("render speech: %w", err)
	}

	if err := a.room.PublishAudio(ctx, pcm, rate); err != nil {
		return fmt.Errorf("publish audio: %w", err)
	}
	return nil
}

// teardown releases resources in fixed order. Every step is attempted
// even when an earlier one fails.
func (a *Agent) teardown(cancelMonitor context.CancelFunc, monitorDone chan struct{}, monitorStarted bool) {
	a.logger.Info().Msg("Cleaning up resources")

	cancelMonitor()
	if monitorStarted {
		select {
		case <-monitorDone:
		case <-time.After(5 * time.Second):
			a.logger.Warn().Msg("Quality monitor did not stop in time")
		}
	}

	if err := a.session.Disconnect(); err != nil {
		a.logger.Warn().Err(err).Msg("Rendering session disconnect failed")
	}
	if err := a.room.Disconnect(); err != nil {
		a.logger.Warn().Err(err).Msg("Room disconnect failed")
	}
}

func (a *Agent) appendTurns(utterance, reply string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history,
		llm.Turn{Role: llm.RoleUser, Content: utterance},
		llm.Turn{Role: llm.RoleAssistant, Content: reply},
	)
}

func (a *Agent) snapshotHistory() []llm.Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llm.Turn, len(a.history))
	copy(out, a.history)
	return out
}

// History returns a copy of the conversation so far.
func (a *Agent) History() []llm.Turn {
	return a.snapshotHistory()
}

// truncate shortens log samples on rune boundaries.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
