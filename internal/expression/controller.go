package expression

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Applier is the slice of the rendering session the controller drives.
type Applier interface {
	RequestExpression(ctx context.Context, preset Preset, transition time.Duration) error
}

// Controller is a debounced state machine over emotional states. It applies
// requested changes to the rendering session while enforcing the minimum
// dwell time between visible transitions. Requests that arrive inside the
// dwell window are dropped, not queued; rapid sentiment swings across short
// utterances would otherwise make the avatar flicker.
type Controller struct {
	applier Applier
	policy  TransitionPolicy
	logger  zerolog.Logger

	mu         sync.Mutex
	current    State
	lastChange time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewController creates a controller starting in the neutral listening state.
func NewController(applier Applier, policy TransitionPolicy, logger zerolog.Logger) *Controller {
	return &Controller{
		applier: applier,
		policy:  policy,
		logger:  logger.With().Str("component", "expression-controller").Logger(),
		current: StateNeutralListening,
		now:     time.Now,
	}
}

// Current returns the currently applied state.
func (c *Controller) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// RequestChange asks for a transition to the desired state.
//
// A request for the current state is a no-op and does not consume the dwell
// window. A request arriving before MinInterval has elapsed since the last
// applied change is silently dropped. Otherwise the change is applied to
// the rendering session; on failure the controller keeps its prior state.
func (c *Controller) RequestChange(ctx context.Context, desired State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if desired == c.current {
		return nil
	}

	now := c.now()
	if !c.lastChange.IsZero() && now.Sub(c.lastChange) < c.policy.MinInterval {
		c.logger.Debug().
			Str("from", string(c.current)).
			Str("to", string(desired)).
			Dur("sinceLast", now.Sub(c.lastChange)).
			Msg("Expression change dropped inside dwell window")
		return nil
	}

	c.logger.Info().
		Str("from", string(c.current)).
		Str("to", string(desired)).
		Msg("Changing expression")

	if err := c.applier.RequestExpression(ctx, PresetFor(desired), c.policy.Duration); err != nil {
		c.logger.Warn().Err(err).Str("to", string(desired)).Msg("Expression change failed, state unchanged")
		return err
	}

	c.current = desired
	c.lastChange = c.now()
	return nil
}
