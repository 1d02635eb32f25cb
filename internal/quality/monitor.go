// Package quality adapts avatar animation complexity to observed network
// conditions.
package quality

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuscare/avatar-agent/internal/render"
)

// Thresholds below which animation complexity is reduced.
type Thresholds struct {
	BitrateKbps float64
	FPS         float64
}

// DefaultThresholds returns the reference degradation thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BitrateKbps: 500,
		FPS:         20,
	}
}

// Monitor polls the rendering session's network statistics on a fixed
// cadence and switches animation complexity between high and low. One
// monitor runs per session; it never terminates the conversation itself.
type Monitor struct {
	session    render.Session
	thresholds Thresholds
	interval   time.Duration
	logger     zerolog.Logger

	current render.Complexity
}

// NewMonitor creates a monitor polling at the given interval (5s reference).
func NewMonitor(session render.Session, thresholds Thresholds, interval time.Duration, logger zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		session:    session,
		thresholds: thresholds,
		interval:   interval,
		logger:     logger.With().Str("component", "quality-monitor").Logger(),
		current:    render.ComplexityHigh,
	}
}

// Run polls until ctx is cancelled. It returns only after observing
// cancellation, so callers can wait on it before disconnecting the session.
// Poll errors are logged and retried on the next tick.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info().Dur("interval", m.interval).Msg("Starting video quality monitoring")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Quality monitoring stopped")
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// Current returns the most recently applied complexity level.
func (m *Monitor) Current() render.Complexity {
	return m.current
}

func (m *Monitor) poll(ctx context.Context) {
	stats, err := m.session.NetworkStats(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Stats poll failed, retrying next tick")
		return
	}

	degraded := stats.BitrateKbps < m.thresholds.BitrateKbps || stats.FPS < m.thresholds.FPS

	level := render.ComplexityHigh
	if degraded {
		level = render.ComplexityLow
		m.logger.Warn().
			Float64("bitrateKbps", stats.BitrateKbps).
			Float64("fps", stats.FPS).
			Msg("Low video quality detected")
	}

	if err := m.session.SetComplexity(ctx, level); err != nil {
		m.logger.Warn().Err(err).Str("level", string(level)).Msg("Complexity change failed")
		return
	}

	if level != m.current {
		m.logger.Info().
			Str("from", string(m.current)).
			Str("to", string(level)).
			Msg("Animation complexity changed")
	}
	m.current = level
}
