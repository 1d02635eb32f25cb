// Package render provides the avatar rendering session: the live
// connection to the visual rendering backend for one conversation.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campuscare/avatar-agent/internal/expression"
)

// Common errors
var (
	// ErrNotConnected is returned when an operation is attempted before
	// Connect succeeded.
	ErrNotConnected = errors.New("avatar session not connected")
)

// ConnectionError wraps a failure to reach the rendering backend or a
// credential rejection. Fatal to the session.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("avatar connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Complexity is the animation complexity level used for quality adaptation.
type Complexity string

const (
	ComplexityHigh Complexity = "high"
	ComplexityLow  Complexity = "low"
)

// Stats holds network statistics for the outgoing avatar video stream.
type Stats struct {
	BitrateKbps float64 `json:"bitrate_kbps"`
	FPS         float64 `json:"fps"`
	Resolution  string  `json:"resolution"`
	PacketLoss  float64 `json:"packet_loss"`
	JitterMs    float64 `json:"jitter_ms"`
	LatencyMs   float64 `json:"latency_ms"`
}

// Session is the rendering backend abstraction the agent drives.
//
// Callers serialize Connect/Disconnect. RequestExpression, RenderSpeech and
// SetComplexity may be called from the conversation loop and the quality
// monitor concurrently; implementations must be safe for that.
type Session interface {
	// Connect establishes the session. Calling twice without an
	// intervening Disconnect is undefined.
	Connect(ctx context.Context) error

	// RequestExpression performs a smooth transition to the preset. The
	// call blocks for at least the transition duration, so completion is a
	// proxy for the change being visible to the remote participant.
	RequestExpression(ctx context.Context, preset expression.Preset, transition time.Duration) error

	// RenderSpeech plays 16-bit PCM audio through the avatar with
	// lip-sync, keeping audio-to-mouth skew under syncThreshold. Callers
	// must never pipeline two overlapping RenderSpeech calls.
	RenderSpeech(ctx context.Context, pcm []byte, sampleRate int, syncThreshold time.Duration) error

	// NetworkStats returns current stream statistics. On transient backend
	// errors it returns the last-known stats instead of failing, so the
	// quality monitor degrades gracefully.
	NetworkStats(ctx context.Context) (Stats, error)

	// SetComplexity adjusts animation complexity. Best-effort: callers log
	// failures and continue.
	SetComplexity(ctx context.Context, level Complexity) error

	// Disconnect tears the session down. Idempotent; safe on a session
	// that never connected.
	Disconnect() error
}

// LipSyncConfig controls lip-sync behavior.
type LipSyncConfig struct {
	AccuracyMode  string        `json:"accuracy_mode"`
	SyncThreshold time.Duration `json:"-"`
	SampleRate    int           `json:"audio_sample_rate"`
}

// EyeContactConfig controls gaze behavior.
type EyeContactConfig struct {
	PrimaryGaze           string  `json:"primary_gaze"`
	CameraFocusPercentage int     `json:"camera_focus_percentage"`
	GlanceAwayAngleDeg    float64 `json:"glance_away_angle"`
	GlanceDurationSec     float64 `json:"glance_duration"`
	BlinkRatePerMinute    int     `json:"blink_rate_per_minute"`
}

// VideoConfig holds target stream quality settings.
type VideoConfig struct {
	Resolution  string `json:"resolution"`
	FPS         int    `json:"fps"`
	BitrateKbps int    `json:"bitrate"`
}

// DefaultLipSyncConfig returns the reference lip-sync settings.
func DefaultLipSyncConfig() LipSyncConfig {
	return LipSyncConfig{
		AccuracyMode:  "high",
		SyncThreshold: 50 * time.Millisecond,
		SampleRate:    24000,
	}
}

// DefaultEyeContactConfig returns the reference gaze settings.
func DefaultEyeContactConfig() EyeContactConfig {
	return EyeContactConfig{
		PrimaryGaze:           "camera",
		CameraFocusPercentage: 80,
		GlanceAwayAngleDeg:    12,
		GlanceDurationSec:     1.5,
		BlinkRatePerMinute:    18,
	}
}

// DefaultVideoConfig returns the reference stream settings.
func DefaultVideoConfig() VideoConfig {
	return VideoConfig{
		Resolution:  "720p",
		FPS:         30,
		BitrateKbps: 2000,
	}
}
