package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/campuscare/avatar-agent/internal/expression"
)

// ClientConfig configures the websocket rendering client.
type ClientConfig struct {
	URL        string // wss endpoint of the rendering backend
	AvatarID   string
	APIKey     string
	LipSync    LipSyncConfig
	EyeContact EyeContactConfig
	Video      VideoConfig
	// DialTimeout bounds the websocket dial plus session handshake.
	DialTimeout time.Duration
	// AckTimeout bounds waiting for a single command acknowledgement.
	AckTimeout time.Duration
}

// Client drives a remote avatar rendering backend over a websocket control
// channel. One mutex serializes every call: the conversation loop and the
// quality monitor share the session and their commands are infrequent
// relative to the media path, which the backend handles separately.
type Client struct {
	cfg    ClientConfig
	logger zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	lastStats Stats
}

// command is a control frame sent to the rendering backend.
type command struct {
	Type       string             `json:"type"`
	AvatarID   string             `json:"avatar_id,omitempty"`
	Preset     *expression.Preset `json:"preset,omitempty"`
	Transition int64              `json:"transition_ms,omitempty"`
	Easing     string             `json:"easing,omitempty"`
	Audio      string             `json:"audio,omitempty"`
	SampleRate int                `json:"sample_rate,omitempty"`
	SyncMs     int64              `json:"sync_threshold_ms,omitempty"`
	Complexity string             `json:"complexity,omitempty"`
	LipSync    *LipSyncConfig     `json:"lip_sync,omitempty"`
	EyeContact *EyeContactConfig  `json:"eye_contact,omitempty"`
	Video      *VideoConfig       `json:"video,omitempty"`
}

// reply is a control frame received from the rendering backend.
type reply struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Stats   *Stats `json:"stats,omitempty"`
}

// NewClient creates a rendering client. The session is not connected until
// Connect is called.
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 15 * time.Second
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		logger: logger.With().Str("component", "render-session").Logger(),
		// Seed last-known stats from the configured stream targets so the
		// quality monitor has a sane baseline before the first report.
		lastStats: Stats{
			BitrateKbps: float64(cfg.Video.BitrateKbps),
			FPS:         float64(cfg.Video.FPS),
			Resolution:  cfg.Video.Resolution,
		},
	}
}

// Connect dials the rendering backend and starts the avatar session.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Info().Str("url", c.cfg.URL).Str("avatarId", c.cfg.AvatarID).Msg("Connecting avatar session")

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, c.cfg.URL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return &ConnectionError{Err: fmt.Errorf("credentials rejected: %w", err)}
		}
		return &ConnectionError{Err: err}
	}
	c.conn = conn

	lipSync := c.cfg.LipSync
	eyeContact := c.cfg.EyeContact
	video := c.cfg.Video
	start := command{
		Type:       "session.start",
		AvatarID:   c.cfg.AvatarID,
		LipSync:    &lipSync,
		EyeContact: &eyeContact,
		Video:      &video,
	}
	if err := c.roundTrip(start, "session.started"); err != nil {
		conn.Close()
		c.conn = nil
		return &ConnectionError{Err: err}
	}

	c.connected = true
	c.logger.Info().Msg("Avatar session connected")
	return nil
}

// RequestExpression transitions the avatar to the preset. Blocks for at
// least the transition duration so callers can treat completion as the
// change being visible.
func (c *Client) RequestExpression(ctx context.Context, preset expression.Preset, transition time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return ErrNotConnected
	}

	p := preset
	cmd := command{
		Type:       "expression.set",
		Preset:     &p,
		Transition: transition.Milliseconds(),
		Easing:     "ease-in-out",
	}
	if err := c.roundTrip(cmd, "expression.ack"); err != nil {
		return fmt.Errorf("set expression: %w", err)
	}

	select {
	case <-time.After(transition):
	case <-ctx.Done():
		return ctx.Err()
	}

	c.logger.Debug().Str("preset", preset.Name).Dur("transition", transition).Msg("Expression transition complete")
	return nil
}

// RenderSpeech streams PCM audio to the avatar and blocks for the playback
// duration derived from the sample count.
func (c *Client) RenderSpeech(ctx context.Context, pcm []byte, sampleRate int, syncThreshold time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return ErrNotConnected
	}
	if sampleRate <= 0 {
		sampleRate = c.cfg.LipSync.SampleRate
	}

	cmd := command{
		Type:       "speech.render",
		Audio:      base64.StdEncoding.EncodeToString(pcm),
		SampleRate: sampleRate,
		SyncMs:     syncThreshold.Milliseconds(),
	}
	if err := c.roundTrip(cmd, "speech.ack"); err != nil {
		return fmt.Errorf("render speech: %w", err)
	}

	// 16-bit mono PCM: two bytes per sample.
	duration := time.Duration(float64(len(pcm)) / float64(sampleRate*2) * float64(time.Second))
	c.logger.Info().Dur("duration", duration).Dur("syncThreshold", syncThreshold).Msg("Avatar speaking")

	select {
	case <-time.After(duration):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// NetworkStats fetches current stream statistics. On a transient backend
// error it returns the last-known stats so monitoring degrades instead of
// crashing.
func (c *Client) NetworkStats(ctx context.Context) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return c.lastStats, ErrNotConnected
	}

	if err := c.writeJSON(command{Type: "stats.get"}); err != nil {
		c.logger.Warn().Err(err).Msg("Stats request failed, returning last-known stats")
		return c.lastStats, nil
	}

	rep, err := c.readReply("stats")
	if err != nil || rep.Stats == nil {
		c.logger.Warn().Err(err).Msg("Stats read failed, returning last-known stats")
		return c.lastStats, nil
	}

	c.lastStats = *rep.Stats
	return c.lastStats, nil
}

// SetComplexity adjusts animation complexity on the backend.
func (c *Client) SetComplexity(ctx context.Context, level Complexity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return ErrNotConnected
	}

	if err := c.roundTrip(command{Type: "complexity.set", Complexity: string(level)}, "complexity.ack"); err != nil {
		return fmt.Errorf("set complexity %s: %w", level, err)
	}

	if level == ComplexityLow {
		c.logger.Info().Msg("Low complexity mode: secondary animations reduced, lip-sync prioritized")
	}
	return nil
}

// Disconnect closes the session. Safe to call repeatedly or before Connect.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	_ = c.writeJSON(command{Type: "session.stop"})
	err := c.conn.Close()
	c.conn = nil
	c.connected = false
	c.logger.Info().Msg("Avatar session disconnected")
	return err
}

// roundTrip sends a command and waits for the expected reply type.
// Caller must hold c.mu.
func (c *Client) roundTrip(cmd command, want string) error {
	if err := c.writeJSON(cmd); err != nil {
		return err
	}
	rep, err := c.readReply(want)
	if err != nil {
		return err
	}
	if rep.Type == "error" {
		return fmt.Errorf("backend error: %s", rep.Message)
	}
	return nil
}

func (c *Client) writeJSON(cmd command) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.AckTimeout))
	return c.conn.WriteJSON(cmd)
}

// readReply reads frames until one of the wanted type (or an error frame)
// arrives. Unsolicited frames are logged and skipped.
func (c *Client) readReply(want string) (*reply, error) {
	deadline := time.Now().Add(c.cfg.AckTimeout)
	_ = c.conn.SetReadDeadline(deadline)

	for {
		var rep reply
		if err := c.conn.ReadJSON(&rep); err != nil {
			return nil, err
		}
		if rep.Type == want || rep.Type == "error" {
			return &rep, nil
		}
		c.logger.Debug().Str("type", rep.Type).Msg("Skipping unsolicited frame")
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for %s", want)
		}
	}
}
