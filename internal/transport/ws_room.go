package transport

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// RoomConfig configures the websocket room client.
type RoomConfig struct {
	URL       string // wss:// signaling endpoint
	APIKey    string
	APISecret string
	RoomName  string
	Identity  string
	Name      string

	DialTimeout time.Duration
}

// signal is a frame on the room signaling channel.
type signal struct {
	Type        string       `json:"type"`
	Room        string       `json:"room,omitempty"`
	Participant *Participant `json:"participant,omitempty"`
	Track       *Track       `json:"track,omitempty"`
	SampleRate  int          `json:"sampleRate,omitempty"`
	Payload     string       `json:"payload,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// wsRoom is a websocket-backed Room. A single reader goroutine dispatches
// server events; writes are serialized with a mutex.
type wsRoom struct {
	cfg    RoomConfig
	logger zerolog.Logger

	mu    sync.Mutex
	conn  *websocket.Conn
	state ConnectionState

	onParticipant func(Participant)
	onTrack       func(Track, Participant)

	done chan struct{}
}

// NewRoom creates a websocket room client.
func NewRoom(cfg RoomConfig, logger zerolog.Logger) Room {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &wsRoom{
		cfg:    cfg,
		logger: logger.With().Str("component", "room").Str("room", cfg.RoomName).Logger(),
		state:  StateDisconnected,
	}
}

// Connect joins the room, authenticating with a freshly minted access
// token. Any failure is wrapped in ConnectionError and is fatal.
func (r *wsRoom) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}
	r.state = StateConnecting

	token, err := NewAccessToken(r.cfg.APIKey, r.cfg.APISecret).
		SetIdentity(r.cfg.Identity).
		SetName(r.cfg.Name).
		SetRoom(r.cfg.RoomName).
		ToJWT()
	if err != nil {
		r.state = StateDisconnected
		return &ConnectionError{Err: fmt.Errorf("mint access token: %w", err)}
	}

	dialer := websocket.Dialer{HandshakeTimeout: r.cfg.DialTimeout}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := dialer.DialContext(ctx, r.cfg.URL, header)
	if err != nil {
		r.state = StateDisconnected
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return &ConnectionError{Err: fmt.Errorf("credentials rejected (status %d)", resp.StatusCode)}
		}
		return &ConnectionError{Err: err}
	}

	// The join handshake must fail fast if the backend upgrades the
	// socket but never acks; bound it by the caller's deadline.
	handshakeDeadline := time.Now().Add(r.cfg.DialTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(handshakeDeadline) {
		handshakeDeadline = d
	}
	_ = conn.SetWriteDeadline(handshakeDeadline)
	_ = conn.SetReadDeadline(handshakeDeadline)

	join := signal{Type: "join", Room: r.cfg.RoomName}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		r.state = StateDisconnected
		return &ConnectionError{Err: fmt.Errorf("send join: %w", err)}
	}

	var ack signal
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		r.state = StateDisconnected
		return &ConnectionError{Err: fmt.Errorf("read join ack: %w", err)}
	}
	if ack.Type != "joined" {
		conn.Close()
		r.state = StateDisconnected
		return &ConnectionError{Err: fmt.Errorf("join rejected: %s", ack.Error)}
	}

	_ = conn.SetWriteDeadline(time.Time{})
	_ = conn.SetReadDeadline(time.Time{})

	r.conn = conn
	r.state = StateConnected
	r.done = make(chan struct{})
	go r.readLoop(conn, r.done)

	r.logger.Info().Str("url", r.cfg.URL).Msg("Joined room")
	return nil
}

func (r *wsRoom) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		var sig signal
		if err := conn.ReadJSON(&sig); err != nil {
			r.mu.Lock()
			if r.conn == conn {
				r.state = StateDisconnected
			}
			r.mu.Unlock()
			return
		}

		switch sig.Type {
		case "participant.connected":
			if sig.Participant == nil {
				continue
			}
			r.mu.Lock()
			fn := r.onParticipant
			r.mu.Unlock()
			if fn != nil {
				fn(*sig.Participant)
			}
			r.logger.Info().Str("identity", sig.Participant.Identity).Msg("Participant connected")
		case "track.subscribed":
			if sig.Track == nil {
				continue
			}
			var p Participant
			if sig.Participant != nil {
				p = *sig.Participant
			}
			r.mu.Lock()
			fn := r.onTrack
			r.mu.Unlock()
			if fn != nil {
				fn(*sig.Track, p)
			}
		default:
			r.logger.Debug().Str("type", sig.Type).Msg("Ignoring signal")
		}
	}
}

// State reports the current connection state.
func (r *wsRoom) State() ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// OnParticipantConnected registers the participant-join callback.
func (r *wsRoom) OnParticipantConnected(fn func(Participant)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onParticipant = fn
}

// OnTrackSubscribed registers the track-subscription callback.
func (r *wsRoom) OnTrackSubscribed(fn func(Track, Participant)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTrack = fn
}

// PublishAudio sends a PCM clip into the room as a base64 signal frame.
func (r *wsRoom) PublishAudio(_ context.Context, pcm []byte, sampleRate int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return ErrNotConnected
	}
	sig := signal{
		Type:       "audio.publish",
		SampleRate: sampleRate,
		Payload:    base64.StdEncoding.EncodeToString(pcm),
	}
	if err := r.conn.WriteJSON(sig); err != nil {
		return fmt.Errorf("publish audio: %w", err)
	}
	return nil
}

// Disconnect leaves the room. Safe to call more than once.
func (r *wsRoom) Disconnect() error {
	r.mu.Lock()
	conn := r.conn
	done := r.done
	r.conn = nil
	r.state = StateDisconnected
	r.mu.Unlock()

	if conn == nil {
		return nil
	}

	_ = conn.WriteJSON(signal{Type: "leave"})
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := conn.Close()

	if done != nil {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}

	r.logger.Info().Msg("Left room")
	return err
}
