// Package transport provides the media-room connection the agent joins for
// a counseling session.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConnected is returned when publishing before Connect succeeded.
var ErrNotConnected = errors.New("room not connected")

// ConnectionError wraps a failure to join the media room. Fatal to the
// session.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("room connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ConnectionState is the room connection lifecycle.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// TrackKind distinguishes media track types.
type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// Participant is a remote participant in the room.
type Participant struct {
	Identity string `json:"identity"`
	Name     string `json:"name,omitempty"`
}

// Track is a media track published by a participant.
type Track struct {
	ID   string    `json:"id"`
	Kind TrackKind `json:"kind"`
}

// Room is the media transport abstraction.
type Room interface {
	// Connect joins the room under the agent identity.
	Connect(ctx context.Context) error

	// State reports the current connection state.
	State() ConnectionState

	// OnParticipantConnected registers a callback for participants joining.
	OnParticipantConnected(fn func(Participant))

	// OnTrackSubscribed registers a callback for subscribed media tracks.
	OnTrackSubscribed(fn func(Track, Participant))

	// PublishAudio publishes 16-bit PCM audio into the room.
	PublishAudio(ctx context.Context, pcm []byte, sampleRate int) error

	// Disconnect leaves the room. Idempotent.
	Disconnect() error
}
