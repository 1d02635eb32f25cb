package transport

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long a room access token stays valid.
const DefaultTokenTTL = 6 * time.Hour

// VideoGrant describes what the token holder may do in the room.
type VideoGrant struct {
	RoomJoin     bool   `json:"roomJoin"`
	Room         string `json:"room"`
	CanPublish   bool   `json:"canPublish"`
	CanSubscribe bool   `json:"canSubscribe"`
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Name  string     `json:"name,omitempty"`
	Video VideoGrant `json:"video"`
}

// AccessToken builds the signed JWT the agent presents when joining a
// media room. Signed HS256 with the API secret; the API key rides in the
// issuer claim.
type AccessToken struct {
	apiKey    string
	apiSecret string
	identity  string
	name      string
	room      string
	ttl       time.Duration
}

// NewAccessToken creates a token builder for the given API credentials.
func NewAccessToken(apiKey, apiSecret string) *AccessToken {
	return &AccessToken{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		ttl:       DefaultTokenTTL,
	}
}

// SetIdentity sets the participant identity. A random identity is
// generated if left unset.
func (t *AccessToken) SetIdentity(identity string) *AccessToken {
	t.identity = identity
	return t
}

// SetName sets the display name shown to other participants.
func (t *AccessToken) SetName(name string) *AccessToken {
	t.name = name
	return t
}

// SetRoom sets the room the token grants access to.
func (t *AccessToken) SetRoom(room string) *AccessToken {
	t.room = room
	return t
}

// SetTTL overrides the token lifetime.
func (t *AccessToken) SetTTL(ttl time.Duration) *AccessToken {
	if ttl > 0 {
		t.ttl = ttl
	}
	return t
}

// ToJWT signs and serializes the token.
func (t *AccessToken) ToJWT() (string, error) {
	if t.apiKey == "" || t.apiSecret == "" {
		return "", errors.New("api key and secret are required")
	}
	if t.room == "" {
		return "", errors.New("room name is required")
	}

	identity := t.identity
	if identity == "" {
		identity = "agent-" + uuid.NewString()
	}

	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.apiKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Name: t.name,
		Video: VideoGrant{
			RoomJoin:     true,
			Room:         t.room,
			CanPublish:   true,
			CanSubscribe: true,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.apiSecret))
}
