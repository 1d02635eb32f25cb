// Package config provides configuration for the avatar agent.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all agent configuration.
type Config struct {
	Session    SessionConfig    `mapstructure:"session"`
	Room       RoomConfig       `mapstructure:"room"`
	Render     RenderConfig     `mapstructure:"render"`
	Expression ExpressionConfig `mapstructure:"expression"`
	Quality    QualityConfig    `mapstructure:"quality"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Log        LogConfig        `mapstructure:"log"`
}

// SessionConfig identifies the counseling session being served.
type SessionConfig struct {
	ID            string `mapstructure:"id"`
	Category      string `mapstructure:"category"` // Health, Career, Academic, ...
	SystemPrompt  string `mapstructure:"system_prompt"`
	AgentIdentity string `mapstructure:"agent_identity"`
	AgentName     string `mapstructure:"agent_name"`
}

// RoomConfig configures the media room connection.
type RoomConfig struct {
	URL          string        `mapstructure:"url"`
	Name         string        `mapstructure:"name"`
	APIKey       string        `mapstructure:"api_key"`
	APISecret    string        `mapstructure:"api_secret"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// RenderConfig configures the remote avatar rendering service.
type RenderConfig struct {
	URL             string        `mapstructure:"url"`
	APIKey          string        `mapstructure:"api_key"`
	AvatarID        string        `mapstructure:"avatar_id"`
	LipSyncInterval time.Duration `mapstructure:"lip_sync_interval"`
	AudioSampleRate int           `mapstructure:"audio_sample_rate"`
	Resolution      string        `mapstructure:"resolution"`
	FPS             int           `mapstructure:"fps"`
	BitrateKbps     int           `mapstructure:"bitrate_kbps"`
}

// ExpressionConfig tunes expression transitions.
type ExpressionConfig struct {
	TransitionDuration time.Duration `mapstructure:"transition_duration"`
	MinInterval        time.Duration `mapstructure:"min_interval"`
}

// QualityConfig tunes the quality-adaptation loop.
type QualityConfig struct {
	MinBitrateKbps float64       `mapstructure:"min_bitrate_kbps"`
	MinFPS         float64       `mapstructure:"min_fps"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

// LLMConfig selects the conversation model provider.
type LLMConfig struct {
	Provider     string        `mapstructure:"provider"` // gemini, groq, mock
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	GroqAPIKey   string        `mapstructure:"groq_api_key"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// SpeechConfig selects the text-to-speech provider.
type SpeechConfig struct {
	Provider     string `mapstructure:"provider"` // openai or silence
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	Voice        string `mapstructure:"voice"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns sensible defaults. Credentials are left empty and
// must come from the environment or a config file.
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			AgentIdentity: "avatar-agent",
			AgentName:     "Counselor",
		},
		Room: RoomConfig{
			PollInterval: 1 * time.Second,
		},
		Render: RenderConfig{
			LipSyncInterval: 50 * time.Millisecond,
			AudioSampleRate: 24000,
			Resolution:      "720p",
			FPS:             30,
			BitrateKbps:     2000,
		},
		Expression: ExpressionConfig{
			TransitionDuration: 400 * time.Millisecond,
			MinInterval:        3 * time.Second,
		},
		Quality: QualityConfig{
			MinBitrateKbps: 500,
			MinFPS:         20,
			PollInterval:   5 * time.Second,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Timeout:  30 * time.Second,
		},
		Speech: SpeechConfig{
			Provider: "silence",
			Voice:    "nova",
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads configuration from an optional config file and the
// environment. Environment variables use the AVATAR_AGENT prefix, e.g.
// AVATAR_AGENT_ROOM_API_KEY.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("avatar-agent")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/avatar-agent")

	v.SetEnvPrefix("AVATAR_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys must be bound for Unmarshal to see environment values.
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

var configKeys = []string{
	"session.id",
	"session.category",
	"session.system_prompt",
	"session.agent_identity",
	"session.agent_name",
	"room.url",
	"room.name",
	"room.api_key",
	"room.api_secret",
	"room.poll_interval",
	"render.url",
	"render.api_key",
	"render.avatar_id",
	"render.lip_sync_interval",
	"render.audio_sample_rate",
	"render.resolution",
	"render.fps",
	"render.bitrate_kbps",
	"expression.transition_duration",
	"expression.min_interval",
	"quality.min_bitrate_kbps",
	"quality.min_fps",
	"quality.poll_interval",
	"llm.provider",
	"llm.gemini_api_key",
	"llm.groq_api_key",
	"llm.model",
	"llm.timeout",
	"speech.provider",
	"speech.openai_api_key",
	"speech.voice",
	"log.level",
	"log.console",
}

// Validate checks that every required value is present. All missing
// values are reported together so the operator can fix them in one pass.
func (c *Config) Validate() error {
	var missing []string

	if c.Session.ID == "" {
		missing = append(missing, "session.id (AVATAR_AGENT_SESSION_ID)")
	}
	if c.Session.SystemPrompt == "" {
		missing = append(missing, "session.system_prompt (AVATAR_AGENT_SESSION_SYSTEM_PROMPT)")
	}
	if c.Room.URL == "" {
		missing = append(missing, "room.url (AVATAR_AGENT_ROOM_URL)")
	}
	if c.Room.Name == "" {
		missing = append(missing, "room.name (AVATAR_AGENT_ROOM_NAME)")
	}
	if c.Room.APIKey == "" {
		missing = append(missing, "room.api_key (AVATAR_AGENT_ROOM_API_KEY)")
	}
	if c.Room.APISecret == "" {
		missing = append(missing, "room.api_secret (AVATAR_AGENT_ROOM_API_SECRET)")
	}
	if c.Render.URL == "" {
		missing = append(missing, "render.url (AVATAR_AGENT_RENDER_URL)")
	}
	if c.Render.APIKey == "" {
		missing = append(missing, "render.api_key (AVATAR_AGENT_RENDER_API_KEY)")
	}
	if c.Render.AvatarID == "" {
		missing = append(missing, "render.avatar_id (AVATAR_AGENT_RENDER_AVATAR_ID)")
	}

	switch c.LLM.Provider {
	case "", "gemini":
		if c.LLM.GeminiAPIKey == "" {
			missing = append(missing, "llm.gemini_api_key (AVATAR_AGENT_LLM_GEMINI_API_KEY)")
		}
	case "groq":
		if c.LLM.GroqAPIKey == "" {
			missing = append(missing, "llm.groq_api_key (AVATAR_AGENT_LLM_GROQ_API_KEY)")
		}
	case "mock":
	default:
		missing = append(missing, fmt.Sprintf("llm.provider: unknown provider %q", c.LLM.Provider))
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration:\n  %s", strings.Join(missing, "\n  "))
	}
	return nil
}
