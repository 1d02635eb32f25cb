package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/campuscare/avatar-agent/internal/agent"
	"github.com/campuscare/avatar-agent/internal/config"
	"github.com/campuscare/avatar-agent/internal/llm"
	"github.com/campuscare/avatar-agent/internal/logging"
	"github.com/campuscare/avatar-agent/internal/render"
	"github.com/campuscare/avatar-agent/internal/speech"
	"github.com/campuscare/avatar-agent/internal/transport"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	logger := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
	})

	logger.Info().
		Str("sessionId", cfg.Session.ID).
		Str("category", cfg.Session.Category).
		Str("avatarId", cfg.Render.AvatarID).
		Msg("Starting avatar agent")

	provider, err := llm.New(llm.Config{
		Provider:     cfg.LLM.Provider,
		GeminiAPIKey: cfg.LLM.GeminiAPIKey,
		GroqAPIKey:   cfg.LLM.GroqAPIKey,
		Model:        cfg.LLM.Model,
		Timeout:      cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create model provider")
		return 1
	}

	synth := speech.New(speech.Config{
		Provider:     cfg.Speech.Provider,
		OpenAIAPIKey: cfg.Speech.OpenAIAPIKey,
		Voice:        cfg.Speech.Voice,
		SampleRate:   cfg.Render.AudioSampleRate,
	}, logger)

	room := transport.NewRoom(transport.RoomConfig{
		URL:       cfg.Room.URL,
		APIKey:    cfg.Room.APIKey,
		APISecret: cfg.Room.APISecret,
		RoomName:  cfg.Room.Name,
		Identity:  cfg.Session.AgentIdentity,
		Name:      cfg.Session.AgentName,
	}, logger)

	session := render.NewClient(render.ClientConfig{
		URL:      cfg.Render.URL,
		APIKey:   cfg.Render.APIKey,
		AvatarID: cfg.Render.AvatarID,
		LipSync: render.LipSyncConfig{
			AccuracyMode:  "high",
			SyncThreshold: cfg.Render.LipSyncInterval,
			SampleRate:    cfg.Render.AudioSampleRate,
		},
		EyeContact: render.DefaultEyeContactConfig(),
		Video: render.VideoConfig{
			Resolution:  cfg.Render.Resolution,
			FPS:         cfg.Render.FPS,
			BitrateKbps: cfg.Render.BitrateKbps,
		},
	}, logger)

	a := agent.New(agent.Options{
		Config:   cfg,
		Logger:   logger,
		Provider: provider,
		Synth:    synth,
		Room:     room,
		Session:  session,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Session ended with error")
		return 1
	}

	logger.Info().Msg("Session ended cleanly")
	return 0
}
