// Package expression manages the avatar's emotional presentation: the
// preset catalog, keyword sentiment classification, and the debounced
// controller that applies expression changes to the rendering session.
package expression

import (
	"fmt"
	"time"
)

// State represents the avatar's emotional state during a counseling session.
type State string

const (
	StateSupportive       State = "supportive"
	StateConcerned        State = "concerned"
	StateEncouraging      State = "encouraging"
	StateNeutralListening State = "neutral_listening"
)

// AllStates lists every emotional state. The preset catalog must cover all
// of them; init verifies that so PresetFor never has an error path.
var AllStates = []State{
	StateSupportive,
	StateConcerned,
	StateEncouraging,
	StateNeutralListening,
}

// FacialConfig holds facial expression parameters.
// SmileIntensity and EyeOpenness are 0..1, EyebrowPosition is -1..1.
type FacialConfig struct {
	SmileIntensity  float64 `json:"smile_intensity"`
	EyeOpenness     float64 `json:"eye_openness"`
	EyebrowPosition float64 `json:"eyebrow_position"`
	HeadTiltDeg     float64 `json:"head_tilt"`
}

// BodyLanguage holds posture and gesture parameters.
type BodyLanguage struct {
	Posture        string  `json:"posture"`
	LeanForwardDeg float64 `json:"lean_forward"`
	Gestures       string  `json:"hand_gestures"`
}

// AnimationConfig holds animation behavior parameters.
type AnimationConfig struct {
	NoddingFrequency float64 `json:"nodding_frequency"`
	MicroExpressions bool    `json:"micro_expressions"`
}

// Preset bundles the rendering parameters for one emotional state.
type Preset struct {
	Name      string          `json:"name"`
	Facial    FacialConfig    `json:"facial_config"`
	Body      BodyLanguage    `json:"body_language"`
	Animation AnimationConfig `json:"animation"`
}

var presets = map[State]Preset{
	StateSupportive: {
		Name: "Supportive",
		Facial: FacialConfig{
			SmileIntensity:  0.5,
			EyeOpenness:     0.75,
			EyebrowPosition: 0.2,
			HeadTiltDeg:     3,
		},
		Body: BodyLanguage{
			Posture:        "open",
			LeanForwardDeg: 2,
			Gestures:       "minimal",
		},
		Animation: AnimationConfig{
			NoddingFrequency: 0.15,
			MicroExpressions: true,
		},
	},
	StateConcerned: {
		Name: "Concerned",
		Facial: FacialConfig{
			SmileIntensity:  0.0,
			EyeOpenness:     0.85,
			EyebrowPosition: -0.3,
			HeadTiltDeg:     0,
		},
		Body: BodyLanguage{
			Posture:        "attentive",
			LeanForwardDeg: 5,
			Gestures:       "minimal",
		},
		Animation: AnimationConfig{
			NoddingFrequency: 0.0,
			MicroExpressions: true,
		},
	},
	StateEncouraging: {
		Name: "Encouraging",
		Facial: FacialConfig{
			SmileIntensity:  0.8,
			EyeOpenness:     0.9,
			EyebrowPosition: 0.4,
			HeadTiltDeg:     0,
		},
		Body: BodyLanguage{
			Posture:        "open",
			LeanForwardDeg: 1,
			Gestures:       "moderate",
		},
		Animation: AnimationConfig{
			NoddingFrequency: 0.2,
			MicroExpressions: true,
		},
	},
	StateNeutralListening: {
		Name: "Neutral Listening",
		Facial: FacialConfig{
			SmileIntensity:  0.2,
			EyeOpenness:     0.7,
			EyebrowPosition: 0.0,
			HeadTiltDeg:     0,
		},
		Body: BodyLanguage{
			Posture:        "neutral",
			LeanForwardDeg: 0,
			Gestures:       "minimal",
		},
		Animation: AnimationConfig{
			NoddingFrequency: 0.05,
			MicroExpressions: false,
		},
	},
}

func init() {
	for _, s := range AllStates {
		if _, ok := presets[s]; !ok {
			panic(fmt.Sprintf("expression: no preset for state %q", s))
		}
	}
}

// PresetFor returns the rendering preset for a state. The catalog is
// exhaustive over AllStates, so this is a total function.
func PresetFor(state State) Preset {
	return presets[state]
}

// TransitionPolicy controls how visible expression changes are paced.
type TransitionPolicy struct {
	// Duration is how long a single transition animates.
	Duration time.Duration
	// MinInterval is the minimum dwell time between applied transitions.
	// Requests arriving sooner are dropped to prevent visual flicker.
	MinInterval time.Duration
	// Easing is cosmetic and passed through to the rendering backend.
	Easing string
}

// DefaultTransitionPolicy returns the reference pacing configuration.
func DefaultTransitionPolicy() TransitionPolicy {
	return TransitionPolicy{
		Duration:    400 * time.Millisecond,
		MinInterval: 3 * time.Second,
		Easing:      "ease-in-out",
	}
}
