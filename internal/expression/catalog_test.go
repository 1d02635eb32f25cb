package expression

import "testing"

func TestPresetFor_CoversAllStates(t *testing.T) {
	for _, state := range AllStates {
		preset := PresetFor(state)
		if preset.Name == "" {
			t.Errorf("expected named preset for state %q", state)
		}
	}
}

func TestPresetFor_ParameterRanges(t *testing.T) {
	for _, state := range AllStates {
		p := PresetFor(state)

		if p.Facial.SmileIntensity < 0 || p.Facial.SmileIntensity > 1 {
			t.Errorf("%s: smile intensity %v out of [0,1]", state, p.Facial.SmileIntensity)
		}
		if p.Facial.EyeOpenness < 0 || p.Facial.EyeOpenness > 1 {
			t.Errorf("%s: eye openness %v out of [0,1]", state, p.Facial.EyeOpenness)
		}
		if p.Facial.EyebrowPosition < -1 || p.Facial.EyebrowPosition > 1 {
			t.Errorf("%s: eyebrow position %v out of [-1,1]", state, p.Facial.EyebrowPosition)
		}
		if p.Animation.NoddingFrequency < 0 || p.Animation.NoddingFrequency > 1 {
			t.Errorf("%s: nodding frequency %v out of [0,1]", state, p.Animation.NoddingFrequency)
		}
	}
}

func TestPresetFor_SupportiveValues(t *testing.T) {
	p := PresetFor(StateSupportive)

	if p.Facial.SmileIntensity != 0.5 {
		t.Errorf("expected gentle smile 0.5, got %v", p.Facial.SmileIntensity)
	}
	if p.Body.Posture != "open" {
		t.Errorf("expected open posture, got %q", p.Body.Posture)
	}
	if !p.Animation.MicroExpressions {
		t.Error("expected micro expressions enabled for supportive preset")
	}
}

func TestPresetFor_ConcernedHasNoSmile(t *testing.T) {
	p := PresetFor(StateConcerned)

	if p.Facial.SmileIntensity != 0 {
		t.Errorf("expected no smile for concerned, got %v", p.Facial.SmileIntensity)
	}
	if p.Animation.NoddingFrequency != 0 {
		t.Errorf("expected no nodding for concerned, got %v", p.Animation.NoddingFrequency)
	}
}

func TestDefaultTransitionPolicy(t *testing.T) {
	policy := DefaultTransitionPolicy()

	if policy.Duration.Milliseconds() != 400 {
		t.Errorf("expected 400ms transition, got %v", policy.Duration)
	}
	if policy.MinInterval.Seconds() != 3 {
		t.Errorf("expected 3s minimum interval, got %v", policy.MinInterval)
	}
}
