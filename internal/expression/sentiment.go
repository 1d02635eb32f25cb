package expression

import "strings"

// Match identifies which keyword rule decided the classification.
type Match int

const (
	// MatchCrisis is checked first: a safety signal must never be masked
	// by a co-occurring positive word in the same utterance.
	MatchCrisis Match = iota
	MatchPositive
	MatchDefault
)

func (m Match) String() string {
	switch m {
	case MatchCrisis:
		return "crisis"
	case MatchPositive:
		return "positive"
	default:
		return "default"
	}
}

// crisisKeywords trigger the concerned expression.
var crisisKeywords = []string{
	"suicide", "suicidal", "kill myself", "end it all",
	"hurt myself", "self-harm", "don't want to live",
	"no reason to live", "better off dead", "want to die",
}

// positiveKeywords trigger the encouraging expression.
var positiveKeywords = []string{
	"better", "improving", "good", "progress", "proud",
	"accomplished", "success", "happy", "grateful",
	"breakthrough", "healing", "growing",
}

// Classify maps an utterance to an emotional state using ordered keyword
// rules: crisis terms outrank positive terms outrank the supportive
// default. Matching is case-insensitive substring containment.
func Classify(utterance string) State {
	state, _ := ClassifyWithMatch(utterance)
	return state
}

// ClassifyWithMatch is Classify plus the rule that fired, for debug traces.
func ClassifyWithMatch(utterance string) (State, Match) {
	lower := strings.ToLower(utterance)

	for _, kw := range crisisKeywords {
		if strings.Contains(lower, kw) {
			return StateConcerned, MatchCrisis
		}
	}

	for _, kw := range positiveKeywords {
		if strings.Contains(lower, kw) {
			return StateEncouraging, MatchPositive
		}
	}

	return StateSupportive, MatchDefault
}
