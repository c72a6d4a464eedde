package chat

import "strings"

// Keyword heuristics for the call-booking trigger. Deliberately simple
// substring matching on the assistant's free text; see the persona prompt,
// which instructs the model to use this vocabulary when suggesting a call.
var (
	schedulingWords = []string{"schedule", "book"}
	meetingWords    = []string{"call", "consultation", "meeting", "appointment"}
)

// minTurnsForHelpTrigger is the transcript length (both roles counted, the
// just-appended turn included) at which a mere "help" mention is enough.
const minTurnsForHelpTrigger = 6

// ShouldOfferBooking decides whether the latest assistant utterance should
// surface the calendar. Stateless and safe to call speculatively; once it
// returns true the caller records the offer on the session and stops asking.
func ShouldOfferBooking(turnCount int, latestAssistant string) bool {
	text := strings.ToLower(latestAssistant)

	if containsAny(text, schedulingWords) && containsAny(text, meetingWords) {
		return true
	}
	return turnCount >= minTurnsForHelpTrigger && strings.Contains(text, "help")
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
