package chat

import "time"

// Dialogue roles. Turns only ever carry user or assistant; system is used
// for completion requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a dialogue session. Immutable once created, owned
// by its session's transcript.
type Turn struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is the ordered, append-only sequence of turns for a session.
// There is deliberately no remove or edit operation.
type Transcript struct {
	Turns []Turn `json:"turns"`
}

// Append adds a turn to the end of the transcript.
func (t *Transcript) Append(turn Turn) {
	t.Turns = append(t.Turns, turn)
}

// All returns the turns in order. The returned slice is a copy; the
// transcript cannot be mutated through it.
func (t *Transcript) All() []Turn {
	out := make([]Turn, len(t.Turns))
	copy(out, t.Turns)
	return out
}

// Count reports total turns, both roles included.
func (t *Transcript) Count() int {
	return len(t.Turns)
}

// Last returns the most recent turn, if any.
func (t *Transcript) Last() (Turn, bool) {
	if len(t.Turns) == 0 {
		return Turn{}, false
	}
	return t.Turns[len(t.Turns)-1], true
}
