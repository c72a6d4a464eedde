package chat

import (
	"time"

	"github.com/get-synced/Magnet/internal/discovery"
)

// Session pairs a visitor's discovery context with their accumulating
// transcript. Lifecycle ownership sits with the session store; the engine
// only ever mutates a session it was handed.
type Session struct {
	UserID    string            `json:"user_id"`
	Discovery discovery.Context `json:"discovery"`

	Transcript Transcript `json:"transcript"`

	// BookingOffered is set once the call-booking trigger fires and never
	// resets within the session.
	BookingOffered bool `json:"booking_offered"`

	NextTurnID int64     `json:"next_turn_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSession creates a session for a visitor who completed discovery.
func NewSession(userID string, dctx discovery.Context) *Session {
	now := time.Now().UTC()
	return &Session{
		UserID:     userID,
		Discovery:  dctx,
		NextTurnID: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// appendTurn mints the next turn and appends it. IDs are strictly
// increasing; timestamps are nudged forward a nanosecond when the clock is
// too coarse to distinguish consecutive turns.
func (s *Session) appendTurn(role, content string) Turn {
	ts := time.Now().UTC()
	if last, ok := s.Transcript.Last(); ok && !ts.After(last.Timestamp) {
		ts = last.Timestamp.Add(time.Nanosecond)
	}
	turn := Turn{
		ID:        s.NextTurnID,
		Role:      role,
		Content:   content,
		Timestamp: ts,
	}
	s.NextTurnID++
	s.Transcript.Append(turn)
	s.UpdatedAt = ts
	return turn
}

// Clone returns a deep copy so stores never alias caller-held sessions.
func (s *Session) Clone() *Session {
	out := *s
	out.Transcript.Turns = append([]Turn(nil), s.Transcript.Turns...)
	out.Discovery.Challenges = append([]string(nil), s.Discovery.Challenges...)
	out.Discovery.Tools = append([]string(nil), s.Discovery.Tools...)
	return &out
}
