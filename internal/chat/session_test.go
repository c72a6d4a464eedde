package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-synced/Magnet/internal/discovery"
)

func testDiscoveryContext() discovery.Context {
	return discovery.Context{
		Industry:     "E-commerce",
		Challenges:   []string{"Low conversion rates", "High ad costs"},
		Tools:        []string{"Google Analytics"},
		Continuation: "Researching options",
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession("user-1", testDiscoveryContext())

	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, int64(1), s.NextTurnID)
	assert.Zero(t, s.Transcript.Count())
	assert.False(t, s.BookingOffered)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestSessionAppendTurnOrdering(t *testing.T) {
	s := NewSession("user-1", testDiscoveryContext())

	for i := 0; i < 5; i++ {
		s.appendTurn(RoleUser, "question")
		s.appendTurn(RoleAssistant, "answer")
	}

	turns := s.Transcript.All()
	require.Len(t, turns, 10)
	for i := 1; i < len(turns); i++ {
		assert.Greater(t, turns[i].ID, turns[i-1].ID, "turn IDs must strictly increase")
		assert.True(t, turns[i].Timestamp.After(turns[i-1].Timestamp), "turn timestamps must strictly increase")
	}
	assert.Equal(t, int64(11), s.NextTurnID)
}

func TestTranscriptAllReturnsCopy(t *testing.T) {
	s := NewSession("user-1", testDiscoveryContext())
	s.appendTurn(RoleUser, "hello")

	turns := s.Transcript.All()
	turns[0].Content = "tampered"

	got, ok := s.Transcript.Last()
	require.True(t, ok)
	assert.Equal(t, "hello", got.Content)
}

func TestSessionClone(t *testing.T) {
	s := NewSession("user-1", testDiscoveryContext())
	s.appendTurn(RoleUser, "hello")
	s.BookingOffered = true

	clone := s.Clone()
	clone.appendTurn(RoleAssistant, "hi there")
	clone.Discovery.Challenges[0] = "changed"

	assert.Equal(t, 1, s.Transcript.Count())
	assert.Equal(t, 2, clone.Transcript.Count())
	assert.Equal(t, "Low conversion rates", s.Discovery.Challenges[0])
	assert.True(t, clone.BookingOffered)
}
