package chat

import "errors"

var (
	// ErrInvalidInput is returned when a turn is rejected before any
	// mutation: empty utterance, missing user id, or no discovery context.
	ErrInvalidInput = errors.New("chat: invalid input")

	// ErrUpstreamEmpty is returned when the completion service produced no
	// usable text. No turn is appended and no session state changes.
	ErrUpstreamEmpty = errors.New("chat: completion service returned no text")

	// ErrSessionNotFound is returned by session stores for unknown users.
	ErrSessionNotFound = errors.New("chat: session not found")
)

// ApologyMessage is what the presentation layer shows when the completion
// service fails. The transcript is left untouched.
const ApologyMessage = "I apologize, but I encountered an error. Please try again."
