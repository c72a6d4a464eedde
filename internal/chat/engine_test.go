package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-synced/Magnet/internal/discovery"
	"github.com/get-synced/Magnet/internal/notify"
	"github.com/get-synced/Magnet/internal/prompt"
	"github.com/get-synced/Magnet/pkg/logging"
)

// mockLLM records requests and replays canned responses.
type mockLLM struct {
	resp     LLMResponse
	err      error
	requests []LLMRequest
}

func (m *mockLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return LLMResponse{}, m.err
	}
	return m.resp, nil
}

func (m *mockLLM) Provider() string { return "mock" }

// chanNotifier delivers events to a channel so tests can wait on the
// fire-and-forget dispatch goroutine.
type chanNotifier struct {
	events chan notify.Event
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{events: make(chan notify.Event, 8)}
}

func (n *chanNotifier) Notify(ctx context.Context, evt notify.Event) error {
	n.events <- evt
	return nil
}

func newTestEngine(t *testing.T, llm LLMClient, notifier notify.Notifier) *Engine {
	t.Helper()
	builder, err := prompt.NewBuilder("")
	require.NoError(t, err)
	return NewEngine(llm, builder, notifier, nil, logging.Default(), EngineConfig{})
}

func TestEngineAdvance(t *testing.T) {
	llm := &mockLLM{resp: LLMResponse{Text: "Happy to walk you through it.", Usage: TokenUsage{InputTokens: 10, OutputTokens: 5}}}
	engine := newTestEngine(t, llm, nil)
	session := NewSession("user-1", testDiscoveryContext())

	reply, err := engine.Advance(context.Background(), session, "How do I improve conversions?")

	require.NoError(t, err)
	assert.Equal(t, "Happy to walk you through it.", reply)

	turns := session.Transcript.All()
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "How do I improve conversions?", turns[0].Content)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.Equal(t, "Happy to walk you through it.", turns[1].Content)

	require.Len(t, llm.requests, 1)
	req := llm.requests[0]
	require.Len(t, req.System, 1)
	assert.Contains(t, req.System[0], "E-commerce")
	assert.Contains(t, req.System[0], "Low conversion rates, High ad costs")
	require.Len(t, req.Messages, 1)
	assert.Equal(t, float32(0.7), req.Temperature)
	assert.Equal(t, int32(1000), req.MaxTokens)
}

func TestEngineAdvanceSendsFullHistory(t *testing.T) {
	llm := &mockLLM{resp: LLMResponse{Text: "Sure."}}
	engine := newTestEngine(t, llm, nil)
	session := NewSession("user-1", testDiscoveryContext())

	_, err := engine.Advance(context.Background(), session, "first question")
	require.NoError(t, err)
	_, err = engine.Advance(context.Background(), session, "second question")
	require.NoError(t, err)

	require.Len(t, llm.requests, 2)
	second := llm.requests[1]
	require.Len(t, second.Messages, 3)
	assert.Equal(t, "first question", second.Messages[0].Content)
	assert.Equal(t, RoleAssistant, second.Messages[1].Role)
	assert.Equal(t, "second question", second.Messages[2].Content)
}

func TestEngineAdvanceRejectsEmptyUtterance(t *testing.T) {
	llm := &mockLLM{resp: LLMResponse{Text: "unused"}}
	engine := newTestEngine(t, llm, nil)
	session := NewSession("user-1", testDiscoveryContext())

	_, err := engine.Advance(context.Background(), session, "   ")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, session.Transcript.Count(), "rejected turn must not mutate the session")
	assert.Empty(t, llm.requests, "rejected turn must not reach the completion service")
}

func TestEngineAdvanceRejectsMissingDiscoveryContext(t *testing.T) {
	llm := &mockLLM{resp: LLMResponse{Text: "unused"}}
	engine := newTestEngine(t, llm, nil)
	session := NewSession("user-1", discovery.Context{})

	_, err := engine.Advance(context.Background(), session, "hello")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, session.Transcript.Count())
}

func TestEngineAdvanceEmptyCompletion(t *testing.T) {
	llm := &mockLLM{resp: LLMResponse{Text: "   "}}
	engine := newTestEngine(t, llm, nil)
	session := NewSession("user-1", testDiscoveryContext())

	_, err := engine.Advance(context.Background(), session, "hello")

	assert.ErrorIs(t, err, ErrUpstreamEmpty)
	assert.Zero(t, session.Transcript.Count(), "failed turn must not be recorded")
}

func TestEngineAdvanceUpstreamError(t *testing.T) {
	llm := &mockLLM{err: errors.New("boom")}
	engine := newTestEngine(t, llm, nil)
	session := NewSession("user-1", testDiscoveryContext())

	_, err := engine.Advance(context.Background(), session, "hello")

	assert.ErrorIs(t, err, ErrUpstreamEmpty)
	assert.Zero(t, session.Transcript.Count())
}

func TestEngineAdvanceTimeout(t *testing.T) {
	llm := &mockLLM{err: context.DeadlineExceeded}
	engine := newTestEngine(t, llm, nil)
	session := NewSession("user-1", testDiscoveryContext())

	_, err := engine.Advance(context.Background(), session, "hello")

	assert.ErrorIs(t, err, ErrUpstreamEmpty)
}

func TestEngineNewsletterSignupDetection(t *testing.T) {
	llm := &mockLLM{resp: LLMResponse{Text: "Done, you're on the list."}}
	notifier := newChanNotifier()
	engine := newTestEngine(t, llm, notifier)
	session := NewSession("user-1", testDiscoveryContext())

	_, err := engine.Advance(context.Background(), session, "Please sign me up for the newsletter, I'm a@b.com")
	require.NoError(t, err)

	select {
	case evt := <-notifier.events:
		assert.Equal(t, notify.EventNewsletterSignup, evt.Type)
		assert.Equal(t, "a@b.com", evt.Email)
		assert.Equal(t, "user-1", evt.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected newsletter signup event")
	}

	select {
	case evt := <-notifier.events:
		t.Fatalf("unexpected extra event: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngineNewsletterSignupNotDetected(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
	}{
		{"no email address", "Sign me up for the newsletter please"},
		{"no signup intent", "Your newsletter sounds great, tell me more"},
		{"no newsletter mention", "My email is a@b.com, sign me up for updates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &mockLLM{resp: LLMResponse{Text: "Sure."}}
			notifier := newChanNotifier()
			engine := newTestEngine(t, llm, notifier)
			session := NewSession("user-1", testDiscoveryContext())

			_, err := engine.Advance(context.Background(), session, tt.utterance)
			require.NoError(t, err)

			select {
			case evt := <-notifier.events:
				t.Fatalf("unexpected event: %+v", evt)
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}

func TestEngineNewsletterFailureDoesNotAffectReply(t *testing.T) {
	llm := &mockLLM{resp: LLMResponse{Text: "All set."}}
	engine := newTestEngine(t, llm, failingNotifier{})
	session := NewSession("user-1", testDiscoveryContext())

	reply, err := engine.Advance(context.Background(), session, "sign me up for the newsletter: a@b.com")

	require.NoError(t, err)
	assert.Equal(t, "All set.", reply)
	assert.Equal(t, 2, session.Transcript.Count())
}

type failingNotifier struct{}

func (failingNotifier) Notify(ctx context.Context, evt notify.Event) error {
	return errors.New("webhook down")
}

func TestEngineSystemPromptUnknownFallbacks(t *testing.T) {
	llm := &mockLLM{resp: LLMResponse{Text: "ok"}}
	engine := newTestEngine(t, llm, nil)
	session := NewSession("user-1", discovery.Context{Industry: "SaaS"})

	_, err := engine.Advance(context.Background(), session, "hello")
	require.NoError(t, err)

	require.Len(t, llm.requests, 1)
	system := llm.requests[0].System[0]
	assert.Contains(t, system, "SaaS")
	assert.Equal(t, 3, strings.Count(system, "Unknown"), "absent context fields render as Unknown")
}
