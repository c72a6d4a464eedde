package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/get-synced/Magnet/internal/notify"
	"github.com/get-synced/Magnet/internal/observability/metrics"
	"github.com/get-synced/Magnet/internal/prompt"
	"github.com/get-synced/Magnet/pkg/logging"
)

var emailPatternRE = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// EngineConfig carries the sampling knobs for the completion service.
type EngineConfig struct {
	Temperature float32
	MaxTokens   int32
	Timeout     time.Duration
}

// Engine orchestrates one conversational turn: render the system
// instruction, call the completion service, append the user/assistant turn
// pair. It holds no per-session state; serialization of concurrent turns
// for one session is the Service's job.
type Engine struct {
	llm      LLMClient
	prompts  *prompt.Builder
	notifier notify.Notifier
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
	cfg      EngineConfig
}

// NewEngine wires the turn orchestrator. notifier and metrics may be nil.
func NewEngine(llm LLMClient, prompts *prompt.Builder, notifier notify.Notifier, m *metrics.ChatMetrics, logger *logging.Logger, cfg EngineConfig) *Engine {
	if llm == nil {
		panic("chat: llm client required")
	}
	if prompts == nil {
		panic("chat: prompt builder required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Engine{
		llm:      llm,
		prompts:  prompts,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
	}
}

// Advance runs one turn. On success the user and assistant turns are
// appended to the session (in that order) and the assistant utterance is
// returned. On any error the session is untouched.
//
// Advance is NOT idempotent: callers must invoke it at most once per
// genuine user action.
func (e *Engine) Advance(ctx context.Context, session *Session, userUtterance string) (string, error) {
	if session == nil || strings.TrimSpace(userUtterance) == "" {
		return "", fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if session.Discovery.Empty() {
		return "", fmt.Errorf("%w: discovery context is required", ErrInvalidInput)
	}

	// The context never changes mid-session, so rebuilding the system
	// instruction each turn is idempotent.
	system := e.prompts.Build(session.Discovery)

	messages := make([]Message, 0, session.Transcript.Count()+1)
	for _, turn := range session.Transcript.All() {
		messages = append(messages, Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, Message{Role: RoleUser, Content: userUtterance})

	llmCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	started := time.Now()
	resp, err := e.llm.Complete(llmCtx, LLMRequest{
		System:      []string{system},
		Messages:    messages,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	e.metrics.ObserveLLMLatency(e.llm.Provider(), time.Since(started).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: completion timed out", ErrUpstreamEmpty)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstreamEmpty, err)
	}

	assistant := strings.TrimSpace(resp.Text)
	if assistant == "" {
		return "", ErrUpstreamEmpty
	}

	session.appendTurn(RoleUser, userUtterance)
	session.appendTurn(RoleAssistant, assistant)

	e.logger.Debug("turn completed",
		"user_id", session.UserID,
		"turns", session.Transcript.Count(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)

	e.maybeNotifyNewsletterSignup(session.UserID, userUtterance)

	return assistant, nil
}

// maybeNotifyNewsletterSignup fires the newsletter webhook when the visitor
// asks to be signed up mid-chat and includes an email address. Best-effort:
// delivery failures never surface to the turn.
func (e *Engine) maybeNotifyNewsletterSignup(userID, utterance string) {
	if e.notifier == nil {
		return
	}
	lower := strings.ToLower(utterance)
	if !strings.Contains(lower, "newsletter") || !strings.Contains(lower, "sign") {
		return
	}
	email := emailPatternRE.FindString(utterance)
	if email == "" {
		return
	}

	notify.Dispatch(e.notifier, e.logger, notify.Event{
		Type:      notify.EventNewsletterSignup,
		Email:     email,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	})
}
