package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/get-synced/Magnet/internal/booking"
	"github.com/get-synced/Magnet/internal/discovery"
	"github.com/get-synced/Magnet/internal/leads"
	"github.com/get-synced/Magnet/internal/notify"
	"github.com/get-synced/Magnet/internal/observability/metrics"
	"github.com/get-synced/Magnet/pkg/logging"
)

// TurnResult is what one accepted user action produces.
type TurnResult struct {
	User           Turn
	Assistant      Turn
	BookingOffered bool
	Booking        *booking.Offer
}

// Service owns session lifecycle around the engine: it serializes turns per
// session, evaluates the booking trigger, and fans out lead-side effects.
type Service struct {
	engine    *Engine
	store     SessionStore
	calendar  *booking.Calendar
	notifier  notify.Notifier
	email     notify.EmailSender
	salesTo   string
	leadsRepo leads.Repository
	metrics   *metrics.ChatMetrics
	logger    *logging.Logger

	locks sync.Map // userID -> *sync.Mutex
}

// ServiceConfig wires the optional collaborators. Only Engine and Store are
// required.
type ServiceConfig struct {
	Engine    *Engine
	Store     SessionStore
	Calendar  *booking.Calendar
	Notifier  notify.Notifier
	Email     notify.EmailSender
	SalesTo   string
	LeadsRepo leads.Repository
	Metrics   *metrics.ChatMetrics
	Logger    *logging.Logger
}

// NewService creates the dialogue service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Engine == nil {
		panic("chat: engine required")
	}
	if cfg.Store == nil {
		panic("chat: session store required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Service{
		engine:    cfg.Engine,
		store:     cfg.Store,
		calendar:  cfg.Calendar,
		notifier:  cfg.Notifier,
		email:     cfg.Email,
		salesTo:   cfg.SalesTo,
		leadsRepo: cfg.LeadsRepo,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// StartSession creates the session for a visitor who completed discovery.
// An existing session keeps its transcript; only first creation writes.
func (s *Service) StartSession(ctx context.Context, userID string, dctx discovery.Context) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.store.Get(ctx, userID); err == nil {
		return nil
	} else if !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return s.store.Save(ctx, NewSession(userID, dctx))
}

// HandleMessage processes one user action end to end. dctx, when non-nil,
// seeds a session that does not exist yet (the widget sends the stored
// discovery context with every message).
func (s *Service) HandleMessage(ctx context.Context, userID, message string, dctx *discovery.Context) (*TurnResult, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(message) == "" {
		s.metrics.ObserveTurn("invalid_input")
		return nil, fmt.Errorf("%w: message and userId are required", ErrInvalidInput)
	}

	// Turns for one session never overlap; other sessions proceed in
	// parallel.
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.store.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		if dctx == nil || dctx.Empty() {
			s.metrics.ObserveTurn("invalid_input")
			return nil, fmt.Errorf("%w: no session and no discovery context", ErrInvalidInput)
		}
		session = NewSession(userID, *dctx)
	case err != nil:
		return nil, err
	}

	assistant, err := s.engine.Advance(ctx, session, message)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			s.metrics.ObserveTurn("invalid_input")
		case errors.Is(err, ErrUpstreamEmpty):
			s.metrics.ObserveTurn("upstream_empty")
		}
		return nil, err
	}

	offeredNow := false
	if !session.BookingOffered && ShouldOfferBooking(session.Transcript.Count(), assistant) {
		session.BookingOffered = true
		offeredNow = true
	}

	if err := s.store.Save(ctx, session); err != nil {
		// The turn already happened upstream; losing it is worse than
		// returning it, so surface the save failure.
		return nil, fmt.Errorf("chat: save session: %w", err)
	}

	if offeredNow {
		s.onBookingOffered(session)
	}

	s.metrics.ObserveTurn("ok")

	turns := session.Transcript.All()
	result := &TurnResult{
		User:           turns[len(turns)-2],
		Assistant:      turns[len(turns)-1],
		BookingOffered: session.BookingOffered,
	}
	if session.BookingOffered {
		result.Booking = s.calendar.Offer()
	}
	return result, nil
}

// History returns the session transcript in order.
func (s *Service) History(ctx context.Context, userID string) ([]Turn, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	session, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return session.Transcript.All(), nil
}

// BookingOffered reports the monotonic booking flag for a session.
func (s *Service) BookingOffered(ctx context.Context, userID string) (bool, error) {
	session, err := s.store.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return session.BookingOffered, nil
}

// onBookingOffered fans out the side effects of the trigger firing for the
// first time in a session. All best-effort.
func (s *Service) onBookingOffered(session *Session) {
	s.metrics.ObserveBookingOffer()
	s.logger.Info("booking trigger fired", "user_id", session.UserID, "turns", session.Transcript.Count())

	notify.Dispatch(s.notifier, s.logger, notify.Event{
		Type:      notify.EventBookingOffered,
		UserID:    session.UserID,
		Data:      map[string]any{"turns": session.Transcript.Count()},
		Timestamp: time.Now().UTC(),
	})

	if s.leadsRepo != nil {
		go func(userID string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := s.leadsRepo.UpdateStatus(ctx, userID, leads.StatusQualified); err != nil && !errors.Is(err, leads.ErrLeadNotFound) {
				s.logger.Error("failed to mark lead qualified", "user_id", userID, "error", err)
			}
		}(session.UserID)
	}

	if s.email != nil && s.salesTo != "" {
		dctx := session.Discovery
		msg := notify.EmailMessage{
			To:      s.salesTo,
			ToName:  "Sales",
			Subject: fmt.Sprintf("Qualified lead ready to book (%s)", dctx.IndustryLabel()),
			Body: fmt.Sprintf(`A chat visitor just hit the booking trigger.

User: %s
Industry: %s
Challenges: %s
Tools: %s
Approach: %s
Turns so far: %d

They have been shown the calendar. Follow up if no booking lands.`,
				session.UserID,
				dctx.IndustryLabel(),
				dctx.ChallengesLabel(),
				dctx.ToolsLabel(),
				dctx.ContinuationLabel(),
				session.Transcript.Count(),
			),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.email.Send(ctx, msg); err != nil {
				s.logger.Error("sales alert email failed", "user_id", session.UserID, "error", err)
			}
		}()
	}
}

func (s *Service) lockFor(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
