package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/get-synced/Magnet/internal/leads"
	"github.com/get-synced/Magnet/internal/notify"
	"github.com/get-synced/Magnet/pkg/logging"
)

// SessionStarter seeds a chat session from a completed questionnaire.
// Implemented by the chat service.
type SessionStarter interface {
	StartSession(ctx context.Context, userID string, dctx Context) error
}

// Handler handles HTTP requests for the discovery questionnaire
type Handler struct {
	sessions SessionStarter
	repo     leads.Repository
	notifier notify.Notifier
	logger   *logging.Logger
}

// NewHandler creates a new discovery handler. repo and notifier may be nil.
func NewHandler(sessions SessionStarter, repo leads.Repository, notifier notify.Notifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		sessions: sessions,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// SubmitRequest is the body of POST /api/discovery/submit, mirroring the
// questionnaire form.
type SubmitRequest struct {
	UserID        string   `json:"userId"`
	Industry      string   `json:"industry"`
	OtherIndustry string   `json:"other_industry"`
	Challenges    []string `json:"challenges"`
	Tools         []string `json:"tools"`
	OtherTools    string   `json:"other_tools"`
	Continuation  string   `json:"continuation"`
}

// Normalize validates the questionnaire answers and folds the "Other"
// free-text fields into their lists.
func (r *SubmitRequest) Normalize() (Context, error) {
	if strings.TrimSpace(r.UserID) == "" {
		return Context{}, errors.New("userId is required")
	}

	industry := strings.TrimSpace(r.Industry)
	if industry == "" {
		return Context{}, errors.New("industry is required")
	}
	if industry == "Other" {
		other := strings.TrimSpace(r.OtherIndustry)
		if other == "" {
			return Context{}, errors.New("other_industry is required when industry is Other")
		}
		industry = otherIndustryPrefix + " " + other
	}

	if len(r.Challenges) == 0 {
		return Context{}, errors.New("at least one challenge is required")
	}
	if len(r.Challenges) > 3 {
		return Context{}, errors.New("at most three challenges are allowed")
	}
	challenges := make([]string, 0, len(r.Challenges))
	for _, c := range r.Challenges {
		if v := strings.TrimSpace(c); v != "" {
			challenges = append(challenges, v)
		}
	}
	if len(challenges) == 0 {
		return Context{}, errors.New("at least one challenge is required")
	}

	if len(r.Tools) == 0 {
		return Context{}, errors.New("at least one tool is required")
	}
	tools := make([]string, 0, len(r.Tools))
	for _, tool := range r.Tools {
		v := strings.TrimSpace(tool)
		if v == "" {
			continue
		}
		if v == "Other" {
			other := strings.TrimSpace(r.OtherTools)
			if other == "" {
				return Context{}, errors.New("other_tools is required when tools include Other")
			}
			tools = append(tools, other)
			continue
		}
		tools = append(tools, v)
	}
	if len(tools) == 0 {
		return Context{}, errors.New("at least one tool is required")
	}

	continuation := strings.TrimSpace(r.Continuation)
	if continuation == "" {
		return Context{}, errors.New("continuation is required")
	}

	return Context{
		Industry:     industry,
		Challenges:   challenges,
		Tools:        tools,
		Continuation: continuation,
	}, nil
}

// Submit handles POST /api/discovery/submit requests
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode discovery submission", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	dctx, err := req.Normalize()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.sessions.StartSession(r.Context(), req.UserID, dctx); err != nil {
		h.logger.Error("failed to start chat session", "user_id", req.UserID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if h.repo != nil {
		if _, err := h.repo.AttachDiscovery(r.Context(), req.UserID, dctx); err != nil && !errors.Is(err, leads.ErrLeadNotFound) {
			h.logger.Error("failed to attach discovery data to lead", "user_id", req.UserID, "error", err)
		}
	}

	h.logger.Info("discovery submitted", "user_id", req.UserID, "industry", dctx.IndustryLabel())

	notify.Dispatch(h.notifier, h.logger, notify.Event{
		Type:   notify.EventDiscoverySubmission,
		UserID: req.UserID,
		Data: map[string]any{
			"industry":     dctx.Industry,
			"challenges":   dctx.Challenges,
			"tools":        dctx.Tools,
			"continuation": dctx.Continuation,
		},
		Timestamp: time.Now().UTC(),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "Discovery data saved successfully",
		"context": dctx,
	})
}
