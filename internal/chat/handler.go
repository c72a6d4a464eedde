package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/get-synced/Magnet/internal/booking"
	"github.com/get-synced/Magnet/internal/discovery"
	"github.com/get-synced/Magnet/pkg/logging"
)

// Handler handles HTTP requests for the chat widget
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new chat handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// MessageRequest is the body of POST /api/chat.
type MessageRequest struct {
	Message string             `json:"message"`
	UserID  string             `json:"userId"`
	Context *discovery.Context `json:"context,omitempty"`
}

// MessageResponse carries the turn pair back to the widget.
type MessageResponse struct {
	Messages       []Turn         `json:"messages"`
	BookingOffered bool           `json:"bookingOffered"`
	Booking        *booking.Offer `json:"booking,omitempty"`
}

// Message handles POST /api/chat requests
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode chat request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.HandleMessage(r.Context(), req.UserID, req.Message, req.Context)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrUpstreamEmpty):
			h.logger.Error("chat turn failed upstream", "user_id", req.UserID, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": ApologyMessage})
		default:
			h.logger.Error("chat turn failed", "user_id", req.UserID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Messages:       []Turn{result.User, result.Assistant},
		BookingOffered: result.BookingOffered,
		Booking:        result.Booking,
	})
}

// History handles GET /api/chat/history requests
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	turns, err := h.service.History(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrSessionNotFound):
			writeJSON(w, http.StatusOK, map[string]any{"messages": []Turn{}})
		default:
			h.logger.Error("chat history lookup failed", "user_id", userID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": turns})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
