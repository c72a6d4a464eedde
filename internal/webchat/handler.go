package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/get-synced/Magnet/internal/booking"
	"github.com/get-synced/Magnet/internal/chat"
	"github.com/get-synced/Magnet/internal/discovery"
	"github.com/get-synced/Magnet/pkg/logging"
)

const genericErrorText = "Sorry, something went wrong. Please try again."

// Dialogue is the synchronous chat surface the widget talks to.
// Implemented by chat.Service.
type Dialogue interface {
	HandleMessage(ctx context.Context, userID, message string, dctx *discovery.Context) (*chat.TurnResult, error)
	History(ctx context.Context, userID string) ([]chat.Turn, error)
}

// Handler manages web chat connections and messages.
type Handler struct {
	dialogue Dialogue
	logger   *logging.Logger
	widgetJS []byte

	mu       sync.RWMutex
	sessions map[string]*wsConn // userID -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type    string             `json:"type"` // "message", "ping"
	Text    string             `json:"text"`
	Context *discovery.Context `json:"context,omitempty"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type           string           `json:"type"` // "message", "typing", "history", "session", "pong", "error"
	Text           string           `json:"text,omitempty"`
	Role           string           `json:"role,omitempty"`
	UserID         string           `json:"userId,omitempty"`
	Timestamp      string           `json:"timestamp,omitempty"`
	Messages       []HistoryMessage `json:"messages,omitempty"`
	BookingOffered bool             `json:"bookingOffered,omitempty"`
	Booking        *booking.Offer   `json:"booking,omitempty"`
}

// HistoryMessage is a simplified turn for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a web chat handler.
func NewHandler(dialogue Dialogue, widgetJS []byte, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		dialogue: dialogue,
		logger:   logger,
		widgetJS: widgetJS,
		sessions: make(map[string]*wsConn),
	}
}

// generateUserID mints a visitor identifier for widgets that connect
// before registering.
func generateUserID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = generateUserID()
	}

	// Session hello so the widget can persist its identifier.
	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:   "session",
		UserID: userID,
	})

	// Replay history for returning visitors.
	if turns, err := h.dialogue.History(r.Context(), userID); err == nil && len(turns) > 0 {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: toHistory(turns)})
	}

	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.sessions[userID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[userID] == wsc {
			delete(h.sessions, userID)
		}
		h.mu.Unlock()
		close(wsc.done)
	}()

	h.logger.Info("webchat: connection opened", "user_id", userID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "user_id", userID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}

		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		h.sendToSession(userID, OutboundMessage{Type: "typing"})
		h.sendToSession(userID, h.runTurn(r.Context(), userID, msg.Text, msg.Context))
	}
}

// runTurn executes one synchronous round trip and shapes the reply frame.
func (h *Handler) runTurn(ctx context.Context, userID, text string, dctx *discovery.Context) OutboundMessage {
	result, err := h.dialogue.HandleMessage(ctx, userID, text, dctx)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrInvalidInput):
			return OutboundMessage{Type: "error", Text: err.Error()}
		case errors.Is(err, chat.ErrUpstreamEmpty):
			return OutboundMessage{Type: "error", Text: chat.ApologyMessage}
		default:
			h.logger.Error("webchat: turn failed", "user_id", userID, "error", err)
			return OutboundMessage{Type: "error", Text: genericErrorText}
		}
	}

	return OutboundMessage{
		Type:           "message",
		Role:           chat.RoleAssistant,
		Text:           result.Assistant.Content,
		Timestamp:      result.Assistant.Timestamp.Format(time.RFC3339),
		BookingOffered: result.BookingOffered,
		Booking:        result.Booking,
	}
}

func (h *Handler) sendToSession(userID string, msg OutboundMessage) {
	h.mu.RLock()
	wsc, ok := h.sessions[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = websocket.JSON.Send(wsc.conn, msg)
}

// HandleMessage is the HTTP fallback for widgets without WebSocket support.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string             `json:"userId"`
		Text    string             `json:"text"`
		Context *discovery.Context `json:"context,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		req.UserID = generateUserID()
	}

	reply := h.runTurn(r.Context(), req.UserID, req.Text, req.Context)
	reply.UserID = req.UserID

	status := http.StatusOK
	if reply.Type == "error" {
		switch reply.Text {
		case chat.ApologyMessage:
			status = http.StatusBadGateway
		case genericErrorText:
			status = http.StatusInternalServerError
		default:
			status = http.StatusBadRequest
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(reply)
}

// HandleHistory returns chat history for a visitor.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		http.Error(w, "user parameter required", http.StatusBadRequest)
		return
	}

	turns, err := h.dialogue.History(r.Context(), userID)
	if err != nil && !errors.Is(err, chat.ErrSessionNotFound) {
		h.logger.Error("webchat: failed to load history", "user_id", userID, "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": toHistory(turns)})
}

// HandleWidgetJS serves the embeddable widget JavaScript.
func (h *Handler) HandleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.widgetJS)
}

func toHistory(turns []chat.Turn) []HistoryMessage {
	history := make([]HistoryMessage, 0, len(turns))
	for _, turn := range turns {
		history = append(history, HistoryMessage{
			Role:      turn.Role,
			Text:      turn.Content,
			Timestamp: turn.Timestamp.Format(time.RFC3339),
		})
	}
	return history
}
