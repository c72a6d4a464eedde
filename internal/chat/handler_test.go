package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-synced/Magnet/pkg/logging"
)

func newTestHandler(t *testing.T, llm LLMClient) *Handler {
	t.Helper()
	svc := newTestService(t, llm, nil, nil)
	return NewHandler(svc, logging.Default())
}

func chatBody(t *testing.T, userID, message string, withContext bool) *bytes.Buffer {
	t.Helper()
	req := MessageRequest{Message: message, UserID: userID}
	if withContext {
		dctx := testDiscoveryContext()
		req.Context = &dctx
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHandlerMessage(t *testing.T) {
	h := newTestHandler(t, &mockLLM{resp: LLMResponse{Text: "Glad you asked."}})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", chatBody(t, "user-1", "hello", true))
	rec := httptest.NewRecorder()
	h.Message(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, RoleUser, resp.Messages[0].Role)
	assert.Equal(t, "hello", resp.Messages[0].Content)
	assert.Equal(t, RoleAssistant, resp.Messages[1].Role)
	assert.Equal(t, "Glad you asked.", resp.Messages[1].Content)
	assert.False(t, resp.BookingOffered)
}

func TestHandlerMessageBookingPayload(t *testing.T) {
	h := newTestHandler(t, &mockLLM{resp: LLMResponse{Text: "Let's schedule a call."}})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", chatBody(t, "user-1", "hello", true))
	rec := httptest.NewRecorder()
	h.Message(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.BookingOffered)
	require.NotNil(t, resp.Booking)
	assert.Equal(t, "https://calendly.com/synced/intro", resp.Booking.CalendarURL)
}

func TestHandlerMessageBadRequests(t *testing.T) {
	h := newTestHandler(t, &mockLLM{resp: LLMResponse{Text: "unused"}})

	tests := []struct {
		name string
		body *bytes.Buffer
	}{
		{"malformed json", bytes.NewBufferString("{not json")},
		{"missing message", func() *bytes.Buffer { return chatBody(t, "user-1", "", true) }()},
		{"missing user id", func() *bytes.Buffer { return chatBody(t, "", "hello", true) }()},
		{"no session no context", func() *bytes.Buffer { return chatBody(t, "user-1", "hello", false) }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", tt.body)
			rec := httptest.NewRecorder()
			h.Message(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandlerMessageUpstreamFailure(t *testing.T) {
	h := newTestHandler(t, &mockLLM{resp: LLMResponse{Text: ""}})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", chatBody(t, "user-1", "hello", true))
	rec := httptest.NewRecorder()
	h.Message(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ApologyMessage, resp["error"])
}

func TestHandlerHistory(t *testing.T) {
	h := newTestHandler(t, &mockLLM{resp: LLMResponse{Text: "reply"}})

	post := httptest.NewRequest(http.MethodPost, "/api/chat", chatBody(t, "user-1", "hello", true))
	h.Message(httptest.NewRecorder(), post)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history?userId=user-1", nil)
	rec := httptest.NewRecorder()
	h.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []Turn `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 2)
}

func TestHandlerHistoryUnknownUser(t *testing.T) {
	h := newTestHandler(t, &mockLLM{resp: LLMResponse{Text: "unused"}})

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history?userId=ghost", nil)
	rec := httptest.NewRecorder()
	h.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []Turn `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Messages)
}

func TestHandlerHistoryMissingUserID(t *testing.T) {
	h := newTestHandler(t, &mockLLM{resp: LLMResponse{Text: "unused"}})

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
	rec := httptest.NewRecorder()
	h.History(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
