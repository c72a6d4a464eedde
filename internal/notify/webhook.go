package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/get-synced/Magnet/internal/observability/metrics"
	"github.com/get-synced/Magnet/pkg/logging"
)

// Event types delivered to the outbound automation webhook.
const (
	EventNewsletterSubscription = "newsletter_subscription"
	EventNewsletterSignup       = "newsletter_signup"
	EventDiscoverySubmission    = "discovery_submission"
	EventBookingOffered         = "booking_offered"
)

// Event is the JSON payload posted to the automation webhook.
type Event struct {
	Type      string    `json:"type"`
	Email     string    `json:"email,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier delivers events to an external automation collaborator.
type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// WebhookNotifier posts events as JSON to a configured URL. An empty URL
// makes every delivery a silent no-op so callers never have to branch.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	logger  *logging.Logger
	metrics *metrics.ChatMetrics
}

// NewWebhookNotifier creates a webhook notifier. metrics may be nil.
func NewWebhookNotifier(url string, timeout time.Duration, m *metrics.ChatMetrics, logger *logging.Logger) *WebhookNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: m,
	}
}

// Notify posts the event to the configured URL.
func (n *WebhookNotifier) Notify(ctx context.Context, evt Event) error {
	if n == nil || n.url == "" {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(evt)
	if err != nil {
		n.metrics.ObserveNotification(evt.Type, "error")
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.metrics.ObserveNotification(evt.Type, "error")
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.metrics.ObserveNotification(evt.Type, "error")
		return fmt.Errorf("notify: deliver %s event: %w", evt.Type, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		n.metrics.ObserveNotification(evt.Type, "error")
		return fmt.Errorf("notify: webhook returned status %d for %s event", resp.StatusCode, evt.Type)
	}

	n.metrics.ObserveNotification(evt.Type, "ok")
	n.logger.Info("notify: webhook delivered", "type", evt.Type, "status", resp.StatusCode)
	return nil
}

// Dispatch delivers the event in the background. Failures are logged and
// swallowed; the caller's turn is never blocked or failed by delivery.
func Dispatch(n Notifier, logger *logging.Logger, evt Event) {
	if n == nil {
		return
	}
	if logger == nil {
		logger = logging.Default()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := n.Notify(ctx, evt); err != nil {
			logger.Error("notify: background dispatch failed", "type", evt.Type, "error", err)
		}
	}()
}
