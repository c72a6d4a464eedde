package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the dialogue flow.
type ChatMetrics struct {
	turnsTotal         *prometheus.CounterVec
	llmLatency         *prometheus.HistogramVec
	bookingOffersTotal prometheus.Counter
	notificationsTotal *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "magnet",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total dialogue turns processed",
		}, []string{"status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "magnet",
			Subsystem: "chat",
			Name:      "llm_latency_seconds",
			Help:      "Latency of completion-service round trips",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		bookingOffersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "magnet",
			Subsystem: "chat",
			Name:      "booking_offers_total",
			Help:      "Sessions in which the call-booking trigger fired",
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "magnet",
			Subsystem: "notify",
			Name:      "webhook_dispatch_total",
			Help:      "Outbound webhook dispatch attempts",
		}, []string{"event_type", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.llmLatency, m.bookingOffersTotal, m.notificationsTotal)
	return m
}

func (m *ChatMetrics) ObserveTurn(status string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(status).Inc()
}

func (m *ChatMetrics) ObserveLLMLatency(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *ChatMetrics) ObserveBookingOffer() {
	if m == nil {
		return
	}
	m.bookingOffersTotal.Inc()
}

func (m *ChatMetrics) ObserveNotification(eventType, status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(eventType, status).Inc()
}
