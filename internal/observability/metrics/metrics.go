package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the WhatsApp flow.
type ConversationMetrics struct {
	inboundTotal    *prometheus.CounterVec
	repliesTotal    *prometheus.CounterVec
	parseFailures   prometheus.Counter
	bookingsCreated prometheus.Counter
	webhookLatency  *prometheus.HistogramVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizflow",
			Subsystem: "conversation",
			Name:      "inbound_messages_total",
			Help:      "Total inbound WhatsApp messages by handling outcome",
		}, []string{"outcome"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizflow",
			Subsystem: "conversation",
			Name:      "replies_total",
			Help:      "Total replies by resulting conversation state",
		}, []string{"state"}),
		parseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bizflow",
			Subsystem: "conversation",
			Name:      "parse_failures_total",
			Help:      "Booking texts that failed to parse",
		}),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bizflow",
			Subsystem: "conversation",
			Name:      "bookings_created_total",
			Help:      "Bookings created through the assistant",
		}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bizflow",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of WhatsApp webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.repliesTotal, m.parseFailures, m.bookingsCreated, m.webhookLatency)
	return m
}

func (m *ConversationMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

func (m *ConversationMetrics) ObserveReply(state string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(state).Inc()
}

func (m *ConversationMetrics) ObserveParseFailure() {
	if m == nil {
		return
	}
	m.parseFailures.Inc()
}

func (m *ConversationMetrics) ObserveBookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
}

func (m *ConversationMetrics) ObserveWebhookLatency(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(outcome).Observe(seconds)
}
