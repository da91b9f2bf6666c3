package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the service's Prometheus collectors. Audit and transcript
// failures get their own counters because both are swallowed by design and
// would otherwise be invisible.
type Metrics struct {
	Requests           *prometheus.CounterVec
	AuditFailures      prometheus.Counter
	TranscriptFailures prometheus.Counter
	EventsPublished    *prometheus.CounterVec
	EventsDropped      prometheus.Counter
}

// NewMetrics registers collectors against the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supportdesk_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		AuditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supportdesk_audit_write_failures_total",
			Help: "Audit log writes that failed and were swallowed.",
		}),
		TranscriptFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supportdesk_transcript_failures_total",
			Help: "Transcript generations that failed without blocking close.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supportdesk_events_published_total",
			Help: "Events published to the realtime bus by type.",
		}, []string{"type"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supportdesk_events_dropped_total",
			Help: "Events dropped because a subscriber channel was full.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.AuditFailures, m.TranscriptFailures, m.EventsPublished, m.EventsDropped)
	}
	return m
}

// RecordRequest increments the request counter.
func (m *Metrics) RecordRequest(route, method string, status int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}
