package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the session and listing counters.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeConfirmed = "confirmed"
	OutcomeDeclined  = "declined"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	Logins           *prometheus.CounterVec
	Logouts          *prometheus.CounterVec
	ListFetches      *prometheus.CounterVec
	GatewayFallbacks *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	UpstreamRejected *prometheus.CounterVec
	BreakerChanges   *prometheus.CounterVec
	GuardRejections  prometheus.Counter
}

// New creates all metrics and registers them with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "care_monitor_logins_total",
			Help: "Total number of login attempts, labeled by outcome",
		}, []string{"outcome"}),
		Logouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "care_monitor_logouts_total",
			Help: "Total number of logout prompts answered, labeled by outcome",
		}, []string{"outcome"}),
		ListFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "care_monitor_list_fetches_total",
			Help: "Total number of list fetches, labeled by outcome",
		}, []string{"outcome"}),
		GatewayFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "care_monitor_gateway_fallbacks_total",
			Help: "Total number of times static data replaced an upstream response",
		}, []string{"operation"}),
		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "care_monitor_upstream_latency_seconds",
			Help:    "Latency of upstream API calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		UpstreamRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "care_monitor_upstream_auth_rejections_total",
			Help: "Upstream responses with status 401 or 403",
		}, []string{"status"}),
		BreakerChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "care_monitor_circuit_state_changes_total",
			Help: "Circuit breaker state transitions, labeled by breaker and new state",
		}, []string{"breaker", "state"}),
		GuardRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "care_monitor_guard_rejections_total",
			Help: "Requests redirected to login because no session was present",
		}),
	}
}

func (m *Metrics) IncrementLogin(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementLogout(outcome string) {
	m.Logouts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementListFetch(outcome string) {
	m.ListFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementFallback(operation string) {
	m.GatewayFallbacks.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveUpstreamLatency(operation string, d time.Duration) {
	m.UpstreamLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) IncrementUpstreamRejected(status string) {
	m.UpstreamRejected.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementBreakerChange(breaker, state string) {
	m.BreakerChanges.WithLabelValues(breaker, state).Inc()
}

func (m *Metrics) IncrementGuardRejection() {
	m.GuardRejections.Inc()
}
