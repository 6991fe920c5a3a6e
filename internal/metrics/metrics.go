package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cryptobot"

// Metrics holds the bot's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	upstreamReqs  *prometheus.CounterVec
	upstreamDur   *prometheus.HistogramVec
	commands      *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	expiryDeletes *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		upstreamReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by provider, endpoint and status",
		}, []string{"provider", "endpoint", "status"}),
		upstreamDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of upstream API requests",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "endpoint"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Chat commands handled by outcome",
		}, []string{"command", "outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Refresh interactions by result (edited, unchanged, failed)",
		}, []string{"result"}),
		expiryDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expiry_deletes_total",
			Help:      "Automatic deletions of snapshot messages by result",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.upstreamReqs, m.upstreamDur, m.commands, m.refreshes, m.expiryDeletes)
	}
	return m
}

// ObserveUpstream records one upstream call.
func (m *Metrics) ObserveUpstream(provider, endpoint, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.upstreamReqs.WithLabelValues(provider, endpoint, status).Inc()
	m.upstreamDur.WithLabelValues(provider, endpoint).Observe(took.Seconds())
}

func (m *Metrics) Command(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) ExpiryDelete(result string) {
	if m == nil {
		return
	}
	m.expiryDeletes.WithLabelValues(result).Inc()
}

// Collectors exposes the underlying vectors for tests.
func (m *Metrics) Collectors() (upstream, commands, refreshes, expiry *prometheus.CounterVec) {
	return m.upstreamReqs, m.commands, m.refreshes, m.expiryDeletes
}
