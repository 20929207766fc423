// Package metrics exposes growl client and daemon counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "growl"

// Metrics implements growl.Stats and records daemon activity.
type Metrics struct {
	posts      *prometheus.CounterVec
	failures   *prometheus.CounterVec
	pending    prometheus.Gauge
	correlated *prometheus.CounterVec
	displayed  *prometheus.CounterVec
	events     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		posts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_total",
			Help:      "Messages posted to the notification bus.",
		}, []string{"name"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "post_failures_total",
			Help:      "Posts the bus transport rejected.",
		}, []string{"name"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_callbacks",
			Help:      "Callbacks waiting for a clicked or timed-out event.",
		}),
		correlated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correlated_events_total",
			Help:      "Clicked and timed-out events carrying a callback id.",
		}, []string{"signal", "result"}),
		displayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "displayed_total",
			Help:      "Notifications shown by the daemon.",
		}, []string{"application"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daemon_events_total",
			Help:      "Clicked and timed-out events emitted by the daemon.",
		}, []string{"signal"}),
	}

	if reg != nil {
		reg.MustRegister(m.posts, m.failures, m.pending, m.correlated, m.displayed, m.events)
	}
	return m
}

func (m *Metrics) Posted(name string, err error) {
	m.posts.WithLabelValues(name).Inc()
	if err != nil {
		m.failures.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) PendingCallbacks(n int) {
	m.pending.Set(float64(n))
}

func (m *Metrics) Correlated(signal string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.correlated.WithLabelValues(signal, result).Inc()
}

// Displayed counts one notification shown for app.
func (m *Metrics) Displayed(app string) {
	m.displayed.WithLabelValues(app).Inc()
}

// Emitted counts one clicked or timed-out event sent by the daemon.
func (m *Metrics) Emitted(signal string) {
	m.events.WithLabelValues(signal).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
