package feedserver

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the feed server.
type Metrics struct {
	EventsGenerated  *prometheus.CounterVec // label: type
	FramesBroadcast  prometheus.Counter
	ClientsConnected prometheus.Gauge
}

// NewMetrics creates and registers the feed metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.EventsGenerated, m.FramesBroadcast, m.ClientsConnected)
	return m
}

// NewMetricsForTesting returns unregistered metrics so tests never hit
// "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EventsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terra_feed",
			Name:      "events_generated_total",
			Help:      "Total change events pushed into the feed, by type.",
		}, []string{"type"}),
		FramesBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terra_feed",
			Name:      "frames_broadcast_total",
			Help:      "Total websocket frames broadcast to clients.",
		}),
		ClientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "terra_feed",
			Name:      "clients_connected",
			Help:      "Currently connected websocket clients.",
		}),
	}
}
