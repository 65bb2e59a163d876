// Package prometheus implements metrics.ServerMetrics on top of the Prometheus
// client.
package prometheus

import (
	"time"

	"github.com/indigo-web/simplehttp/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "simplehttp"

type serverMetrics struct {
	connectionsAccepted prometheus.Counter
	acceptFailures      prometheus.Counter
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	bytesTransferred    *prometheus.CounterVec
}

// New registers the collectors in reg. Passing nil returns the no-op
// implementation.
func New(reg prometheus.Registerer) metrics.ServerMetrics {
	if reg == nil {
		return metrics.NewNoop()
	}

	return &serverMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connections_accepted_total",
				Help:      "Total number of accepted connections",
			},
		),
		acceptFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "accept_failures_total",
				Help:      "Total number of failed accepts",
			},
		),
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of served connections by outcome",
			},
			[]string{"outcome"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Time from reading a request to closing the connection",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1,      // 1s
				},
			},
			[]string{"outcome"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_transferred_total",
				Help:      "Total bytes read from and written to connections",
			},
			[]string{"direction"},
		),
	}
}

func (m *serverMetrics) ConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

func (m *serverMetrics) AcceptFailed() {
	m.acceptFailures.Inc()
}

func (m *serverMetrics) RequestServed(outcome string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(outcome).Inc()
	m.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *serverMetrics) BytesTransferred(direction string, n int) {
	m.bytesTransferred.WithLabelValues(direction).Add(float64(n))
}
