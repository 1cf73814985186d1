package retry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess   = "success"
	resultRetry     = "retry"
	resultFailure   = "failure"
	resultExhausted = "exhausted"
)

// Metrics holds the retry collectors. A nil *Metrics records nothing.
type Metrics struct {
	attemptsTotal   *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	backoffDuration *prometheus.HistogramVec
}

// NewMetrics registers the retry collectors on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "retry",
				Name:      "attempts_total",
				Help:      "Total number of attempts by outcome",
			},
			[]string{"operation", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "retry",
				Name:      "duration_seconds",
				Help:      "Total duration of retried operations in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation", "result"},
		),
		backoffDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "retry",
				Name:      "backoff_duration_seconds",
				Help:      "Duration of backoff waits in seconds",
				Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) observeAttempt(operation, result string) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) observeDuration(operation, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation, result).Observe(d.Seconds())
}

func (m *Metrics) observeBackoff(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.backoffDuration.WithLabelValues(operation).Observe(d.Seconds())
}
