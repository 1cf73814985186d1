package completion

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/chatrelay/internal/retry"
)

const (
	outcomeSuccess       = "success"
	outcomeRateLimited   = "rate_limited"
	outcomeUpstreamError = "upstream_error"
	outcomeCanceled      = "canceled"
)

// Metrics holds the upstream call collectors. A nil *Metrics records nothing.
type Metrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	tokensTotal  *prometheus.CounterVec
	retry        *retry.Metrics
}

// NewMetrics registers the completion and retry collectors on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "calls_total",
				Help:      "Total number of upstream completion calls by outcome",
			},
			[]string{"outcome"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "call_duration_seconds",
				Help:      "Duration of single upstream completion calls in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"outcome"},
		),
		tokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "tokens_total",
				Help:      "Total number of tokens reported by the upstream",
			},
			[]string{"kind"},
		),
		retry: retry.NewMetrics(namespace, reg),
	}
}

func (m *Metrics) retryMetrics() *retry.Metrics {
	if m == nil {
		return nil
	}
	return m.retry
}

func (m *Metrics) observeCall(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(outcome).Inc()
	m.callDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) observeTokens(u Usage) {
	if m == nil {
		return
	}
	m.tokensTotal.WithLabelValues("prompt").Add(float64(u.PromptTokens))
	m.tokensTotal.WithLabelValues("completion").Add(float64(u.CompletionTokens))
}

func outcomeOf(err error) string {
	switch {
	case IsRateLimited(err):
		return outcomeRateLimited
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	default:
		return outcomeUpstreamError
	}
}
