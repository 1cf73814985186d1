package middleware

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/chatrelay/internal/ratelimit"
)

// MockLimiter is a mock implementation of ratelimit.Limiter for testing.
type MockLimiter struct {
	allowFunc func(ctx context.Context, key string) (*ratelimit.Result, error)

	mu   sync.Mutex
	keys []string
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (*ratelimit.Result, error) {
	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.mu.Unlock()

	if m.allowFunc != nil {
		return m.allowFunc(ctx, key)
	}
	return &ratelimit.Result{
		Allowed:    true,
		Limit:      30,
		Remaining:  29,
		ResetAfter: time.Minute,
	}, nil
}

func (m *MockLimiter) Reset(context.Context, string) error { return nil }

func (m *MockLimiter) Limit() ratelimit.Limit {
	return ratelimit.Limit{Requests: 30, Window: time.Minute}
}

func (m *MockLimiter) Close() error { return nil }

func (m *MockLimiter) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

// metricValue returns the counter or gauge value of the series name
// whose labels include want, or the sample count for histograms.
func metricValue(t *testing.T, g prometheus.Gatherer, name string, want map[string]string) float64 {
	t.Helper()

	families, err := g.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !labelsMatch(m, want) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := want[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(want)
}
