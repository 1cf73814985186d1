package completion

import (
	"context"

	"github.com/vyrodovalexey/chatrelay/internal/circuitbreaker"
)

// BreakerProvider guards a Provider with a circuit breaker. Only
// upstream failures count against the breaker; rate limits and caller
// cancellations do not.
type BreakerProvider struct {
	next    Provider
	breaker *circuitbreaker.Breaker
}

// NewBreakerProvider wraps next with a breaker built from cfg. The
// breaker's failure classifier is always set by this function.
func NewBreakerProvider(next Provider, cfg circuitbreaker.Config, opts ...circuitbreaker.Option) *BreakerProvider {
	cfg.IsFailure = countsAgainstBreaker
	return &BreakerProvider{
		next:    next,
		breaker: circuitbreaker.New(cfg, opts...),
	}
}

// Complete implements Provider.
func (p *BreakerProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	err := p.breaker.Execute(func() error {
		var err error
		resp, err = p.next.Complete(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Breaker returns the underlying breaker for health reporting.
func (p *BreakerProvider) Breaker() *circuitbreaker.Breaker {
	return p.breaker
}

func countsAgainstBreaker(err error) bool {
	return outcomeOf(err) == outcomeUpstreamError
}
