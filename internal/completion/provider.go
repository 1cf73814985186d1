package completion

import "context"

// Provider performs a single chat completion call. Implementations must
// be safe for concurrent use and must report rate limiting as a
// *RateLimitError.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (*Response, error)

// Complete implements Provider.
func (f ProviderFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
