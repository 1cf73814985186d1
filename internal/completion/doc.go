// Package completion implements the retrying chat completion client.
//
// A Client sends one user message, together with a fixed system prompt
// and sampling parameters, to a Provider. Rate-limited attempts are
// retried with exact exponential backoff (see package retry); any other
// failure is returned immediately as an *UpstreamError.
//
//	client := completion.NewClient(provider, completion.DefaultParameters(),
//	    completion.WithLogger(logger),
//	)
//	reply, err := client.GetCompletion(ctx, "hello")
package completion
