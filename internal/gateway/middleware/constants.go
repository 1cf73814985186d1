package middleware

// HTTP header constants.
const (
	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"

	// HeaderRetryAfter is the Retry-After header name.
	HeaderRetryAfter = "Retry-After"

	// HeaderRateLimitLimit is the X-RateLimit-Limit header name.
	HeaderRateLimitLimit = "X-RateLimit-Limit"

	// HeaderRateLimitRemaining is the X-RateLimit-Remaining header name.
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"

	// HeaderRateLimitReset is the X-RateLimit-Reset header name.
	HeaderRateLimitReset = "X-RateLimit-Reset"
)

// Gin context keys.
const (
	// RequestIDKey is the context key for the request ID.
	RequestIDKey = "requestID"

	// SpanKey is the context key for the server span.
	SpanKey = "otel-span"
)

// Reply texts of the responses this package writes itself.
const (
	// ReplyTooManyRequests answers requests over the client quota.
	ReplyTooManyRequests = "Too many requests, please try again later."

	// ReplyInternalError answers requests whose handler panicked.
	ReplyInternalError = "Sorry, something went wrong: internal error"
)

// unmatchedRoute labels requests that matched no route.
const unmatchedRoute = "unmatched"

// isHealthCheckPath checks if the path is a health check endpoint.
func isHealthCheckPath(path string) bool {
	return path == "/health" || path == "/ready" || path == "/live"
}

func reply(text string) map[string]string {
	return map[string]string{"reply": text}
}
