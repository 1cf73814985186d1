// Package middleware provides the gin middleware chain of the chat
// gateway: request id and access logging, panic recovery, CORS, per
// client rate limiting, tracing, request metrics and body size limits.
//
// Error responses written by this package use the same JSON shape as
// the chat endpoint, a single "reply" field.
package middleware
