package completion

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/chatrelay/internal/retry"
)

const operationName = "completion"

// Client is the retrying completion client. It holds only read-only
// configuration and is safe for concurrent use; every call owns its
// retry state.
type Client struct {
	provider Provider
	params   Parameters
	retry    retry.Config
	logger   *zap.Logger
	metrics  *Metrics
	tracer   trace.Tracer

	// sleep replaces the backoff timer in tests.
	sleep retry.SleepFunc
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetryConfig sets the default attempt bound, initial delay and
// optional delay cap.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithMetrics records upstream call outcomes.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used for completion spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// NewClient creates a new completion client.
func NewClient(provider Provider, params Parameters, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		params:   params,
		retry:    *retry.DefaultConfig(),
		logger:   zap.NewNop(),
		tracer:   otel.Tracer("chatrelay/completion"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parameters returns the parameters applied to every call.
func (c *Client) Parameters() Parameters {
	return c.params
}

// GetCompletion returns the reply to userMessage using the configured
// attempt bound and initial delay.
func (c *Client) GetCompletion(ctx context.Context, userMessage string) (string, error) {
	return c.complete(ctx, userMessage, c.retry)
}

// GetCompletionWithRetry returns the reply to userMessage. Rate-limited
// attempts are retried up to maxAttempts in total, waiting initialDelay
// before the first retry and doubling the wait each time. maxAttempts
// below 1 and non-positive initialDelay fall back to the defaults.
func (c *Client) GetCompletionWithRetry(
	ctx context.Context,
	userMessage string,
	maxAttempts int,
	initialDelay time.Duration,
) (string, error) {
	cfg := c.retry
	cfg.MaxAttempts = maxAttempts
	cfg.InitialDelay = initialDelay
	return c.complete(ctx, userMessage, cfg)
}

func (c *Client) complete(ctx context.Context, userMessage string, cfg retry.Config) (string, error) {
	ctx, span := c.tracer.Start(ctx, "completion.GetCompletion",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.request.model", c.params.Model),
			attribute.Int("gen_ai.request.max_tokens", c.params.MaxTokens),
			attribute.Int("retry.max_attempts", cfg.GetMaxAttempts()),
		),
	)
	defer span.End()

	req := c.params.Request(userMessage)
	var reply string
	attempts := 0

	err := retry.Do(ctx, &cfg, func(ctx context.Context) error {
		attempts++
		text, err := c.attempt(ctx, req)
		if err != nil {
			return err
		}
		reply = text
		return nil
	}, &retry.Options{
		ShouldRetry: IsRateLimited,
		Sleep:       c.sleep,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			c.logger.Warn("upstream rate limited, retrying",
				zap.Int("attempt", attempt),
				zap.Int("remaining_attempts", cfg.GetMaxAttempts()-attempt),
				zap.Duration("delay", wait),
				zap.Error(err),
			)
			span.AddEvent("retry", trace.WithAttributes(
				attribute.Int("attempt", attempt),
				attribute.Int64("delay_ms", wait.Milliseconds()),
			))
		},
		Metrics:   c.metrics.retryMetrics(),
		Operation: operationName,
	})

	span.SetAttributes(attribute.Int("retry.attempts", attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logFailure(err, attempts)
		return "", err
	}

	return reply, nil
}

// attempt performs one upstream call and normalises its outcome.
func (c *Client) attempt(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	resp, err := c.provider.Complete(ctx, req)
	if err != nil {
		err = normalize(err)
		c.metrics.observeCall(outcomeOf(err), time.Since(start))
		return "", err
	}

	if len(resp.Choices) == 0 {
		err := &UpstreamError{Message: ErrNoChoices.Error(), Err: ErrNoChoices}
		c.metrics.observeCall(outcomeUpstreamError, time.Since(start))
		return "", err
	}

	c.metrics.observeCall(outcomeSuccess, time.Since(start))
	c.metrics.observeTokens(resp.Usage)

	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// normalize wraps provider errors that are neither rate limits, upstream
// errors nor context errors into an UpstreamError.
func normalize(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rl *RateLimitError
	if errors.As(err, &rl) {
		return err
	}

	var up *UpstreamError
	if errors.As(err, &up) {
		return err
	}

	return &UpstreamError{Err: err}
}

func (c *Client) logFailure(err error, attempts int) {
	switch {
	case IsRetryExhausted(err):
		c.logger.Error("upstream rate limit persisted",
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.logger.Info("completion canceled",
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
	default:
		var up *UpstreamError
		status := 0
		if errors.As(err, &up) {
			status = up.StatusCode
		}
		c.logger.Error("upstream call failed",
			zap.Int("attempts", attempts),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
}
