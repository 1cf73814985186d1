package completion

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI-compatible provider.
type OpenAIConfig struct {
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for a proxy or a
	// compatible provider. Empty uses the OpenAI default.
	BaseURL string

	// Timeout bounds a single HTTP call.
	Timeout time.Duration
}

// OpenAIProvider calls the chat completions endpoint through go-openai.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a provider with its own HTTP client. The
// client is shared by all calls.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIProvider{client: openai.NewClientWithConfig(clientCfg)}
}

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	out := &Response{
		Choices: make([]Choice, 0, len(resp.Choices)),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, c := range resp.Choices {
		out.Choices = append(out.Choices, Choice{
			Content:      c.Message.Content,
			FinishReason: string(c.FinishReason),
		})
	}

	return out, nil
}

// classifyOpenAIError maps go-openai errors onto RateLimitError and
// UpstreamError. Context errors are returned unchanged.
func classifyOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &RateLimitError{Message: apiErr.Message}
		}
		return &UpstreamError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &RateLimitError{Message: http.StatusText(http.StatusTooManyRequests)}
		}
		return &UpstreamError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    "upstream returned status " + strconv.Itoa(reqErr.HTTPStatusCode),
			Err:        err,
		}
	}

	return &UpstreamError{Err: err}
}
