package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/chatrelay/internal/completion"
	"github.com/vyrodovalexey/chatrelay/internal/gateway/middleware"
)

// fakeCompleter records calls and answers with reply or err.
type fakeCompleter struct {
	reply string
	err   error

	mu       sync.Mutex
	messages []string
}

func (f *fakeCompleter) GetCompletion(_ context.Context, msg string) (string, error) {
	f.mu.Lock()
	f.messages = append(f.messages, msg)
	f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func newChatRouter(completer Completer, handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(handlers...)
	router.POST("/chat", NewChatHandler(completer, nil).Handle)
	return router
}

func postChat(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatHandler_RejectsMissingMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		body string
	}{
		{"empty message", `{"message":""}`},
		{"missing field", `{}`},
		{"null message", `{"message":null}`},
		{"empty body", ``},
		{"invalid json", `{"message":`},
		{"not an object", `"hello"`},
		{"message not a string", `{"message":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{reply: "unused"}
			router := newChatRouter(completer)

			w := postChat(router, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"reply":"No message provided."}`, w.Body.String())
			assert.Empty(t, completer.Messages(), "completer must not be called")
		})
	}
}

func TestChatHandler_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	completer := &fakeCompleter{reply: "hi there"}
	router := newChatRouter(completer)

	w := postChat(router, `{"message":"hello"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"reply":"hi there"}`, w.Body.String())
	assert.Equal(t, []string{"hello"}, completer.Messages())
}

func TestChatHandler_WhitespaceMessageIsForwarded(t *testing.T) {
	gin.SetMode(gin.TestMode)

	completer := &fakeCompleter{reply: "?"}
	router := newChatRouter(completer)

	w := postChat(router, `{"message":"   "}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"   "}, completer.Messages())
}

func TestChatHandler_CompletionFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		err       error
		wantReply string
	}{
		{
			name:      "plain error",
			err:       errors.New("boom"),
			wantReply: "Sorry, something went wrong: boom",
		},
		{
			name:      "upstream error",
			err:       &completion.UpstreamError{StatusCode: 401, Message: "Incorrect API key provided"},
			wantReply: "Sorry, something went wrong: Incorrect API key provided",
		},
		{
			name: "retries exhausted",
			err: &completion.RetryExhaustedError{
				Attempts: 3,
				Last:     &completion.RateLimitError{Message: "Rate limit reached"},
			},
			wantReply: "Sorry, something went wrong: upstream rate limit persisted after 3 attempts: Rate limit reached",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			router := gin.New()
			router.POST("/chat", NewChatHandler(&fakeCompleter{err: tt.err}, zap.New(core)).Handle)

			w := postChat(router, `{"message":"hello"}`)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			var body ChatResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantReply, body.Reply)
			assert.Equal(t, 1, logs.FilterMessage("chat completion failed").Len())
		})
	}
}

func TestChatHandler_OversizedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	completer := &fakeCompleter{reply: "unused"}
	router := newChatRouter(completer, middleware.BodyLimit(32))

	w := postChat(router, `{"message":"`+strings.Repeat("a", 100)+`"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"reply":"No message provided."}`, w.Body.String())
	assert.Empty(t, completer.Messages())
}

func TestBindMessage_WrapsErrNoMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":""}`))
	c.Request.Header.Set("Content-Type", "application/json")

	_, err := bindMessage(c)
	assert.ErrorIs(t, err, ErrNoMessage)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
