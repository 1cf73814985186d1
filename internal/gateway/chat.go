package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/chatrelay/internal/gateway/middleware"
)

// Reply texts of the chat endpoint.
const (
	ReplyNoMessage   = "No message provided."
	ReplyErrorPrefix = "Sorry, something went wrong: "
)

const (
	chatRoute         = "/chat"
	maxLoggedMsgBytes = 64
)

// ErrNoMessage is reported when the request carries no usable message.
var ErrNoMessage = errors.New("no message provided")

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the body of every /chat response.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Completer produces the reply to a user message.
type Completer interface {
	GetCompletion(ctx context.Context, userMessage string) (string, error)
}

// ChatHandler handles POST /chat.
type ChatHandler struct {
	completer Completer
	logger    *zap.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(completer Completer, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{completer: completer, logger: logger}
}

// Handle answers 400 when the message is missing, empty or unreadable,
// 200 with the reply on success and 500 with the error text otherwise.
func (h *ChatHandler) Handle(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	message, err := bindMessage(c)
	if err != nil {
		h.logger.Debug("rejected chat request",
			zap.String("requestID", requestID),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, ChatResponse{Reply: ReplyNoMessage})
		return
	}

	reply, err := h.completer.GetCompletion(c.Request.Context(), message)
	if err != nil {
		h.logger.Error("chat completion failed",
			zap.String("requestID", requestID),
			zap.String("message", truncate(message, maxLoggedMsgBytes)),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ChatResponse{Reply: ReplyErrorPrefix + err.Error()})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}

// bindMessage decodes the request body. Decoding errors, including an
// oversized body, are reported as ErrNoMessage.
func bindMessage(c *gin.Context) (string, error) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", errors.Join(ErrNoMessage, err)
	}
	return req.Message, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
