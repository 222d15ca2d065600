package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/auth"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/anthropic"
	"github.com/axgate/llmgw/internal/infrastructure/dispatcher"
)

// AnthropicHandler serves the Anthropic Messages dialect, including the
// peripheral count_tokens utility that never reaches an upstream.
type AnthropicHandler struct {
	Dialect
}

func NewAnthropicHandler(a *auth.Authenticator, d *dispatcher.Dispatcher, logger *zap.Logger) *AnthropicHandler {
	return &AnthropicHandler{Dialect{Auth: a, Dispatcher: d, Logger: logger}}
}

// Messages handles POST /v1/messages.
func (h *AnthropicHandler) Messages(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, anthropicError("failed to read request body"))
		return
	}

	req, caps, err := dialect.ParseInbound(valueobject.DialectAnthropic, body)
	if err != nil {
		status, payload := renderAnthropicError(err)
		c.JSON(status, payload)
		return
	}

	h.run(c, valueobject.DialectAnthropic, req, caps, body, "application/json", renderAnthropicError)
}

// CountTokens handles POST /v1/messages/count_tokens. It is a unary
// estimate that never dispatches to an upstream binding. It still runs
// admission, including the credential's model-allowlist check against
// the body's model.
func (h *AnthropicHandler) CountTokens(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, anthropicError("failed to read request body"))
		return
	}

	req, _, err := dialect.ParseInbound(valueobject.DialectAnthropic, body)
	if err != nil {
		status, payload := renderAnthropicError(err)
		c.JSON(status, payload)
		return
	}

	if _, _, authErr := h.Auth.Authenticate(c.Request.Context(), c.Request.Header, c.ClientIP(), c.Request.UserAgent(), req.Model, valueobject.DialectAnthropic, 0); authErr != nil {
		status, payload := renderAnthropicError(authErr)
		c.JSON(status, payload)
		return
	}

	c.JSON(http.StatusOK, gin.H{"input_tokens": estimateTokens(req)})
}

// estimateTokens approximates token count from character length, a
// rough stand-in for a real tokenizer.
func estimateTokens(req *dialect.Request) int {
	chars := len(req.System)
	for _, m := range req.Messages {
		chars += len(m.Content)
	}
	return chars / 4
}

func renderAnthropicError(err error) (int, interface{}) {
	return httpStatus(err), anthropicError(err.Error())
}

func anthropicError(message string) gin.H {
	return gin.H{
		"type": "error",
		"error": gin.H{
			"type":    "invalid_request_error",
			"message": message,
		},
	}
}
