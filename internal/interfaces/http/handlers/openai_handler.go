package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/auth"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/openai"
	"github.com/axgate/llmgw/internal/infrastructure/dispatcher"
)

// OpenAIHandler serves the OpenAI chat-completions dialect endpoint,
// the gateway's most heavily exercised wire format.
type OpenAIHandler struct {
	Dialect
}

func NewOpenAIHandler(a *auth.Authenticator, d *dispatcher.Dispatcher, logger *zap.Logger) *OpenAIHandler {
	return &OpenAIHandler{Dialect{Auth: a, Dispatcher: d, Logger: logger}}
}

// ChatCompletions handles POST /v1/chat/completions.
func (h *OpenAIHandler) ChatCompletions(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, openAIError("failed to read request body"))
		return
	}

	req, caps, err := dialect.ParseInbound(valueobject.DialectOpenAIChat, body)
	if err != nil {
		status, payload := renderOpenAIError(err)
		c.JSON(status, payload)
		return
	}

	h.run(c, valueobject.DialectOpenAIChat, req, caps, body, "application/json", renderOpenAIError)
}

func renderOpenAIError(err error) (int, interface{}) {
	return httpStatus(err), openAIError(err.Error())
}

func openAIError(message string) gin.H {
	return gin.H{
		"error": gin.H{
			"message": message,
			"type":    "invalid_request_error",
		},
	}
}
