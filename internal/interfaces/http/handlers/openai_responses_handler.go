package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/auth"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/openairesponses"
	"github.com/axgate/llmgw/internal/infrastructure/dispatcher"
)

// OpenAIResponsesHandler serves the OpenAI Responses API dialect,
// distinct from chat-completions in both request and SSE event shape.
type OpenAIResponsesHandler struct {
	Dialect
}

func NewOpenAIResponsesHandler(a *auth.Authenticator, d *dispatcher.Dispatcher, logger *zap.Logger) *OpenAIResponsesHandler {
	return &OpenAIResponsesHandler{Dialect{Auth: a, Dispatcher: d, Logger: logger}}
}

// CreateResponse handles POST /v1/responses.
func (h *OpenAIResponsesHandler) CreateResponse(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, openAIError("failed to read request body"))
		return
	}

	req, caps, err := dialect.ParseInbound(valueobject.DialectOpenAIResponse, body)
	if err != nil {
		status, payload := renderOpenAIError(err)
		c.JSON(status, payload)
		return
	}

	h.run(c, valueobject.DialectOpenAIResponse, req, caps, body, "application/json", renderOpenAIError)
}
