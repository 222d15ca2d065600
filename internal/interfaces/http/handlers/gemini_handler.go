package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/repository"
	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/auth"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/gemini"
	"github.com/axgate/llmgw/internal/infrastructure/dispatcher"
	apperrors "github.com/axgate/llmgw/pkg/errors"
)

// GeminiHandler serves the Google Gemini generateContent dialect. Unlike
// the other three dialects, Gemini encodes both the model name and the
// streaming/unary choice in the URL rather than the body, using Google's
// colon-suffixed custom-method convention ("{model}:generateContent").
type GeminiHandler struct {
	Dialect
	models repository.ModelRepository
}

func NewGeminiHandler(a *auth.Authenticator, d *dispatcher.Dispatcher, models repository.ModelRepository, logger *zap.Logger) *GeminiHandler {
	return &GeminiHandler{Dialect{Auth: a, Dispatcher: d, Logger: logger}, models}
}

// splitModelAction parses "{model}:{action}" path segments, e.g.
// "gemini-demo:streamGenerateContent".
func splitModelAction(raw string) (model, action string) {
	idx := strings.LastIndex(raw, ":")
	if idx < 0 {
		return raw, ""
	}
	return raw[:idx], raw[idx+1:]
}

// GenerateContent handles both POST /v1beta/models/{model}:generateContent
// and POST /v1beta/models/{model}:streamGenerateContent — the only
// difference between them is whether the relayed response is unary or
// SSE-streamed, which the URL's action suffix decides.
func (h *GeminiHandler) GenerateContent(c *gin.Context) {
	model, action := splitModelAction(c.Param("modelAction"))
	if model == "" {
		c.JSON(http.StatusBadRequest, geminiError(apperrors.NewBadRequestError("missing model in path")))
		return
	}

	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, geminiError(apperrors.NewBadRequestError("failed to read request body")))
		return
	}

	req, caps, err := dialect.ParseInbound(valueobject.DialectGemini, body)
	if err != nil {
		c.JSON(httpStatus(err), geminiError(err))
		return
	}
	req.Model = model
	req.Stream = action == "streamGenerateContent"

	h.run(c, valueobject.DialectGemini, req, caps, body, "application/json", renderGeminiError)
}

// ListModels handles GET /v1beta/models.
func (h *GeminiHandler) ListModels(c *gin.Context) {
	ctx := c.Request.Context()
	rows, _, err := h.models.List(ctx, valueobject.Pagination{Page: 1, PageSize: 200})
	if err != nil {
		c.JSON(httpStatus(err), geminiError(err))
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, m := range rows {
		if !m.Live() {
			continue
		}
		out = append(out, gin.H{
			"name":           "models/" + m.Name,
			"displayName":    m.Name,
			"supportedGenerationMethods": []string{"generateContent", "streamGenerateContent"},
		})
	}
	c.JSON(http.StatusOK, gin.H{"models": out})
}

func renderGeminiError(err error) (int, interface{}) {
	return httpStatus(err), geminiError(err)
}

func geminiError(err error) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    httpStatus(err),
			"message": err.Error(),
			"status":  geminiStatusString(err),
		},
	}
}

func geminiStatusString(err error) string {
	switch httpStatus(err) {
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "PERMISSION_DENIED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "ALREADY_EXISTS"
	case http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	case http.StatusGatewayTimeout:
		return "DEADLINE_EXCEEDED"
	default:
		return "INTERNAL"
	}
}
