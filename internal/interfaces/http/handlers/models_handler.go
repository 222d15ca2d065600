package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/repository"
	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// ModelsHandler serves the shared OpenAI/Anthropic-style /v1/models
// listing. It does not go through admission — the model catalog itself
// isn't a dispatch, so it stays unauthenticated.
type ModelsHandler struct {
	models repository.ModelRepository
	logger *zap.Logger
}

func NewModelsHandler(models repository.ModelRepository, logger *zap.Logger) *ModelsHandler {
	return &ModelsHandler{models: models, logger: logger}
}

// List handles GET /v1/models.
func (h *ModelsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	rows, _, err := h.models.List(ctx, valueobject.Pagination{Page: 1, PageSize: 200})
	if err != nil {
		h.logger.Error("failed to list models", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "failed to list models"}})
		return
	}

	now := time.Now().Unix()
	data := make([]gin.H, 0, len(rows))
	for _, m := range rows {
		if !m.Live() {
			continue
		}
		data = append(data, gin.H{
			"id":       m.Name,
			"object":   "model",
			"created":  now,
			"owned_by": "llmgw",
		})
	}

	c.JSON(http.StatusOK, gin.H{"object": "list", "data": data})
}
