package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/repository"
	"github.com/axgate/llmgw/internal/infrastructure/auth"
	"github.com/axgate/llmgw/internal/infrastructure/dispatcher"
	"github.com/axgate/llmgw/internal/infrastructure/telemetry"
	"github.com/axgate/llmgw/internal/interfaces/http/handlers"
)

// Server wraps the gin router and its *http.Server for the dialect
// endpoint table plus the ambient /healthz and /metrics ops surface.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Config is the HTTP server bind configuration.
type Config struct {
	Host string
	Port int
	Mode string // debug, release
}

// NewServer builds the gin router over every dialect handler and the
// shared dispatch pipeline.
func NewServer(cfg Config, authenticator *auth.Authenticator, disp *dispatcher.Dispatcher, models repository.ModelRepository, metrics *telemetry.Metrics, logger *zap.Logger) *Server {
	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logger))

	openaiHandler := handlers.NewOpenAIHandler(authenticator, disp, logger)
	responsesHandler := handlers.NewOpenAIResponsesHandler(authenticator, disp, logger)
	anthropicHandler := handlers.NewAnthropicHandler(authenticator, disp, logger)
	geminiHandler := handlers.NewGeminiHandler(authenticator, disp, models, logger)
	modelsHandler := handlers.NewModelsHandler(models, logger)

	setupRoutes(router, openaiHandler, responsesHandler, anthropicHandler, geminiHandler, modelsHandler, metrics)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		server: &http.Server{Addr: addr, Handler: router},
		logger: logger,
	}
}

// Start begins serving in the background; it does not block.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func setupRoutes(
	router *gin.Engine,
	openaiHandler *handlers.OpenAIHandler,
	responsesHandler *handlers.OpenAIResponsesHandler,
	anthropicHandler *handlers.AnthropicHandler,
	geminiHandler *handlers.GeminiHandler,
	modelsHandler *handlers.ModelsHandler,
	metrics *telemetry.Metrics,
) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	router.POST("/v1/chat/completions", openaiHandler.ChatCompletions)
	router.POST("/v1/responses", responsesHandler.CreateResponse)
	router.POST("/v1/messages", anthropicHandler.Messages)
	router.POST("/v1/messages/count_tokens", anthropicHandler.CountTokens)
	router.GET("/v1/models", modelsHandler.List)

	router.GET("/v1beta/models", geminiHandler.ListModels)
	router.POST("/v1beta/models/:modelAction", geminiHandler.GenerateContent)
}

// ginLogger logs one structured line per request, after it completes.
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
