// Package handlers implements the four dialect endpoint groups of the
// inbound HTTP surface (component L): admission, canonical parsing, and
// response relay all funnel through the shared Dialect type, with each
// dialect supplying only its own wire-format parsing and error shape.
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/auth"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	"github.com/axgate/llmgw/internal/infrastructure/dispatcher"
	apperrors "github.com/axgate/llmgw/pkg/errors"
)

// Dialect holds the collaborators every per-wire-format handler needs:
// admission, the shared dispatch pipeline, and a logger. Each concrete
// handler (OpenAI, OpenAI-Responses, Anthropic, Gemini) embeds it and
// adds only the parsing/rendering its own wire format requires.
type Dialect struct {
	Auth       *auth.Authenticator
	Dispatcher *dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ginSink relays dispatcher output directly onto the gin response. The
// dispatcher has already rendered bytes in the caller's own inbound
// dialect (unary body or SSE frame); the sink's only job is to get them
// onto the wire and flush promptly for streams.
type ginSink struct {
	c           *gin.Context
	contentType string
	wrote       bool
}

func (s *ginSink) WriteUnary(body []byte) error {
	s.wrote = true
	s.c.Data(http.StatusOK, s.contentType, body)
	return nil
}

func (s *ginSink) WriteStreamFrame(frame []byte) error {
	if !s.wrote {
		s.c.Status(http.StatusOK)
		s.wrote = true
	}
	if _, err := s.c.Writer.Write(frame); err != nil {
		return err
	}
	s.c.Writer.Flush()
	return nil
}

func prepareSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// readBody drains the request body once, so it can be handed both to
// the dialect parser and to telemetry's optional IO log verbatim.
func readBody(c *gin.Context) ([]byte, error) {
	defer c.Request.Body.Close()
	return io.ReadAll(c.Request.Body)
}

// run performs admission, dispatch, and response relay for one already
// canonically-parsed inbound request. renderErr builds this dialect's
// own error body shape; it is only consulted when the dispatch failed
// before any byte reached the client.
func (h *Dialect) run(c *gin.Context, d valueobject.Dialect, req *dialect.Request, reqCaps valueobject.CapabilitySet, body []byte, contentType string, renderErr func(err error) (int, interface{})) {
	ctx := c.Request.Context()

	_, admission, err := h.Auth.Authenticate(ctx, c.Request.Header, c.ClientIP(), c.Request.UserAgent(), req.Model, d, reqCaps)
	if err != nil {
		status, payload := renderErr(err)
		c.JSON(status, payload)
		return
	}

	if req.Stream {
		prepareSSE(c)
	}
	sink := &ginSink{c: c, contentType: contentType}

	_, dispatchErr := h.Dispatcher.Dispatch(ctx, *admission, *req, body, sink)
	h.Auth.RecordUsage(ctx, admission.AuthKeyID)

	if dispatchErr != nil && !sink.wrote {
		status, payload := renderErr(dispatchErr)
		c.JSON(status, payload)
		return
	}
	if dispatchErr != nil {
		h.Logger.Warn("dispatch failed after bytes were already flushed to client",
			zap.String("model", req.Model), zap.Error(dispatchErr))
	}
}

func httpStatus(err error) int {
	return apperrors.HTTPStatus(err)
}
