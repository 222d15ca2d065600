package openairesponses

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
)

func TestAdapter_TranslateRequest(t *testing.T) {
	a := Adapter{}
	binding := &entity.Binding{ProviderModel: "gpt-4.1"}
	cfg := entity.ProviderConfig{BaseURL: "https://api.openai.com/v1", APIKey: "sk-test"}

	req := dialect.Request{System: "be terse", Messages: []dialect.Message{{Role: "user", Content: "hi"}}}
	out, err := a.TranslateRequest(context.Background(), req, 0, binding, cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1/responses", out.URL)
	assert.Equal(t, "Bearer sk-test", out.Headers.Get("Authorization"))
}

func TestAdapter_TranslateResponseUnary(t *testing.T) {
	a := Adapter{}
	body := []byte(`{"status":"completed","output":[{"type":"message","content":[{"type":"output_text","text":"hi"}]}],"usage":{"input_tokens":2,"output_tokens":3,"total_tokens":5}}`)

	resp, err := a.TranslateResponseUnary(body, http.StatusOK)
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content)
	assert.Equal(t, "completed", resp.FinishReason)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestAdapter_InboundRoundTrip(t *testing.T) {
	a := Adapter{}
	body := []byte(`{"model":"gpt-4.1","instructions":"be terse","input":[{"type":"message","role":"user","content":"hi"}]}`)

	req, _, err := a.ParseInboundRequest(body)
	require.NoError(t, err)
	assert.Equal(t, "be terse", req.System)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "hi", req.Messages[0].Content)

	rendered, err := a.RenderInboundResponse(&dialect.Response{Content: "ok"})
	require.NoError(t, err)
	assert.Contains(t, string(rendered), `"output_text"`)
}

func TestAdapter_RenderInboundStreamEvent(t *testing.T) {
	a := Adapter{}
	frame := a.RenderInboundStreamEvent(dialect.StreamEvent{DeltaText: "hi"})
	assert.Contains(t, string(frame), "response.output_text.delta")
}
