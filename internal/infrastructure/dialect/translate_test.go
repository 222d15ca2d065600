package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/anthropic"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/gemini"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/openai"
	_ "github.com/axgate/llmgw/internal/infrastructure/dialect/openairesponses"
)

func TestParseInbound_UnknownDialect(t *testing.T) {
	_, _, err := dialect.ParseInbound(valueobject.Dialect("nope"), []byte(`{}`))
	assert.Error(t, err)
}

func TestParseInbound_AnthropicBodyToCanonical(t *testing.T) {
	body := []byte(`{"model":"claude-3-5-sonnet","max_tokens":10,"messages":[{"role":"user","content":[{"type":"text","text":"hi"}]}]}`)

	req, _, err := dialect.ParseInbound(valueobject.DialectAnthropic, body)
	require.NoError(t, err)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "hi", req.Messages[0].Content)
}

func TestRenderInboundResponse_EachDialectRoundTrips(t *testing.T) {
	resp := &dialect.Response{Content: "ok", FinishReason: "stop"}
	for _, d := range []valueobject.Dialect{
		valueobject.DialectOpenAIChat, valueobject.DialectOpenAIResponse, valueobject.DialectAnthropic, valueobject.DialectGemini,
	} {
		out, err := dialect.RenderInboundResponse(d, resp)
		require.NoError(t, err, "dialect %s", d)
		assert.NotEmpty(t, out, "dialect %s", d)
	}
}

func TestRenderInboundStreamEvent_EachDialectProducesBytes(t *testing.T) {
	ev := dialect.StreamEvent{DeltaText: "hi"}
	for _, d := range []valueobject.Dialect{
		valueobject.DialectOpenAIChat, valueobject.DialectOpenAIResponse, valueobject.DialectAnthropic, valueobject.DialectGemini,
	} {
		out, err := dialect.RenderInboundStreamEvent(d, ev)
		require.NoError(t, err, "dialect %s", d)
		assert.NotEmpty(t, out, "dialect %s", d)
	}
}
