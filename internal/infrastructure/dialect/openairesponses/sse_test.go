package openairesponses

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axgate/llmgw/internal/infrastructure/dialect"
)

func TestTranslateStream_AccumulatesTextAndTerminalUsage(t *testing.T) {
	body := strings.Join([]string{
		`event: response.output_text.delta`,
		`data: {"type":"response.output_text.delta","delta":"hel"}`,
		``,
		`event: response.output_text.delta`,
		`data: {"type":"response.output_text.delta","delta":"lo"}`,
		``,
		`event: response.completed`,
		`data: {"type":"response.completed","response":{"status":"completed","usage":{"input_tokens":3,"output_tokens":2,"total_tokens":5}}}`,
		``,
	}, "\n")

	resp, err := (Adapter{}).TranslateStream(context.Background(), strings.NewReader(body), func(dialect.StreamEvent) {})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "completed", resp.FinishReason)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestTranslateStream_AccumulatesFunctionCallArguments(t *testing.T) {
	body := strings.Join([]string{
		`event: response.output_item.added`,
		`data: {"type":"response.output_item.added","item":{"type":"function_call","call_id":"c1","name":"lookup"}}`,
		``,
		`event: response.function_call_arguments.delta`,
		`data: {"type":"response.function_call_arguments.delta","item_id":"c1","delta":"{\"q\":\"x\"}"}`,
		``,
		`event: response.completed`,
		`data: {"type":"response.completed","response":{"status":"completed"}}`,
		``,
	}, "\n")

	resp, err := (Adapter{}).TranslateStream(context.Background(), strings.NewReader(body), func(dialect.StreamEvent) {})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "lookup", resp.ToolCalls[0].Name)
	assert.Equal(t, "x", resp.ToolCalls[0].Arguments["q"])
}
