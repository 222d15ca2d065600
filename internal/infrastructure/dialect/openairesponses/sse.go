package openairesponses

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

type callAccumulator struct {
	id, name string
	args     strings.Builder
}

// TranslateStream reads the Responses API's event-typed SSE body: lines
// "event: <type>" followed by "data: {...}", mirroring the accumulation
// approach in dialect/anthropic's TranslateStream but keyed on OpenAI's
// response.* event names and terminal response.completed usage.
func (Adapter) TranslateStream(ctx context.Context, reader io.Reader, emit func(dialect.StreamEvent)) (*dialect.Response, error) {
	tr := dialect.NewTimedReader(reader, dialect.IdleTimeout)
	scanner := dialect.NewLineScanner(tr)

	var content strings.Builder
	calls := map[string]*callAccumulator{}
	var callOrder []string
	var usage entity.Usage
	var finishReason string
	sawAnyEvent := false

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, domainErrors.NewStreamBrokenPostError(ctx.Err())
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var ev StreamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		sawAnyEvent = true

		switch ev.Type {
		case "response.output_text.delta":
			content.WriteString(ev.Delta)
			emit(dialect.StreamEvent{DeltaText: ev.Delta})

		case "response.output_item.added":
			if ev.Item != nil && ev.Item.Type == "function_call" {
				acc := &callAccumulator{id: ev.Item.CallID, name: ev.Item.Name}
				calls[ev.Item.CallID] = acc
				callOrder = append(callOrder, ev.Item.CallID)
			}

		case "response.function_call_arguments.delta":
			if acc, ok := calls[ev.ItemID]; ok {
				acc.args.WriteString(ev.Delta)
			}

		case "response.completed", "response.incomplete", "response.failed":
			if ev.Response != nil {
				usage = toCanonicalUsage(ev.Response.Usage)
				finishReason = ev.Response.Status
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if dialect.IsIdleTimeout(err) {
			if !sawAnyEvent {
				return nil, domainErrors.NewStreamBrokenPreError(err)
			}
		} else {
			return nil, domainErrors.NewStreamBrokenPostError(err)
		}
	}

	resp := &dialect.Response{Content: content.String(), FinishReason: finishReason, Usage: usage}
	for _, id := range callOrder {
		acc := calls[id]
		var args map[string]interface{}
		if acc.args.Len() > 0 {
			_ = json.Unmarshal([]byte(acc.args.String()), &args)
		}
		tc := dialect.ToolCall{ID: acc.id, Name: acc.name, Arguments: args}
		resp.ToolCalls = append(resp.ToolCalls, tc)
		emit(dialect.StreamEvent{DeltaToolCall: &tc})
	}
	emit(dialect.StreamEvent{FinishReason: finishReason, Usage: &resp.Usage})

	return resp, nil
}
