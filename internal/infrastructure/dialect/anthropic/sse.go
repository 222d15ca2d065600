package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

type blockAccumulator struct {
	kind string // "text" | "tool_use"
	id   string
	name string
	text strings.Builder
	args strings.Builder
}

// TranslateStream reads Anthropic's event-typed SSE body: lines prefixed
// "event: <type>" followed by "data: {...}", fed through the
// emit-callback shape every dialect adapter shares. Anthropic reports
// usage split across message_start (input) and message_delta (output),
// so both are accumulated before the final emit.
func (Adapter) TranslateStream(ctx context.Context, reader io.Reader, emit func(dialect.StreamEvent)) (*dialect.Response, error) {
	tr := dialect.NewTimedReader(reader, dialect.IdleTimeout)
	scanner := dialect.NewLineScanner(tr)

	blocks := map[int]*blockAccumulator{}
	var usage entity.Usage
	var finishReason string
	sawAnyBlock := false

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

		switch ev.Type {
		case "message_start":
			if ev.Message != nil {
				usage.PromptTokens = ev.Message.Usage.InputTokens
			}

		case "content_block_start":
			if ev.ContentBlock == nil {
				continue
			}
			sawAnyBlock = true
			acc := &blockAccumulator{kind: ev.ContentBlock.Type, id: ev.ContentBlock.ID, name: ev.ContentBlock.Name}
			blocks[ev.Index] = acc

		case "content_block_delta":
			if ev.Delta == nil {
				continue
			}
			acc, ok := blocks[ev.Index]
			if !ok {
				acc = &blockAccumulator{kind: "text"}
				blocks[ev.Index] = acc
			}
			switch ev.Delta.Type {
			case "text_delta":
				acc.text.WriteString(ev.Delta.Text)
				emit(dialect.StreamEvent{DeltaText: ev.Delta.Text})
			case "input_json_delta":
				acc.args.WriteString(ev.Delta.PartialJSON)
			}

		case "message_delta":
			if ev.Delta != nil && ev.Delta.StopReason != "" {
				finishReason = ev.Delta.StopReason
			}
			if ev.Usage != nil {
				usage.CompletionTokens = ev.Usage.OutputTokens
			}

		case "message_stop":
			// terminal marker, nothing to accumulate
		}
	}

	if err := scanner.Err(); err != nil {
		if dialect.IsIdleTimeout(err) {
			if !sawAnyBlock {
				return nil, domainErrors.NewStreamBrokenPreError(err)
			}
		} else {
			return nil, domainErrors.NewStreamBrokenPostError(err)
		}
	}

	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	resp := &dialect.Response{FinishReason: finishReason, Usage: usage}

	for i := 0; i < len(blocks); i++ {
		acc, ok := blocks[i]
		if !ok {
			continue
		}
		switch acc.kind {
		case "text":
			resp.Content += acc.text.String()
		case "tool_use":
			var args map[string]interface{}
			if acc.args.Len() > 0 {
				_ = json.Unmarshal([]byte(acc.args.String()), &args)
			}
			tc := dialect.ToolCall{ID: acc.id, Name: acc.name, Arguments: args}
			resp.ToolCalls = append(resp.ToolCalls, tc)
			emit(dialect.StreamEvent{DeltaToolCall: &tc})
		}
	}
	emit(dialect.StreamEvent{FinishReason: finishReason, Usage: &resp.Usage})

	return resp, nil
}
