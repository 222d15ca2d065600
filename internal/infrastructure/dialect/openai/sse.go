package openai

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

type toolCallAccumulator struct {
	id, name string
	args     strings.Builder
}

// TranslateStream reads an OpenAI `data: {...}\n\n` SSE body terminated
// by `data: [DONE]`, fed through the emit-callback shape every dialect
// adapter shares.
func (Adapter) TranslateStream(ctx context.Context, reader io.Reader, emit func(dialect.StreamEvent)) (*dialect.Response, error) {
	tr := dialect.NewTimedReader(reader, dialect.IdleTimeout)
	scanner := dialect.NewLineScanner(tr)

	var content strings.Builder
	toolCalls := make(map[int]*toolCallAccumulator)
	var usage entity.Usage
	var finishReason string

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
		if data == "[DONE]" {
			break
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.Usage != nil {
			usage = toCanonicalUsage(*chunk.Usage)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.Delta.Content != "" {
			content.WriteString(choice.Delta.Content)
			emit(dialect.StreamEvent{DeltaText: choice.Delta.Content})
		}
		for _, tc := range choice.Delta.ToolCalls {
			acc, ok := toolCalls[tc.Index]
			if !ok {
				acc = &toolCallAccumulator{}
				toolCalls[tc.Index] = acc
			}
			if tc.ID != "" {
				acc.id = tc.ID
			}
			if tc.Function.Name != "" {
				acc.name = tc.Function.Name
			}
			acc.args.WriteString(tc.Function.Arguments)
		}
		if choice.FinishReason != nil {
			finishReason = *choice.FinishReason
			break
		}
	}

	if err := scanner.Err(); err != nil {
		if dialect.IsIdleTimeout(err) {
			if content.Len() == 0 && len(toolCalls) == 0 {
				return nil, domainErrors.NewStreamBrokenPreError(err)
			}
		} else {
			return nil, domainErrors.NewStreamBrokenPostError(err)
		}
	}

	resp := &dialect.Response{Content: content.String(), FinishReason: finishReason, Usage: usage}
	for i := 0; i < len(toolCalls); i++ {
		acc, ok := toolCalls[i]
		if !ok {
			continue
		}
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
