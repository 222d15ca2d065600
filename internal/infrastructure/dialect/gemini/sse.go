package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

// TranslateStream reads Gemini's streamGenerateContent body requested
// with alt=sse: "data: {...}" lines where each chunk is a full
// GenerateContentResponse, fed through the emit-callback shape every
// dialect adapter shares.
func (Adapter) TranslateStream(ctx context.Context, reader io.Reader, emit func(dialect.StreamEvent)) (*dialect.Response, error) {
	tr := dialect.NewTimedReader(reader, dialect.IdleTimeout)
	scanner := dialect.NewLineScanner(tr)

	var content strings.Builder
	var usage entity.Usage
	var finishReason string
	var toolCalls []dialect.ToolCall

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

		var chunk Response
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.UsageMetadata != nil {
			usage = toCanonicalUsage(*chunk.UsageMetadata)
		}
		if len(chunk.Candidates) == 0 {
			continue
		}

		candidate := chunk.Candidates[0]
		if candidate.FinishReason != "" {
			finishReason = candidate.FinishReason
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				content.WriteString(part.Text)
				emit(dialect.StreamEvent{DeltaText: part.Text})
			}
			if part.FunctionCall != nil {
				tc := dialect.ToolCall{
					ID:        fmt.Sprintf("call_%s_%d", part.FunctionCall.Name, len(toolCalls)),
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				}
				toolCalls = append(toolCalls, tc)
				emit(dialect.StreamEvent{DeltaToolCall: &tc})
			}
		}
		if finishReason != "" {
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

	resp := &dialect.Response{Content: content.String(), FinishReason: finishReason, Usage: usage, ToolCalls: toolCalls}
	emit(dialect.StreamEvent{FinishReason: finishReason, Usage: &resp.Usage})

	return resp, nil
}
