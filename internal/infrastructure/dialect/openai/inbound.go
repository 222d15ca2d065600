package openai

import (
	"encoding/json"
	"fmt"

	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

// ParseInboundRequest decodes an OpenAI chat-completions body into the
// canonical Request, the reverse of TranslateRequest.
func (Adapter) ParseInboundRequest(body []byte) (*dialect.Request, valueobject.CapabilitySet, error) {
	var wire Request
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, 0, domainErrors.NewBadRequestError("malformed openai request body")
	}

	req := &dialect.Request{Model: wire.Model, MaxTokens: wire.MaxTokens, Temperature: wire.Temperature, Stream: wire.Stream}
	var caps valueobject.CapabilitySet
	for _, m := range wire.Messages {
		if m.Role == "system" {
			req.System = m.Content
			continue
		}
		msg := dialect.Message{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID, Name: m.Name}
		for _, tc := range m.ToolCalls {
			var args map[string]interface{}
			if tc.Function.Arguments != "" {
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			}
			msg.ToolCalls = append(msg.ToolCalls, dialect.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
			caps |= valueobject.CapabilitySet(valueobject.CapabilityToolCall)
		}
		req.Messages = append(req.Messages, msg)
	}
	for _, t := range wire.Tools {
		req.Tools = append(req.Tools, dialect.ToolDef{Name: t.Function.Name, Description: t.Function.Description, Parameters: t.Function.Parameters})
		caps |= valueobject.CapabilitySet(valueobject.CapabilityToolCall)
	}

	return req, caps, nil
}

// RenderInboundResponse serializes a canonical Response as an OpenAI
// chat-completions unary body.
func (Adapter) RenderInboundResponse(resp *dialect.Response) ([]byte, error) {
	wire := Response{
		Choices: []Choice{{
			Message:      Message{Role: "assistant", Content: resp.Content},
			FinishReason: resp.FinishReason,
		}},
		Usage: Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens, TotalTokens: resp.Usage.TotalTokens},
	}
	for _, tc := range resp.ToolCalls {
		argsJSON, _ := json.Marshal(tc.Arguments)
		wire.Choices[0].Message.ToolCalls = append(wire.Choices[0].Message.ToolCalls, ToolCall{
			ID: tc.ID, Type: "function", Function: ToolCallFunc{Name: tc.Name, Arguments: string(argsJSON)},
		})
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to render openai response", err)
	}
	return body, nil
}

// RenderInboundStreamEvent formats ev as an OpenAI `data: {...}\n\n` SSE
// frame, finishing with the `data: [DONE]` sentinel on the terminal event.
func (Adapter) RenderInboundStreamEvent(ev dialect.StreamEvent) []byte {
	chunk := StreamChunk{}
	if ev.DeltaText != "" {
		chunk.Choices = []StreamChoice{{Delta: StreamDelta{Content: ev.DeltaText}}}
	}
	if ev.DeltaToolCall != nil {
		argsJSON, _ := json.Marshal(ev.DeltaToolCall.Arguments)
		chunk.Choices = []StreamChoice{{Delta: StreamDelta{ToolCalls: []ToolCall{{
			ID: ev.DeltaToolCall.ID, Type: "function", Function: ToolCallFunc{Name: ev.DeltaToolCall.Name, Arguments: string(argsJSON)},
		}}}}}
	}
	if ev.FinishReason != "" {
		reason := ev.FinishReason
		chunk.Choices = []StreamChoice{{FinishReason: &reason}}
		if ev.Usage != nil {
			chunk.Usage = &Usage{PromptTokens: ev.Usage.PromptTokens, CompletionTokens: ev.Usage.CompletionTokens, TotalTokens: ev.Usage.TotalTokens}
		}
		data, _ := json.Marshal(chunk)
		return []byte(fmt.Sprintf("data: %s\n\ndata: [DONE]\n\n", data))
	}
	data, _ := json.Marshal(chunk)
	return []byte(fmt.Sprintf("data: %s\n\n", data))
}
