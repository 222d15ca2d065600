package openairesponses

import (
	"encoding/json"
	"fmt"

	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

// ParseInboundRequest decodes a Responses API body into the canonical
// Request, the reverse of TranslateRequest.
func (Adapter) ParseInboundRequest(body []byte) (*dialect.Request, valueobject.CapabilitySet, error) {
	var wire Request
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, 0, domainErrors.NewBadRequestError("malformed openai-responses request body")
	}

	req := &dialect.Request{Model: wire.Model, System: wire.Instruction, Temperature: wire.Temperature, MaxTokens: wire.MaxOutputTokens, Stream: wire.Stream}
	var caps valueobject.CapabilitySet

	for _, item := range wire.Input {
		switch item.Type {
		case "function_call":
			var args map[string]interface{}
			if item.Arguments != "" {
				_ = json.Unmarshal([]byte(item.Arguments), &args)
			}
			req.Messages = append(req.Messages, dialect.Message{
				Role:      "assistant",
				ToolCalls: []dialect.ToolCall{{ID: item.CallID, Name: item.Name, Arguments: args}},
			})
			caps |= valueobject.CapabilitySet(valueobject.CapabilityToolCall)
		case "function_call_output":
			req.Messages = append(req.Messages, dialect.Message{Role: "tool", ToolCallID: item.CallID, Content: item.Output})
		default:
			role := item.Role
			if role == "" {
				role = "user"
			}
			req.Messages = append(req.Messages, dialect.Message{Role: role, Content: item.Content})
		}
	}

	for _, t := range wire.Tools {
		req.Tools = append(req.Tools, dialect.ToolDef{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
		caps |= valueobject.CapabilitySet(valueobject.CapabilityToolCall)
	}

	return req, caps, nil
}

// RenderInboundResponse serializes a canonical Response as a Responses
// API unary body.
func (Adapter) RenderInboundResponse(resp *dialect.Response) ([]byte, error) {
	status := resp.FinishReason
	if status == "" {
		status = "completed"
	}
	wire := Response{
		Status: status,
		Usage:  Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens, TotalTokens: resp.Usage.TotalTokens},
	}
	if resp.Content != "" {
		wire.Output = append(wire.Output, OutputItem{Type: "message", Content: []OutputContent{{Type: "output_text", Text: resp.Content}}})
	}
	for _, tc := range resp.ToolCalls {
		argsJSON, _ := json.Marshal(tc.Arguments)
		wire.Output = append(wire.Output, OutputItem{Type: "function_call", CallID: tc.ID, Name: tc.Name, Arguments: string(argsJSON)})
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to render openai-responses response", err)
	}
	return body, nil
}

// RenderInboundStreamEvent formats ev as one of the Responses API's
// event-typed SSE frames.
func (Adapter) RenderInboundStreamEvent(ev dialect.StreamEvent) []byte {
	if ev.FinishReason != "" {
		final := StreamEvent{Type: "response.completed"}
		if ev.Usage != nil {
			final.Response = &Response{
				Status: ev.FinishReason,
				Usage:  Usage{InputTokens: ev.Usage.PromptTokens, OutputTokens: ev.Usage.CompletionTokens, TotalTokens: ev.Usage.TotalTokens},
			}
		}
		data, _ := json.Marshal(final)
		return []byte(fmt.Sprintf("event: response.completed\ndata: %s\n\n", data))
	}
	if ev.DeltaText != "" {
		delta := StreamEvent{Type: "response.output_text.delta", Delta: ev.DeltaText}
		data, _ := json.Marshal(delta)
		return []byte(fmt.Sprintf("event: response.output_text.delta\ndata: %s\n\n", data))
	}
	if ev.DeltaToolCall != nil {
		argsJSON, _ := json.Marshal(ev.DeltaToolCall.Arguments)
		delta := StreamEvent{Type: "response.function_call_arguments.delta", Delta: string(argsJSON), ItemID: ev.DeltaToolCall.ID}
		data, _ := json.Marshal(delta)
		return []byte(fmt.Sprintf("event: response.function_call_arguments.delta\ndata: %s\n\n", data))
	}
	return nil
}
