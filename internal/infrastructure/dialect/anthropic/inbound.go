package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

// ParseInboundRequest decodes an Anthropic Messages body into the
// canonical Request, the reverse of TranslateRequest.
func (Adapter) ParseInboundRequest(body []byte) (*dialect.Request, valueobject.CapabilitySet, error) {
	var wire Request
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, 0, domainErrors.NewBadRequestError("malformed anthropic request body")
	}

	req := &dialect.Request{Model: wire.Model, MaxTokens: wire.MaxTokens, Temperature: wire.Temperature, System: wire.System, Stream: wire.Stream}
	var caps valueobject.CapabilitySet

	for _, m := range wire.Messages {
		msg := dialect.Message{Role: m.Role}
		for _, block := range m.Content {
			switch block.Type {
			case "text":
				msg.Content += block.Text
			case "tool_use":
				msg.ToolCalls = append(msg.ToolCalls, dialect.ToolCall{ID: block.ID, Name: block.Name, Arguments: block.Input})
				caps |= valueobject.CapabilitySet(valueobject.CapabilityToolCall)
			case "tool_result":
				req.Messages = append(req.Messages, dialect.Message{Role: "tool", ToolCallID: block.ToolUseID, Content: block.Content})
				msg.Role = ""
			}
		}
		if msg.Role != "" {
			req.Messages = append(req.Messages, msg)
		}
	}

	for _, t := range wire.Tools {
		req.Tools = append(req.Tools, dialect.ToolDef{Name: t.Name, Description: t.Description, Parameters: t.InputSchema})
		caps |= valueobject.CapabilitySet(valueobject.CapabilityToolCall)
	}

	return req, caps, nil
}

// RenderInboundResponse serializes a canonical Response as an Anthropic
// Messages unary body.
func (Adapter) RenderInboundResponse(resp *dialect.Response) ([]byte, error) {
	wire := Response{
		Type:       "message",
		Role:       "assistant",
		StopReason: resp.FinishReason,
		Usage:      Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens},
	}
	if resp.Content != "" {
		wire.Content = append(wire.Content, ContentBlock{Type: "text", Text: resp.Content})
	}
	for _, tc := range resp.ToolCalls {
		wire.Content = append(wire.Content, ContentBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: tc.Arguments})
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to render anthropic response", err)
	}
	return body, nil
}

// RenderInboundStreamEvent formats ev as one of Anthropic's typed SSE
// events ("event: <type>\ndata: {...}\n\n").
func (Adapter) RenderInboundStreamEvent(ev dialect.StreamEvent) []byte {
	if ev.FinishReason != "" {
		delta := StreamEvent{Type: "message_delta", Delta: &DeltaBlock{StopReason: ev.FinishReason}}
		if ev.Usage != nil {
			delta.Usage = &Usage{InputTokens: ev.Usage.PromptTokens, OutputTokens: ev.Usage.CompletionTokens}
		}
		data, _ := json.Marshal(delta)
		stop := StreamEvent{Type: "message_stop"}
		stopData, _ := json.Marshal(stop)
		return []byte(fmt.Sprintf("event: message_delta\ndata: %s\n\nevent: message_stop\ndata: %s\n\n", data, stopData))
	}
	if ev.DeltaText != "" {
		delta := StreamEvent{Type: "content_block_delta", Delta: &DeltaBlock{Type: "text_delta", Text: ev.DeltaText}}
		data, _ := json.Marshal(delta)
		return []byte(fmt.Sprintf("event: content_block_delta\ndata: %s\n\n", data))
	}
	if ev.DeltaToolCall != nil {
		argsJSON, _ := json.Marshal(ev.DeltaToolCall.Arguments)
		delta := StreamEvent{Type: "content_block_delta", Delta: &DeltaBlock{Type: "input_json_delta", PartialJSON: string(argsJSON)}}
		data, _ := json.Marshal(delta)
		return []byte(fmt.Sprintf("event: content_block_delta\ndata: %s\n\n", data))
	}
	return nil
}
