package gemini

import (
	"encoding/json"

	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

// ParseInboundRequest decodes a Gemini generateContent body into the
// canonical Request, the reverse of TranslateRequest.
func (Adapter) ParseInboundRequest(body []byte) (*dialect.Request, valueobject.CapabilitySet, error) {
	var wire Request
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, 0, domainErrors.NewBadRequestError("malformed gemini request body")
	}

	req := &dialect.Request{}
	var caps valueobject.CapabilitySet
	if wire.GenerationConfig != nil {
		req.Temperature = wire.GenerationConfig.Temperature
		req.MaxTokens = wire.GenerationConfig.MaxOutputTokens
	}
	if wire.SystemInstruction != nil {
		for _, p := range wire.SystemInstruction.Parts {
			req.System += p.Text
		}
	}

	for _, c := range wire.Contents {
		role := c.Role
		if role == "model" {
			role = "assistant"
		}
		msg := dialect.Message{Role: role}
		for _, part := range c.Parts {
			switch {
			case part.Text != "":
				msg.Content += part.Text
			case part.FunctionCall != nil:
				msg.ToolCalls = append(msg.ToolCalls, dialect.ToolCall{Name: part.FunctionCall.Name, Arguments: part.FunctionCall.Args})
				caps |= valueobject.CapabilitySet(valueobject.CapabilityToolCall)
			case part.FunctionResponse != nil:
				msg.Role = "tool"
				msg.Name = part.FunctionResponse.Name
				if out, ok := part.FunctionResponse.Response["output"].(string); ok {
					msg.Content = out
				}
			}
		}
		req.Messages = append(req.Messages, msg)
	}

	for _, decl := range wire.Tools {
		for _, fn := range decl.FunctionDeclarations {
			req.Tools = append(req.Tools, dialect.ToolDef{Name: fn.Name, Description: fn.Description, Parameters: fn.Parameters})
			caps |= valueobject.CapabilitySet(valueobject.CapabilityToolCall)
		}
	}

	return req, caps, nil
}

// RenderInboundResponse serializes a canonical Response as a Gemini
// generateContent unary body.
func (Adapter) RenderInboundResponse(resp *dialect.Response) ([]byte, error) {
	content := Content{Role: "model"}
	if resp.Content != "" {
		content.Parts = append(content.Parts, Part{Text: resp.Content})
	}
	for _, tc := range resp.ToolCalls {
		content.Parts = append(content.Parts, Part{FunctionCall: &FunctionCall{Name: tc.Name, Args: tc.Arguments}})
	}

	wire := Response{
		Candidates: []Candidate{{Content: content, FinishReason: resp.FinishReason}},
		UsageMetadata: &UsageMetadata{
			PromptTokenCount:     resp.Usage.PromptTokens,
			CandidatesTokenCount: resp.Usage.CompletionTokens,
			TotalTokenCount:      resp.Usage.TotalTokens,
		},
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to render gemini response", err)
	}
	return body, nil
}

// RenderInboundStreamEvent formats ev as one bare Gemini
// GenerateContentResponse JSON object followed by "\n\n", the blank
// line that separates it from the next frame.
func (Adapter) RenderInboundStreamEvent(ev dialect.StreamEvent) []byte {
	content := Content{Role: "model"}
	if ev.DeltaText != "" {
		content.Parts = append(content.Parts, Part{Text: ev.DeltaText})
	}
	if ev.DeltaToolCall != nil {
		content.Parts = append(content.Parts, Part{FunctionCall: &FunctionCall{Name: ev.DeltaToolCall.Name, Args: ev.DeltaToolCall.Arguments}})
	}

	chunk := Response{Candidates: []Candidate{{Content: content, FinishReason: ev.FinishReason}}}
	if ev.Usage != nil {
		chunk.UsageMetadata = &UsageMetadata{
			PromptTokenCount:     ev.Usage.PromptTokens,
			CandidatesTokenCount: ev.Usage.CompletionTokens,
			TotalTokenCount:      ev.Usage.TotalTokens,
		}
	}
	data, _ := json.Marshal(chunk)
	return append(data, '\n', '\n')
}
