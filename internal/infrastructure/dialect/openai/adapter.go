// Package openai adapts the canonical request/response shape to the
// OpenAI chat-completions wire format, as a round-trip translator rather
// than a one-directional provider client.
package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

func init() {
	dialect.RegisterFactory(valueobject.DialectOpenAIChat, func() dialect.Adapter { return &Adapter{} })
}

const supportedCaps = valueobject.CapabilitySet(
	uint8(valueobject.CapabilityToolCall) | uint8(valueobject.CapabilityStructuredOutput) | uint8(valueobject.CapabilityImage),
)

// Adapter implements dialect.Adapter for the OpenAI chat-completions API.
type Adapter struct{}

func (Adapter) Dialect() valueobject.Dialect { return valueobject.DialectOpenAIChat }

func (Adapter) TranslateRequest(_ context.Context, req dialect.Request, reqCaps valueobject.CapabilitySet, binding *entity.Binding, providerConfig entity.ProviderConfig) (*dialect.OutboundRequest, error) {
	if !supportedCaps.Satisfies(reqCaps) {
		return nil, domainErrors.NewUnsupportedError("openai dialect cannot satisfy required capabilities")
	}

	apiReq := &Request{
		Model:       binding.ProviderModel,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	}
	if req.Stream {
		apiReq.StreamOptions = map[string]interface{}{"include_usage": true}
	}

	if req.System != "" {
		apiReq.Messages = append(apiReq.Messages, Message{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msg := Message{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID, Name: m.Name}
		for _, tc := range m.ToolCalls {
			argsJSON, _ := json.Marshal(tc.Arguments)
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: ToolCallFunc{Name: tc.Name, Arguments: string(argsJSON)},
			})
		}
		apiReq.Messages = append(apiReq.Messages, msg)
	}
	for _, td := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, Tool{
			Type: "function",
			Function: ToolFunction{
				Name:        td.Name,
				Description: td.Description,
				Parameters:  convertSchema(td.Parameters),
			},
		})
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to marshal openai request", err)
	}

	headers := dialect.BuildHeaders(binding.CustomerHeaders, nil, binding.WithHeader)
	headers.Set("Content-Type", "application/json")
	headers.Set("Authorization", "Bearer "+providerConfig.APIKey)
	if req.Stream {
		headers.Set("Accept", "text/event-stream")
	}

	return &dialect.OutboundRequest{
		URL:      strings.TrimRight(providerConfig.BaseURL, "/") + "/chat/completions",
		Headers:  headers,
		Body:     body,
		IsStream: req.Stream,
	}, nil
}

func (Adapter) TranslateResponseUnary(body []byte, status int) (*dialect.Response, error) {
	if status != http.StatusOK {
		return nil, domainErrors.NewUpstreamError(status, string(body))
	}

	var apiResp Response
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to parse openai response", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, domainErrors.NewUpstreamError(status, "empty choices in openai response")
	}

	choice := apiResp.Choices[0]
	resp := &dialect.Response{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage:        toCanonicalUsage(apiResp.Usage),
	}
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]interface{}
		if tc.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		resp.ToolCalls = append(resp.ToolCalls, dialect.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return resp, nil
}

func toCanonicalUsage(u Usage) entity.Usage {
	out := entity.Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens, TotalTokens: u.total()}
	if u.PromptTokensDetails != nil {
		cached := u.PromptTokensDetails.CachedTokens
		out.CachedTokens = &cached
	}
	return out
}

func convertSchema(schema map[string]interface{}) map[string]interface{} {
	if schema == nil {
		return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	result := make(map[string]interface{}, len(schema)+1)
	for k, v := range schema {
		result[k] = v
	}
	if _, ok := result["type"]; !ok {
		result["type"] = "object"
	}
	return result
}
