package openairesponses

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
	dialect.RegisterFactory(valueobject.DialectOpenAIResponse, func() dialect.Adapter { return &Adapter{} })
}

const supportedCaps = valueobject.CapabilitySet(
	uint8(valueobject.CapabilityToolCall) | uint8(valueobject.CapabilityStructuredOutput) | uint8(valueobject.CapabilityImage),
)

// Adapter implements dialect.Adapter for the OpenAI Responses API.
type Adapter struct{}

func (Adapter) Dialect() valueobject.Dialect { return valueobject.DialectOpenAIResponse }

func (Adapter) TranslateRequest(_ context.Context, req dialect.Request, reqCaps valueobject.CapabilitySet, binding *entity.Binding, providerConfig entity.ProviderConfig) (*dialect.OutboundRequest, error) {
	if !supportedCaps.Satisfies(reqCaps) {
		return nil, domainErrors.NewUnsupportedError("openai-responses dialect cannot satisfy required capabilities")
	}

	apiReq := &Request{
		Model:           binding.ProviderModel,
		Instruction:     req.System,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
		Stream:          req.Stream,
	}

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			if apiReq.Instruction == "" {
				apiReq.Instruction = m.Content
			}
		case "assistant":
			if m.Content != "" {
				apiReq.Input = append(apiReq.Input, Item{Type: "message", Role: "assistant", Content: m.Content})
			}
			for _, tc := range m.ToolCalls {
				argsJSON, _ := json.Marshal(tc.Arguments)
				apiReq.Input = append(apiReq.Input, Item{Type: "function_call", CallID: tc.ID, Name: tc.Name, Arguments: string(argsJSON)})
			}
		case "tool":
			apiReq.Input = append(apiReq.Input, Item{Type: "function_call_output", CallID: m.ToolCallID, Output: m.Content})
		default:
			apiReq.Input = append(apiReq.Input, Item{Type: "message", Role: "user", Content: m.Content})
		}
	}

	for _, td := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, Tool{Type: "function", Name: td.Name, Description: td.Description, Parameters: convertSchema(td.Parameters)})
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to marshal openai-responses request", err)
	}

	headers := dialect.BuildHeaders(binding.CustomerHeaders, nil, binding.WithHeader)
	headers.Set("Content-Type", "application/json")
	headers.Set("Authorization", "Bearer "+providerConfig.APIKey)
	if req.Stream {
		headers.Set("Accept", "text/event-stream")
	}

	return &dialect.OutboundRequest{
		URL:      strings.TrimRight(providerConfig.BaseURL, "/") + "/responses",
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
		return nil, domainErrors.NewInternalErrorWithCause("failed to parse openai-responses response", err)
	}

	resp := &dialect.Response{Usage: toCanonicalUsage(apiResp.Usage)}
	if apiResp.Status != "" {
		resp.FinishReason = apiResp.Status
	}
	for _, item := range apiResp.Output {
		switch item.Type {
		case "message":
			for _, c := range item.Content {
				if c.Type == "output_text" {
					resp.Content += c.Text
				}
			}
		case "function_call":
			var args map[string]interface{}
			if item.Arguments != "" {
				_ = json.Unmarshal([]byte(item.Arguments), &args)
			}
			resp.ToolCalls = append(resp.ToolCalls, dialect.ToolCall{ID: item.CallID, Name: item.Name, Arguments: args})
		}
	}
	return resp, nil
}

func toCanonicalUsage(u Usage) entity.Usage {
	return entity.Usage{PromptTokens: u.InputTokens, CompletionTokens: u.OutputTokens, TotalTokens: u.total()}
}
