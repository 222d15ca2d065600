package anthropic

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

const anthropicVersion = "2023-06-01"

func init() {
	dialect.RegisterFactory(valueobject.DialectAnthropic, func() dialect.Adapter { return &Adapter{} })
}

const supportedCaps = valueobject.CapabilitySet(
	uint8(valueobject.CapabilityToolCall) | uint8(valueobject.CapabilityImage),
)

// Adapter implements dialect.Adapter for the Anthropic Messages API.
type Adapter struct{}

func (Adapter) Dialect() valueobject.Dialect { return valueobject.DialectAnthropic }

func (Adapter) TranslateRequest(_ context.Context, req dialect.Request, reqCaps valueobject.CapabilitySet, binding *entity.Binding, providerConfig entity.ProviderConfig) (*dialect.OutboundRequest, error) {
	if !supportedCaps.Satisfies(reqCaps) {
		return nil, domainErrors.NewUnsupportedError("anthropic dialect cannot satisfy required capabilities")
	}

	apiReq := &Request{
		Model:       binding.ProviderModel,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      req.System,
		Stream:      req.Stream,
	}
	if apiReq.MaxTokens == 0 {
		apiReq.MaxTokens = 8192 // Anthropic requires an explicit max_tokens
	}

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			if apiReq.System == "" {
				apiReq.System = m.Content
			}
		case "assistant":
			var blocks []ContentBlock
			if m.Content != "" {
				blocks = append(blocks, ContentBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, ContentBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: tc.Arguments})
			}
			if len(blocks) > 0 {
				apiReq.Messages = append(apiReq.Messages, Message{Role: "assistant", Content: blocks})
			}
		case "tool":
			apiReq.Messages = append(apiReq.Messages, Message{
				Role:    "user",
				Content: []ContentBlock{{Type: "tool_result", ToolUseID: m.ToolCallID, Content: m.Content}},
			})
		default:
			apiReq.Messages = append(apiReq.Messages, Message{
				Role:    "user",
				Content: []ContentBlock{{Type: "text", Text: m.Content}},
			})
		}
	}

	for _, td := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, Tool{
			Name:        td.Name,
			Description: td.Description,
			InputSchema: convertSchema(td.Parameters),
		})
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to marshal anthropic request", err)
	}

	headers := dialect.BuildHeaders(binding.CustomerHeaders, nil, binding.WithHeader)
	headers.Set("Content-Type", "application/json")
	headers.Set("x-api-key", providerConfig.APIKey)
	headers.Set("anthropic-version", anthropicVersion)
	if req.Stream {
		headers.Set("Accept", "text/event-stream")
	}

	return &dialect.OutboundRequest{
		URL:      strings.TrimRight(providerConfig.BaseURL, "/") + "/v1/messages",
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
		return nil, domainErrors.NewInternalErrorWithCause("failed to parse anthropic response", err)
	}

	resp := &dialect.Response{FinishReason: apiResp.StopReason, Usage: toCanonicalUsage(apiResp.Usage)}
	for _, block := range apiResp.Content {
		switch block.Type {
		case "text":
			resp.Content += block.Text
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, dialect.ToolCall{ID: block.ID, Name: block.Name, Arguments: block.Input})
		}
	}
	return resp, nil
}

func toCanonicalUsage(u Usage) entity.Usage {
	return entity.Usage{PromptTokens: u.InputTokens, CompletionTokens: u.OutputTokens, TotalTokens: u.total()}
}
