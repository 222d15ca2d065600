package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

func init() {
	dialect.RegisterFactory(valueobject.DialectGemini, func() dialect.Adapter { return &Adapter{} })
}

const supportedCaps = valueobject.CapabilitySet(
	uint8(valueobject.CapabilityToolCall) | uint8(valueobject.CapabilityImage),
)

// Adapter implements dialect.Adapter for the Google Gemini generateContent API.
type Adapter struct{}

func (Adapter) Dialect() valueobject.Dialect { return valueobject.DialectGemini }

func (Adapter) TranslateRequest(_ context.Context, req dialect.Request, reqCaps valueobject.CapabilitySet, binding *entity.Binding, providerConfig entity.ProviderConfig) (*dialect.OutboundRequest, error) {
	if !supportedCaps.Satisfies(reqCaps) {
		return nil, domainErrors.NewUnsupportedError("gemini dialect cannot satisfy required capabilities")
	}

	apiReq := &Request{
		GenerationConfig: &GenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}

	if req.System != "" {
		apiReq.SystemInstruction = &Content{Parts: []Part{{Text: req.System}}}
	}

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			if apiReq.SystemInstruction == nil {
				apiReq.SystemInstruction = &Content{Parts: []Part{{Text: m.Content}}}
			}
		case "assistant":
			content := Content{Role: "model"}
			if m.Content != "" {
				content.Parts = append(content.Parts, Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				content.Parts = append(content.Parts, Part{FunctionCall: &FunctionCall{Name: tc.Name, Args: tc.Arguments}})
			}
			if len(content.Parts) > 0 {
				apiReq.Contents = append(apiReq.Contents, content)
			}
		case "tool":
			apiReq.Contents = append(apiReq.Contents, Content{
				Role: "user",
				Parts: []Part{{FunctionResponse: &FunctionResponse{
					Name:     m.Name,
					Response: map[string]interface{}{"output": m.Content},
				}}},
			})
		default:
			apiReq.Contents = append(apiReq.Contents, Content{Role: "user", Parts: []Part{{Text: m.Content}}})
		}
	}

	if len(req.Tools) > 0 {
		var decls []FunctionDeclarationSpec
		for _, td := range req.Tools {
			decls = append(decls, FunctionDeclarationSpec{Name: td.Name, Description: td.Description, Parameters: convertSchema(td.Parameters)})
		}
		apiReq.Tools = []ToolDeclaration{{FunctionDeclarations: decls}}
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to marshal gemini request", err)
	}

	headers := dialect.BuildHeaders(binding.CustomerHeaders, nil, binding.WithHeader)
	headers.Set("Content-Type", "application/json")
	headers.Set("x-goog-api-key", providerConfig.APIKey)

	action := "generateContent"
	if req.Stream {
		action = "streamGenerateContent"
		headers.Set("Accept", "text/event-stream")
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:%s", strings.TrimRight(providerConfig.BaseURL, "/"), binding.ProviderModel, action)
	if req.Stream {
		url += "?alt=sse"
	}

	return &dialect.OutboundRequest{URL: url, Headers: headers, Body: body, IsStream: req.Stream}, nil
}

func (Adapter) TranslateResponseUnary(body []byte, status int) (*dialect.Response, error) {
	if status != http.StatusOK {
		return nil, domainErrors.NewUpstreamError(status, string(body))
	}

	var apiResp Response
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to parse gemini response", err)
	}
	if len(apiResp.Candidates) == 0 {
		return nil, domainErrors.NewUpstreamError(status, "empty candidates in gemini response")
	}

	candidate := apiResp.Candidates[0]
	resp := &dialect.Response{FinishReason: candidate.FinishReason}
	if apiResp.UsageMetadata != nil {
		resp.Usage = toCanonicalUsage(*apiResp.UsageMetadata)
	}
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			resp.Content += part.Text
		}
		if part.FunctionCall != nil {
			resp.ToolCalls = append(resp.ToolCalls, dialect.ToolCall{
				ID:        fmt.Sprintf("call_%s_%d", part.FunctionCall.Name, len(resp.ToolCalls)),
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
		}
	}
	return resp, nil
}

func toCanonicalUsage(u UsageMetadata) entity.Usage {
	return entity.Usage{PromptTokens: u.PromptTokenCount, CompletionTokens: u.CandidatesTokenCount, TotalTokens: u.total()}
}
