// Package dialect translates between the gateway's canonical chat
// representation and each upstream's wire format. It generalizes the
// teacher's llm/{openai,anthropic,gemini} packages — each of which only
// ever spoke "its own" wire format in and out of service.LLMRequest —
// into round-trip translators keyed by an inbound AND an outbound
// dialect, so any of the four inbound wire shapes can be relayed to any
// of the four outbound provider types.
package dialect

import (
	"net/http"

	"github.com/axgate/llmgw/internal/domain/entity"
)

// Message is one canonical chat turn.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
	// Images holds inline image parts (data URLs or remote URLs) attached
	// to this message, used only when CapabilityImage is required.
	Images []string
}

// ToolCall is a canonical function invocation, either a request-side
// tool definition's matching call, or a model-emitted call to accumulate.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// ToolDef is a canonical tool/function declaration offered to the model.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Request is the canonical, dialect-agnostic inbound request the
// dispatcher hands to an adapter's TranslateRequest.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolDef
	MaxTokens   int
	Temperature float64
	Stream      bool
}

// Response is the canonical unary (or stream-terminal) result an
// adapter hands back to the dispatcher.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        entity.Usage
}

// StreamEvent is one relayed increment of a streamed response. Either
// DeltaText or DeltaToolCall is set for a mid-stream event; Usage is
// only populated on the terminal event.
type StreamEvent struct {
	DeltaText     string
	DeltaToolCall *ToolCall
	FinishReason  string
	Usage         *entity.Usage
}

// OutboundRequest is what TranslateRequest produces: everything the
// dispatcher needs to perform the actual HTTP call.
type OutboundRequest struct {
	URL      string
	Headers  http.Header
	Body     []byte
	IsStream bool
}
