// Package openairesponses adapts the canonical request/response shape
// to the OpenAI Responses API wire format. There is no teacher provider
// for this dialect; the triad shape (types/adapter/sse) mirrors the
// dialect/openai package, and the event-typed SSE parsing mirrors the
// dialect/anthropic package's typed-event accumulation.
package openairesponses

// Request is the OpenAI Responses API request format.
type Request struct {
	Model       string `json:"model"`
	Input       []Item `json:"input"`
	Instruction string `json:"instructions,omitempty"`
	Tools       []Tool `json:"tools,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxOutputTokens int `json:"max_output_tokens,omitempty"`
	Stream      bool   `json:"stream,omitempty"`
}

// Item is one canonical input turn in the Responses API's flattened
// item array.
type Item struct {
	Type    string `json:"type,omitempty"` // "message" | "function_call" | "function_call_output"
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`

	// For type "function_call" (assistant requesting a tool call)
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// For type "function_call_output" (tool result)
	Output string `json:"output,omitempty"`
}

// Tool is a Responses API function tool declaration.
type Tool struct {
	Type        string                 `json:"type"` // "function"
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Response is the OpenAI Responses API unary response.
type Response struct {
	ID     string       `json:"id"`
	Model  string        `json:"model"`
	Output []OutputItem  `json:"output"`
	Usage  Usage         `json:"usage"`
	Status string        `json:"status"` // "completed" | "incomplete" | "failed"
}

// OutputItem is one emitted output item.
type OutputItem struct {
	Type    string          `json:"type"` // "message" | "function_call"
	Content []OutputContent `json:"content,omitempty"`

	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// OutputContent is one content part of a message output item.
type OutputContent struct {
	Type string `json:"type"` // "output_text"
	Text string `json:"text,omitempty"`
}

// Usage reports token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

func (u Usage) total() int {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.InputTokens + u.OutputTokens
}

// StreamEvent is one event-typed SSE frame from the Responses API.
type StreamEvent struct {
	Type string `json:"type"` // "response.output_text.delta" | "response.function_call_arguments.delta" | "response.completed" | ...

	Delta      string `json:"delta,omitempty"`
	ItemID     string `json:"item_id,omitempty"`
	OutputIndex int   `json:"output_index,omitempty"`

	Item     *OutputItem `json:"item,omitempty"`
	Response *Response   `json:"response,omitempty"`
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
