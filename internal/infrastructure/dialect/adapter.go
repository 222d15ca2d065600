package dialect

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// Adapter is the per-dialect translation contract every provider type
// implements, mirroring the triad shape (types/provider/sse) the
// teacher used per provider, generalized from "talk to one upstream"
// into "translate canonical <-> this wire format."
type Adapter interface {
	Dialect() valueobject.Dialect

	// TranslateRequest builds the outbound HTTP call for req against
	// binding/providerConfig. It returns an UNSUPPORTED error (via
	// pkg/errors) when reqCaps exceeds what this dialect can express.
	TranslateRequest(ctx context.Context, req Request, reqCaps valueobject.CapabilitySet, binding *entity.Binding, providerConfig entity.ProviderConfig) (*OutboundRequest, error)

	// TranslateResponseUnary parses a non-streamed upstream response.
	TranslateResponseUnary(body []byte, status int) (*Response, error)

	// TranslateStream relays an upstream SSE/JSONL body, invoking emit
	// for every event, and returns the accumulated terminal Response
	// once the stream ends, yielding final usage at end of stream.
	TranslateStream(ctx context.Context, reader io.Reader, emit func(StreamEvent)) (*Response, error)

	// ParseInboundRequest decodes a request the gateway received in this
	// dialect's own wire format into the canonical Request, deriving the
	// capability mask the request demands: tool_call if tools/tool_calls
	// are present. The image capability is not derived by any parser.
	ParseInboundRequest(body []byte) (*Request, valueobject.CapabilitySet, error)

	// RenderInboundResponse serializes a canonical Response back into
	// this dialect's own unary wire format, for relaying to a caller
	// that spoke this dialect even though the binding's provider spoke
	// a different one.
	RenderInboundResponse(resp *Response) ([]byte, error)

	// RenderInboundStreamEvent formats one StreamEvent as an SSE frame
	// in this dialect's own streaming wire shape (data-only for OpenAI,
	// typed event/data pairs for Anthropic/Responses, bare JSON objects
	// for Gemini).
	RenderInboundStreamEvent(ev StreamEvent) []byte
}

// Factory constructs an Adapter. Each adapter sub-package registers its
// own factory via init(), the same self-registration pattern used for
// provider construction elsewhere in this codebase.
type Factory func() Adapter

var (
	mu         sync.RWMutex
	factories  = map[valueobject.Dialect]Factory{}
)

// RegisterFactory registers an adapter factory for d. Called from
// init() in each dialect sub-package.
func RegisterFactory(d valueobject.Dialect, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[d] = factory
}

// CreateAdapter constructs the Adapter registered for d.
func CreateAdapter(d valueobject.Dialect) (Adapter, error) {
	mu.RLock()
	factory, ok := factories[d]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q", d)
	}
	return factory(), nil
}
