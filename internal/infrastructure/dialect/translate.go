package dialect

import (
	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// ParseInbound decodes a request body received in inboundDialect's own
// wire format into the canonical Request plus the capability mask it
// demands. It is the entry half of the cross-dialect matrix: from here
// on the dispatcher only ever deals with the canonical Request, and
// picks an outbound Adapter independently based on the resolved
// binding's provider type.
func ParseInbound(inboundDialect valueobject.Dialect, body []byte) (*Request, valueobject.CapabilitySet, error) {
	adapter, err := CreateAdapter(inboundDialect)
	if err != nil {
		return nil, 0, err
	}
	return adapter.ParseInboundRequest(body)
}

// RenderInboundResponse serializes resp back into inboundDialect's own
// unary wire format, the exit half of the cross-dialect matrix: a
// caller that spoke dialect X always gets dialect X responses back,
// even when the binding that served the request spoke dialect Y.
func RenderInboundResponse(inboundDialect valueobject.Dialect, resp *Response) ([]byte, error) {
	adapter, err := CreateAdapter(inboundDialect)
	if err != nil {
		return nil, err
	}
	return adapter.RenderInboundResponse(resp)
}

// RenderInboundStreamEvent formats ev as an SSE frame in inboundDialect's
// own streaming wire shape.
func RenderInboundStreamEvent(inboundDialect valueobject.Dialect, ev StreamEvent) ([]byte, error) {
	adapter, err := CreateAdapter(inboundDialect)
	if err != nil {
		return nil, err
	}
	return adapter.RenderInboundStreamEvent(ev), nil
}
