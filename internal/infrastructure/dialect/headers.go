package dialect

import "net/http"

// droppedInboundHeaders are never forwarded upstream even when
// with_header=true, since they'd either leak the caller's own
// credentials or describe a connection that no longer applies.
var droppedInboundHeaders = map[string]struct{}{
	"Authorization":  {},
	"X-Api-Key":      {},
	"X-Goog-Api-Key": {},
	"Content-Length": {},
	"Host":           {},
}

// BuildHeaders applies the precedence order from the header policy:
// provider-config auth headers (set by the caller after this returns)
// > binding.customer_headers > pass-through inbound headers, and the
// pass-through tier only applies when withHeader is true.
func BuildHeaders(customerHeaders map[string]string, inbound http.Header, withHeader bool) http.Header {
	out := make(http.Header)

	if withHeader {
		for k, vs := range inbound {
			if _, dropped := droppedInboundHeaders[http.CanonicalHeaderKey(k)]; dropped {
				continue
			}
			for _, v := range vs {
				out.Add(k, v)
			}
		}
	}

	for k, v := range customerHeaders {
		out.Set(k, v)
	}

	return out
}
