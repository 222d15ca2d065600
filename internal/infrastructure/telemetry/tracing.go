package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// NewTracerProvider builds an SDK tracer provider with the default
// (no-op exporter) span processor — spans are created and ended through
// the real otel API so a real exporter can be swapped in later without
// touching dispatcher call sites.
func NewTracerProvider() *trace.TracerProvider {
	return trace.NewTracerProvider()
}

// Tracer wraps the otel tracer the dispatcher uses to span each
// candidate attempt behind a narrow interface.
type Tracer struct {
	tracer oteltrace.Tracer
}

func NewTracer(provider *trace.TracerProvider) *Tracer {
	return &Tracer{tracer: provider.Tracer("llmgw/dispatcher")}
}

// StartAttempt opens a span for one dispatch attempt against a candidate
// binding/provider pair.
func (t *Tracer) StartAttempt(ctx context.Context, modelName, providerName string, bindingID uint) (context.Context, oteltrace.Span) {
	return t.tracer.Start(ctx, "dispatch.attempt",
		oteltrace.WithAttributes(
			attribute.String("model", modelName),
			attribute.String("provider", providerName),
			attribute.Int64("binding_id", int64(bindingID)),
		),
	)
}

// EndAttempt closes span with an outcome attribute and, on failure,
// records the error onto the span.
func EndAttempt(span oteltrace.Span, success bool, err error) {
	span.SetAttributes(attribute.Bool("success", success))
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
