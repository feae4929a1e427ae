package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const errorKey = attribute.Key("error")

// Tracer starts the spans of resolver background work.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer traces on provider, or the global provider when nil.
func NewTracer(provider trace.TracerProvider) *Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracer{tracer: provider.Tracer(Pkg, trace.WithInstrumentationAttributes(packageKey.String(Pkg)))}
}

// Start creates and starts a span. The caller ends it with End.
//
//nolint:spancheck // spans are returned to the caller for lifecycle management
func (t *Tracer) Start(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))
}

// End completes a span, recording err when not nil.
func (t *Tracer) End(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	if err != nil {
		span.SetAttributes(errorKey.String(err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// OutcomeAttribute labels a span with how a refresh ended.
func OutcomeAttribute(outcome string) attribute.KeyValue {
	return outcomeKey.String(outcome)
}
