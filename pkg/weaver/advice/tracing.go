package advice

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/toyz/weaver/pkg/weaver/advice"

// TracingAdvisor records a span per call
type TracingAdvisor struct {
	tracer trace.Tracer
}

// NewTracingAdvisor creates a tracing advisor. A nil provider uses the
// global OpenTelemetry tracer provider.
func NewTracingAdvisor(tp trace.TracerProvider) *TracingAdvisor {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingAdvisor{tracer: tp.Tracer(instrumentationName)}
}

// OnEnter starts the call span
func (a *TracingAdvisor) OnEnter(ctx context.Context, call Call) context.Context {
	ctx, _ = a.tracer.Start(ctx, call.FullName(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(callAttributes(call)...),
	)
	return ctx
}

// OnExit ends the call span, marking it failed when err is set
func (a *TracingAdvisor) OnExit(ctx context.Context, _ Call, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func callAttributes(call Call) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("code.function", call.Method)}
	if call.Type != "" {
		attrs = append(attrs, attribute.String("code.namespace", call.Type))
	}
	return attrs
}
