package advice

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsAdvisor counts calls and records their duration
type MetricsAdvisor struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

type startKey struct{ advisor *MetricsAdvisor }

// NewMetricsAdvisor creates a metrics advisor. A nil provider uses the
// global OpenTelemetry meter provider.
func NewMetricsAdvisor(mp metric.MeterProvider) (*MetricsAdvisor, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	calls, err := meter.Int64Counter(
		"weaver.calls",
		metric.WithDescription("Calls to instrumented methods"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"weaver.call.duration",
		metric.WithDescription("Duration of calls to instrumented methods"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsAdvisor{calls: calls, duration: duration}, nil
}

// OnEnter stamps the call start time
func (a *MetricsAdvisor) OnEnter(ctx context.Context, _ Call) context.Context {
	return context.WithValue(ctx, startKey{a}, time.Now())
}

// OnExit records the call count and duration
func (a *MetricsAdvisor) OnExit(ctx context.Context, call Call, err error) {
	attrs := metric.WithAttributes(append(callAttributes(call), attribute.Bool("error", err != nil))...)

	a.calls.Add(ctx, 1, attrs)
	if start, ok := ctx.Value(startKey{a}).(time.Time); ok {
		a.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
