package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	metricQueryDuration = "db.client.query.duration"
	metricQueryErrors   = "db.client.query.errors"
)

// OTelMetrics implements MetricsCollector on the OpenTelemetry metrics API:
// a duration histogram plus an error counter, both labelled by SQL verb.
type OTelMetrics struct {
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewOTelMetrics creates the instruments on meter.
func NewOTelMetrics(meter metric.Meter) (*OTelMetrics, error) {
	duration, err := meter.Float64Histogram(
		metricQueryDuration,
		metric.WithDescription("Duration of SQL statements"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("db: create %s: %w", metricQueryDuration, err)
	}
	errCounter, err := meter.Int64Counter(
		metricQueryErrors,
		metric.WithDescription("Failed SQL statements"),
	)
	if err != nil {
		return nil, fmt.Errorf("db: create %s: %w", metricQueryErrors, err)
	}
	return &OTelMetrics{duration: duration, errors: errCounter}, nil
}

func (m *OTelMetrics) RecordQuery(query string, d time.Duration, success bool) {
	attrs := metric.WithAttributes(
		attribute.String("db.operation", operationOf(query)),
		attribute.Bool("success", success),
	)
	m.duration.Record(context.Background(), d.Seconds(), attrs)
	if !success {
		m.errors.Add(context.Background(), 1, attrs)
	}
}

// OTelTracer implements Tracer on the OpenTelemetry tracing API.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer wraps tracer, normally obtained from the global provider.
func NewOTelTracer(tracer trace.Tracer) *OTelTracer {
	return &OTelTracer{tracer: tracer}
}

func (t *OTelTracer) StartSpan(ctx context.Context, query string, start time.Time) context.Context {
	op := operationOf(query)
	ctx, _ = t.tracer.Start(ctx, "db."+strings.ToLower(op),
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.operation", op),
			attribute.String("db.statement", trimQuery(query)),
		),
	)
	return ctx
}

func (t *OTelTracer) EndSpan(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil && !IsNotFound(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var (
	_ MetricsCollector = (*OTelMetrics)(nil)
	_ Tracer           = (*OTelTracer)(nil)
)
