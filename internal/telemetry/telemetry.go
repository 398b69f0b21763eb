// Package telemetry is a slimmed OpenTelemetry wiring for PROC, grounded in
// telemetry/otel.go's NewOTelProvider/StartSpan/RecordMetric/Shutdown shape.
// The teacher's telemetry package is ~7900 lines across 32 files covering
// concerns (HTTP middleware servers, dozens of metric instruments) this
// system doesn't need; this package keeps just the span-around-a-call and
// counter-style metric primitives spec.md's ambient-telemetry note asks for,
// off by default and switched on by RESEARCHD_OTEL_EXPORTER.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// Span is the minimal interface adapter/fan-out code uses; it mirrors
// core.Span closely enough that the wrapping pattern reads the same way.
type Span interface {
	End()
	SetAttribute(key string, value any)
	RecordError(err error)
}

// Provider starts spans and records metrics. A no-op Provider (the default)
// costs nothing beyond an interface call.
type Provider struct {
	tracer       trace.Tracer
	meter        metric.Meter
	traceProvider *sdktrace.TracerProvider
	shutdownOnce sync.Once
}

// New builds a Provider per exporter ("none", "stdout", "otlp"). "none"
// returns a Provider backed by OTel's own no-op implementations — cheap,
// safe, and exercises the same code path as a real exporter.
func New(ctx context.Context, serviceName, exporter, otlpEndpoint string) (*Provider, error) {
	switch exporter {
	case "", "none":
		return &Provider{tracer: nooptrace.NewTracerProvider().Tracer(serviceName), meter: noopmetric.NewMeterProvider().Meter(serviceName)}, nil
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("creating stdout trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tp)
		return &Provider{tracer: tp.Tracer(serviceName), meter: noopmetric.NewMeterProvider().Meter(serviceName), traceProvider: tp}, nil
	case "otlp":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if otlpEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(otlpEndpoint))
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating otlp trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tp)
		return &Provider{tracer: tp.Tracer(serviceName), meter: noopmetric.NewMeterProvider().Meter(serviceName), traceProvider: tp}, nil
	default:
		return nil, fmt.Errorf("unknown telemetry exporter %q", exporter)
	}
}

// StartSpan starts a span named name, returning the derived context and the
// span handle; callers defer span.End().
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// RecordMetric records a single observation on an ad-hoc float64 counter
// named name. This is intentionally coarse (no pre-registered instrument
// set) since PROC's metric surface is small: per-adapter call counts and
// latencies, recorded as span attributes most of the time and only here
// when a caller wants an aggregate counter independent of any one span.
// Every exporter mode backs the meter with OTel's no-op meter provider, so
// these counters are not exported anywhere.
func (p *Provider) RecordMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	counter, err := p.meter.Float64Counter(name)
	if err != nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Shutdown flushes any pending spans. Idempotent.
func (p *Provider) Shutdown(ctx context.Context) error {
	var err error
	p.shutdownOnce.Do(func() {
		if p.traceProvider == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err = p.traceProvider.Shutdown(shutdownCtx)
	})
	return err
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (s *otelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
}
