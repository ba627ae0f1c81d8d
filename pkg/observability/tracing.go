// Package observability sets up tracing for ingestion runs.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/filereader"

var (
	mu     sync.RWMutex
	tracer trace.Tracer = otel.Tracer(instrumentationName)
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRate   float64
	// Output receives exported spans; nil means stderr
	Output       io.Writer
	PrettyPrint  bool
	BatchTimeout time.Duration
}

// DefaultTracingConfig samples every run and writes spans to stderr.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:  "filereader",
		Environment:  "development",
		SamplingRate: 1.0,
		BatchTimeout: 5 * time.Second,
	}
}

// InitTracing installs a stdout exporting tracer provider as the global one.
// The returned function flushes and shuts it down.
func InitTracing(config TracingConfig) (func(context.Context) error, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(out)}
	if config.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(config.SamplingRate)),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(config.BatchTimeout)),
	)
	SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

// SetTracerProvider replaces the provider used by Tracer.
func SetTracerProvider(tp trace.TracerProvider) {
	otel.SetTracerProvider(tp)
	mu.Lock()
	tracer = tp.Tracer(instrumentationName)
	mu.Unlock()
}

// Tracer returns the package tracer. Before InitTracing it is a no-op.
func Tracer() trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return tracer
}

// Span wraps a trace span and buffers attributes until End.
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// StartSpan starts a span named operation.
func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	ctx, span := Tracer().Start(ctx, operation)
	return ctx, &Span{span: span, startTime: time.Now()}
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// AddEvent adds an event to the span
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Fail records err and marks the span as failed. A nil err marks it ok.
func (s *Span) Fail(err error) {
	if err == nil {
		s.span.SetStatus(codes.Ok, "")
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// Duration is the time since the span started.
func (s *Span) Duration() time.Duration {
	return time.Since(s.startTime)
}

// End flushes buffered attributes and ends the span.
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.End()
}

// RunStats is what a traced run reports back.
type RunStats struct {
	Rows    int64
	Bytes   int64
	Outcome string
}

// TraceRun wraps one ingestion run of location in a "filereader.read" span.
func TraceRun(ctx context.Context, location string, fn func(context.Context) (RunStats, error)) (RunStats, error) {
	ctx, span := StartSpan(ctx, "filereader.read")
	defer span.End()

	span.SetAttribute("filereader.location", location)
	stats, err := fn(ctx)
	span.SetAttribute("filereader.rows", stats.Rows)
	span.SetAttribute("filereader.bytes", stats.Bytes)
	if stats.Outcome != "" {
		span.SetAttribute("filereader.outcome", stats.Outcome)
	}
	span.Fail(err)
	return stats, err
}
