// Package observability records workflow steps as OpenTelemetry spans and metrics.
package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	stepCounter    otelmetric.Int64Counter
	stepDuration   otelmetric.Float64Histogram
}

type options struct {
	registerer promclient.Registerer
	processors []sdktrace.SpanProcessor
}

type Option func(*options)

// WithRegisterer sets the Prometheus registerer for the metric exporter.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSpanProcessor attaches a span processor to the tracer provider.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, sp) }
}

func New(serviceName string, opts ...Option) (*Observability, error) {
	cfg := options{registerer: promclient.DefaultRegisterer}
	for _, opt := range opts {
		opt(&cfg)
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(cfg.registerer))
	if err != nil {
		return nil, err
	}
	meterProvider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(meterProvider)
	meter := meterProvider.Meter(serviceName)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithSampler(sdktrace.AlwaysSample())}
	for _, sp := range cfg.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tracerProvider)

	stepCounter, err := meter.Int64Counter(
		"workflow.steps",
		otelmetric.WithDescription("Number of workflow steps executed"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"workflow.step.duration",
		otelmetric.WithDescription("Workflow step duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
		stepCounter:    stepCounter,
		stepDuration:   stepDuration,
	}, nil
}

// StartSpan starts a span named name. A nil Observability yields a no-op span.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Step runs fn inside a span and records its outcome and duration.
func (o *Observability) Step(ctx context.Context, workflow, step string, fn func(ctx context.Context) error) error {
	ctx, span := o.StartSpan(ctx, workflow+"."+step,
		attribute.String("workflow", workflow),
		attribute.String("step", step),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.RecordStep(ctx, workflow, step, time.Since(start), err)
	return err
}

func (o *Observability) RecordStep(ctx context.Context, workflow, step string, duration time.Duration, err error) {
	if o == nil || o.stepCounter == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("workflow", workflow),
		attribute.String("step", step),
		attribute.String("status", status),
	)
	o.stepCounter.Add(ctx, 1, attrs)
	o.stepDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	var firstErr error
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
