// Package apm sets up application performance monitoring using OpenTelemetry. i.e. traces & metrics.
// A no-op instance is available as the global by default, so instrumented packages can be used
// (and tested) without initializing any exporters.
package apm

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"

	"github.com/naughtygopher/errors"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type Options struct {
	Environment      string
	Debug            bool
	ServiceName      string
	ServiceVersion   string
	TracesSampleRate float64
	// CollectorURL is the OTLP collector. An http(s):// URL uses OTLP/HTTP, anything else is
	// treated as a gRPC endpoint (host:port)
	CollectorURL         string
	PrometheusScrapePort uint16
	UseStdOut            bool
}

type APM struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	appTracer      trace.Tracer
	appMeter       metric.Meter
	shutdowns      []func(ctx context.Context) error
}

var global = noop()

func noop() *APM {
	tp := tracenoop.NewTracerProvider()
	mp := metricnoop.NewMeterProvider()
	return &APM{
		tracerProvider: tp,
		meterProvider:  mp,
		appTracer:      tp.Tracer(""),
		appMeter:       mp.Meter(""),
	}
}

func Global() *APM {
	return global
}

// SetGlobal sets the global APM instance, and the otel global providers
func SetGlobal(ins *APM) {
	global = ins
	otel.SetTracerProvider(ins.tracerProvider)
	otel.SetMeterProvider(ins.meterProvider)
}

func (ap *APM) GetTracerProvider() trace.TracerProvider { //nolint:ireturn // that's how otel sdk works
	return ap.tracerProvider
}

func (ap *APM) GetMeterProvider() metric.MeterProvider { //nolint:ireturn // that's how otel sdk works
	return ap.meterProvider
}

// AppTracer is the tracer to be used for creating spans within the app
func (ap *APM) AppTracer() trace.Tracer { //nolint:ireturn // that's how otel sdk works
	return ap.appTracer
}

// AppMeter is the meter to be used for creating instruments within the app
func (ap *APM) AppMeter() metric.Meter { //nolint:ireturn // that's how otel sdk works
	return ap.appMeter
}

// Shutdown flushes & stops all the exporters
func (ap *APM) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shut := range ap.shutdowns {
		err := shut(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrap(stderrors.Join(errs...), "apm shutdown failed")
	}
	return nil
}

func traceExporter(ctx context.Context, opts *Options) (sdktrace.SpanExporter, error) { //nolint:ireturn // that's how otel sdk works
	if opts.CollectorURL == "" {
		if opts.UseStdOut {
			exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
			if err != nil {
				return nil, errors.Wrap(err, "stdouttrace.New")
			}
			return exp, nil
		}
		return nil, nil
	}

	if strings.HasPrefix(opts.CollectorURL, "http://") || strings.HasPrefix(opts.CollectorURL, "https://") {
		hopts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(opts.CollectorURL)}
		if u, err := url.Parse(opts.CollectorURL); err == nil && u.Scheme == "http" {
			hopts = append(hopts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, hopts...)
		if err != nil {
			return nil, errors.Wrap(err, "otlptracehttp.New")
		}
		return exp, nil
	}

	exp, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(opts.CollectorURL),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "otlptracegrpc.New")
	}
	return exp, nil
}

func newTracerProvider(ctx context.Context, opts *Options, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.TracesSampleRate))
	if opts.Debug {
		sampler = sdktrace.AlwaysSample()
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}

	exp, err := traceExporter(ctx, opts)
	if err != nil {
		return nil, err
	}
	if exp != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	}

	return sdktrace.NewTracerProvider(tpOpts...), nil
}

// newMeterProvider also returns the shutdown funcs of the servers it started, e.g. the prometheus scraper
func newMeterProvider(
	opts *Options,
	res *resource.Resource,
) (*sdkmetric.MeterProvider, []func(ctx context.Context) error, error) {
	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if opts.UseStdOut {
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, nil, errors.Wrap(err, "stdoutmetric.New")
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}

	if opts.PrometheusScrapePort == 0 {
		return sdkmetric.NewMeterProvider(mpOpts...), nil, nil
	}

	exporter, err := prometheusExporter()
	if err != nil {
		return nil, nil, err
	}
	mpOpts = append(mpOpts, sdkmetric.WithReader(exporter))
	stopScraper := startPrometheusScraper(opts.PrometheusScrapePort)

	return sdkmetric.NewMeterProvider(mpOpts...), []func(ctx context.Context) error{stopScraper}, nil
}

func New(ctx context.Context, opts *Options) (*APM, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(opts.ServiceVersion),
		semconv.DeploymentEnvironment(opts.Environment),
	)

	tp, err := newTracerProvider(ctx, opts, res)
	if err != nil {
		return nil, err
	}

	mp, servers, err := newMeterProvider(opts, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
			b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader)),
		),
	)

	return &APM{
		tracerProvider: tp,
		meterProvider:  mp,
		appTracer:      tp.Tracer(opts.ServiceName),
		appMeter:       mp.Meter(opts.ServiceName),
		shutdowns:      append([]func(ctx context.Context) error{tp.Shutdown, mp.Shutdown}, servers...),
	}, nil
}
