package kafka

import (
	"context"

	"github.com/naughtygopher/errors"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/prashantkr001/item-service/internal/pkg/apm"
)

type instruments struct {
	tracer         *kotel.Tracer
	handlerLatency metric.Int64Histogram
	produceLatency metric.Int64Histogram
}

// kotelHooks traces every produced & consumed record. The global propagator is used, so that
// the trace context of the HTTP/gRPC request which caused a change is carried by the record
func kotelHooks() (*kotel.Tracer, kgo.Opt) { //nolint:ireturn // that's how otel sdk works
	tracer := kotel.NewTracer(
		kotel.TracerProvider(apm.Global().GetTracerProvider()),
		kotel.TracerPropagator(otel.GetTextMapPropagator()),
	)
	kmeter := kotel.NewMeter(
		kotel.MeterProvider(apm.Global().GetMeterProvider()),
	)
	kotelsvc := kotel.NewKotel(
		kotel.WithTracer(tracer),
		kotel.WithMeter(kmeter),
	)
	return tracer, kgo.WithHooks(kotelsvc.Hooks()...)
}

func newInstruments() (*instruments, kgo.Opt, error) {
	tracer, hooks := kotelHooks()
	meter := apm.Global().AppMeter()

	handlerLatency, err := meter.Int64Histogram(
		"kafka.handler.duration",
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "meter.Int64Histogram")
	}

	produceLatency, err := meter.Int64Histogram(
		"kafka.produce.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("time taken for a record to be acknowledged by the broker"),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "meter.Int64Histogram")
	}

	return &instruments{
		tracer:         tracer,
		handlerLatency: handlerLatency,
		produceLatency: produceLatency,
	}, hooks, nil
}

func withOTEL(ctx context.Context, cfg *Config, opts ...kgo.Opt) (*Kafka, error) {
	ins, hooks, err := newInstruments()
	if err != nil {
		return nil, err
	}

	kcli, err := newCli(ctx, cfg, append(opts, hooks)...)
	if err != nil {
		return nil, err
	}

	return &Kafka{
		cfg:               cfg,
		client:            kcli,
		tracer:            ins.tracer,
		commitTimeout:     cfg.CommitTimeout,
		latencyInstrument: ins.handlerLatency,
		produceLatency:    ins.produceLatency,
	}, nil
}
