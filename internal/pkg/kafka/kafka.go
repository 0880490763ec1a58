// Package kafka wraps the franz-go client with the configuration, tracing and commit handling
// shared by every producer and consumer of the app
package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"net"
	"strings"
	"time"

	"github.com/naughtygopher/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/plugin/kotel"

	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

type Config struct {
	// LogLevel of the franz-go client logs, as kgo.LogLevel
	LogLevel int8

	Seeds         []string
	Topics        []string
	ConsumerGroup string

	IdleTimeout            time.Duration
	RequestTimeoutOverhead time.Duration
	RetryTimeout           time.Duration
	TxnTimeout             time.Duration
	RecordTimeout          time.Duration
	SessionTimeout         time.Duration
	CommitTimeout          time.Duration

	AuthMechanism string
	SASLUsername  string
	SASLPassword  string
	CACertificate string

	FetchMaxBytes int32

	EnableAutoCommit bool
	EnableTLSDialer  bool
}

// Handler processes a single record. Returning an error keeps the record uncommitted
type Handler func(ctx context.Context, key, payload []byte) error

type Kafka struct {
	cfg               *Config
	client            *kgo.Client
	tracer            *kotel.Tracer
	commitTimeout     time.Duration
	latencyInstrument metric.Int64Histogram
	produceLatency    metric.Int64Histogram
}

func (kfk *Kafka) Ping(ctx context.Context) error {
	err := kfk.client.Ping(ctx)
	if err != nil {
		return errors.Wrap(err, "kafka ping failed")
	}
	return nil
}

func (kfk *Kafka) Flush(ctx context.Context) error {
	err := kfk.client.Flush(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to flush Kafka client")
	}
	return nil
}

func (kfk *Kafka) Shutdown(ctx context.Context) error {
	err := kfk.client.Flush(ctx)
	if err != nil {
		return errors.Wrap(err, "failed flushing Kafka client")
	}

	_ = kfk.client.PauseFetchTopics(kfk.cfg.Topics...)
	kfk.Close()

	return nil
}
func (kfk *Kafka) Close() {
	kfk.client.Close()
}

func (kfk *Kafka) PollFetches(ctx context.Context) kgo.Fetches {
	return kfk.client.PollFetches(ctx)
}

func (kfk *Kafka) CommitRecords(ctx context.Context, records ...*kgo.Record) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, kfk.commitTimeout)
	defer cancel()
	err := kfk.client.CommitRecords(ctx, records...)
	if err != nil {
		return errors.Wrap(err, "kafka commit failed")
	}

	return nil
}

// ProduceSync blocks until the record is acknowledged by the broker
func (kfk *Kafka) ProduceSync(ctx context.Context, rec *kgo.Record) error {
	start := time.Now()
	err := kfk.client.ProduceSync(ctx, rec).FirstErr()

	attr := []attribute.KeyValue{
		{Key: "kafka.topic", Value: attribute.StringValue(rec.Topic)},
		{Key: "kafka.produce.failed", Value: attribute.BoolValue(err != nil)},
	}
	kfk.produceLatency.Record(ctx, time.Since(start).Milliseconds(), metric.WithAttributes(attr...))

	if err != nil {
		return errors.Wrapf(err, "kafka produce sync to topic '%s' failed", rec.Topic)
	}
	return nil
}

func (kfk *Kafka) HandleTopic(
	ctx context.Context,
	commitRecords *[]*kgo.Record,
	record *kgo.Record,
	fn Handler,
) {
	childCtx, span := kfk.tracer.WithProcessSpan(record)

	if deadLine, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		childCtx, cancel = context.WithDeadline(childCtx, deadLine)
		defer cancel()
	}

	attr := []attribute.KeyValue{
		{Key: semconv.MessagingKafkaConsumerGroupKey, Value: attribute.StringValue(kfk.cfg.ConsumerGroup)},
		{Key: "kafka.topic", Value: attribute.StringValue(record.Topic)},
	}
	defer func(t time.Time) {
		span.SetAttributes(attr...)
		kfk.latencyInstrument.Record(childCtx, time.Since(t).Milliseconds(), metric.WithAttributes(attr...))
		span.End()
	}(time.Now())

	err := fn(childCtx, record.Key, record.Value)
	if err != nil {
		logger.ErrWithStacktrace(errors.Wrapf(err, "failed handling record of topic '%s'", record.Topic))
		return
	}
	// only records which are successfully handled should be committed
	*commitRecords = append(*commitRecords, record)
}

func (kfk *Kafka) Client() *kgo.Client {
	return kfk.client
}

func kgoDialer(cfg *Config) (*tls.Dialer, error) {
	tlsDialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: cfg.RetryTimeout},
	}

	if cfg.CACertificate == "" {
		return tlsDialer, nil
	}

	cACert, err := base64.StdEncoding.DecodeString(cfg.CACertificate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64 ca certificate")
	}

	caCertPool := x509.NewCertPool()
	ok := caCertPool.AppendCertsFromPEM(cACert)
	if !ok {
		return nil, errors.New("invalid ca certificated provided")
	}

	tlsDialer.Config = &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}

	return tlsDialer, nil
}
func kgoOptsFromCfg(cfg *Config, extra ...kgo.Opt) ([]kgo.Opt, error) {
	logLevel := kgo.LogLevel(cfg.LogLevel)
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Seeds...),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ConnIdleTimeout(cfg.IdleTimeout),
		kgo.RetryTimeout(cfg.RetryTimeout),
		kgo.RequestTimeoutOverhead(cfg.RequestTimeoutOverhead),
		kgo.TransactionTimeout(cfg.TxnTimeout),
		kgo.RecordDeliveryTimeout(cfg.RecordTimeout),
		kgo.SessionTimeout(cfg.SessionTimeout),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.WithLogger(&kgoLogger{level: logLevel}),
	}

	if !cfg.EnableAutoCommit {
		// DisableAutoCommit is required to handle usecases where we have to NACK a message
		// if the processing fails.
		opts = append(opts, kgo.DisableAutoCommit())
	}

	if cfg.FetchMaxBytes > 0 {
		const maxSizeMultiplier = 2
		opts = append(
			opts,
			kgo.FetchMaxBytes(cfg.FetchMaxBytes),
			kgo.BrokerMaxReadBytes(maxSizeMultiplier*cfg.FetchMaxBytes),
		)
	}

	if strings.EqualFold(cfg.AuthMechanism, "SASL") {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.SASLUsername,
			Pass: cfg.SASLPassword,
		}.AsMechanism()))
	}

	if cfg.EnableTLSDialer {
		tlsDialer, err := kgoDialer(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.Dialer(tlsDialer.DialContext))
	}

	opts = append(opts, extra...)

	return opts, nil
}

// newCli creates the client and waits for the brokers to be reachable, since the brokers may
// still be starting up when the app starts (e.g. docker compose)
func newCli(ctx context.Context, cfg *Config, opts ...kgo.Opt) (*kgo.Client, error) {
	kgoOpts, err := kgoOptsFromCfg(cfg, opts...)
	if err != nil {
		return nil, err
	}

	cli, err := kgo.NewClient(kgoOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "kafka client initialization failed")
	}

	const (
		pingTimeout = time.Second * 3
		retryDelay  = time.Second * 3
		maxAttempts = 4
	)
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = cli.Ping(pingCtx)
		cancel()
		if err == nil {
			return cli, nil
		}

		if attempt == maxAttempts {
			cli.Close()
			return nil, errors.Wrapf(err, "kafka ping failed after %d attempts", attempt)
		}

		logger.Warn(
			"[kafka] brokers not reachable, retrying",
			zap.Int("attempt", attempt),
			zap.Strings("seeds", cfg.Seeds),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
}

// New returns a traced Kafka client, once the brokers are reachable. The same client is used to
// consume cfg.Topics and to produce
func New(ctx context.Context, cfg *Config, opts ...kgo.Opt) (*Kafka, error) {
	return withOTEL(ctx, cfg, opts...)
}
