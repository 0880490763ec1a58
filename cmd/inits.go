package main

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"

	mongoprom "github.com/globocom/mongo-go-prometheus"
	"github.com/naughtygopher/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/prashantkr001/item-service/internal/config"
	"github.com/prashantkr001/item-service/internal/item"
	"github.com/prashantkr001/item-service/internal/pkg/apm"
	"github.com/prashantkr001/item-service/internal/pkg/kafka"
	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

type ctxKey string

const (
	CtxKeyEnv ctxKey = "env"
)

func isDevelopment(cfg *config.Config) bool {
	return slices.Contains([]string{config.EnvDevelopment, config.EnvCI}, cfg.Environment)
}

func initLogger(cfg *config.Config) {
	ctxKeys := []any{CtxKeyEnv}
	switch {
	case cfg.Log.File != "":
		logger.SetGlobal(logger.NewWithFile(
			&logger.FileOptions{
				Filename:    cfg.Log.File,
				MaxSizeMB:   cfg.Log.MaxSizeMB,
				MaxBackups:  cfg.Log.MaxBackups,
				MaxAgeDays:  cfg.Log.MaxAgeDays,
				Development: isDevelopment(cfg),
			},
			zap.AddCallerSkip(1),
		))
	case isDevelopment(cfg):
		lh, _ := zap.NewDevelopment(zap.AddCallerSkip(1))
		logger.SetGlobal(lh)
	}

	logger.SetContextFieldsSetter(func(ctx context.Context) []zap.Field {
		fields := make([]zap.Field, 0, 1)
		for _, key := range ctxKeys {
			fields = append(
				fields,
				zap.Any(fmt.Sprintf("%v", key), ctx.Value(key)),
			)
		}

		traceID := trace.SpanContextFromContext(ctx).TraceID()
		if traceID.IsValid() {
			fields = append(fields, zap.String("trace_id", traceID.String()))
		}

		return fields
	})
}

func initAPM(ctx context.Context, cfg *config.Config) error {
	ins, err := apm.New(ctx, &apm.Options{
		Environment:          cfg.Environment,
		Debug:                cfg.APM.Debug,
		ServiceName:          cfg.AppName,
		ServiceVersion:       cfg.Version,
		TracesSampleRate:     cfg.APM.TracesSampleRate,
		CollectorURL:         cfg.APM.TracesCollectorURL,
		PrometheusScrapePort: cfg.APM.MetricScrapePort,
		UseStdOut:            isDevelopment(cfg),
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize APM")
	}
	apm.SetGlobal(ins)
	return nil
}

// mongoHosts adds port to the hosts which do not have one
func mongoHosts(hosts []string, port int) []string {
	if port == 0 {
		return hosts
	}

	withPort := make([]string, 0, len(hosts))
	for _, host := range hosts {
		if _, _, err := net.SplitHostPort(host); err != nil {
			host = net.JoinHostPort(host, strconv.Itoa(port))
		}
		withPort = append(withPort, host)
	}
	return withPort
}

func initializeMongoDB(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	monitor := mongoprom.NewCommandMonitor(
		mongoprom.WithInstanceName(cfg.MongoDB.Database),
		mongoprom.WithNamespace(cfg.MongoDB.Namespace),
		mongoprom.WithDurationBuckets([]float64{.001, .005, .01}),
	)

	opts := options.Client().SetMonitor(monitor)
	opts.Hosts = mongoHosts(cfg.MongoDB.Hosts, cfg.MongoDB.Port)
	if cfg.MongoDB.Username != "" {
		opts.Auth = &options.Credential{
			AuthMechanism:           cfg.MongoDB.AuthMechanism,
			AuthMechanismProperties: nil,
			AuthSource:              cfg.MongoDB.AuthDatabase,
			Username:                cfg.MongoDB.Username,
			Password:                cfg.MongoDB.Password,

			PasswordSet:         false,
			OIDCMachineCallback: nil,
			OIDCHumanCallback:   nil,
		}
	}
	// change streams, and hence the change relay, are only available on replica sets
	if cfg.MongoDB.ReplicaSet != "" {
		opts.SetReplicaSet(cfg.MongoDB.ReplicaSet)
	}
	opts.MaxConnIdleTime = &cfg.MongoDB.MaxConnIdleTime
	opts.SetAppName(cfg.AppFullname())

	mongoClient, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to MongoDB")
	}

	pingTimeout := cfg.MongoDB.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err = mongoClient.Ping(ctx, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to ping MongoDB")
	}

	return mongoClient, mongoClient.Database(cfg.MongoDB.Database), nil
}

func initKafka(
	ctx context.Context,
	cfg *config.Config,
) (*kafka.Kafka, *kafka.Config, error) {
	if cfg.Kafka.ConsumerGroup == "" {
		cfg.Kafka.ConsumerGroup = cfg.AppFullname()
	}

	kfCfg := kafka.Config(cfg.Kafka)
	kfkClient, err := kafka.New(ctx, &kfCfg)
	if err != nil {
		return nil, nil, err
	}

	return kfkClient, &kfCfg, nil
}

type itemStore interface {
	Save(ctx context.Context, it item.Item) (*item.Item, error)
	FindByID(ctx context.Context, id string) (*item.Item, error)
	Delete(ctx context.Context, it item.Item) error
}

// storeDeps are the store related dependencies, only the ones of the configured driver are set
type storeDeps struct {
	store       itemStore
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
	closer      func() error
}

func initItemStore(ctx context.Context, cfg *config.Config) (*storeDeps, error) {
	if cfg.Store.Driver == config.StoreDriverStorm {
		sstore, err := item.NewStormPersistentStore(cfg.Store.StormPath)
		if err != nil {
			return nil, err
		}
		return &storeDeps{store: sstore, closer: sstore.Close}, nil
	}

	mongoClient, mongoDB, err := initializeMongoDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mstore, err := item.NewMongoPersistentStore(mongoDB)
	if err != nil {
		return nil, err
	}

	return &storeDeps{
		store:       mstore,
		mongoClient: mongoClient,
		mongoDB:     mongoDB,
		closer: func() error {
			const disconnectTimeout = time.Second * 10
			ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
			defer cancel()
			return mongoClient.Disconnect(ctx)
		},
	}, nil
}
