package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/naughtygopher/proberesponder"
	proberespHTTP "github.com/naughtygopher/proberesponder/extensions/http"

	"github.com/prashantkr001/item-service/cmd/server/grpc"
	xhttp "github.com/prashantkr001/item-service/cmd/server/http"
	kafkaSubs "github.com/prashantkr001/item-service/cmd/subscriber/kafka"
	"github.com/prashantkr001/item-service/internal/api"
	"github.com/prashantkr001/item-service/internal/config"
	"github.com/prashantkr001/item-service/internal/item"
	"github.com/prashantkr001/item-service/internal/pkg/kafka"
	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

// services are all the long running APIs/workers of the app, and their dependencies
type services struct {
	stores      *storeDeps
	kafkaClient *kafka.Kafka
	hserver     *xhttp.HTTP
	gserver     *grpc.GRPC
	ksub        *kafkaSubs.Kafka
	// stopRelay is nil when the change relay is disabled
	stopRelay func()
}

func startItemHTTPServer(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	fatalErr chan<- error,
	apis *api.API,
	cfg *xhttp.Config,
) (*xhttp.HTTP, error) { //nolint:unparam,nolintlint
	itemServer := xhttp.New(apis, cfg)
	go func() {
		defer logger.InfoCtx(ctx, fmt.Sprintf("[http] %s:%d shutdown complete", cfg.Host, cfg.Port))
		logger.InfoCtx(ctx, fmt.Sprintf("[http] listening on %s:%d", cfg.Host, cfg.Port))
		pResp.AppendHealthResponse(
			"http/itemserver",
			fmt.Sprintf("OK: %s", time.Now().Format(time.RFC3339)),
		)
		fatalErr <- itemServer.Start()
	}()

	return itemServer, nil
}

func startItemGrpcServer(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	fatalErr chan<- error,
	apis *api.API,
	cfg *grpc.Config,
) (*grpc.GRPC, error) {
	itemServer, err := grpc.New(apis, cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		defer logger.InfoCtx(ctx, fmt.Sprintf("[grpc] %s:%d shutdown complete", cfg.Host, cfg.Port))
		logger.InfoCtx(ctx, fmt.Sprintf("[grpc] listening on %s:%d", cfg.Host, cfg.Port))
		pResp.AppendHealthResponse(
			"grpc/itemserver",
			fmt.Sprintf("OK: %s", time.Now().Format(time.RFC3339)),
		)
		fatalErr <- itemServer.Start()
	}()

	return itemServer, nil
}

func startHealthResponder(
	ctx context.Context,
	ps *proberesponder.ProbeResponder,
	fatalErr chan<- error,
) (*http.Server, error) { //nolint:unparam,nolintlint
	const port = uint16(2000)
	srv := proberespHTTP.Server(ps, "", port)
	go func() {
		defer logger.InfoCtx(ctx, fmt.Sprintf("[http/healthresponder] :%d shutdown complete", port))
		logger.InfoCtx(ctx, fmt.Sprintf("[http/healthresponder] listening on :%d", port))
		fatalErr <- srv.ListenAndServe()
	}()
	return srv, nil
}

func startItemSubscriber(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	fatalErr chan<- error,
	kafkaClient *kafka.Kafka,
	cfg *kafkaSubs.Config,
) (*kafkaSubs.Kafka, error) {
	ksub, err := kafkaSubs.NewService(kafkaClient, cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		logger.InfoCtx(
			ctx,
			fmt.Sprintf("[kafka] subscribing to topic(s): '%v'", cfg.TopicsItemChange),
		)
		pResp.AppendHealthResponse(
			"kafka/subscriber",
			fmt.Sprintf("OK: %s", time.Now().Format(time.RFC3339)),
		)
		fatalErr <- ksub.Subscribe(context.Background())
	}()

	return ksub, nil
}

// startItemChangeRelay starts streaming item changes from MongoDB to Kafka. The returned func
// stops the relay and blocks until it has exited
func startItemChangeRelay(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	fatalErr chan<- error,
	cfg *config.Config,
	stores *storeDeps,
	kafkaClient *kafka.Kafka,
) (func(), error) {
	pub, err := item.NewKafkaChangePublisher(
		kafkaClient,
		cfg.ChangeRelay.Topic,
		item.ChangeSource{
			Name:       cfg.ChangeRelay.SourceName,
			DB:         cfg.MongoDB.Database,
			Collection: item.CollectionName,
		},
	)
	if err != nil {
		return nil, err
	}

	relay, err := item.NewChangeRelay(stores.mongoDB, pub)
	if err != nil {
		return nil, err
	}

	rctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer logger.InfoCtx(ctx, "[change-relay] stopped")
		logger.InfoCtx(ctx, fmt.Sprintf("[change-relay] publishing item changes to '%s'", cfg.ChangeRelay.Topic))
		pResp.AppendHealthResponse(
			"mongodb/change-relay",
			fmt.Sprintf("OK: %s", time.Now().Format(time.RFC3339)),
		)
		err := relay.Run(rctx)
		if err != nil {
			fatalErr <- err
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func startServices(
	ctx context.Context,
	pResp *proberesponder.ProbeResponder,
	fatalErr chan<- error,
	cfg *config.Config,
	svcs *services,
	apiService *api.API,
) (err error) {
	svcs.ksub, err = startItemSubscriber(
		ctx,
		pResp,
		fatalErr,
		svcs.kafkaClient,
		&kafkaSubs.Config{TopicsItemChange: cfg.Kafka.Topics},
	)
	if err != nil {
		return err
	}

	hConfig := xhttp.Config(cfg.HTTP)
	hConfig.EnableAccesslog = isDevelopment(cfg)
	svcs.hserver, err = startItemHTTPServer(ctx, pResp, fatalErr, apiService, &hConfig)
	if err != nil {
		return err
	}

	gcfg := grpc.Config(cfg.GRPC)
	gcfg.EnableAccesslog = isDevelopment(cfg)
	svcs.gserver, err = startItemGrpcServer(ctx, pResp, fatalErr, apiService, &gcfg)
	if err != nil {
		return err
	}

	if !cfg.ChangeRelay.Enabled {
		return nil
	}

	svcs.stopRelay, err = startItemChangeRelay(ctx, pResp, fatalErr, cfg, svcs.stores, svcs.kafkaClient)
	if err != nil {
		return err
	}

	return nil
}

func start(
	ctx context.Context,
	cfg *config.Config,
	probestatus *proberesponder.ProbeResponder,
	fatalErr chan<- error,
) *services {
	err := initAPM(ctx, cfg)
	if err != nil {
		panic(err)
	}

	svcs := &services{}
	svcs.stores, err = initItemStore(ctx, cfg)
	if err != nil {
		panic(err)
	}

	svcs.kafkaClient, _, err = initKafka(ctx, cfg)
	if err != nil {
		panic(err)
	}

	itemService, err := item.NewService(svcs.stores.store)
	if err != nil {
		panic(err)
	}

	apiService := api.NewService(itemService)

	err = startServices(
		ctx,
		probestatus,
		fatalErr,
		cfg,
		svcs,
		apiService,
	)
	if err != nil {
		panic(err)
	}

	return svcs
}
