// Package main starts the item service: HTTP & gRPC APIs, the item change subscriber and
// optionally the MongoDB change relay. It's also where all the dependencies are initialized.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/naughtygopher/errors"
	"github.com/naughtygopher/proberesponder"
	"github.com/naughtygopher/proberesponder/extensions/depprober"

	"github.com/prashantkr001/item-service/internal/config"
	"github.com/prashantkr001/item-service/internal/pkg/apm"
	"github.com/prashantkr001/item-service/internal/pkg/logger"
	"github.com/prashantkr001/item-service/internal/pkg/sysignals"
)

// errExit is the error which caused the app to exit, read by recoverer to decide the exit code
var errExit error

// recoverer handles panics of main (not of the HTTP/gRPC handlers), so that the reason of
// every exit is logged
func recoverer() {
	exitCode := 0
	var exitInfo any
	rec := recover()
	err, _ := rec.(error)
	switch {
	case err != nil:
		exitCode = 1
		exitInfo = err
	case rec != nil:
		exitCode = 2
		exitInfo = rec
	case errExit != nil:
		exitCode = 3
		exitInfo = errExit
	}

	// a quit signal is a clean exit
	if errors.Is(errExit, sysignals.ErrSigQuit) {
		exitCode = 0
	}

	if exitCode == 0 {
		logger.Info(fmt.Sprintf("shutdown complete: %+v", exitInfo))
	} else {
		logger.Error(fmt.Sprintf("shutdown complete (exit: %d): %+v", exitCode, exitInfo))
	}

	os.Exit(exitCode)
}

// gracefulShutdown marks the app as not ready, waits for the orchestrator to notice it and only
// then shuts down all the services
func gracefulShutdown(
	probestatus *proberesponder.ProbeResponder,
	depProbeStopper depprober.Stopper,
	healthResponder *http.Server,
	svcs *services,
) {
	probestatus.SetNotReady(true)
	probestatus.SetNotStarted(true)
	probestatus.SetNotLive(true)

	depProbeStopper.Stop()

	probestatus.AppendHealthResponse(
		"shutdown",
		fmt.Sprintf("initiated: %s", time.Now().Format(time.RFC3339)),
	)

	/*
		Kubernetes detects the readiness change only on its next probe, and keeps routing requests
		until then. The pause has to be longer than the readiness probe interval (assumed 2 seconds),
		else requests arriving in between would be rejected.
	*/
	const k8sProbeInterval = time.Second * 3
	time.Sleep(k8sProbeInterval)

	logger.Info("initiating shutdown")
	shutdown(probestatus, healthResponder, svcs, apm.Global())
}

func main() {
	defer recoverer()

	var (
		ctx      = context.Background()
		fatalErr = make(chan error, 1)
		// all probe responses are negative until the services are started
		probestatus = proberesponder.New()
	)

	healthResponder, err := startHealthResponder(ctx, probestatus, fatalErr)
	if err != nil {
		panic(err)
	}

	go sysignals.NotifyErrorOnQuit(fatalErr)

	// an optional YAML config file can be provided, env variables are used otherwise
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"), os.Getenv("CONFIG_NAME"))
	if err != nil {
		panic(err)
	}
	ctx = context.WithValue(ctx, CtxKeyEnv, cfg.Environment)

	probestatus.AppendHealthResponse("app->version", cfg.AppFullname())
	probestatus.AppendHealthResponse("app->built", cfg.AppBuildDate)
	probestatus.AppendHealthResponse("app->store", cfg.Store.Driver)

	initLogger(cfg)

	svcs := start(ctx, cfg, probestatus, fatalErr)

	const probeInterval = time.Second * 30
	depProbeStopper := healthStatus(
		probeInterval,
		probestatus,
		svcs.stores.mongoClient,
		svcs.kafkaClient,
	)

	defer gracefulShutdown(probestatus, depProbeStopper, healthResponder, svcs)

	probestatus.SetNotStarted(false)
	probestatus.SetNotReady(false)
	probestatus.SetNotLive(false)

	errExit = <-fatalErr
}
