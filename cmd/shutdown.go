package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/naughtygopher/proberesponder"

	"github.com/prashantkr001/item-service/internal/pkg/apm"
	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

// shutdownStep runs fn in a goroutine, and records its start & completion in the health response
func shutdownStep(
	wgroup *sync.WaitGroup,
	pResp *proberesponder.ProbeResponder,
	name string,
	fn func(),
) {
	wgroup.Add(1)
	go func() {
		defer func() {
			wgroup.Done()
			pResp.AppendHealthResponse(
				"shutdown/"+name,
				fmt.Sprintf("completed %s", time.Now().Format(time.RFC3339)),
			)
		}()
		pResp.AppendHealthResponse(
			"shutdown/"+name,
			fmt.Sprintf("initiated %s", time.Now().Format(time.RFC3339)),
		)
		fn()
	}()
}

func shutdown(
	pResp *proberesponder.ProbeResponder,
	healthResp *http.Server,
	svcs *services,
	apmHandler *apm.APM,
) {
	// the time should be decided based on the K8s grace period allowed for shutdown
	// ref: terminationGracePeriodSeconds, https://kubernetes.io/docs/concepts/containers/container-lifecycle-hooks/
	const shutdownTimeout = time.Second * 60
	pResp.AppendHealthResponse("shutdown", fmt.Sprintf("initiated %s", time.Now().Format(time.RFC3339)))
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	/*
		Note: Though there is no mandate to do healthcheck via HTTP, it is important to keep healthcheck
		endpoint available as long as possible to provide Kubernetes probes as much context as possible.
		Especially during the graceful shutdown period. Hence an independent server is used for
		health checks alone.
	*/
	defer func() {
		_ = healthResp.Shutdown(ctx)
	}()

	wgroup := &sync.WaitGroup{}

	shutdownAPIs(ctx, wgroup, pResp, svcs)

	// dependencies (database, APM etc.) are closed only after the APIs are shutdown completely
	shutdownDependencies(ctx, wgroup, pResp, svcs, apmHandler)

	wgroup.Wait()
}

func shutdownAPIs(
	ctx context.Context,
	wgroup *sync.WaitGroup,
	pResp *proberesponder.ProbeResponder,
	svcs *services,
) {
	shutdownStep(wgroup, pResp, "http-itemserver", func() {
		err := svcs.hserver.Shutdown(ctx)
		if err != nil {
			logger.ErrWithStacktrace(err)
		}
	})

	shutdownStep(wgroup, pResp, "grpc-itemserver", svcs.gserver.Shutdown)

	if svcs.stopRelay != nil {
		shutdownStep(wgroup, pResp, "change-relay", svcs.stopRelay)
	}

	wgroup.Wait()

	// the subscriber closes the Kafka client, which the relay publishes with. So it has to be last
	shutdownStep(wgroup, pResp, "kafka-subscriber", func() {
		err := svcs.ksub.Shutdown(ctx)
		if err != nil {
			logger.ErrWithStacktrace(err)
		}
	})

	wgroup.Wait()
}

func shutdownDependencies(
	ctx context.Context,
	wgroup *sync.WaitGroup,
	pResp *proberesponder.ProbeResponder,
	svcs *services,
	apmHandler *apm.APM,
) {
	shutdownStep(wgroup, pResp, "item-store", func() {
		err := svcs.stores.closer()
		if err != nil {
			logger.ErrWithStacktrace(err)
		}
	})

	shutdownStep(wgroup, pResp, "apm-server", func() {
		err := apmHandler.Shutdown(ctx)
		if err != nil {
			logger.ErrWithStacktrace(err)
		}
	})
}
