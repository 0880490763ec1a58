package apm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/naughtygopher/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.uber.org/zap"

	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

const metricsPath = internalPathPrefix + "metrics"

func prometheusExporter() (*prometheus.Exporter, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, errors.Wrap(err, "promexporter.New")
	}

	return exporter, nil
}

func newPrometheusScraper(port uint16) *http.Server {
	const readTimeout = time.Second * 5
	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.Handler())
	return &http.Server{
		Handler:           mux,
		Addr:              fmt.Sprintf(":%d", port),
		ReadHeaderTimeout: readTimeout,
	}
}

// startPrometheusScraper serves the metrics in the background, the returned func stops the server
func startPrometheusScraper(port uint16) func(ctx context.Context) error {
	server := newPrometheusScraper(port)
	go func() {
		logger.Info(
			"[http/otel] starting prometheus scrape endpoint",
			zap.String("addr", fmt.Sprintf("localhost:%d%s", port, metricsPath)),
		)

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(
				"[http/otel] failed to serve metrics",
				zap.Error(err),
				zap.Uint16("port", port),
			)
		}
	}()

	return func(ctx context.Context) error {
		err := server.Shutdown(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to shutdown prometheus scraper")
		}
		return nil
	}
}
