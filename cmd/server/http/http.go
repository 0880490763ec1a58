// Package http exposes the item APIs over HTTP/JSON, routed with chi and instrumented with otelhttp.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/naughtygopher/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/prashantkr001/item-service/internal/api"
	"github.com/prashantkr001/item-service/internal/pkg/apm"
	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

type Config struct {
	Host              string
	Port              int
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	EnableAccesslog   bool
}

type HTTP struct {
	locker *sync.Mutex
	server *http.Server
	// apis has all the APIs, and respective HTTP handlers will call using this
	apis              *api.API
	shutdownInitiated bool
	serverStartTime   time.Time
}

func (ht *HTTP) Start() error {
	ht.serverStartTime = time.Now()
	err := ht.server.ListenAndServe()
	if err != nil {
		return errors.Wrap(err, "failed to start http server")
	}

	return nil
}

func (ht *HTTP) Shutdown(ctx context.Context) error {
	ht.locker.Lock()
	defer ht.locker.Unlock()

	ht.shutdownInitiated = true
	err := ht.server.Shutdown(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to shutdown http server")
	}

	return nil
}

func (ht *HTTP) StartedAt() time.Time {
	return ht.serverStartTime
}

type HandlerFuncErr func(w http.ResponseWriter, req *http.Request) error

// ErrorHandler converts the error returned by fn into the respective HTTP status. Message of
// 4xx errors is written as the response body, 5xx responses have an empty body
func (ht *HTTP) ErrorHandler(fn HandlerFuncErr) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		status, message, _ := errors.HTTPStatusCodeMessage(err)
		w.WriteHeader(status)

		if status >= http.StatusInternalServerError {
			logger.ErrorCtx(
				r.Context(),
				errors.Stacktrace(err),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
			return
		}

		_, _ = w.Write([]byte(message))
	}
}

func chiURIPattern(router *chi.Mux, r *http.Request) string {
	// matching on the request's own route context would overwrite it before routing
	cctx := chi.NewRouteContext()
	uriPattern := "unmatched-path"
	if router.Match(cctx, r.Method, r.URL.Path) {
		uriPattern = cctx.RoutePattern()
	}
	return uriPattern
}

// routeLabeler adds the matched route pattern (e.g. /v1/items/{itemID}) to the otelhttp metrics,
// instead of the raw path which would have a unique value per item
func routeLabeler(router *chi.Mux) func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := new(otelhttp.Labeler)
			l.Add(attribute.KeyValue{
				Key:   semconv.HTTPRouteKey,
				Value: attribute.StringValue(chiURIPattern(router, r)),
			})

			h.ServeHTTP(w, r.WithContext(otelhttp.ContextWithLabeler(r.Context(), l)))
		})
	}
}

func accessLog(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		h.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.Info(fmt.Sprintf(
			"%s %s %s %s",
			logger.ColorByStatus(status, fmt.Sprintf("[http]::%d", status)),
			logger.Cyan(r.Method),
			r.URL.Path,
			time.Since(start),
		),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int("bytes", ww.BytesWritten()),
		)
	})
}

func newChiRouter(cfg *Config) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		routeLabeler(router),
		apm.NewHTTPMiddleware(&apm.HTTPOpts{
			OTEL: []otelhttp.Option{
				otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
					return fmt.Sprintf("%s %s", req.Method, chiURIPattern(router, req))
				}),
			},
		}),
	)

	if cfg.EnableAccesslog {
		router.Use(accessLog)
	}

	return router
}

func New(apis *api.API, cfg *Config) *HTTP {
	ht := &HTTP{
		locker: &sync.Mutex{},
		apis:   apis,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}

	router := newChiRouter(cfg)
	ht.itemRoutes(router)
	ht.server.Handler = router

	return ht
}
