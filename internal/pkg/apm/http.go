package apm

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// internalPathPrefix is the prefix of the endpoints which are not part of the app's API,
// e.g. /-/metrics. Requests to these are not traced
const internalPathPrefix = "/-/"

type HTTPOpts struct {
	// OperationName is the span name used when no span name formatter is provided
	OperationName string
	OTEL          []otelhttp.Option
}

type HTTPMiddleware func(h http.Handler) http.Handler

func skipInternalPaths(req *http.Request) bool {
	return !strings.HasPrefix(req.URL.Path, internalPathPrefix)
}

// NewHTTPMiddleware returns the otelhttp middleware using the global providers. hopts.OTEL are
// applied after the defaults, so they can override them
func NewHTTPMiddleware(hopts *HTTPOpts) HTTPMiddleware {
	if hopts == nil {
		hopts = &HTTPOpts{}
	}

	gb := Global()
	opts := make([]otelhttp.Option, 0, len(hopts.OTEL)+3)
	opts = append(
		opts,
		otelhttp.WithMeterProvider(gb.GetMeterProvider()),
		otelhttp.WithTracerProvider(gb.GetTracerProvider()),
		otelhttp.WithFilter(skipInternalPaths),
	)
	opts = append(opts, hopts.OTEL...)

	opName := hopts.OperationName
	if opName == "" {
		opName = "otelhttp"
	}

	return otelhttp.NewMiddleware(opName, opts...)
}
