package apm

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopOption(t *testing.T) {
	asserter := assert.New(t)
	requirer := require.New(t)

	asserter.NotNil(Global())

	ins, err := New(t.Context(), &Options{})
	requirer.NoError(err)
	asserter.NotNil(ins)

	requirer.NoError(ins.Shutdown(t.Context()))
	assert.NotNil(t, Global().AppTracer())
	assert.NotNil(t, Global().AppMeter())
}

func TestTraceExporter(t *testing.T) {
	asserter := assert.New(t)
	requirer := require.New(t)

	exp, err := traceExporter(t.Context(), &Options{})
	requirer.NoError(err)
	asserter.Nil(exp)

	for _, collector := range []string{"http://localhost:4318", "localhost:4317"} {
		exp, err = traceExporter(t.Context(), &Options{CollectorURL: collector})
		requirer.NoError(err, collector)
		asserter.NotNil(exp, collector)
		_ = exp.Shutdown(t.Context())
	}

	exp, err = traceExporter(t.Context(), &Options{UseStdOut: true})
	requirer.NoError(err)
	asserter.NotNil(exp)
}

func TestHTTPMiddleware(t *testing.T) {
	mw := NewHTTPMiddleware(nil)
	called := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called++
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, path := range []string{"/v1/items/abc", metricsPath} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
	}
	assert.Equal(t, 2, called)

	assert.True(t, skipInternalPaths(httptest.NewRequest(http.MethodGet, "/v1/items", nil)))
	assert.False(t, skipInternalPaths(httptest.NewRequest(http.MethodGet, metricsPath, nil)))
}

func TestPrometheusScraper(t *testing.T) {
	srv := newPrometheusScraper(9090)
	assert.Equal(t, ":9090", srv.Addr)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, metricsPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
