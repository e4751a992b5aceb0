package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollectors_RegistersEveryFamily(t *testing.T) {
	var c *Collectors
	require.NotPanics(t, func() {
		c = NewCollectors(BuildInfo{Version: "1.2.0", Commit: "abc123", GoVersion: "go1.25"})
	})

	c.Cache.Hits.WithLabelValues("redis").Inc()
	c.Import.RowsProcessed.WithLabelValues("accepted").Add(2)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `commentpulse_build_info{commit="abc123",go_version="go1.25",version="1.2.0"} 1`)
	assert.Contains(t, body, `commentpulse_aggregate_cache_hits_total{layer="redis"} 1`)
	assert.Contains(t, body, `commentpulse_import_rows_total{outcome="accepted"} 2`)
	assert.Contains(t, body, "commentpulse_http_in_flight_requests 0")
	assert.Contains(t, body, "go_goroutines")
}

func TestCollectors_SecondRegistrationConflicts(t *testing.T) {
	c := NewCollectors(BuildInfo{Version: "dev"})

	assert.Panics(t, func() { NewImportMetrics(c.Registry) }, "families are registered once, by NewCollectors")
}

func TestImportMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewImportMetrics(reg)

	m.RowsProcessed.WithLabelValues("accepted").Add(3)
	m.RowsProcessed.WithLabelValues("rejected").Inc()
	m.LabelsAssigned.WithLabelValues("positive", "lexicon").Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsProcessed.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsProcessed.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LabelsAssigned.WithLabelValues("positive", "lexicon")))
}

func TestHTTPMetrics_MiddlewareSkipsHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/api/datasets", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/health/live", "/api/datasets", "/api/datasets"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/datasets", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal), "health route is not recorded")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightGauge))
}

func TestHandler_ServesNamespacedMetrics(t *testing.T) {
	reg := NewRegistry()
	m := NewCacheMetrics(reg)
	m.Hits.WithLabelValues("memory").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `commentpulse_aggregate_cache_hits_total{layer="memory"} 1`))
}

func TestHTTPMetrics_UploadBytes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.POST(UploadRoute, func(c echo.Context) error { return c.NoContent(http.StatusCreated) })
	e.GET("/version", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, UploadRoute, strings.NewReader("content_cleaned\n好看\n")))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, testutil.CollectAndCount(m.UploadBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", UploadRoute, "201")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal), "version route is not recorded")
}
