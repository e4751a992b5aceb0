package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "commentpulse"

// Collectors is every metric family the dashboard server exports, registered
// on one registry. Adapters receive the member they record into.
type Collectors struct {
	Registry *prometheus.Registry

	HTTP   *HTTPMetrics
	Cache  *CacheMetrics
	Import *ImportMetrics
	Redis  *RedisMetrics
	DB     *DBMetrics
}

// BuildInfo labels the build_info gauge.
type BuildInfo struct {
	Version   string
	Commit    string
	GoVersion string
}

// NewCollectors creates a registry holding the runtime collectors, a
// build_info gauge and the application's own metric families.
func NewCollectors(build BuildInfo) *Collectors {
	reg := NewRegistry()

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information of the running dashboard, always 1.",
	}, []string{"version", "commit", "go_version"})
	info.WithLabelValues(build.Version, build.Commit, build.GoVersion).Set(1)
	reg.MustRegister(info)

	return &Collectors{
		Registry: reg,
		HTTP:     NewHTTPMetrics(reg),
		Cache:    NewCacheMetrics(reg),
		Import:   NewImportMetrics(reg),
		Redis:    NewRedisMetrics(reg),
		DB:       NewDBMetrics(reg),
	}
}

// Handler serves the collectors' registry.
func (c *Collectors) Handler() http.Handler {
	return Handler(c.Registry)
}

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
