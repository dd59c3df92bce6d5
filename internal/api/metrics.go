package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "heatmap"

// Metrics holds the Prometheus collectors of the API.
// It also implements heatmap.Observer.
// ⭐ SSOT: 메트릭 이름은 여기서만 정의
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     prometheus.Counter
	computeDuration *prometheus.HistogramVec
	computeErrors   *prometheus.CounterVec
}

// NewMetrics registers every collector on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Heatmap result cache hits by tier.",
		}, []string{"tier"}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Heatmap results computed because no cache tier had them.",
		}),
		computeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Time to compute one heatmap.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"index"}),
		computeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compute_errors_total",
			Help:      "Failed heatmap computations.",
		}, []string{"index"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.cacheHits,
		m.cacheMisses,
		m.computeDuration,
		m.computeErrors,
	)
	return m
}

// PoolGauge registers a gauge sampled from fn at scrape time
// (connection pool sizes of postgres and redis)
func (m *Metrics) PoolGauge(pool string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "pool_connections",
		Help:        "Open connections per pool.",
		ConstLabels: prometheus.Labels{"pool": pool},
	}, fn))
}

// Handler serves /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency per route template
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		// 경로 변수 대신 템플릿으로 카디널리티 제한
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// CacheHit implements heatmap.Observer
func (m *Metrics) CacheHit(tier string) {
	m.cacheHits.WithLabelValues(tier).Inc()
}

// CacheMiss implements heatmap.Observer
func (m *Metrics) CacheMiss() {
	m.cacheMisses.Inc()
}

// Computed implements heatmap.Observer
func (m *Metrics) Computed(index string, d time.Duration, err error) {
	if err != nil {
		m.computeErrors.WithLabelValues(index).Inc()
		return
	}
	m.computeDuration.WithLabelValues(index).Observe(d.Seconds())
}
