// Package metrics provides Prometheus instrumentation for the valuation service.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MarketDataFetches counts provider calls by kind (history, spot) and outcome.
	MarketDataFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valuator_market_data_fetches_total",
		Help: "Market data provider calls",
	}, []string{"kind", "outcome"})

	// MarketDataLatency tracks provider call latency, cache hits included.
	MarketDataLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "valuator_market_data_latency_seconds",
		Help:    "Market data provider call latency in seconds",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"kind"})

	// MarketDataCache counts response cache lookups by result (hit, miss).
	MarketDataCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valuator_market_data_cache_total",
		Help: "Market data response cache lookups",
	}, []string{"result"})

	// PositionsValued counts positions that produced a valuation result.
	PositionsValued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "valuator_positions_valued_total",
		Help: "Positions valued",
	})

	// PositionsSkipped counts malformed positions excluded from a run.
	PositionsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "valuator_positions_skipped_total",
		Help: "Positions skipped for missing ticker or dates",
	})

	// BarrierTags counts recorded barrier status tags by kind (OUT, IN, IN_NAO).
	BarrierTags = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valuator_barrier_tags_total",
		Help: "Barrier status tags recorded on valued legs",
	}, []string{"kind"})

	// RunDuration tracks end-to-end duration of valuation runs.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "valuator_run_duration_seconds",
		Help:    "Valuation run duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valuator_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "valuator_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// TagKind strips the leg index from a barrier tag ("IN_NAO_2" -> "IN_NAO")
func TagKind(tag string) string {
	if i := strings.LastIndex(tag, "_"); i > 0 {
		return tag[:i]
	}
	return tag
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
