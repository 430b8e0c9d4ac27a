package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics Prometheus 指標集合，nil 接收者的方法皆為 no-op
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec
	activeRequests  prometheus.Gauge
	upstreamCalls   *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	cacheOps        *prometheus.CounterVec
}

// New 建立並註冊指標
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		activeRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_requests",
				Help: "Number of active HTTP requests",
			},
		),
		upstreamCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pantrychef",
				Name:      "upstream_calls_total",
				Help:      "Calls to the recipe API and the LLM",
			},
			[]string{"service", "outcome"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pantrychef",
				Name:      "fallbacks_total",
				Help:      "Fallback strategies fired by the orchestrator",
			},
			[]string{"strategy"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pantrychef",
				Name:      "candidates_rejected_total",
				Help:      "Candidates removed from results",
			},
			[]string{"stage"},
		),
		cacheOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pantrychef",
				Name:      "cache_operations_total",
				Help:      "Cache lookups by result",
			},
			[]string{"backend", "result"},
		),
	}

	m.registry.MustRegister(
		m.requestDuration,
		m.requestCount,
		m.activeRequests,
		m.upstreamCalls,
		m.fallbacks,
		m.rejected,
		m.cacheOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry 取得底層 registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler /metrics 端點
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records request metrics
func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusStr := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, statusStr).Observe(duration.Seconds())
	m.requestCount.WithLabelValues(method, path, statusStr).Inc()
}

// RequestStarted 進行中請求 +1，回傳結束時呼叫的函式
func (m *Metrics) RequestStarted() func() {
	if m == nil {
		return func() {}
	}
	m.activeRequests.Inc()
	return m.activeRequests.Dec
}

// UpstreamCall 記錄外部服務呼叫結果
func (m *Metrics) UpstreamCall(service, outcome string) {
	if m == nil {
		return
	}
	m.upstreamCalls.WithLabelValues(service, outcome).Inc()
}

// Fallback 記錄觸發的備援策略
func (m *Metrics) Fallback(strategy string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(strategy).Inc()
}

// Rejected 記錄被移除的候選數
func (m *Metrics) Rejected(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rejected.WithLabelValues(stage).Add(float64(n))
}

// CacheOp 記錄快取查詢
func (m *Metrics) CacheOp(backend, result string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(backend, result).Inc()
}
