package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_http_requests_total",
		Help: "Total HTTP requests by method and status",
	}, []string{"method", "status"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_cache_hits_total",
		Help: "Metric cache hits by dataset kind",
	}, []string{"kind"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_cache_misses_total",
		Help: "Metric cache misses by dataset kind",
	}, []string{"kind"})
	CacheWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_cache_writes_total",
		Help: "Metric cache writes by dataset kind and provenance",
	}, []string{"kind", "synthetic"})
	WarehouseQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_warehouse_queries_total",
		Help: "Warehouse queries by operation and status (ok, empty, error, unconfigured)",
	}, []string{"op", "status"})
	WarehouseDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "heatmap_warehouse_query_duration_ms",
		Help:    "Warehouse query duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	}, []string{"op"})
	MockFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_mock_fallbacks_total",
		Help: "Responses served from generated mock data by kind and reason",
	}, []string{"kind", "reason"})
	RefreshRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_refresh_runs_total",
		Help: "Scheduled or manual refresh cycles by status",
	}, []string{"status"})
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "heatmap_warehouse_breaker_state",
		Help: "Warehouse circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})
	APIClientRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_apiclient_requests_total",
		Help: "Outgoing API client requests by path group and status",
	}, []string{"op", "status"})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CacheWritesTotal)
	prometheus.MustRegister(WarehouseQueriesTotal)
	prometheus.MustRegister(WarehouseDurationMs)
	prometheus.MustRegister(MockFallbacksTotal)
	prometheus.MustRegister(RefreshRunsTotal)
	prometheus.MustRegister(BreakerState)
	prometheus.MustRegister(APIClientRequestsTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标，供 Prometheus 抓取；在主入口挂载到 API 前缀下。
func Handler() http.Handler { return promhttp.Handler() }
