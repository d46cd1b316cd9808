// Package metrics 提供 Prometheus 监控指标.
//
// Example:
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.BatchesTotal.WithLabelValues("ok").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/relayvault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// BatchesTotal 批量上传结果，outcome 为 ok、replay 或错误码.
	BatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayvault_batches_total",
			Help: "Batch uploads by outcome",
		},
		[]string{"outcome"},
	)

	// FilesRelayed 成功中继的文件数，按上游媒体类型.
	FilesRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayvault_files_relayed_total",
			Help: "Files confirmed by the upstream relay",
		},
		[]string{"media"},
	)

	// RelayDuration 上游调用耗时.
	RelayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relayvault_relay_duration_seconds",
			Help:    "Upstream relay call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "result"},
	)

	// BackgroundTasks 后台任务结果.
	BackgroundTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayvault_background_tasks_total",
			Help: "Background tasks by name and result",
		},
		[]string{"task", "result"},
	)

	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用无副作用.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	initOnce.Do(func() {
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		registry.MustRegister(
			RequestCounter, RequestDuration, ActiveConnections,
			BatchesTotal, FilesRelayed, RelayDuration, BackgroundTasks,
		)
	})

	return nil
}

// StartMetricsServer 在 engine 上挂载 /metrics（以及可选的 pprof）.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
