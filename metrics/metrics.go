package metrics

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

/* ========================================================================
 * Prometheus Metrics - 可观测性指标
 * ========================================================================
 * 职责: 提供 Prometheus 指标注册和暴露
 * 指标: HTTP 请求 / 资源操作 / 数据库语句 / 审计写入
 * ======================================================================== */

var (
	// HTTPRequestDuration HTTP 请求延迟
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edu",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestTotal HTTP 请求总数
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edu",
			Subsystem: "http",
			Name:      "request_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ResourceOperationTotal 资源操作次数
	ResourceOperationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edu",
			Subsystem: "resource",
			Name:      "operation_total",
			Help:      "Total number of generic resource operations",
		},
		[]string{"collection", "operation", "outcome"}, // outcome: ok, invalid, not_found, error
	)

	// ResourceOperationDuration 资源操作耗时
	ResourceOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edu",
			Subsystem: "resource",
			Name:      "operation_duration_seconds",
			Help:      "Generic resource operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"collection", "operation"},
	)

	// DBQueryDuration 数据库语句耗时
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edu",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"}, // select, insert, update, delete, other
	)

	// AuditRecordTotal 审计记录写入结果
	AuditRecordTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edu",
			Subsystem: "audit",
			Name:      "record_total",
			Help:      "Total number of audit history writes",
		},
		[]string{"collection", "result"}, // result: stored, failed, published, publish_failed
	)
)

// RegisterMetricsEndpoint 注册 /metrics 端点
func RegisterMetricsEndpoint(app *fiber.App) {
	// 使用 fasthttpadaptor 将 promhttp.Handler 适配到 Fiber
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c fiber.Ctx) error {
		handler(c.RequestCtx())
		return nil
	})
}

// ObserveOperation 记录一次资源操作
func ObserveOperation(collection, operation, outcome string, elapsed time.Duration) {
	ResourceOperationTotal.WithLabelValues(collection, operation, outcome).Inc()
	ResourceOperationDuration.WithLabelValues(collection, operation).Observe(elapsed.Seconds())
}

// ObserveQuery 按语句类型记录数据库耗时
func ObserveQuery(sql string, elapsed time.Duration) {
	DBQueryDuration.WithLabelValues(statementKind(sql)).Observe(elapsed.Seconds())
}

func statementKind(sql string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(sql), " ")
	switch v := strings.ToLower(verb); v {
	case "select", "insert", "update", "delete":
		return v
	}
	return "other"
}
