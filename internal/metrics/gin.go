package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skillswipe",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API 请求耗时分布（秒），按调用方角色区分 developer/company/admin。",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status", "role"},
	)

	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillswipe",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API 请求总数，未登录请求的 role 为 anonymous。",
		},
		[]string{"method", "path", "status", "role"},
	)

	requestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "skillswipe",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "当前正在处理的 HTTP 请求数量。",
		},
	)
)

// AnonymousRole 是未通过认证的请求使用的 role 标签。
const AnonymousRole = "anonymous"

// GinMiddleware 为 Gin 路由注册 Prometheus 指标采集逻辑。
// roleOf 在 handler 执行后读取，认证中间件写入的角色此时已可见。
func GinMiddleware(roleOf func(*gin.Context) string) gin.HandlerFunc {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestDuration, requestTotal, requestsInFlight)
	})

	return func(c *gin.Context) {
		start := time.Now()
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		role := ""
		if roleOf != nil {
			role = roleOf(c)
		}
		if role == "" {
			role = AnonymousRole
		}
		labels := prometheus.Labels{
			"method": c.Request.Method,
			"path":   path,
			"status": strconv.Itoa(c.Writer.Status()),
			"role":   role,
		}

		requestDuration.With(labels).Observe(time.Since(start).Seconds())
		requestTotal.With(labels).Inc()
	}
}
