package metrics

import (
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/aisgo/ais-edu/errors"

	"github.com/gofiber/fiber/v3"
)

// skipPaths 探针与指标端点不计入请求指标
var skipPaths = map[string]bool{
	"/metrics": true,
	"/healthz": true,
	"/readyz":  true,
}

// HTTPMiddleware 按 method / 路由模板 / 状态码记录请求数与耗时
// 路由模板形如 /api/routes/:id，避免文档 ID 撑爆标签基数
func HTTPMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if skipPaths[c.Path()] {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}

		path := "unmatched"
		if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
			path = strings.TrimSuffix(route.Path, "/")
		} else if c.Path() == "/" {
			path = "/"
		}

		label := strconv.Itoa(status)
		HTTPRequestTotal.WithLabelValues(c.Method(), path, label).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), path, label).Observe(time.Since(start).Seconds())
		return err
	}
}

// statusOf 错误尚未经 ErrorHandler 写出时推断最终状态码
func statusOf(err error) int {
	var fe *fiber.Error
	if stderrors.As(err, &fe) {
		return fe.Code
	}
	status, _ := errors.HTTPStatus(err)
	return status
}
