package http

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/aisgo/ais-edu/cache/redis"

	"github.com/gofiber/fiber/v3"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

/* ========================================================================
 * Health Check Endpoints
 * ========================================================================
 * /healthz - 存活探针，进程能响应即返回 200
 * /readyz  - 就绪探针，检查数据库与 redis
 * ======================================================================== */

// checkFunc 单项依赖检查
type checkFunc func(ctx context.Context) error

func healthChecks(db *gorm.DB, rdb *goredis.Client) map[string]checkFunc {
	checks := make(map[string]checkFunc)
	if db != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redis.Ping(ctx, rdb)
		}
	}
	return checks
}

func registerHealthEndpoints(app *fiber.App, checks map[string]checkFunc, timeout time.Duration) {
	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	app.Get("/readyz", func(c fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), timeout)
		defer cancel()

		results := make(map[string]string, len(checks)+2)
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = "error: " + err.Error()
				healthy = false
				continue
			}
			results[name] = "ok"
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		results["memory_alloc_mb"] = fmt.Sprintf("%.2f", float64(m.Alloc)/1024/1024)
		results["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

		status, code := "ok", fiber.StatusOK
		if !healthy {
			status, code = "unhealthy", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
			"checks": results,
		})
	})
}
