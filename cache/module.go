package cache

import (
	"context"

	"github.com/aisgo/ais-edu/cache/redis"
	"github.com/aisgo/ais-edu/logger"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

/* ========================================================================
 * Cache Module
 * ========================================================================
 * 职责: 提供 Redis 客户端依赖注入模块（未启用时注入 nil）
 * ======================================================================== */

// Params Redis 依赖参数
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config redis.Config
	Logger *logger.Logger
}

// Module 缓存模块
// 提供: *goredis.Client
var Module = fx.Module("cache",
	fx.Provide(Provide),
)

// Provide 创建客户端并在停止时关闭
func Provide(p Params) (*goredis.Client, error) {
	rdb, err := redis.NewClient(context.Background(), p.Config, p.Logger)
	if err != nil || rdb == nil {
		return nil, err
	}
	p.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			p.Logger.Info("closing redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}
