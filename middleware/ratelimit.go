package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aisgo/ais-edu/errors"
	"github.com/aisgo/ais-edu/response"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

/* ========================================================================
 * Rate Limit - 请求限流
 * ========================================================================
 * 存储: memory (单实例) / redis (多实例共享计数)
 * 键:   已认证请求按操作人，其余按客户端 IP
 * ======================================================================== */

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Store   string        `mapstructure:"store"` // memory / redis
	Limit   int64         `mapstructure:"limit"`
	Period  time.Duration `mapstructure:"period"`
	Prefix  string        `mapstructure:"prefix"`
}

// DefaultRateLimitConfig 默认每秒 1000 次
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled: true,
		Store:   "memory",
		Limit:   1000,
		Period:  time.Second,
		Prefix:  "edu:ratelimit",
	}
}

// NewRateLimiter 按配置创建限流器；redis 存储需要传入 client
func NewRateLimiter(cfg RateLimitConfig, client *redis.Client) (*limiter.Limiter, error) {
	def := DefaultRateLimitConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Period <= 0 {
		cfg.Period = def.Period
	}
	if cfg.Prefix == "" {
		cfg.Prefix = def.Prefix
	}
	rate := limiter.Rate{Period: cfg.Period, Limit: cfg.Limit}

	switch cfg.Store {
	case "", "memory":
		return limiter.New(memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          cfg.Prefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), rate), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("rate limit store redis requires a redis client")
		}
		store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: cfg.Prefix})
		if err != nil {
			return nil, fmt.Errorf("create redis limiter store: %w", err)
		}
		return limiter.New(store, rate), nil
	default:
		return nil, fmt.Errorf("unsupported rate limit store %q", cfg.Store)
	}
}

// RateLimit 限流中间件；lim 为 nil 时不限流
func RateLimit(lim *limiter.Limiter) fiber.Handler {
	return func(c fiber.Ctx) error {
		if lim == nil {
			return c.Next()
		}

		res, err := lim.Get(c.Context(), rateLimitKey(c))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "rate limit check failed", err)
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset, 10))

		if res.Reached {
			return response.Message(c, fiber.StatusTooManyRequests, "too many requests")
		}
		return c.Next()
	}
}

func rateLimitKey(c fiber.Ctx) string {
	if actor := ActorFromContext(c); actor != nil {
		return "actor:" + actor.ID
	}
	return "ip:" + c.IP()
}
