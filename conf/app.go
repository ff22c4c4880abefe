package conf

import (
	"fmt"
	"time"

	"github.com/aisgo/ais-edu/audit"
	"github.com/aisgo/ais-edu/cache/redis"
	"github.com/aisgo/ais-edu/database"
	"github.com/aisgo/ais-edu/logger"
	"github.com/aisgo/ais-edu/middleware"
	"github.com/aisgo/ais-edu/mq"
	"github.com/aisgo/ais-edu/resource"
	transporthttp "github.com/aisgo/ais-edu/transport/http"

	"go.uber.org/fx"
)

// ControllerConfig 资源控制器配置
type ControllerConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	MaxLimit        int           `mapstructure:"max_limit"`
	ProtectedFields []string      `mapstructure:"protected_fields"` // 追加到内置受保护字段
}

// Options 转换为控制器选项
func (c ControllerConfig) Options() resource.Options {
	p := resource.DefaultPaginator()
	if c.DefaultLimit > 0 {
		p.DefaultLimit = c.DefaultLimit
	}
	if c.MaxLimit > 0 {
		p.MaxLimit = c.MaxLimit
	}
	return resource.Options{
		Timeout:   c.Timeout,
		Paginator: p,
		Guard:     resource.NewGuard(c.ProtectedFields...),
	}
}

// AppConfig 应用配置
type AppConfig struct {
	Server     transporthttp.Config       `mapstructure:"server"`
	Database   database.Config            `mapstructure:"database"`
	Logger     logger.Config              `mapstructure:"logger"`
	Controller ControllerConfig           `mapstructure:"controller"`
	Auth       middleware.AuthConfig      `mapstructure:"auth"`
	RateLimit  middleware.RateLimitConfig `mapstructure:"rate_limit"`
	Redis      redis.Config               `mapstructure:"redis"`
	Audit      audit.Config               `mapstructure:"audit"`
	MQ         mq.Config                  `mapstructure:"mq"`
}

// Default 返回默认配置：sqlite 内存库、不外发、不校验身份头
func Default() *AppConfig {
	return &AppConfig{
		Server: transporthttp.Config{Port: 8080, AppName: "ais-edu", APIPrefix: "/api"},
		Database: database.Config{
			Driver:      database.DriverSQLite,
			LogLevel:    "warn",
			AutoMigrate: true,
		},
		Logger:     logger.Config{Level: "info", Format: "json", Output: "stdout"},
		Controller: ControllerConfig{Timeout: resource.DefaultTimeout},
		RateLimit:  middleware.DefaultRateLimitConfig(),
		Audit:      audit.DefaultConfig(),
		MQ:         *mq.DefaultConfig(),
	}
}

// Load 读取 <dir>/<name>.yaml 并叠加 EDU_ 环境变量
func Load(dir, name string) (*AppConfig, error) {
	cfg := Default()
	if err := NewLoader(dir, name, "yaml").Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 启动前校验
func (c *AppConfig) Validate() error {
	if err := logger.ValidateConfig(c.Logger); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Auth.Enabled && c.Auth.Secret == "" && len(c.Auth.Secrets) == 0 {
		return fmt.Errorf("auth is enabled but no secret is configured")
	}
	if c.RateLimit.Enabled && c.RateLimit.Store == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("rate_limit.store=redis requires redis.enabled")
	}
	switch c.MQ.Type {
	case "", mq.TypeNone:
	case mq.TypeKafka:
		if c.MQ.Kafka == nil || len(c.MQ.Kafka.Brokers) == 0 {
			return fmt.Errorf("mq.kafka.brokers is required for kafka")
		}
	default:
		return fmt.Errorf("unsupported mq type %q", c.MQ.Type)
	}
	if c.Audit.Publish && (c.MQ.Type == "" || c.MQ.Type == mq.TypeNone) {
		return fmt.Errorf("audit.publish requires an mq type")
	}
	return nil
}

// Module 将各分项配置提供给 fx
var Module = fx.Module("conf",
	fx.Provide(
		func(c *AppConfig) transporthttp.Config { return c.Server },
		func(c *AppConfig) database.Config { return c.Database },
		func(c *AppConfig) logger.Config { return c.Logger },
		func(c *AppConfig) ControllerConfig { return c.Controller },
		func(c *AppConfig) middleware.AuthConfig { return c.Auth },
		func(c *AppConfig) middleware.RateLimitConfig { return c.RateLimit },
		func(c *AppConfig) redis.Config { return c.Redis },
		func(c *AppConfig) audit.Config { return c.Audit },
		func(c *AppConfig) *mq.Config { return &c.MQ },
	),
)
