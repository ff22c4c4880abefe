package http

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aisgo/ais-edu/logger"
	"github.com/aisgo/ais-edu/metrics"
	"github.com/aisgo/ais-edu/middleware"
	"github.com/aisgo/ais-edu/resource"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	goredis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * HTTP Server - Fiber v3 HTTP 服务器
 * ========================================================================
 * 职责: 挂载资源路由、健康检查与指标端点，随 fx 生命周期启停
 * 中间件顺序: recover → request id → metrics → auth → rate limit
 * ======================================================================== */

// Config HTTP 服务器配置
type Config struct {
	Port               int           `mapstructure:"port"`
	Host               string        `mapstructure:"host"`
	AppName            string        `mapstructure:"app_name"`
	APIPrefix          string        `mapstructure:"api_prefix"`
	BodyLimit          int           `mapstructure:"body_limit"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	HealthCheckTimeout time.Duration `mapstructure:"health_check_timeout"`

	// EnableRecover 是否启用 Panic 恢复中间件，默认 true
	EnableRecover *bool `mapstructure:"enable_recover"`

	Listen ListenOptions `mapstructure:"listen"`
}

// ListenOptions Fiber ListenConfig 中可配置的字段
type ListenOptions struct {
	DisableStartupMessage bool          `mapstructure:"disable_startup_message"`
	EnablePrintRoutes     bool          `mapstructure:"enable_print_routes"`
	ListenerNetwork       string        `mapstructure:"listener_network"` // tcp, tcp4, tcp6，默认 tcp4
	CertFile              string        `mapstructure:"cert_file"`
	CertKeyFile           string        `mapstructure:"cert_key_file"`
	CertClientFile        string        `mapstructure:"cert_client_file"`
	ShutdownTimeout       time.Duration `mapstructure:"shutdown_timeout"`
	UnixSocketFileMode    uint32        `mapstructure:"unix_socket_file_mode"`
	TLSMinVersion         uint16        `mapstructure:"tls_min_version"` // 771 (TLS 1.2), 772 (TLS 1.3)
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.AppName == "" {
		c.AppName = "ais-edu"
	}
	if c.APIPrefix == "" {
		c.APIPrefix = "/api"
	}
	if c.BodyLimit <= 0 {
		c.BodyLimit = 4 * 1024 * 1024
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 120 * time.Second
	}
	if c.HealthCheckTimeout <= 0 {
		c.HealthCheckTimeout = 2 * time.Second
	}
	return c
}

// AppParams 构建 Fiber 应用所需依赖
type AppParams struct {
	fx.In

	Config   Config
	Logger   *logger.Logger
	Registry *resource.Registry
	Auth     middleware.AuthConfig

	DB      *gorm.DB         `optional:"true"` // 就绪检查
	Redis   *goredis.Client  `optional:"true"` // 就绪检查
	Limiter *limiter.Limiter `optional:"true"`
}

// NewApp 创建 Fiber 应用并挂载全部路由
func NewApp(p AppParams) *fiber.App {
	cfg := p.Config.withDefaults()
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorHandler: middleware.NewErrorHandler(log),
	})

	if cfg.EnableRecover == nil || *cfg.EnableRecover {
		app.Use(recoverer.New(recoverer.Config{
			EnableStackTrace: true,
			StackTraceHandler: func(c fiber.Ctx, e any) {
				log.WithContext(c.Context()).Error("panic recovered",
					zap.Any("error", e),
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
				)
			},
		}))
	}
	app.Use(middleware.RequestID())
	app.Use(metrics.HTTPMiddleware())

	registerHealthEndpoints(app, healthChecks(p.DB, p.Redis), cfg.HealthCheckTimeout)
	metrics.RegisterMetricsEndpoint(app)
	app.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "message": cfg.AppName + " API is running"})
	})

	api := app.Group(cfg.APIPrefix,
		middleware.Authenticate(p.Auth, log),
		middleware.RateLimit(p.Limiter),
	)
	if p.Registry != nil {
		MountResources(api, p.Registry)
	}
	return app
}

// ServerParams 服务器生命周期依赖
type ServerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config Config
	Logger *logger.Logger
	App    *fiber.App
}

// RegisterServer 绑定端口并在 fx 停止时优雅关闭
func RegisterServer(p ServerParams) {
	cfg := p.Config.withDefaults()
	app := p.App

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
			listenConfig := buildListenConfig(cfg.Listen)

			// 先绑定端口，绑定失败时启动即失败
			ln, err := createListener(addr, listenConfig)
			if err != nil {
				p.Logger.Error("failed to create http listener", zap.Error(err), zap.String("addr", addr))
				return fmt.Errorf("bind %s: %w", addr, err)
			}

			go func() {
				p.Logger.Info("http server started", zap.String("addr", ln.Addr().String()))
				if err := app.Listener(ln, listenConfig); err != nil {
					p.Logger.Error("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("stopping http server")
			return app.ShutdownWithContext(ctx)
		},
	})
}

// Module HTTP 模块
var Module = fx.Module("http",
	fx.Provide(NewApp),
	fx.Invoke(RegisterServer),
)

// buildListenConfig 根据 ListenOptions 构建 Fiber ListenConfig
func buildListenConfig(opts ListenOptions) fiber.ListenConfig {
	config := fiber.ListenConfig{
		DisableStartupMessage: opts.DisableStartupMessage,
		EnablePrintRoutes:     opts.EnablePrintRoutes,
		CertFile:              opts.CertFile,
		CertKeyFile:           opts.CertKeyFile,
		CertClientFile:        opts.CertClientFile,
		ListenerNetwork:       "tcp4",
	}
	if opts.ListenerNetwork != "" {
		config.ListenerNetwork = opts.ListenerNetwork
	}
	if opts.ShutdownTimeout > 0 {
		config.ShutdownTimeout = opts.ShutdownTimeout
	}
	if opts.UnixSocketFileMode > 0 {
		config.UnixSocketFileMode = os.FileMode(opts.UnixSocketFileMode)
	}
	if opts.TLSMinVersion > 0 {
		config.TLSMinVersion = opts.TLSMinVersion
	}
	return config
}
