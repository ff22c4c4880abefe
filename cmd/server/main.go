package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aisgo/ais-edu/audit"
	"github.com/aisgo/ais-edu/cache"
	"github.com/aisgo/ais-edu/conf"
	"github.com/aisgo/ais-edu/database"
	"github.com/aisgo/ais-edu/logger"
	"github.com/aisgo/ais-edu/middleware"
	"github.com/aisgo/ais-edu/mq"
	_ "github.com/aisgo/ais-edu/mq/kafka"
	"github.com/aisgo/ais-edu/resource"
	transporthttp "github.com/aisgo/ais-edu/transport/http"

	goredis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gorm.io/gorm"
)

func main() {
	configDir := flag.String("config", envOr("EDU_CONFIG_DIR", "configs"), "config directory")
	configName := flag.String("name", "config", "config file name without extension")
	flag.Parse()

	cfg, err := conf.Load(*configDir, *configName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fx.New(
		fx.Supply(cfg),
		fx.StopTimeout(30*time.Second),
		fx.WithLogger(func(log *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Logger}
		}),
		conf.Module,
		fx.Provide(
			logger.NewLogger,
			newRecorder,
			newRegistry,
			newLimiter,
		),
		database.Module,
		cache.Module,
		mq.Module,
		transporthttp.Module,
	).Run()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRecorder(db *gorm.DB, producer mq.Producer, cfg audit.Config, log *logger.Logger) *audit.Recorder {
	return audit.NewRecorder(db, producer, cfg, log)
}

func newRegistry(db *gorm.DB, cc conf.ControllerConfig, dbCfg database.Config, rec *audit.Recorder, log *logger.Logger) (*resource.Registry, error) {
	opts := cc.Options()
	opts.Sink = rec
	opts.Logger = log

	reg := resource.NewRegistry(db, opts)
	if err := resource.RegisterAll(reg); err != nil {
		return nil, err
	}
	if dbCfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := reg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return reg, nil
}

// newLimiter 未启用限流时返回 nil
func newLimiter(cfg middleware.RateLimitConfig, rdb *goredis.Client) (*limiter.Limiter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return middleware.NewRateLimiter(cfg, rdb)
}
