package database

import (
	"context"
	"fmt"
	"time"

	"github.com/aisgo/ais-edu/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

/* ========================================================================
 * Database - 关系型数据库连接
 * ========================================================================
 * 职责: 按驱动打开 GORM 连接，配置连接池与日志
 * 技术: gorm.io/driver/{sqlite,postgres,mysql}
 * ======================================================================== */

// NewDB 初始化数据库连接
func NewDB(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	dsn, err := cfg.buildDSN()
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch cfg.driverName() {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{DSN: dsn})
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormLog := NewZapGormLogger(log.Logger,
		WithSlowThreshold(cfg.SlowThreshold),
		WithLogLevel(cfg.LogLevel),
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// 唯一约束冲突等驱动错误统一转换为 gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s (%s): %w", cfg.driverName(), sanitizeDSN(dsn), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 10
	}
	maxOpenConns := cfg.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 25
	}
	connMaxLifetime := cfg.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 1 * time.Hour
	}
	connMaxIdleTime := cfg.ConnMaxIdleTime
	if connMaxIdleTime <= 0 {
		connMaxIdleTime = 20 * time.Minute
	}

	// 内存 sqlite 每个连接是独立库，只能保留单连接
	if cfg.driverName() == DriverSQLite && cfg.Path == "" && cfg.DSN == "" {
		maxOpenConns = 1
		maxIdleConns = 1
		connMaxLifetime = 0
		connMaxIdleTime = 0
	}

	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	log.Info("database connected",
		zap.String("driver", cfg.driverName()),
		zap.String("dsn", sanitizeDSN(dsn)),
	)
	return db, nil
}

// ========================================================================
// FX Module
// ========================================================================

// Params 依赖注入参数
type Params struct {
	fx.In
	Lc     fx.Lifecycle
	Config Config
	Logger *logger.Logger
}

// NewDBWithLifecycle 创建连接并在应用停止时关闭
func NewDBWithLifecycle(p Params) (*gorm.DB, error) {
	db, err := NewDB(p.Config, p.Logger)
	if err != nil {
		return nil, err
	}

	p.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			p.Logger.Info("Closing database connection")
			return sqlDB.Close()
		},
	})
	return db, nil
}

// Module 数据库模块
// 提供: *gorm.DB
var Module = fx.Module("database",
	fx.Provide(NewDBWithLifecycle),
)
