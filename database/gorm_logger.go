package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aisgo/ais-edu/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

/* ========================================================================
 * ZapGormLogger - GORM 日志适配
 * ========================================================================
 * 职责: 将 GORM SQL 日志输出到 Zap，标记慢查询
 * ======================================================================== */

// ZapGormLogger 实现 gorm/logger.Interface
type ZapGormLogger struct {
	log           *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewZapGormLogger 创建 GORM 日志适配器
func NewZapGormLogger(log *zap.Logger, opts ...GormLoggerOption) *ZapGormLogger {
	l := &ZapGormLogger{
		log:           log.WithOptions(zap.AddCallerSkip(3)),
		level:         gormlogger.Warn,
		slowThreshold: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GormLoggerOption 日志适配器选项
type GormLoggerOption func(*ZapGormLogger)

// WithSlowThreshold 设置慢查询阈值
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(l *ZapGormLogger) {
		if d > 0 {
			l.slowThreshold = d
		}
	}
}

// WithLogLevel 按名称设置日志级别 (silent, error, warn, info)
func WithLogLevel(name string) GormLoggerOption {
	return func(l *ZapGormLogger) {
		switch strings.ToLower(name) {
		case "silent":
			l.level = gormlogger.Silent
		case "error":
			l.level = gormlogger.Error
		case "warn", "":
			l.level = gormlogger.Warn
		case "info":
			l.level = gormlogger.Info
		}
	}
}

// LogMode 返回指定级别的副本
func (l *ZapGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *ZapGormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *ZapGormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *ZapGormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.log.Error(fmt.Sprintf(msg, args...))
	}
}

// Trace 记录单条 SQL 并上报耗时；RecordNotFound 不视为错误
func (l *ZapGormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	metrics.ObserveQuery(sql, elapsed)

	if l.level <= gormlogger.Silent {
		return
	}

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.log.Error("gorm query failed",
			zap.Error(err),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
		)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		l.log.Warn("gorm slow query",
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", l.slowThreshold),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
		)
	case l.level >= gormlogger.Info:
		l.log.Debug("gorm query",
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
		)
	}
}
