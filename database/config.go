package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
)

/* ========================================================================
 * Database Config - 数据库连接配置
 * ========================================================================
 * 职责: 统一描述 sqlite / postgres / mysql 三种驱动的连接参数
 * ======================================================================== */

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config 数据库配置
type Config struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN    string `mapstructure:"dsn"`    // 显式 DSN，优先于分项配置

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"` // postgres
	Schema   string `mapstructure:"schema"`  // postgres search_path
	Charset  string `mapstructure:"charset"` // mysql，默认 utf8mb4
	Loc      string `mapstructure:"loc"`     // mysql 时区，默认 Local
	Path     string `mapstructure:"path"`    // sqlite 文件路径，默认内存库

	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	SlowThreshold time.Duration `mapstructure:"slow_threshold"` // 慢查询阈值，默认 200ms
	LogLevel      string        `mapstructure:"log_level"`      // silent, error, warn, info
	AutoMigrate   bool          `mapstructure:"auto_migrate"`
}

// driverName 返回规范化后的驱动名
func (c Config) driverName() string {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	switch d {
	case "", "sqlite3":
		return DriverSQLite
	case "postgresql", "pg":
		return DriverPostgres
	}
	return d
}

// buildDSN 根据驱动拼装 DSN
func (c Config) buildDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}

	switch c.driverName() {
	case DriverSQLite:
		if c.Path == "" {
			return ":memory:", nil
		}
		return c.Path, nil

	case DriverPostgres:
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
		if c.Schema != "" {
			dsn = fmt.Sprintf("%s search_path=%s", dsn, c.Schema)
		}
		return dsn, nil

	case DriverMySQL:
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		locName := c.Loc
		if locName == "" {
			locName = "Local"
		}
		loc, err := time.LoadLocation(locName)
		if err != nil {
			return "", fmt.Errorf("invalid mysql loc %q: %w", locName, err)
		}

		mc := mysqldriver.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
		mc.DBName = c.DBName
		mc.ParseTime = true
		// 未变化的行也计入 RowsAffected，更新判定依赖该值
		mc.ClientFoundRows = true
		mc.Loc = loc
		mc.Params = map[string]string{"charset": charset}
		return mc.FormatDSN(), nil
	}

	return "", fmt.Errorf("unsupported database driver %q", c.Driver)
}

// sanitizeDSN 隐藏 DSN 中的密码，用于日志输出
func sanitizeDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
		return u.String()
	}

	// key=value 形式 (postgres)
	if strings.Contains(dsn, "password=") {
		parts := strings.Fields(dsn)
		for i, p := range parts {
			if strings.HasPrefix(p, "password=") {
				parts[i] = "password=***"
			}
		}
		return strings.Join(parts, " ")
	}

	// user:pass@tcp(...) 形式 (mysql)
	if cfg, err := mysqldriver.ParseDSN(dsn); err == nil && cfg.Passwd != "" {
		cfg.Passwd = "***"
		return cfg.FormatDSN()
	}
	return dsn
}
