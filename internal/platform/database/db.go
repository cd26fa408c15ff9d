package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/config"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 根据配置打开数据库连接并设置连接池
func Open(cfg config.DatabaseConfig, production bool) (*gorm.DB, error) {
	log := logging.WithComponent("database")

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dsn, err := PostgresDSN(cfg, production)
		if err != nil {
			return nil, err
		}
		dialector = postgres.Open(dsn)
	case config.DriverSqlite:
		dialector = sqlite.Open(SqliteDSN(cfg.Sqlite.Path))
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %q", cfg.Driver)
	}

	// GORM日志配置
	gormLogger := logger.New(
		logging.GormWriter{Log: log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接池失败: %w", err)
	}
	if cfg.Driver == config.DriverSqlite && isMemorySqlite(cfg.Sqlite.Path) {
		// 每个内存库连接都是独立的数据库
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	}

	log.Info().Str("driver", cfg.Driver).Msg("数据库连接成功")
	return db, nil
}

// Ping 检查数据库是否可达
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SqliteDSN 为SQLite路径打开外键约束，并让事务在开始时就拿到写锁。
// 多连接下先读后写的事务在升级锁时会直接得到 SQLITE_BUSY，BEGIN IMMEDIATE 则会按 busy_timeout 排队。
func SqliteDSN(path string) string {
	dsn := path
	if !strings.Contains(dsn, "_fk=") && !strings.Contains(dsn, "_foreign_keys=") {
		dsn = appendParam(dsn, "_fk=1")
	}
	if !strings.Contains(dsn, "_txlock=") {
		dsn = appendParam(dsn, "_txlock=immediate")
	}
	return dsn
}

func appendParam(dsn, param string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

func isMemorySqlite(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// PostgresDSN 把SSL配置合并进 DATABASE_URL。
// 生产环境下未指定 sslmode 时强制使用 require。
func PostgresDSN(cfg config.DatabaseConfig, production bool) (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("DATABASE_URL 未设置")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("无法解析 DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("DATABASE_URL 协议无效: %q", u.Scheme)
	}

	q := u.Query()
	mode := cfg.SSL.Mode
	if mode == "" {
		mode = q.Get("sslmode")
	}
	if mode == "" && production {
		mode = "require"
	}
	if mode != "" {
		q.Set("sslmode", mode)
	}
	if cfg.SSL.RootCert != "" {
		q.Set("sslrootcert", cfg.SSL.RootCert)
	}
	if cfg.SSL.Cert != "" {
		q.Set("sslcert", cfg.SSL.Cert)
	}
	if cfg.SSL.Key != "" {
		q.Set("sslkey", cfg.SSL.Key)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
