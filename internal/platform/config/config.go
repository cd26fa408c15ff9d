package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Lottery   LotteryConfig   `mapstructure:"lottery"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode            string          `mapstructure:"mode"`
	Address         string          `mapstructure:"address"`
	ReadTimeout     time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration   `mapstructure:"writeTimeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdownTimeout"`
	Cors            CorsConfig      `mapstructure:"cors"`
	RateLimit       RateLimitConfig `mapstructure:"rateLimit"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// RateLimitConfig 定义了按客户端IP限流的参数，RequestsPerSecond <= 0 表示关闭限流
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
	Burst             int     `mapstructure:"burst"`
}

// DatabaseConfig 定义了数据库相关的配置
type DatabaseConfig struct {
	Driver string       `mapstructure:"driver"`
	URL    string       `mapstructure:"url"`
	Sqlite SqliteConfig `mapstructure:"sqlite"`
	SSL    SSLConfig    `mapstructure:"ssl"`
	Pool   PoolConfig   `mapstructure:"pool"`
}

// SqliteConfig 定义了开发环境下SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// SSLConfig 对应Postgres连接串中的 sslmode/sslrootcert/sslcert/sslkey
type SSLConfig struct {
	Mode     string `mapstructure:"mode"`
	RootCert string `mapstructure:"rootCert"`
	Cert     string `mapstructure:"cert"`
	Key      string `mapstructure:"key"`
}

// PoolConfig 定义了连接池的参数
type PoolConfig struct {
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

// LotteryConfig 定义了抽奖本身的参数
type LotteryConfig struct {
	Timezone           string `mapstructure:"timezone"`
	WinningAmountMin   int64  `mapstructure:"winningAmountMin"`
	WinningAmountMax   int64  `mapstructure:"winningAmountMax"`
	BallotNumberLength int    `mapstructure:"ballotNumberLength"`
}

// SchedulerConfig 定义了定时开奖与修复任务
type SchedulerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DrawSpec      string        `mapstructure:"drawSpec"`
	ReconcileSpec string        `mapstructure:"reconcileSpec"`
	HealthPeriod  time.Duration `mapstructure:"healthPeriod"`
}

// LogConfig 定义了日志输出
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

// IsProduction 判断当前是否运行在生产环境
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Location 解析配置的时区，"今天"与"昨天"都以该时区计算
func (c LotteryConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("无法加载时区 '%s': %w", c.Timezone, err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", EnvDevelopment)

	v.SetDefault("server.mode", "release")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.readTimeout", 10*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 15*time.Second)
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.rateLimit.requestsPerSecond", 10)
	v.SetDefault("server.rateLimit.burst", 20)

	v.SetDefault("database.driver", DriverSqlite)
	v.SetDefault("database.url", "")
	v.SetDefault("database.sqlite.path", "lottery.db")
	v.SetDefault("database.ssl.mode", "")
	v.SetDefault("database.ssl.rootCert", "")
	v.SetDefault("database.ssl.cert", "")
	v.SetDefault("database.ssl.key", "")
	v.SetDefault("database.pool.maxOpenConns", 50)
	v.SetDefault("database.pool.maxIdleConns", 20)
	v.SetDefault("database.pool.connMaxLifetime", time.Hour)

	v.SetDefault("lottery.timezone", "UTC")
	v.SetDefault("lottery.winningAmountMin", 2)
	v.SetDefault("lottery.winningAmountMax", 100)
	v.SetDefault("lottery.ballotNumberLength", 10)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.drawSpec", "5 0 * * *")
	v.SetDefault("scheduler.reconcileSpec", "@every 10m")
	v.SetDefault("scheduler.healthPeriod", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// 部署环境沿用的扁平环境变量名
var envBindings = map[string]string{
	"env":                   "ENV",
	"database.url":          "DATABASE_URL",
	"database.ssl.mode":     "SSL_MODE",
	"database.ssl.rootCert": "SSL_ROOT_CERT",
	"database.ssl.cert":     "SSL_CERT",
	"database.ssl.key":      "SSL_KEY",
}

// LoadConfig 函数负责查找、加载和解析配置文件
// configFile 为空时在 ./config 与 . 下查找 config.yaml；找不到配置文件时只使用默认值和环境变量
func LoadConfig(configFile string) (*Config, error) {
	// .env 只补充尚未设置的环境变量，文件不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:9090
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("无法绑定环境变量 %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置之间的约束
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSqlite, DriverPostgres:
	default:
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}
	if c.Database.Driver == DriverPostgres && c.Database.URL == "" {
		return errors.New("使用postgres时必须设置 DATABASE_URL")
	}
	if c.Lottery.WinningAmountMin <= 0 || c.Lottery.WinningAmountMax < c.Lottery.WinningAmountMin {
		return fmt.Errorf("中奖金额范围无效: [%d, %d]", c.Lottery.WinningAmountMin, c.Lottery.WinningAmountMax)
	}
	if c.Lottery.BallotNumberLength <= 0 || c.Lottery.BallotNumberLength > 18 {
		return fmt.Errorf("票号长度无效: %d", c.Lottery.BallotNumberLength)
	}
	if _, err := c.Lottery.Location(); err != nil {
		return err
	}
	return nil
}
