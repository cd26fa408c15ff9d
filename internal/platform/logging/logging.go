package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Logger is the global logger instance
	Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Config holds logging configuration
type Config struct {
	Level      string
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent creates a child logger with component field
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// GormWriter 把gorm logger的输出转发到zerolog
type GormWriter struct {
	Log zerolog.Logger
}

// Printf 实现 gorm/logger.Writer。
// gorm 的慢查询和SQL错误共用同一个格式串，只能靠参数里是否带 error 区分。
func (w GormWriter) Printf(format string, args ...interface{}) {
	w.Log.WithLevel(gormLevel(format, args)).Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func gormLevel(format string, args []interface{}) zerolog.Level {
	for _, a := range args {
		if _, ok := a.(error); ok {
			return zerolog.ErrorLevel
		}
	}
	switch {
	case strings.Contains(format, "[error]"):
		return zerolog.ErrorLevel
	case strings.Contains(format, "[info]"):
		return zerolog.InfoLevel
	case strings.HasPrefix(format, "%s\n[%.3fms]"):
		// 普通的SQL跟踪，只在 gorm 的 Info 级别下出现
		return zerolog.DebugLevel
	default:
		return zerolog.WarnLevel
	}
}
