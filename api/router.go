package api

import (
	"net/http"
	"time"

	"github.com/SlpAus/daily-lottery-backend/internal/ballot"
	"github.com/SlpAus/daily-lottery-backend/internal/lottery"
	"github.com/SlpAus/daily-lottery-backend/internal/participant"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/config"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/metrics"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/ratelimit"
	"github.com/SlpAus/daily-lottery-backend/internal/winner"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers 汇总了各模块的HTTP处理器
type Handlers struct {
	Participants *participant.Handler
	Ballots      *ballot.Handler
	Lotteries    *lottery.Handler
	Winners      *winner.Handler
	Health       gin.HandlerFunc
}

// NewRouter 创建gin引擎并挂载中间件与全部路由
func NewRouter(cfg config.ServerConfig, h Handlers, limiter *ratelimit.IPLimiter) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(logging.RequestLogger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log := logging.WithComponent("http")
		log.Error().Interface("panic", recovered).Str("request_id", logging.RequestID(c)).Msg("请求处理时发生panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "内部错误", "kind": "unknown"})
	}))
	r.Use(metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logging.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if h.Health != nil {
		r.GET("/health", h.Health)
	}
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	SetupRoutes(r.Group("/", limiter.Middleware()), h)
	return r
}

// SetupRoutes 注册项目的所有业务路由
func SetupRoutes(r gin.IRouter, h Handlers) {
	h.Participants.RegisterRoutes(r)
	h.Ballots.RegisterRoutes(r)
	h.Lotteries.RegisterRoutes(r)
	h.Winners.RegisterRoutes(r)
}
