package health

import (
	"context"
	"net/http"
	"time"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/metrics"
	"github.com/SlpAus/daily-lottery-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Checker 定期探测数据库，连接从中断中恢复后执行一次恢复操作(修复抽奖状态)。
type Checker struct {
	status    *statusManager
	ping      func(ctx context.Context) error
	onRecover func(ctx context.Context) error
	interval  time.Duration
}

// NewChecker 创建健康检查器。onRecover 可以为 nil。
func NewChecker(ping, onRecover func(ctx context.Context) error, interval time.Duration) *Checker {
	return &Checker{
		status:    &statusManager{currentState: StateHealthy, log: logging.WithComponent("health")},
		ping:      ping,
		onRecover: onRecover,
		interval:  interval,
	}
}

// State 返回当前的健康状态
func (c *Checker) State() State {
	s, _ := c.status.get()
	return s
}

// PerformCheck 执行一次完整的健康检查和可能的恢复操作
func (c *Checker) PerformCheck(ctx context.Context) State {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := c.ping(pctx)
	cancel()

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		metrics.DatabaseUp.Set(0)
	} else {
		metrics.DatabaseUp.Set(1)
	}

	if c.status.assess(err == nil, errMsg) {
		success := true
		if c.onRecover != nil {
			if rerr := c.onRecover(ctx); rerr != nil {
				c.status.log.Error().Err(rerr).Msg("健康检查: 恢复操作失败")
				success = false
			}
		}
		c.status.markRecoveryComplete(success)
	}
	return c.State()
}

// Run 周期性地执行健康检查，直到句柄被取消
func (c *Checker) Run(handle *lifecycle.Handle) {
	defer handle.Close()
	c.status.log.Info().Dur("interval", c.interval).Msg("数据库健康检查器已启动")
	for {
		if err := handle.Sleep(c.interval); err != nil {
			return
		}
		c.PerformCheck(handle.Ctx())
	}
}

// Handler 返回 /health 的处理函数，非健康状态返回 503
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		state, lastErr := c.status.get()
		body := gin.H{"status": state.String()}
		if lastErr != "" {
			body["error"] = lastErr
		}
		if state != StateHealthy {
			ctx.JSON(http.StatusServiceUnavailable, body)
			return
		}
		ctx.JSON(http.StatusOK, body)
	}
}
