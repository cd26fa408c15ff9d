package shutdown

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/SlpAus/daily-lottery-backend/pkg/lifecycle"
	"github.com/rs/zerolog"
)

const (
	gracefulTimeout = 30 * time.Second
	forcefulTimeout = 1 * time.Second
)

// Coordinator 负责编排应用程序的优雅停机流程。
// 它接收外部创建的生命周期管理器，并使用它们来协调停机。
type Coordinator struct {
	GracefulManager *lifecycle.Manager
	ForcefulManager *lifecycle.Manager

	httpTimeout time.Duration
	finalizers  []finalizer
	log         zerolog.Logger
}

type finalizer struct {
	name string
	fn   func() error
}

// NewCoordinator 创建一个新的停机协调器
func NewCoordinator(gracefulMgr, forcefulMgr *lifecycle.Manager, httpTimeout time.Duration) *Coordinator {
	return &Coordinator{
		GracefulManager: gracefulMgr,
		ForcefulManager: forcefulMgr,
		httpTimeout:     httpTimeout,
		log:             logging.WithComponent("shutdown"),
	}
}

// OnFinalize 注册一个在所有后台服务退出后执行的收尾步骤，按注册顺序执行
func (c *Coordinator) OnFinalize(name string, fn func() error) {
	c.finalizers = append(c.finalizers, finalizer{name: name, fn: fn})
}

// ListenForSignalsAndShutdown 阻塞直到收到停机信号或服务器异常退出，然后执行停机流程
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server, serverErr <-chan error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		c.log.Info().Str("signal", sig.String()).Msg("收到关闭信号，开始优雅停机")
	case err := <-serverErr:
		c.log.Error().Err(err).Msg("HTTP服务器异常退出，开始停机")
	}
	c.Shutdown(server)
}

// Shutdown 依次关闭HTTP服务器、后台服务，并执行收尾步骤
func (c *Coordinator) Shutdown(server *http.Server) {
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.httpTimeout)
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Error().Err(err).Msg("HTTP服务器关闭错误")
		} else {
			c.log.Info().Msg("HTTP服务器已关闭")
		}
		cancel()
	}

	// --- 阶段一: 优雅停机 ---
	c.log.Info().Dur("timeout", gracefulTimeout).Msg("第一阶段停机：等待后台服务完成任务")
	c.GracefulManager.Shutdown()
	remaining := c.GracefulManager.WaitWithTimeout(gracefulTimeout)
	if len(remaining) == 0 {
		c.log.Info().Msg("所有服务已在第一阶段优雅关闭")
	} else {
		// --- 阶段二: 强制停机 ---
		c.log.Warn().Strs("remaining", remaining).Msg("第一阶段超时，发送强制停机信号")
		c.ForcefulManager.Shutdown()
		if left := c.ForcefulManager.WaitWithTimeout(forcefulTimeout); len(left) > 0 {
			c.log.Error().Strs("remaining", left).Msg("强制停机后仍有服务未退出")
		}
	}
	// 强制阶段的上下文在任何情况下都要取消
	c.ForcefulManager.Shutdown()

	// --- 最终步骤 ---
	for _, f := range c.finalizers {
		if err := f.fn(); err != nil {
			c.log.Error().Err(err).Str("step", f.name).Msg("收尾步骤失败")
		} else {
			c.log.Info().Str("step", f.name).Msg("收尾步骤完成")
		}
	}
	c.log.Info().Msg("优雅停机完成")
}
