package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/daily-lottery-backend/internal/lottery"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"github.com/SlpAus/daily-lottery-backend/pkg/lifecycle"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Drawer 是定时任务依赖的抽奖操作
type Drawer interface {
	CloseAndDraw(ctx context.Context, date string) (*store.WinningBallot, error)
	Reconcile(ctx context.Context) (int, error)
	Calendar() *lottery.Calendar
}

// Scheduler 按cron表达式执行夜间开奖和周期性修复
type Scheduler struct {
	cron   *cron.Cron
	drawer Drawer
	log    zerolog.Logger
	ctx    context.Context
}

// cronLogger 把cron的日志转发到zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// New 创建调度器。reconcileSpec 为空时不注册修复任务。
func New(d Drawer, loc *time.Location, drawSpec, reconcileSpec string) (*Scheduler, error) {
	log := logging.WithComponent("scheduler")
	cl := cronLogger{log: log}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		drawer: d,
		log:    log,
		ctx:    context.Background(),
	}

	if _, err := s.cron.AddFunc(drawSpec, func() { s.DrawYesterday(s.ctx) }); err != nil {
		return nil, fmt.Errorf("无效的开奖cron表达式 %q: %w", drawSpec, err)
	}
	if reconcileSpec != "" {
		if _, err := s.cron.AddFunc(reconcileSpec, func() { s.ReconcileOnce(s.ctx) }); err != nil {
			return nil, fmt.Errorf("无效的修复cron表达式 %q: %w", reconcileSpec, err)
		}
	}
	return s, nil
}

// DrawYesterday 关闭昨天的抽奖并开奖。"没有抽奖"、"没有票"、"已关闭"都是正常结果。
func (s *Scheduler) DrawYesterday(ctx context.Context) {
	date := s.drawer.Calendar().Yesterday()
	w, err := s.drawer.CloseAndDraw(ctx, date)
	switch {
	case err == nil:
		s.log.Info().Str("date", date).Uint("ballot_id", w.BallotID).Int64("amount", w.WinningAmount).Msg("定时开奖完成")
	case apperr.Is(err, apperr.KindNotFound), apperr.Is(err, apperr.KindNoBallotsFound), apperr.Is(err, apperr.KindAlreadyClosed):
		s.log.Info().Str("date", date).Str("result", apperr.KindOf(err).String()).Msg("定时开奖跳过")
	default:
		s.log.Error().Err(err).Str("date", date).Fields(apperr.FieldsOf(err)).Msg("定时开奖失败")
	}
}

// ReconcileOnce 执行一次修复
func (s *Scheduler) ReconcileOnce(ctx context.Context) {
	n, err := s.drawer.Reconcile(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("修复任务失败")
		return
	}
	if n > 0 {
		s.log.Warn().Int("repaired", n).Msg("修复任务关闭了遗留的抽奖")
	}
}

// Run 启动调度器并阻塞，直到 graceful 句柄被取消。
// 之后不再触发新任务，并等待正在执行的任务结束；任务使用 forceful 句柄的上下文，
// 强制停机时正在进行的数据库操作会被取消。
func (s *Scheduler) Run(graceful, forceful *lifecycle.Handle) {
	defer forceful.Close()
	defer graceful.Close()
	s.ctx = forceful.Ctx()
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("调度器已启动")

	<-graceful.Done()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("调度器已停止")
}
