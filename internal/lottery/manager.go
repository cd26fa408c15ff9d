package lottery

import (
	"context"
	"math/rand/v2"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/metrics"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"github.com/rs/zerolog"
)

const (
	defaultAmountMin = 2
	defaultAmountMax = 100
)

// Manager 负责抽奖的生命周期：Open -> Closed，以及唯一一次开奖。
type Manager struct {
	store    *store.Store
	calendar *Calendar
	pick     func(n int) int
	amount   func() int64
	log      zerolog.Logger
}

// Option 用于定制 Manager
type Option func(*Manager)

// WithCalendar 指定计算"今天"与"昨天"的日历
func WithCalendar(c *Calendar) Option {
	return func(m *Manager) { m.calendar = c }
}

// WithPicker 指定从 n 张票中选出中奖票下标的函数，返回值必须在 [0, n) 内
func WithPicker(pick func(n int) int) Option {
	return func(m *Manager) { m.pick = pick }
}

// WithAmountRange 指定中奖金额的闭区间
func WithAmountRange(lo, hi int64) Option {
	return func(m *Manager) { m.amount = uniformAmount(lo, hi) }
}

// WithAmountSource 直接指定中奖金额的生成函数
func WithAmountSource(f func() int64) Option {
	return func(m *Manager) { m.amount = f }
}

func uniformAmount(lo, hi int64) func() int64 {
	return func() int64 { return lo + rand.Int64N(hi-lo+1) }
}

// NewManager 创建抽奖生命周期管理器
func NewManager(s *store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:    s,
		calendar: NewCalendar(nil, nil),
		pick:     rand.IntN,
		amount:   uniformAmount(defaultAmountMin, defaultAmountMax),
		log:      logging.WithComponent("lottery"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Calendar 返回管理器使用的日历
func (m *Manager) Calendar() *Calendar {
	return m.calendar
}

// CreateLottery 为指定日期创建一个未关闭的抽奖
func (m *Manager) CreateLottery(ctx context.Context, date string) (*store.Lottery, error) {
	const op = "lottery.CreateLottery"
	if err := store.ValidateDate(op, date); err != nil {
		return nil, err
	}

	if _, err := m.store.Lotteries.FindByDate(ctx, date); err == nil {
		return nil, apperr.Newf(apperr.KindAlreadyExists, op, "日期 %s 的抽奖已存在", date).With("date", date)
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	l := &store.Lottery{Date: date}
	if err := m.store.Lotteries.Insert(ctx, l); err != nil {
		if apperr.Is(err, apperr.KindAlreadyExists) {
			return nil, &apperr.Error{Kind: apperr.KindAlreadyExists, Op: op, Msg: "日期 " + date + " 的抽奖已存在", Err: err}
		}
		return nil, err
	}

	metrics.LotteriesCreated.WithLabelValues("explicit").Inc()
	m.log.Info().Uint("lottery_id", l.ID).Str("date", date).Msg("抽奖已创建")
	return l, nil
}

// GetLottery 按ID读取抽奖
func (m *Manager) GetLottery(ctx context.Context, id uint) (*store.Lottery, error) {
	l, err := m.store.Lotteries.Get(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Newf(apperr.KindNotFound, "lottery.GetLottery", "抽奖 %d 不存在", id)
	}
	return l, err
}

// GetLotteryByDate 按日期读取抽奖
func (m *Manager) GetLotteryByDate(ctx context.Context, date string) (*store.Lottery, error) {
	const op = "lottery.GetLotteryByDate"
	if err := store.ValidateDate(op, date); err != nil {
		return nil, err
	}
	l, err := m.store.Lotteries.FindByDate(ctx, date)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Newf(apperr.KindNotFound, op, "日期 %s 没有抽奖", date)
	}
	return l, err
}

// ListLotteries 返回全部抽奖
func (m *Manager) ListLotteries(ctx context.Context) ([]store.Lottery, error) {
	return m.store.Lotteries.List(ctx)
}

// ListOpenLotteries 返回全部未关闭的抽奖
func (m *Manager) ListOpenLotteries(ctx context.Context) ([]store.Lottery, error) {
	return m.store.Lotteries.ListOpen(ctx)
}

// ActiveLotteryForToday 返回今天仍开放的抽奖，没有时返回 nil
func (m *Manager) ActiveLotteryForToday(ctx context.Context) (*store.Lottery, error) {
	l, err := m.store.Lotteries.FindByDate(ctx, m.calendar.Today())
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if l.Closed {
		return nil, nil
	}
	return l, nil
}

// CloseAndDraw 关闭指定日期的抽奖并从它的票中均匀随机地选出一张中奖票。
//
// 整个过程在一个事务中完成，抽奖行在事务开始时被锁定：
// 同一抽奖的并发开奖只有一个能成功，其余得到 KindAlreadyClosed；
// 开奖期间也不会有新的票写入。
// 没有任何票时抽奖仍会被关闭，并返回 KindNoBallotsFound。
func (m *Manager) CloseAndDraw(ctx context.Context, date string) (*store.WinningBallot, error) {
	const op = "lottery.CloseAndDraw"
	if err := store.ValidateDate(op, date); err != nil {
		return nil, err
	}

	var (
		winner    *store.WinningBallot
		lotteryID uint
	)
	err := m.store.Transaction(ctx, func(tx *store.Store) error {
		l, err := tx.Lotteries.LockByDate(ctx, date)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.Newf(apperr.KindNotFound, op, "日期 %s 没有抽奖", date).With("date", date)
			}
			return err
		}
		lotteryID = l.ID

		if l.Closed {
			return apperr.Newf(apperr.KindAlreadyClosed, op, "日期 %s 的抽奖已关闭", date).With("lottery_id", l.ID)
		}

		ballots, err := tx.Ballots.ListByLottery(ctx, l.ID)
		if err != nil {
			return err
		}
		if len(ballots) == 0 {
			if _, err := tx.Lotteries.MarkClosed(ctx, l.ID); err != nil {
				return err
			}
			return nil
		}

		idx := m.pick(len(ballots))
		if idx < 0 || idx >= len(ballots) {
			return apperr.Newf(apperr.KindInvalidOperation, op, "中奖下标越界: %d/%d", idx, len(ballots))
		}
		chosen := ballots[idx]

		w := &store.WinningBallot{
			LotteryID:     l.ID,
			BallotID:      chosen.ID,
			WinningDate:   l.Date,
			WinningAmount: m.amount(),
		}
		if err := tx.Winners.Insert(ctx, w); err != nil {
			if apperr.Is(err, apperr.KindAlreadyExists) {
				return (&apperr.Error{Kind: apperr.KindDuplicateWinner, Op: op, Msg: "该抽奖已有中奖记录", Err: err}).
					With("lottery_id", l.ID)
			}
			return err
		}

		closed, err := tx.Lotteries.MarkClosed(ctx, l.ID)
		if err != nil {
			m.log.Error().Err(err).
				Uint("lottery_id", l.ID).
				Uint("ballot_id", chosen.ID).
				Str("date", date).
				Msg("中奖记录已写入但关闭抽奖失败，事务回滚")
			return (&apperr.Error{Kind: apperr.KindPersistenceFailure, Op: op, Msg: "关闭抽奖失败", Err: err}).
				With("lottery_id", l.ID).
				With("ballot_id", chosen.ID)
		}
		if !closed {
			return apperr.Newf(apperr.KindAlreadyClosed, op, "日期 %s 的抽奖已关闭", date).With("lottery_id", l.ID)
		}

		winner = w
		return nil
	})

	switch {
	case err != nil:
		metrics.Draws.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return nil, err
	case winner == nil:
		metrics.Draws.WithLabelValues(apperr.KindNoBallotsFound.String()).Inc()
		m.log.Info().Uint("lottery_id", lotteryID).Str("date", date).Msg("抽奖已关闭，没有任何票")
		return nil, apperr.Newf(apperr.KindNoBallotsFound, op, "日期 %s 的抽奖没有任何票", date).With("lottery_id", lotteryID)
	}

	metrics.Draws.WithLabelValues("won").Inc()
	m.log.Info().
		Uint("lottery_id", winner.LotteryID).
		Uint("ballot_id", winner.BallotID).
		Int64("amount", winner.WinningAmount).
		Str("date", date).
		Msg("开奖完成")
	return winner, nil
}

// Reconcile 关闭所有已有中奖记录却仍处于开放状态的抽奖，返回本次关闭的数量。
// 可以重复执行。
func (m *Manager) Reconcile(ctx context.Context) (int, error) {
	stuck, err := m.store.Lotteries.ListOpenWithWinner(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, l := range stuck {
		closed, err := m.store.Lotteries.MarkClosed(ctx, l.ID)
		if err != nil {
			return repaired, err
		}
		if closed {
			repaired++
			metrics.LotteriesReconciled.Inc()
			m.log.Warn().Uint("lottery_id", l.ID).Str("date", l.Date).Msg("修复: 已有中奖记录的抽奖被标记为关闭")
		}
	}
	return repaired, nil
}
