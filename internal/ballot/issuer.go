package ballot

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/SlpAus/daily-lottery-backend/internal/lottery"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/metrics"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"github.com/rs/zerolog"
)

const defaultNumberLength = 10

// Issuer 为参与者发放抽奖票，当天的抽奖不存在时会自动创建。
type Issuer struct {
	store     *store.Store
	calendar  *lottery.Calendar
	numberLen int
	log       zerolog.Logger
}

// Option 用于定制 Issuer
type Option func(*Issuer)

// WithNumberLength 指定票号的位数
func WithNumberLength(n int) Option {
	return func(i *Issuer) { i.numberLen = n }
}

func NewIssuer(s *store.Store, cal *lottery.Calendar, opts ...Option) *Issuer {
	i := &Issuer{
		store:     s,
		calendar:  cal,
		numberLen: defaultNumberLength,
		log:       logging.WithComponent("ballot"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// SubmitBallot 为参与者在指定日期的抽奖中发放一张票。
// 抽奖行被锁定后再检查是否已关闭，因此不会有票写入正在开奖或已关闭的抽奖。
func (i *Issuer) SubmitBallot(ctx context.Context, userID uint, date string) (*store.Ballot, error) {
	const op = "ballot.SubmitBallot"
	if err := store.ValidateDate(op, date); err != nil {
		return nil, err
	}

	if _, err := i.store.Participants.Get(ctx, userID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, op, "参与者 %d 不存在", userID).With("user_id", userID)
		}
		return nil, err
	}

	l, created, err := i.store.Lotteries.FindOrCreate(ctx, date)
	if err != nil {
		return nil, err
	}
	if created {
		metrics.LotteriesCreated.WithLabelValues("ballot").Inc()
		i.log.Info().Uint("lottery_id", l.ID).Str("date", date).Msg("首张票触发创建抽奖")
	}

	var b *store.Ballot
	err = i.store.Transaction(ctx, func(tx *store.Store) error {
		locked, err := tx.Lotteries.Lock(ctx, l.ID)
		if err != nil {
			return err
		}
		if locked.Closed {
			return apperr.Newf(apperr.KindLotteryClosed, op, "日期 %s 的抽奖已关闭", date).With("lottery_id", l.ID)
		}

		b = &store.Ballot{
			UserID:       userID,
			LotteryID:    locked.ID,
			BallotNumber: randomDigits(i.numberLen),
			ExpiryDate:   locked.Date,
		}
		return tx.Ballots.Insert(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	metrics.BallotsSubmitted.Inc()
	i.log.Debug().Uint("ballot_id", b.ID).Uint("user_id", userID).Uint("lottery_id", b.LotteryID).Msg("票已发放")
	return b, nil
}

// SubmitBallotForToday 为参与者在今天的抽奖中发放一张票
func (i *Issuer) SubmitBallotForToday(ctx context.Context, userID uint) (*store.Ballot, error) {
	return i.SubmitBallot(ctx, userID, i.calendar.Today())
}

// ListBallotsByUser 返回参与者的全部票，一张都没有时返回 KindNotFound
func (i *Issuer) ListBallotsByUser(ctx context.Context, userID uint) ([]store.Ballot, error) {
	ballots, err := i.store.Ballots.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ballots) == 0 {
		return nil, apperr.Newf(apperr.KindNotFound, "ballot.ListBallotsByUser", "参与者 %d 没有任何票", userID)
	}
	return ballots, nil
}

// randomDigits 生成 n 位随机数字串，允许前导零
func randomDigits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}
