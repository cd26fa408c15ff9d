package winner

import (
	"context"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
)

// Service 提供中奖记录的只读查询
type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// List 返回全部中奖记录
func (s *Service) List(ctx context.Context) ([]store.WinningBallot, error) {
	return s.store.Winners.List(ctx)
}

// GetByLottery 返回某次抽奖的中奖记录
func (s *Service) GetByLottery(ctx context.Context, lotteryID uint) (*store.WinningBallot, error) {
	w, err := s.store.Winners.FindByLottery(ctx, lotteryID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Newf(apperr.KindNotFound, "winner.GetByLottery", "抽奖 %d 没有中奖记录", lotteryID)
	}
	return w, err
}

// GetByWinningDate 返回某一天的中奖记录
func (s *Service) GetByWinningDate(ctx context.Context, date string) (*store.WinningBallot, error) {
	const op = "winner.GetByWinningDate"
	if err := store.ValidateDate(op, date); err != nil {
		return nil, err
	}
	w, err := s.store.Winners.FindByWinningDate(ctx, date)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Newf(apperr.KindNotFound, op, "日期 %s 没有中奖记录", date)
	}
	return w, err
}
