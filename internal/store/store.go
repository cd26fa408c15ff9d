package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store 聚合了所有实体的存储。Transaction 回调中拿到的 Store 绑定在同一个事务上。
type Store struct {
	db *gorm.DB

	Participants *ParticipantStore
	Lotteries    *LotteryStore
	Ballots      *BallotStore
	Winners      *WinnerStore
}

// New 基于给定的连接(或事务)构造 Store
func New(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Participants: &ParticipantStore{Repository: newRepository[Participant](db, "participant")},
		Lotteries:    &LotteryStore{Repository: newRepository[Lottery](db, "lottery")},
		Ballots:      &BallotStore{Repository: newRepository[Ballot](db, "ballot")},
		Winners:      &WinnerStore{Repository: newRepository[WinningBallot](db, "winning_ballot")},
	}
}

// Transaction 在一个数据库事务中执行 fn，fn 返回错误时整体回滚。
// fn 内只能使用参数 tx，否则在单连接的连接池上会互相等待。
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Wrap(apperr.KindPersistenceFailure, "store.Transaction", err)
}

// Migrate 自动迁移全部表
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&Participant{}, &Lottery{}, &Ballot{}, &WinningBallot{}); err != nil {
		return fmt.Errorf("无法迁移数据表: %w", err)
	}
	return nil
}

// --- Participant ---

type ParticipantStore struct {
	Repository[Participant]
}

// FindByFirstName 按名查找参与者
func (s *ParticipantStore) FindByFirstName(ctx context.Context, firstName string) (*Participant, error) {
	var p Participant
	if err := s.db.WithContext(ctx).Where("first_name = ?", firstName).First(&p).Error; err != nil {
		return nil, translate("participant.FindByFirstName", err)
	}
	return &p, nil
}

// --- Lottery ---

type LotteryStore struct {
	Repository[Lottery]
}

// FindByDate 按日期查找抽奖
func (s *LotteryStore) FindByDate(ctx context.Context, date string) (*Lottery, error) {
	var l Lottery
	if err := s.db.WithContext(ctx).Where("lottery_date = ?", date).First(&l).Error; err != nil {
		return nil, translate("lottery.FindByDate", err)
	}
	return &l, nil
}

// LockByDate 在事务中按日期读取并锁定抽奖行(SELECT ... FOR UPDATE)。
// SQLite 不支持行锁，它的写事务本身是串行的。
func (s *LotteryStore) LockByDate(ctx context.Context, date string) (*Lottery, error) {
	var l Lottery
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("lottery_date = ?", date).
		First(&l).Error
	if err != nil {
		return nil, translate("lottery.LockByDate", err)
	}
	return &l, nil
}

// Lock 在事务中按主键读取并锁定抽奖行
func (s *LotteryStore) Lock(ctx context.Context, id uint) (*Lottery, error) {
	var l Lottery
	if err := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&l, id).Error; err != nil {
		return nil, translate("lottery.Lock", err)
	}
	return &l, nil
}

// ListOpen 返回所有未关闭的抽奖
func (s *LotteryStore) ListOpen(ctx context.Context) ([]Lottery, error) {
	var out []Lottery
	if err := s.db.WithContext(ctx).Where("closed = ?", false).Order("id").Find(&out).Error; err != nil {
		return nil, translate("lottery.ListOpen", err)
	}
	return out, nil
}

// FindOrCreate 返回指定日期的抽奖，不存在时创建一个未关闭的抽奖。
// 并发创建时只有一方写入成功，另一方读取已存在的记录。
func (s *LotteryStore) FindOrCreate(ctx context.Context, date string) (*Lottery, bool, error) {
	l := Lottery{Date: date}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "lottery_date"}}, DoNothing: true}).
		Create(&l)
	if res.Error != nil {
		return nil, false, translate("lottery.FindOrCreate", res.Error)
	}
	if res.RowsAffected == 1 && l.ID != 0 {
		return &l, true, nil
	}
	existing, err := s.FindByDate(ctx, date)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// MarkClosed 把抽奖标记为已关闭，只有当前未关闭时才会生效。
// 返回值表示本次调用是否完成了这次状态转换。
func (s *LotteryStore) MarkClosed(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&Lottery{}).
		Where("id = ? AND closed = ?", id, false).
		Update("closed", true)
	if res.Error != nil {
		return false, translate("lottery.MarkClosed", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListOpenWithWinner 返回已有中奖记录但仍未关闭的抽奖
func (s *LotteryStore) ListOpenWithWinner(ctx context.Context) ([]Lottery, error) {
	winners := s.db.Session(&gorm.Session{NewDB: true}).Model(&WinningBallot{}).Select("lottery_id")
	var out []Lottery
	err := s.db.WithContext(ctx).
		Where("closed = ? AND id IN (?)", false, winners).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, translate("lottery.ListOpenWithWinner", err)
	}
	return out, nil
}

// --- Ballot ---

type BallotStore struct {
	Repository[Ballot]
}

// ListByUser 返回某个参与者的全部票
func (s *BallotStore) ListByUser(ctx context.Context, userID uint) ([]Ballot, error) {
	var out []Ballot
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&out).Error; err != nil {
		return nil, translate("ballot.ListByUser", err)
	}
	return out, nil
}

// ListByLottery 返回某次抽奖的全部票
func (s *BallotStore) ListByLottery(ctx context.Context, lotteryID uint) ([]Ballot, error) {
	var out []Ballot
	if err := s.db.WithContext(ctx).Where("lottery_id = ?", lotteryID).Order("id").Find(&out).Error; err != nil {
		return nil, translate("ballot.ListByLottery", err)
	}
	return out, nil
}

// --- WinningBallot ---

type WinnerStore struct {
	Repository[WinningBallot]
}

// FindByLottery 返回某次抽奖的中奖记录
func (s *WinnerStore) FindByLottery(ctx context.Context, lotteryID uint) (*WinningBallot, error) {
	var w WinningBallot
	if err := s.db.WithContext(ctx).Where("lottery_id = ?", lotteryID).First(&w).Error; err != nil {
		return nil, translate("winning_ballot.FindByLottery", err)
	}
	return &w, nil
}

// FindByWinningDate 返回某一天的中奖记录
func (s *WinnerStore) FindByWinningDate(ctx context.Context, date string) (*WinningBallot, error) {
	var w WinningBallot
	if err := s.db.WithContext(ctx).Where("winning_date = ?", date).First(&w).Error; err != nil {
		return nil, translate("winning_ballot.FindByWinningDate", err)
	}
	return &w, nil
}
