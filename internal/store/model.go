package store

import (
	"time"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
)

// DateLayout 是所有日期字段的存储格式
const DateLayout = "2006-01-02"

// Participant 是注册参与抽奖的用户，注册后不再修改。
type Participant struct {
	ID        uint      `gorm:"primaryKey" json:"user_id"`
	FirstName string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_participants_first_name" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100);not null" json:"last_name"`
	BirthDate string    `gorm:"type:varchar(10);not null" json:"birth_date"`
	CreatedAt time.Time `json:"created_at"`
}

func (Participant) TableName() string { return "participants" }

// Lottery 是某一天的抽奖。Closed 只会从 false 变为 true。
type Lottery struct {
	ID        uint      `gorm:"primaryKey" json:"lottery_id"`
	Date      string    `gorm:"column:lottery_date;type:varchar(10);not null;uniqueIndex:idx_lotteries_date" json:"lottery_date"`
	Closed    bool      `gorm:"not null;default:false;index:idx_lotteries_closed" json:"closed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Lottery) TableName() string { return "lotteries" }

// Ballot 是参与者在某次抽奖中的一张票。
type Ballot struct {
	ID           uint      `gorm:"primaryKey" json:"ballot_id"`
	UserID       uint      `gorm:"not null;index:idx_ballots_user" json:"user_id"`
	LotteryID    uint      `gorm:"not null;index:idx_ballots_lottery" json:"lottery_id"`
	BallotNumber string    `gorm:"type:varchar(20);not null" json:"ballot_number"`
	ExpiryDate   string    `gorm:"type:varchar(10);not null" json:"expiry_date"`
	CreatedAt    time.Time `json:"created_at"`

	Participant *Participant `gorm:"foreignKey:UserID" json:"-"`
	Lottery     *Lottery     `gorm:"foreignKey:LotteryID" json:"-"`
}

func (Ballot) TableName() string { return "ballots" }

// WinningBallot 记录一次抽奖的中奖票，每个抽奖最多一条。
type WinningBallot struct {
	LotteryID     uint      `gorm:"primaryKey;autoIncrement:false" json:"lottery_id"`
	BallotID      uint      `gorm:"not null;uniqueIndex:idx_winningballots_ballot" json:"ballot_id"`
	WinningDate   string    `gorm:"type:varchar(10);not null;index:idx_winning_date" json:"winning_date"`
	WinningAmount int64     `gorm:"not null" json:"winning_amount"`
	CreatedAt     time.Time `json:"created_at"`

	Lottery *Lottery `gorm:"foreignKey:LotteryID" json:"-"`
	Ballot  *Ballot  `gorm:"foreignKey:BallotID" json:"-"`
}

func (WinningBallot) TableName() string { return "winningballots" }

// ValidateDate 检查日期是否为 YYYY-MM-DD 格式
func ValidateDate(op, date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return apperr.Newf(apperr.KindInvalidOperation, op, "日期格式无效: %q", date)
	}
	return nil
}
