package lottery

import (
	"time"

	"github.com/SlpAus/daily-lottery-backend/internal/store"
)

// Calendar 以固定时区计算抽奖日期
type Calendar struct {
	now func() time.Time
	loc *time.Location
}

// NewCalendar 创建日历，now 为 nil 时使用 time.Now，loc 为 nil 时使用 UTC
func NewCalendar(now func() time.Time, loc *time.Location) *Calendar {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{now: now, loc: loc}
}

// Today 返回今天的日期 (YYYY-MM-DD)
func (c *Calendar) Today() string {
	return c.now().In(c.loc).Format(store.DateLayout)
}

// Yesterday 返回昨天的日期，夜间开奖关闭的是昨天的抽奖
func (c *Calendar) Yesterday() string {
	return c.now().In(c.loc).AddDate(0, 0, -1).Format(store.DateLayout)
}
