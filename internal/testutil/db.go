// Package testutil 为各模块的测试提供隔离的数据库。
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/config"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/database"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 打开一个只属于当前测试的内存SQLite数据库并完成迁移。
// 连接池只保留一个连接，保证所有查询看到同一个库。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, store.Migrate(context.Background(), db))
	return db
}

// NewFileDB 在测试临时目录下打开一个文件SQLite数据库，连接池有多个连接，
// 并发的 goroutine 会真正同时访问数据库，用于验证并发下的约束。
func NewFileDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSqlite,
		Sqlite: config.SqliteConfig{Path: filepath.Join(t.TempDir(), "lottery.db")},
		Pool:   config.PoolConfig{MaxOpenConns: 8, MaxIdleConns: 8},
	}, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, store.Migrate(context.Background(), db))
	return db
}

// NewFileStore 返回基于 NewFileDB 的 Store
func NewFileStore(t testing.TB) *store.Store {
	t.Helper()
	return store.New(NewFileDB(t))
}

// NewStore 返回基于 NewDB 的 Store
func NewStore(t testing.TB) *store.Store {
	t.Helper()
	return store.New(NewDB(t))
}

// SeedParticipant 注册一个参与者
func SeedParticipant(t testing.TB, s *store.Store, firstName string) *store.Participant {
	t.Helper()
	p := &store.Participant{FirstName: firstName, LastName: "Tester", BirthDate: "1990-01-01"}
	require.NoError(t, s.Participants.Insert(context.Background(), p))
	return p
}

// SeedLottery 创建指定日期的抽奖
func SeedLottery(t testing.TB, s *store.Store, date string, closed bool) *store.Lottery {
	t.Helper()
	l := &store.Lottery{Date: date}
	require.NoError(t, s.Lotteries.Insert(context.Background(), l))
	if closed {
		ok, err := s.Lotteries.MarkClosed(context.Background(), l.ID)
		require.NoError(t, err)
		require.True(t, ok)
		l.Closed = true
	}
	return l
}

// SeedBallot 直接写入一张票，不经过开放状态检查
func SeedBallot(t testing.TB, s *store.Store, userID, lotteryID uint, date string) *store.Ballot {
	t.Helper()
	b := &store.Ballot{UserID: userID, LotteryID: lotteryID, BallotNumber: "0123456789", ExpiryDate: date}
	require.NoError(t, s.Ballots.Insert(context.Background(), b))
	return b
}
