package startup

import (
	"context"
	"errors"
	"testing"

	"github.com/SlpAus/daily-lottery-backend/internal/lottery"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"github.com/SlpAus/daily-lottery-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReconciler struct{}

func (failingReconciler) Reconcile(context.Context) (int, error) {
	return 0, errors.New("boom")
}

func TestInitializeApplicationRepairsState(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	s := store.New(db)

	l := testutil.SeedLottery(t, s, "2024-05-01", false)
	p := testutil.SeedParticipant(t, s, "Alice")
	b := testutil.SeedBallot(t, s, p.ID, l.ID, l.Date)
	require.NoError(t, s.Winners.Insert(ctx, &store.WinningBallot{LotteryID: l.ID, BallotID: b.ID, WinningDate: l.Date, WinningAmount: 3}))

	require.NoError(t, InitializeApplication(ctx, db, lottery.NewManager(s)))

	got, err := s.Lotteries.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.Closed)
}

func TestInitializeApplicationReconcileError(t *testing.T) {
	err := InitializeApplication(context.Background(), testutil.NewDB(t), failingReconciler{})
	assert.Error(t, err)
}
