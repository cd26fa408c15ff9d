package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"github.com/SlpAus/daily-lottery-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryGetAndList(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	alice := testutil.SeedParticipant(t, s, "Alice")
	testutil.SeedParticipant(t, s, "Bob")

	got, err := s.Participants.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)

	_, err = s.Participants.Get(ctx, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	all, err := s.Participants.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alice", all[0].FirstName)
	assert.Equal(t, "Bob", all[1].FirstName)
}

func TestRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	alice := testutil.SeedParticipant(t, s, "Alice")
	bob := testutil.SeedParticipant(t, s, "Bob")

	alice.LastName = "Liddell"
	require.NoError(t, s.Participants.Update(ctx, alice))

	got, err := s.Participants.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Liddell", got.LastName)
	assert.Equal(t, "Alice", got.FirstName)

	// 改名撞上唯一索引
	bob.FirstName = "Alice"
	err = s.Participants.Update(ctx, bob)
	assert.True(t, apperr.Is(err, apperr.KindAlreadyExists), "got %v", err)

	got, err = s.Participants.Get(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.FirstName)
}

func TestParticipantFirstNameUnique(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	testutil.SeedParticipant(t, s, "Alice")

	err := s.Participants.Insert(ctx, &store.Participant{FirstName: "Alice", LastName: "Other", BirthDate: "2000-02-02"})
	assert.True(t, apperr.Is(err, apperr.KindAlreadyExists), "got %v", err)

	p, err := s.Participants.FindByFirstName(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Tester", p.LastName)
}

func TestLotteryDateUnique(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	testutil.SeedLottery(t, s, "2024-05-01", false)

	err := s.Lotteries.Insert(ctx, &store.Lottery{Date: "2024-05-01"})
	assert.True(t, apperr.Is(err, apperr.KindAlreadyExists), "got %v", err)
}

func TestLotteryFindOrCreate(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	first, created, err := s.Lotteries.FindOrCreate(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, first.Closed)
	assert.NotZero(t, first.ID)

	second, created, err := s.Lotteries.FindOrCreate(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	all, err := s.Lotteries.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLotteryFindOrCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewFileStore(t)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[uint]bool{}
		created int
	)
	start := make(chan struct{})
	for n := 0; n < workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			l, isNew, err := s.Lotteries.FindOrCreate(ctx, "2024-05-01")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[l.ID] = true
			if isNew {
				created++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, created)

	all, err := s.Lotteries.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLotteryMarkClosedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	l := testutil.SeedLottery(t, s, "2024-05-01", false)

	ok, err := s.Lotteries.MarkClosed(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Lotteries.MarkClosed(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Lotteries.FindByDate(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.True(t, got.Closed)

	open, err := s.Lotteries.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestLotteryListOpenWithWinner(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	p := testutil.SeedParticipant(t, s, "Alice")

	stuck := testutil.SeedLottery(t, s, "2024-05-01", false)
	b := testutil.SeedBallot(t, s, p.ID, stuck.ID, stuck.Date)
	require.NoError(t, s.Winners.Insert(ctx, &store.WinningBallot{
		LotteryID: stuck.ID, BallotID: b.ID, WinningDate: stuck.Date, WinningAmount: 10,
	}))
	testutil.SeedLottery(t, s, "2024-05-02", false)

	got, err := s.Lotteries.ListOpenWithWinner(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, stuck.ID, got[0].ID)
}

func TestWinnerUniqueness(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	p := testutil.SeedParticipant(t, s, "Alice")
	l := testutil.SeedLottery(t, s, "2024-05-01", false)
	b1 := testutil.SeedBallot(t, s, p.ID, l.ID, l.Date)
	b2 := testutil.SeedBallot(t, s, p.ID, l.ID, l.Date)

	require.NoError(t, s.Winners.Insert(ctx, &store.WinningBallot{LotteryID: l.ID, BallotID: b1.ID, WinningDate: l.Date, WinningAmount: 5}))

	err := s.Winners.Insert(ctx, &store.WinningBallot{LotteryID: l.ID, BallotID: b2.ID, WinningDate: l.Date, WinningAmount: 7})
	assert.True(t, apperr.Is(err, apperr.KindAlreadyExists), "got %v", err)

	w, err := s.Winners.FindByLottery(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, b1.ID, w.BallotID)

	w, err = s.Winners.FindByWinningDate(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, int64(5), w.WinningAmount)

	_, err = s.Winners.FindByWinningDate(ctx, "2024-05-02")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestBallotForeignKeys(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	l := testutil.SeedLottery(t, s, "2024-05-01", false)

	err := s.Ballots.Insert(ctx, &store.Ballot{UserID: 42, LotteryID: l.ID, BallotNumber: "1", ExpiryDate: l.Date})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func TestBallotListings(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	alice := testutil.SeedParticipant(t, s, "Alice")
	bob := testutil.SeedParticipant(t, s, "Bob")
	l1 := testutil.SeedLottery(t, s, "2024-05-01", false)
	l2 := testutil.SeedLottery(t, s, "2024-05-02", false)

	testutil.SeedBallot(t, s, alice.ID, l1.ID, l1.Date)
	testutil.SeedBallot(t, s, alice.ID, l2.ID, l2.Date)
	testutil.SeedBallot(t, s, bob.ID, l1.ID, l1.Date)

	byUser, err := s.Ballots.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byLottery, err := s.Ballots.ListByLottery(ctx, l1.ID)
	require.NoError(t, err)
	assert.Len(t, byLottery, 2)

	none, err := s.Ballots.ListByUser(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx *store.Store) error {
		require.NoError(t, tx.Lotteries.Insert(ctx, &store.Lottery{Date: "2024-05-01"}))
		return apperr.Wrap(apperr.KindInvalidOperation, "test", boom)
	})
	assert.True(t, apperr.Is(err, apperr.KindInvalidOperation))
	assert.ErrorIs(t, err, boom)

	_, err = s.Lotteries.FindByDate(ctx, "2024-05-01")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestTransactionWrapsPlainErrors(t *testing.T) {
	s := testutil.NewStore(t)
	err := s.Transaction(context.Background(), func(tx *store.Store) error {
		return errors.New("plain")
	})
	assert.True(t, apperr.Is(err, apperr.KindPersistenceFailure))
}
