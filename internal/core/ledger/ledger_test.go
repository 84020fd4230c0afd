package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/ledger"
	"github.com/savorsave/savorsave/internal/core/port"
	"github.com/savorsave/savorsave/internal/core/port/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errConnRefused = errors.New("connection refused")

func newTestSession(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher, owner *uint64) *ledger.Session {
	t.Helper()
	repo.EXPECT().ListExpensesByOwner(gomock.Any(), owner).Return(nil, nil)

	m := ledger.NewManager(repo, publisher, zap.NewNop())
	sess, err := m.Session(context.Background(), owner)
	require.NoError(t, err)
	return sess
}

func testExpense(description, amount string) *domain.FoodExpense {
	return &domain.FoodExpense{
		Description: description,
		Amount:      decimal.MustParse(amount),
		Category:    domain.CategoryDineIn,
		MealType:    domain.MealLunch,
	}
}

func TestSession_Add(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()

	t.Run("Confirmed insert swaps in the server identity", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		publisher := mock.NewMockEventPublisher(mockCtrl)
		sess := newTestSession(t, repo, publisher, nil)

		created := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
		repo.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e *domain.FoodExpense) (*domain.FoodExpense, error) {
				assert.True(t, ledger.IsTempID(e.ID))
				confirmed := *e
				confirmed.ID = "srv-1"
				confirmed.CreatedAt = created
				return &confirmed, nil
			})
		publisher.EXPECT().PublishExpenseEvent(gomock.Any(), gomock.Any()).Return(nil)

		e, err := sess.Add(ctx, testExpense("biryani", "250.00"))
		require.NoError(t, err)
		assert.Equal(t, "srv-1", e.ID)
		assert.Equal(t, created, e.CreatedAt)
		assert.Equal(t, domain.ExpenseStatusCompleted, e.Status)
		assert.Equal(t, domain.TransactionExpense, e.TransactionType)

		all := sess.All()
		require.Len(t, all, 1)
		assert.Equal(t, "srv-1", all[0].ID)
	})

	t.Run("Failed insert keeps the optimistic entry", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		publisher := mock.NewMockEventPublisher(mockCtrl)
		sess := newTestSession(t, repo, publisher, nil)

		repo.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).Return(nil, errConnRefused)

		e, err := sess.Add(ctx, testExpense("momos", "120.00"))
		assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
		require.NotNil(t, e)
		assert.True(t, ledger.IsTempID(e.ID))

		all := sess.All()
		require.Len(t, all, 1)
		assert.Equal(t, "momos", all[0].Description)
	})

	t.Run("Equal split computes the caller share", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		publisher := mock.NewMockEventPublisher(mockCtrl)
		sess := newTestSession(t, repo, publisher, nil)

		repo.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e *domain.FoodExpense) (*domain.FoodExpense, error) {
				confirmed := *e
				confirmed.ID = "srv-2"
				return &confirmed, nil
			})
		publisher.EXPECT().PublishExpenseEvent(gomock.Any(), gomock.Any()).Return(nil)

		split := testExpense("team dinner", "0")
		split.Amount = decimal.Zero
		split.IsSplit = true
		split.SplitTotal = decimal.MustParse("100.00")
		split.SplitPeopleCount = 3
		split.SplitMethod = domain.SplitMethodEqual

		e, err := sess.Add(ctx, split)
		require.NoError(t, err)
		assert.Equal(t, "33.34", e.Amount.String())
		require.Len(t, e.SplitShares, 3)
		assert.Equal(t, "33.33", e.SplitShares[1].Amount.String())
	})

	t.Run("Validation failures never touch the store", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		publisher := mock.NewMockEventPublisher(mockCtrl)
		sess := newTestSession(t, repo, publisher, nil)

		_, err := sess.Add(ctx, testExpense("", "250.00"))
		assert.ErrorIs(t, err, domain.ErrEmptyDescription)
		assert.Empty(t, sess.All())
	})
}

func TestSession_Update(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()

	newAmount := decimal.MustParse("300.00")

	t.Run("Merges locally and mirrors remotely", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		publisher := mock.NewMockEventPublisher(mockCtrl)
		sess := newTestSession(t, repo, publisher, nil)

		repo.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e *domain.FoodExpense) (*domain.FoodExpense, error) {
				confirmed := *e
				confirmed.ID = "srv-1"
				return &confirmed, nil
			})
		publisher.EXPECT().PublishExpenseEvent(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		_, err := sess.Add(ctx, testExpense("thali", "250.00"))
		require.NoError(t, err)

		upd := &port.ExpenseUpdate{Amount: &newAmount}
		repo.EXPECT().UpdateExpense(gomock.Any(), "srv-1", nil, upd).Return(nil)

		e, err := sess.Update(ctx, "srv-1", upd)
		require.NoError(t, err)
		assert.Equal(t, "300.00", e.Amount.String())
		// Untouched fields survive the merge.
		assert.Equal(t, "thali", e.Description)
	})

	t.Run("Temp entries update locally only", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		publisher := mock.NewMockEventPublisher(mockCtrl)
		sess := newTestSession(t, repo, publisher, nil)

		repo.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).Return(nil, errConnRefused)
		pending, err := sess.Add(ctx, testExpense("dosa", "90.00"))
		assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)

		e, err := sess.Update(ctx, pending.ID, &port.ExpenseUpdate{Amount: &newAmount})
		require.NoError(t, err)
		assert.Equal(t, "300.00", e.Amount.String())
	})

	t.Run("Unknown id", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		publisher := mock.NewMockEventPublisher(mockCtrl)
		sess := newTestSession(t, repo, publisher, nil)

		_, err := sess.Update(ctx, "missing", &port.ExpenseUpdate{Amount: &newAmount})
		assert.ErrorIs(t, err, domain.ErrDataNotFound)
	})
}

func TestSession_Delete(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()

	t.Run("Failed remote delete resyncs the collection", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		publisher := mock.NewMockEventPublisher(mockCtrl)

		remote := testExpense("ramen", "180.00")
		remote.ID = "srv-9"
		repo.EXPECT().ListExpensesByOwner(gomock.Any(), nil).Return([]*domain.FoodExpense{remote}, nil)

		m := ledger.NewManager(repo, publisher, zap.NewNop())
		sess, err := m.Session(ctx, nil)
		require.NoError(t, err)

		repo.EXPECT().DeleteExpense(gomock.Any(), "srv-9", nil).Return(errConnRefused)
		// Compensating refetch restores the server truth.
		repo.EXPECT().ListExpensesByOwner(gomock.Any(), nil).Return([]*domain.FoodExpense{remote}, nil)

		err = sess.Delete(ctx, "srv-9")
		assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)

		all := sess.All()
		require.Len(t, all, 1)
		assert.Equal(t, "srv-9", all[0].ID)
	})

	t.Run("Temp entries delete locally only", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		publisher := mock.NewMockEventPublisher(mockCtrl)
		sess := newTestSession(t, repo, publisher, nil)

		repo.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).Return(nil, errConnRefused)
		pending, err := sess.Add(ctx, testExpense("chaat", "60.00"))
		assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)

		require.NoError(t, sess.Delete(ctx, pending.ID))
		assert.Empty(t, sess.All())
	})
}

func TestSession_ApplyRemoteEvent(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	repo := mock.NewMockRepository(mockCtrl)
	publisher := mock.NewMockEventPublisher(mockCtrl)
	sess := newTestSession(t, repo, publisher, nil)

	base := testExpense("pizza", "400.00")
	base.ID = "srv-1"
	base.Status = domain.ExpenseStatusCompleted
	base.TransactionType = domain.TransactionExpense
	base.Date = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	// Insert for an unseen id lands in the collection.
	sess.ApplyRemoteEvent(port.ExpenseEvent{Kind: port.EventInsert, ExpenseID: "srv-1", Expense: base})
	require.Len(t, sess.All(), 1)

	// An echo of the same insert is a no-op.
	sess.ApplyRemoteEvent(port.ExpenseEvent{Kind: port.EventInsert, ExpenseID: "srv-1", Expense: base})
	require.Len(t, sess.All(), 1)

	// Update replaces the entry in place.
	changed := *base
	changed.Description = "pizza night"
	sess.ApplyRemoteEvent(port.ExpenseEvent{Kind: port.EventUpdate, ExpenseID: "srv-1", Expense: &changed})
	assert.Equal(t, "pizza night", sess.All()[0].Description)

	// Update for an unseen id is treated as an insert.
	other := testExpense("sushi", "900.00")
	other.ID = "srv-2"
	other.Date = base.Date.Add(time.Hour)
	sess.ApplyRemoteEvent(port.ExpenseEvent{Kind: port.EventUpdate, ExpenseID: "srv-2", Expense: other})
	require.Len(t, sess.All(), 2)

	// Delete removes it; a repeat delete is a no-op.
	sess.ApplyRemoteEvent(port.ExpenseEvent{Kind: port.EventDelete, ExpenseID: "srv-2"})
	sess.ApplyRemoteEvent(port.ExpenseEvent{Kind: port.EventDelete, ExpenseID: "srv-2"})
	require.Len(t, sess.All(), 1)
}

func TestSession_SnapshotsSurviveRemoteMerges(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	repo := mock.NewMockRepository(mockCtrl)
	publisher := mock.NewMockEventPublisher(mockCtrl)
	sess := newTestSession(t, repo, publisher, nil)

	base := testExpense("kebab", "220.00")
	base.ID = "srv-1"
	base.Status = domain.ExpenseStatusCompleted
	base.TransactionType = domain.TransactionExpense
	base.Date = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	sess.ApplyRemoteEvent(port.ExpenseEvent{Kind: port.EventInsert, ExpenseID: "srv-1", Expense: base})

	// A snapshot handed out before a merge keeps its values.
	snapshot := sess.All()
	require.Len(t, snapshot, 1)

	changed := *base
	changed.Description = "kebab platter"
	sess.ApplyRemoteEvent(port.ExpenseEvent{Kind: port.EventUpdate, ExpenseID: "srv-1", Expense: &changed})

	assert.Equal(t, "kebab", snapshot[0].Description)
	assert.Equal(t, "kebab platter", sess.All()[0].Description)

	// Merges and reads from separate goroutines never share entry memory.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			ev := *base
			ev.Description = fmt.Sprintf("kebab %d", i)
			sess.ApplyRemoteEvent(port.ExpenseEvent{Kind: port.EventUpdate, ExpenseID: "srv-1", Expense: &ev})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			for _, e := range sess.All() {
				_ = e.Description
				_ = e.Amount.String()
			}
		}
	}()
	wg.Wait()
}

func TestSession_Queries(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()

	now := time.Date(2026, 8, 27, 18, 0, 0, 0, time.UTC)

	dated := func(id, description, amount string, date time.Time, category domain.ExpenseCategory, cuisine string) *domain.FoodExpense {
		e := testExpense(description, amount)
		e.ID = id
		e.Date = date
		e.Category = category
		e.Cuisine = cuisine
		e.Status = domain.ExpenseStatusCompleted
		e.TransactionType = domain.TransactionExpense
		return e
	}

	repo := mock.NewMockRepository(mockCtrl)
	publisher := mock.NewMockEventPublisher(mockCtrl)
	repo.EXPECT().ListExpensesByOwner(gomock.Any(), nil).Return([]*domain.FoodExpense{
		dated("e1", "lunch today", "200.00", now.Add(-2*time.Hour), domain.CategoryDineIn, "indian"),
		dated("e2", "dinner yesterday", "350.00", now.AddDate(0, 0, -1), domain.CategoryDelivery, "indian"),
		dated("e3", "last month", "500.00", now.AddDate(0, -1, 0), domain.CategoryTakeout, ""),
	}, nil)

	m := ledger.NewManager(repo, publisher, zap.NewNop())
	sess, err := m.Session(ctx, nil)
	require.NoError(t, err)

	t.Run("TotalForPeriod", func(t *testing.T) {
		today, err := sess.TotalForPeriod(domain.PeriodToday, now)
		require.NoError(t, err)
		assert.Equal(t, "200.00", today.String())

		month, err := sess.TotalForPeriod(domain.PeriodMonth, now)
		require.NoError(t, err)
		assert.Equal(t, "550.00", month.String())
	})

	t.Run("GroupBy skips empty dimension values", func(t *testing.T) {
		byCuisine, err := sess.GroupBy(ledger.ByCuisine)
		require.NoError(t, err)
		require.Len(t, byCuisine, 1)
		assert.Equal(t, "550.00", byCuisine["indian"].String())

		byCategory, err := sess.GroupBy(ledger.ByCategory)
		require.NoError(t, err)
		assert.Len(t, byCategory, 3)
	})

	t.Run("Recent is newest first", func(t *testing.T) {
		recent := sess.Recent(2)
		require.Len(t, recent, 2)
		assert.Equal(t, "e1", recent[0].ID)
		assert.Equal(t, "e2", recent[1].ID)
	})
}

func TestManager_EventRouting(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()

	repo := mock.NewMockRepository(mockCtrl)
	publisher := mock.NewMockEventPublisher(mockCtrl)
	m := ledger.NewManager(repo, publisher, zap.NewNop())

	owner := uint64(7)
	repo.EXPECT().ListExpensesByOwner(gomock.Any(), &owner).Return(nil, nil)
	sess, err := m.Session(ctx, &owner)
	require.NoError(t, err)

	e := testExpense("routed", "100.00")
	e.ID = "srv-5"

	// Events for a loaded session land in it, others are dropped.
	stranger := uint64(8)
	m.ApplyRemoteEvent(port.ExpenseEvent{Kind: port.EventInsert, ExpenseID: "srv-5", OwnerID: &owner, Expense: e})
	m.ApplyRemoteEvent(port.ExpenseEvent{Kind: port.EventInsert, ExpenseID: "srv-6", OwnerID: &stranger, Expense: e})

	assert.Len(t, sess.All(), 1)
}
