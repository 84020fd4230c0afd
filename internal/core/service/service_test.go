package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/ledger"
	"github.com/savorsave/savorsave/internal/core/port"
	"github.com/savorsave/savorsave/internal/core/port/mock"
	"github.com/savorsave/savorsave/internal/core/service"
	"github.com/savorsave/savorsave/internal/core/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testMocks struct {
	repo     *mock.MockRepository
	ts       *mock.MockTokenService
	payment  *mock.MockPaymentClient
	notifier *mock.MockNotifier
}

func newTestService(t *testing.T, mockCtrl *gomock.Controller) (*service.Service, *testMocks) {
	t.Helper()
	m := &testMocks{
		repo:     mock.NewMockRepository(mockCtrl),
		ts:       mock.NewMockTokenService(mockCtrl),
		payment:  mock.NewMockPaymentClient(mockCtrl),
		notifier: mock.NewMockNotifier(mockCtrl),
	}
	lm := ledger.NewManager(m.repo, nil, zap.NewNop())
	svc, err := service.NewService(m.repo, m.ts, m.payment, m.notifier, lm,
		domain.TransitionModeStrict, true, zap.NewNop())
	require.NoError(t, err)
	return svc, m
}

func ownerSession(id uint64) port.SessionContext {
	return port.SessionContext{UserID: &id}
}

func TestService_UserRegister(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	hashedPass, _ := utils.HashPassword("test")
	user := domain.User{Login: "test", Password: hashedPass, ID: 1}

	tests := []struct {
		name      string
		user      domain.User
		mock      func(m *testMocks)
		expError  error
		expResult *domain.User
	}{
		{
			name: "Register good",
			user: domain.User{Login: user.Login, Password: "test"},
			mock: func(m *testMocks) {
				m.repo.EXPECT().GetUserByLogin(gomock.Any(), user.Login).Return(nil, domain.ErrDataNotFound)
				m.repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(&user, nil)
			},
			expResult: &user,
		},
		{
			name: "Register already exists",
			user: domain.User{Login: user.Login, Password: "test"},
			mock: func(m *testMocks) {
				m.repo.EXPECT().GetUserByLogin(gomock.Any(), user.Login).Return(&user, nil)
			},
			expError: domain.ErrConflictingData,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc, m := newTestService(t, mockCtrl)
			test.mock(m)

			result, err := svc.RegisterUser(context.Background(), &test.user)
			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expResult, result)
		})
	}
}

func TestService_UserLogin(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	hashedPass, _ := utils.HashPassword("test")
	user := domain.User{Login: "test", Password: hashedPass, ID: 1}

	t.Run("Login good", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().GetUserByLogin(gomock.Any(), user.Login).Return(&user, nil)
		m.ts.EXPECT().CreateToken(&user).Return("token", nil)

		token, err := svc.LoginUser(context.Background(), "test", "test")
		require.NoError(t, err)
		assert.Equal(t, "token", token)
	})

	t.Run("Wrong password", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().GetUserByLogin(gomock.Any(), user.Login).Return(&user, nil)

		_, err := svc.LoginUser(context.Background(), "test", "wrong")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Unknown login", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().GetUserByLogin(gomock.Any(), "nobody").Return(nil, domain.ErrDataNotFound)

		_, err := svc.LoginUser(context.Background(), "nobody", "test")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestService_GuestSession(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	t.Run("Guest enabled", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.ts.EXPECT().CreateGuestToken().Return("guest-token", nil)

		token, err := svc.GuestSession(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "guest-token", token)
	})

	t.Run("Guest disabled", func(t *testing.T) {
		m := &testMocks{
			repo:     mock.NewMockRepository(mockCtrl),
			ts:       mock.NewMockTokenService(mockCtrl),
			payment:  mock.NewMockPaymentClient(mockCtrl),
			notifier: mock.NewMockNotifier(mockCtrl),
		}
		lm := ledger.NewManager(m.repo, nil, zap.NewNop())
		svc, err := service.NewService(m.repo, m.ts, m.payment, m.notifier, lm,
			domain.TransitionModeStrict, false, zap.NewNop())
		require.NoError(t, err)

		_, err = svc.GuestSession(context.Background())
		assert.ErrorIs(t, err, domain.ErrGuestDisabled)
	})
}

func checkoutDraft() *port.CheckoutDraft {
	return &port.CheckoutDraft{
		RestaurantName: "Spice Garden",
		Items: []domain.OrderItem{
			{Name: "Thali", Quantity: 2, UnitPrice: decimal.MustParse("150.00")},
		},
		DeliveryType: domain.DeliveryTypeDelivery,
		DeliveryFee:  decimal.MustParse("30.00"),
		Tax:          decimal.MustParse("15.00"),
		Discount:     decimal.MustParse("0"),
		Category:     domain.CategoryDelivery,
		MealType:     domain.MealDinner,
	}
}

func TestService_Checkout(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()
	session := ownerSession(1)

	t.Run("Schedules the charge for the computed total", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)

		var charged port.ChargeRequest
		m.payment.EXPECT().ScheduleCharge(gomock.Any()).
			Do(func(req port.ChargeRequest) { charged = req })

		checkoutID, err := svc.Checkout(ctx, session, checkoutDraft())
		require.NoError(t, err)
		assert.NotEmpty(t, checkoutID)
		assert.Equal(t, checkoutID, charged.CheckoutID)
		assert.Equal(t, "345.00", charged.Amount.String())
	})

	t.Run("Empty order", func(t *testing.T) {
		svc, _ := newTestService(t, mockCtrl)
		draft := checkoutDraft()
		draft.Items = nil

		_, err := svc.Checkout(ctx, session, draft)
		assert.ErrorIs(t, err, domain.ErrEmptyOrder)
	})

	t.Run("Zero quantity", func(t *testing.T) {
		svc, _ := newTestService(t, mockCtrl)
		draft := checkoutDraft()
		draft.Items[0].Quantity = 0

		_, err := svc.Checkout(ctx, session, draft)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})
}

func TestService_PaymentSucceeded(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()
	owner := uint64(1)
	session := ownerSession(owner)

	t.Run("Creates order and ledger entry", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)

		m.payment.EXPECT().ScheduleCharge(gomock.Any())
		checkoutID, err := svc.Checkout(ctx, session, checkoutDraft())
		require.NoError(t, err)

		m.repo.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, o *domain.Order) (*domain.Order, error) {
				assert.Equal(t, domain.OrderStatusPlaced, o.Status)
				assert.NotNil(t, o.PlacedAt)
				assert.Equal(t, "completed", o.Payment.Status)
				created := *o
				created.ID = 10
				created.Number = "202608270001"
				return &created, nil
			})
		m.repo.EXPECT().ListExpensesByOwner(gomock.Any(), &owner).Return(nil, nil)
		m.repo.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e *domain.FoodExpense) (*domain.FoodExpense, error) {
				assert.Equal(t, "Order #202608270001 at Spice Garden", e.Description)
				assert.Equal(t, "345.00", e.Amount.String())
				confirmed := *e
				confirmed.ID = "srv-1"
				return &confirmed, nil
			})
		m.notifier.EXPECT().Success(&owner, "Payment received, order placed")
		// Budget check after the mutation; default monthly budget, no alert.
		m.repo.EXPECT().ReadBudget(gomock.Any(), &owner, domain.BudgetPeriodMonthly).
			Return(nil, domain.ErrDataNotFound)

		err = svc.PaymentSucceeded(ctx, port.PaymentCallback{
			CheckoutID: checkoutID,
			PaymentID:  "pay-77",
			Amount:     decimal.MustParse("345.00"),
		})
		require.NoError(t, err)
	})

	t.Run("Order creation failure still records the expense", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)

		m.payment.EXPECT().ScheduleCharge(gomock.Any())
		checkoutID, err := svc.Checkout(ctx, session, checkoutDraft())
		require.NoError(t, err)

		dbDown := errors.New("db down")
		m.repo.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(nil, dbDown)
		m.repo.EXPECT().ListExpensesByOwner(gomock.Any(), &owner).Return(nil, nil)
		m.repo.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e *domain.FoodExpense) (*domain.FoodExpense, error) {
				// No order number available, falls back to the plain description.
				assert.Equal(t, "Order at Spice Garden", e.Description)
				confirmed := *e
				confirmed.ID = "srv-2"
				return &confirmed, nil
			})
		m.notifier.EXPECT().Success(&owner, "Payment received, order placed")
		m.repo.EXPECT().ReadBudget(gomock.Any(), &owner, domain.BudgetPeriodMonthly).
			Return(nil, domain.ErrDataNotFound)

		err = svc.PaymentSucceeded(ctx, port.PaymentCallback{CheckoutID: checkoutID})
		assert.ErrorIs(t, err, dbDown)
	})

	t.Run("Unknown checkout", func(t *testing.T) {
		svc, _ := newTestService(t, mockCtrl)
		err := svc.PaymentSucceeded(ctx, port.PaymentCallback{CheckoutID: "never-seen"})
		assert.ErrorIs(t, err, domain.ErrUnknownCheckout)
	})

	t.Run("Callback is consumed once", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)

		m.payment.EXPECT().ScheduleCharge(gomock.Any())
		checkoutID, err := svc.Checkout(ctx, session, checkoutDraft())
		require.NoError(t, err)

		m.notifier.EXPECT().Error(&owner, gomock.Any())
		svc.PaymentFailed(ctx, checkoutID, "card declined")

		// The pending draft is gone; a late success callback cannot revive it.
		err = svc.PaymentSucceeded(ctx, port.PaymentCallback{CheckoutID: checkoutID})
		assert.ErrorIs(t, err, domain.ErrUnknownCheckout)
	})
}

func TestService_TransitionOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()
	owner := uint64(1)
	session := ownerSession(owner)

	t.Run("Forward transition", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(&domain.Order{ID: 10, Number: "202608270001", OwnerID: &owner, Status: domain.OrderStatusPlaced}, nil)
		m.repo.EXPECT().UpdateOrderStatus(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, o *domain.Order, entry *domain.StatusHistoryEntry) (bool, error) {
				assert.Equal(t, domain.OrderStatusConfirmed, o.Status)
				assert.Equal(t, domain.OrderStatusConfirmed, entry.Status)
				return true, nil
			})
		m.notifier.EXPECT().Success(&owner, gomock.Any())

		found, err := svc.TransitionOrder(ctx, session, "202608270001", domain.OrderStatusConfirmed, "", "")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("Strict mode rejects regression", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(&domain.Order{ID: 10, OwnerID: &owner, Status: domain.OrderStatusReady}, nil)

		_, err := svc.TransitionOrder(ctx, session, "202608270001", domain.OrderStatusConfirmed, "", "")
		assert.ErrorIs(t, err, domain.ErrStatusRegression)
	})

	t.Run("Missing order reports found=false", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "000000000000").Return(nil, domain.ErrDataNotFound)

		found, err := svc.TransitionOrder(ctx, session, "000000000000", domain.OrderStatusConfirmed, "", "")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestService_CancelOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()
	owner := uint64(1)
	session := ownerSession(owner)

	t.Run("Cancel while placed", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(&domain.Order{ID: 10, Number: "202608270001", OwnerID: &owner, Status: domain.OrderStatusPlaced}, nil)
		m.repo.EXPECT().UpdateOrderStatus(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, o *domain.Order, entry *domain.StatusHistoryEntry) (bool, error) {
				assert.Equal(t, domain.OrderStatusCancelled, o.Status)
				assert.Equal(t, "customer", o.CancelledBy)
				return true, nil
			})
		m.notifier.EXPECT().Success(&owner, gomock.Any())

		assert.NoError(t, svc.CancelOrder(ctx, session, "202608270001", "changed my mind"))
	})

	t.Run("Cancel once preparing", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(&domain.Order{ID: 10, OwnerID: &owner, Status: domain.OrderStatusPreparing}, nil)

		err := svc.CancelOrder(ctx, session, "202608270001", "too slow")
		assert.ErrorIs(t, err, domain.ErrOrderNotCancellable)
	})
}

func TestService_RateOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()
	owner := uint64(1)
	session := ownerSession(owner)

	t.Run("Rate delivered order", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(&domain.Order{ID: 10, Number: "202608270001", OwnerID: &owner, Status: domain.OrderStatusDelivered}, nil)
		m.repo.EXPECT().SaveOrderRating(gomock.Any(), "202608270001", 5, "great").Return(true, nil)
		m.notifier.EXPECT().Success(&owner, gomock.Any())

		assert.NoError(t, svc.RateOrder(ctx, session, "202608270001", 5, "great"))
	})

	t.Run("Already rated", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(&domain.Order{ID: 10, OwnerID: &owner, Status: domain.OrderStatusDelivered, Rating: 4}, nil)

		err := svc.RateOrder(ctx, session, "202608270001", 5, "")
		assert.ErrorIs(t, err, domain.ErrOrderAlreadyRated)
	})

	t.Run("Concurrent rating lost the race", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(&domain.Order{ID: 10, OwnerID: &owner, Status: domain.OrderStatusDelivered}, nil)
		m.repo.EXPECT().SaveOrderRating(gomock.Any(), "202608270001", 5, "").Return(false, nil)

		err := svc.RateOrder(ctx, session, "202608270001", 5, "")
		assert.ErrorIs(t, err, domain.ErrDataNotFound)
	})
}

func TestService_OrderOwnership(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()
	owner := uint64(1)
	intruder := ownerSession(2)

	ownedOrder := func(status domain.OrderStatus) *domain.Order {
		return &domain.Order{ID: 10, Number: "202608270001", OwnerID: &owner, Status: status}
	}

	t.Run("Cancel by another user", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(ownedOrder(domain.OrderStatusPlaced), nil)

		err := svc.CancelOrder(ctx, intruder, "202608270001", "not mine")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Rate by another user", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(ownedOrder(domain.OrderStatusDelivered), nil)

		err := svc.RateOrder(ctx, intruder, "202608270001", 1, "never ordered this")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Transition by another user", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(ownedOrder(domain.OrderStatusPlaced), nil)

		_, err := svc.TransitionOrder(ctx, intruder, "202608270001", domain.OrderStatusConfirmed, "", "")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Track by another user", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(ownedOrder(domain.OrderStatusPreparing), nil)

		_, err := svc.TrackOrder(ctx, intruder, "202608270001")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Guest cannot touch an owned order", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270001").
			Return(ownedOrder(domain.OrderStatusPlaced), nil)

		err := svc.CancelOrder(ctx, port.SessionContext{Guest: true}, "202608270001", "oops")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Guests share the anonymous partition", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadOrder(gomock.Any(), "202608270002").
			Return(&domain.Order{ID: 11, Number: "202608270002", Status: domain.OrderStatusPlaced}, nil)
		m.repo.EXPECT().UpdateOrderStatus(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
		m.notifier.EXPECT().Success(gomock.Nil(), gomock.Any())

		assert.NoError(t, svc.CancelOrder(ctx, port.SessionContext{Guest: true}, "202608270002", "changed my mind"))
	})
}

func TestService_BudgetUsage(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()
	owner := uint64(1)
	session := ownerSession(owner)

	t.Run("Falls back to default budget", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().ReadBudget(gomock.Any(), &owner, domain.BudgetPeriodMonthly).
			Return(nil, domain.ErrDataNotFound)
		m.repo.EXPECT().ListExpensesByOwner(gomock.Any(), &owner).Return(nil, nil)

		usage, err := svc.BudgetUsage(ctx, session, domain.BudgetPeriodMonthly)
		require.NoError(t, err)
		assert.Equal(t, "10000", usage.Limit.String())
		assert.True(t, usage.TotalSpent.IsZero())
	})

	t.Run("Invalid period", func(t *testing.T) {
		svc, _ := newTestService(t, mockCtrl)
		_, err := svc.BudgetUsage(ctx, session, domain.BudgetPeriod("fortnight"))
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})
}

func TestService_SetBudget(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	ctx := context.Background()
	owner := uint64(1)
	session := ownerSession(owner)

	t.Run("Defaults the alert threshold", func(t *testing.T) {
		svc, m := newTestService(t, mockCtrl)
		m.repo.EXPECT().UpsertBudget(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, b *domain.Budget) (*domain.Budget, error) {
				assert.Equal(t, &owner, b.OwnerID)
				assert.Equal(t, "80", b.AlertThreshold.String())
				saved := *b
				saved.ID = 3
				return &saved, nil
			})
		m.notifier.EXPECT().Success(&owner, gomock.Any())

		saved, err := svc.SetBudget(ctx, session, &domain.Budget{
			Period:  domain.BudgetPeriodWeekly,
			Limit:   decimal.MustParse("2000"),
			Enabled: true,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), saved.ID)
	})

	t.Run("Negative limit", func(t *testing.T) {
		svc, _ := newTestService(t, mockCtrl)
		_, err := svc.SetBudget(ctx, session, &domain.Budget{
			Period: domain.BudgetPeriodDaily,
			Limit:  decimal.MustParse("-5"),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}
