package port

import (
	"context"

	"github.com/govalues/decimal"
	"github.com/savorsave/savorsave/internal/core/domain"
)

// CheckoutDraft is what the UI hands over when the user pays. The order and
// its ledger entry are created only once the gateway confirms the charge.
type CheckoutDraft struct {
	RestaurantID   string
	RestaurantName string
	Items          []domain.OrderItem
	DeliveryType   domain.DeliveryType
	DeliveryFee    decimal.Decimal
	Tax            decimal.Decimal
	Discount       decimal.Decimal
	PaymentMethod  string
	Category       domain.ExpenseCategory
	MealType       domain.MealType
}

type OrderTracking struct {
	Order   *domain.Order
	History []*domain.StatusHistoryEntry
	State   domain.TrackingState
}

type ExpenseSummary struct {
	Today      decimal.Decimal
	Week       decimal.Decimal
	Month      decimal.Decimal
	ByCategory map[string]decimal.Decimal
	ByCuisine  map[string]decimal.Decimal
	ByMealType map[string]decimal.Decimal
	Recent     []*domain.FoodExpense
}

type Service interface {
	RegisterUser(ctx context.Context, user *domain.User) (*domain.User, error)
	LoginUser(ctx context.Context, login string, password string) (string, error)
	GuestSession(ctx context.Context) (string, error)

	Checkout(ctx context.Context, session SessionContext, draft *CheckoutDraft) (string, error)

	ListOrders(ctx context.Context, session SessionContext) ([]*domain.Order, error)
	TrackOrder(ctx context.Context, session SessionContext, number string) (*OrderTracking, error)
	TransitionOrder(ctx context.Context, session SessionContext, number string,
		status domain.OrderStatus, message string, location string) (bool, error)
	CancelOrder(ctx context.Context, session SessionContext, number string, reason string) error
	RateOrder(ctx context.Context, session SessionContext, number string, rating int, review string) error

	AddExpense(ctx context.Context, session SessionContext, expense *domain.FoodExpense) (*domain.FoodExpense, error)
	UpdateExpense(ctx context.Context, session SessionContext, id string, upd *ExpenseUpdate) (*domain.FoodExpense, error)
	CancelExpense(ctx context.Context, session SessionContext, id string, reason string) (bool, error)
	DeleteExpense(ctx context.Context, session SessionContext, id string) error
	ExpenseSummary(ctx context.Context, session SessionContext) (*ExpenseSummary, error)

	BudgetUsage(ctx context.Context, session SessionContext, period domain.BudgetPeriod) (*domain.BudgetUsage, error)
	SetBudget(ctx context.Context, session SessionContext, budget *domain.Budget) (*domain.Budget, error)
	PreCheckExpense(ctx context.Context, session SessionContext,
		amount decimal.Decimal, period domain.BudgetPeriod) (*domain.PreCheckResult, error)
}
