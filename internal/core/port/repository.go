package port

import (
	"context"
	"time"

	"github.com/govalues/decimal"
	"github.com/savorsave/savorsave/internal/core/domain"
)

// ExpenseUpdate carries a partial update; nil fields are left untouched
// remotely, never nulled.
type ExpenseUpdate struct {
	Description     *string
	Amount          *decimal.Decimal
	Category        *domain.ExpenseCategory
	MealType        *domain.MealType
	Date            *time.Time
	Cuisine         *string
	Restaurant      *string
	Notes           *string
	Status          *domain.ExpenseStatus
	CancelledAt     *time.Time
	CancelledReason *string
}

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type Repository interface {
	// User
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)

	// Order. CreateOrder assigns the id and the date-prefixed number
	// atomically. UpdateOrderStatus persists the status, its timestamp and the
	// history entry in one transaction and reports whether the order row was
	// found; a false result means nothing was written, history included.
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReadOrder(ctx context.Context, number string) (*domain.Order, error)
	ListOrdersByOwner(ctx context.Context, owner *uint64) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, order *domain.Order, entry *domain.StatusHistoryEntry) (bool, error)
	SaveOrderRating(ctx context.Context, number string, rating int, review string) (bool, error)
	ListOrderHistory(ctx context.Context, orderID uint64) ([]*domain.StatusHistoryEntry, error)

	// Expense
	CreateExpense(ctx context.Context, expense *domain.FoodExpense) (*domain.FoodExpense, error)
	UpdateExpense(ctx context.Context, id string, owner *uint64, upd *ExpenseUpdate) error
	DeleteExpense(ctx context.Context, id string, owner *uint64) error
	ListExpensesByOwner(ctx context.Context, owner *uint64) ([]*domain.FoodExpense, error)

	// Budget. Upsert is keyed by (owner, period) so concurrent writers cannot
	// produce duplicate rows.
	ReadBudget(ctx context.Context, owner *uint64, period domain.BudgetPeriod) (*domain.Budget, error)
	UpsertBudget(ctx context.Context, budget *domain.Budget) (*domain.Budget, error)
}
