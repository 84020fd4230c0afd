package port

import (
	"context"

	"github.com/savorsave/savorsave/internal/core/domain"
)

type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// ExpenseEvent is the realtime change notification for one ledger entry.
// Expense is nil for deletes.
type ExpenseEvent struct {
	Kind      EventKind
	ExpenseID string
	OwnerID   *uint64
	Expense   *domain.FoodExpense
}

//go:generate mockgen -source=events.go -destination=mock/events.go -package=mock
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev ExpenseEvent) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan ExpenseEvent, error)
}
