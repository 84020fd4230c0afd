package domain

import (
	"strings"
	"time"

	"github.com/govalues/decimal"
)

type ExpenseCategory string

const (
	CategoryDineIn     ExpenseCategory = "dine_in"
	CategoryDelivery   ExpenseCategory = "delivery"
	CategoryTakeout    ExpenseCategory = "takeout"
	CategoryHomeCooked ExpenseCategory = "home_cooked"
	CategoryStreetFood ExpenseCategory = "street_food"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnacks    MealType = "snacks"
)

type ExpenseStatus string

const (
	ExpenseStatusPending   ExpenseStatus = "pending"
	ExpenseStatusCompleted ExpenseStatus = "completed"
	ExpenseStatusFailed    ExpenseStatus = "failed"
	ExpenseStatusCancelled ExpenseStatus = "cancelled"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
	TransactionSplit   TransactionType = "split"
)

type SplitMethod string

const (
	SplitMethodEqual  SplitMethod = "equal"
	SplitMethodManual SplitMethod = "manual"
)

type SplitShare struct {
	Person string          `json:"person"`
	Amount decimal.Decimal `json:"amount"`
}

// FoodExpense is one ledger entry. Amount is the caller's own share; for split
// entries SplitTotal holds the pre-split amount.
type FoodExpense struct {
	ID          string
	OwnerID     *uint64
	Description string
	Amount      decimal.Decimal
	Category    ExpenseCategory
	MealType    MealType
	Date        time.Time
	Cuisine     string
	Restaurant  string
	Notes       string

	Status          ExpenseStatus
	TransactionType TransactionType

	IsSplit          bool
	SplitTotal       decimal.Decimal
	SplitPeopleCount int
	SplitMethod      SplitMethod
	SplitShares      []SplitShare

	CancelledAt     *time.Time
	CancelledReason string
	CreatedAt       time.Time
}

// Validate runs before any mutation, local or remote.
func (e *FoodExpense) Validate() error {
	if !e.Amount.IsPos() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if e.IsSplit {
		if e.SplitPeopleCount < 2 {
			return ErrSplitPeopleCount
		}
		if e.SplitMethod == SplitMethodManual {
			if err := ValidateShares(e.SplitTotal, e.SplitShares); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *FoodExpense) CanCancel() bool {
	return e.Status == ExpenseStatusPending || e.Status == ExpenseStatusCompleted
}

// Cancel is a terminal status transition, not a deletion. Returns false when
// the expense is already failed or cancelled.
func (e *FoodExpense) Cancel(reason string, at time.Time) bool {
	if !e.CanCancel() {
		return false
	}
	e.Status = ExpenseStatusCancelled
	t := at
	e.CancelledAt = &t
	e.CancelledReason = reason
	return true
}

// Period is the rolling window for ledger summaries.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// PeriodStart returns the inclusive lower bound of the window in local time.
// Weeks start on the most recent Sunday at 00:00.
func PeriodStart(p Period, now time.Time) time.Time {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch p {
	case PeriodWeek:
		return day.AddDate(0, 0, -int(day.Weekday()))
	case PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	default:
		return day
	}
}

func (e *FoodExpense) InPeriod(p Period, now time.Time) bool {
	start := PeriodStart(p, now)
	return !e.Date.Before(start) && !e.Date.After(now)
}
