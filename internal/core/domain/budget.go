package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type BudgetPeriod string

const (
	BudgetPeriodDaily   BudgetPeriod = "daily"
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodMonthly BudgetPeriod = "monthly"
)

func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetPeriodDaily, BudgetPeriodWeekly, BudgetPeriodMonthly:
		return true
	}
	return false
}

// window maps the budget period onto the ledger summary window.
func (p BudgetPeriod) window() Period {
	switch p {
	case BudgetPeriodDaily:
		return PeriodToday
	case BudgetPeriodWeekly:
		return PeriodWeek
	default:
		return PeriodMonth
	}
}

// Budget is the singleton limit per user and period.
type Budget struct {
	ID             uint64
	OwnerID        *uint64
	Period         BudgetPeriod
	Limit          decimal.Decimal
	AlertThreshold decimal.Decimal
	Enabled        bool
}

// DefaultBudget supplies the hard-coded fallbacks used when no budget row is
// configured: daily 400, weekly 2500, monthly 10000, threshold 80%.
func DefaultBudget(owner *uint64, period BudgetPeriod) *Budget {
	limit := decimal.MustParse("10000")
	switch period {
	case BudgetPeriodDaily:
		limit = decimal.MustParse("400")
	case BudgetPeriodWeekly:
		limit = decimal.MustParse("2500")
	}
	return &Budget{
		OwnerID:        owner,
		Period:         period,
		Limit:          limit,
		AlertThreshold: decimal.MustParse("80"),
		Enabled:        true,
	}
}

// BudgetUsage is derived on demand and never persisted.
type BudgetUsage struct {
	TotalSpent  decimal.Decimal
	Limit       decimal.Decimal
	PercentUsed decimal.Decimal
	Remaining   decimal.Decimal
	ShouldAlert bool
}

// Exceeded reports whether spend has passed the limit itself, not just the
// alert threshold.
func (u BudgetUsage) Exceeded() bool {
	return u.PercentUsed.Cmp(decimal.Hundred) >= 0
}

// ComputeUsage sums completed expense-type entries inside the budget window.
// Split and income entries never count against the budget. A zero limit yields
// zero percent and no alert instead of a division error.
func ComputeUsage(expenses []*FoodExpense, budget *Budget, now time.Time) (BudgetUsage, error) {
	spent := decimal.Zero
	var err error
	for _, e := range expenses {
		if e.Status != ExpenseStatusCompleted || e.TransactionType != TransactionExpense {
			continue
		}
		if !e.InPeriod(budget.Period.window(), now) {
			continue
		}
		spent, err = spent.Add(e.Amount)
		if err != nil {
			return BudgetUsage{}, err
		}
	}

	usage := BudgetUsage{
		TotalSpent:  spent,
		Limit:       budget.Limit,
		PercentUsed: decimal.Zero,
	}
	usage.Remaining, err = budget.Limit.Sub(spent)
	if err != nil {
		return BudgetUsage{}, err
	}
	if budget.Limit.IsZero() {
		return usage, nil
	}

	ratio, err := spent.Quo(budget.Limit)
	if err != nil {
		return BudgetUsage{}, err
	}
	pct, err := ratio.Mul(decimal.Hundred)
	if err != nil {
		return BudgetUsage{}, err
	}
	usage.PercentUsed = pct.Round(2)
	usage.ShouldAlert = budget.Enabled && usage.PercentUsed.Cmp(budget.AlertThreshold) >= 0
	return usage, nil
}

// PreCheckResult is advisory: Allowed=false is a soft warning, never a block.
type PreCheckResult struct {
	Allowed      bool
	PercentAfter decimal.Decimal
}

// PreCheck projects the percentage used if candidate were spent on top of the
// current window.
func PreCheck(candidate decimal.Decimal, expenses []*FoodExpense, budget *Budget, now time.Time) (PreCheckResult, error) {
	usage, err := ComputeUsage(expenses, budget, now)
	if err != nil {
		return PreCheckResult{}, err
	}
	if budget.Limit.IsZero() {
		return PreCheckResult{Allowed: true, PercentAfter: decimal.Zero}, nil
	}
	projected, err := usage.TotalSpent.Add(candidate)
	if err != nil {
		return PreCheckResult{}, err
	}
	ratio, err := projected.Quo(budget.Limit)
	if err != nil {
		return PreCheckResult{}, err
	}
	pct, err := ratio.Mul(decimal.Hundred)
	if err != nil {
		return PreCheckResult{}, err
	}
	after := pct.Round(2)
	return PreCheckResult{
		Allowed:      after.Cmp(decimal.Hundred) <= 0,
		PercentAfter: after,
	}, nil
}
