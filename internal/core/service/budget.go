package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/govalues/decimal"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/port"
	"go.uber.org/zap"
)

func (s *Service) budgetOrDefault(ctx context.Context, owner *uint64, period domain.BudgetPeriod) (*domain.Budget, error) {
	budget, err := s.repo.ReadBudget(ctx, owner, period)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return domain.DefaultBudget(owner, period), nil
		}
		s.logger.Error("Read budget", zap.Error(err))
		return nil, err
	}
	return budget, nil
}

// BudgetUsage recomputes spend-vs-limit for the period. The computation is
// memoryless, so a crossed threshold re-alerts on every recomputation.
func (s *Service) BudgetUsage(ctx context.Context, session port.SessionContext, period domain.BudgetPeriod) (*domain.BudgetUsage, error) {
	if !period.Valid() {
		return nil, domain.ErrBadRequest
	}
	budget, err := s.budgetOrDefault(ctx, session.Owner(), period)
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, session)
	if err != nil {
		return nil, err
	}
	usage, err := domain.ComputeUsage(sess.All(), budget, time.Now())
	if err != nil {
		s.logger.Error("Compute budget usage", zap.Error(err))
		return nil, domain.ErrInternal
	}
	s.emitAlert(session.Owner(), usage, period)
	return &usage, nil
}

func (s *Service) SetBudget(ctx context.Context, session port.SessionContext, budget *domain.Budget) (*domain.Budget, error) {
	if !budget.Period.Valid() {
		return nil, domain.ErrBadRequest
	}
	if budget.Limit.IsNeg() {
		return nil, domain.ErrInvalidAmount
	}
	if budget.AlertThreshold.IsZero() {
		budget.AlertThreshold = decimal.MustParse("80")
	}
	budget.OwnerID = session.Owner()

	saved, err := s.repo.UpsertBudget(ctx, budget)
	if err != nil {
		s.logger.Error("Upsert budget", zap.Error(err))
		return nil, err
	}
	s.notifier.Success(session.Owner(), fmt.Sprintf("%s budget set to %s", saved.Period, saved.Limit))
	return saved, nil
}

// PreCheckExpense is advisory only: Allowed=false is a soft warning the caller
// may override after confirmation.
func (s *Service) PreCheckExpense(ctx context.Context, session port.SessionContext,
	amount decimal.Decimal, period domain.BudgetPeriod) (*domain.PreCheckResult, error) {
	if !amount.IsPos() {
		return nil, domain.ErrInvalidAmount
	}
	budget, err := s.budgetOrDefault(ctx, session.Owner(), period)
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, session)
	if err != nil {
		return nil, err
	}
	result, err := domain.PreCheck(amount, sess.All(), budget, time.Now())
	if err != nil {
		s.logger.Error("Budget pre-check", zap.Error(err))
		return nil, domain.ErrInternal
	}
	return &result, nil
}

// alertBudget recomputes the monthly usage after a mutation and fires the
// threshold notification when crossed.
func (s *Service) alertBudget(ctx context.Context, session port.SessionContext) {
	budget, err := s.budgetOrDefault(ctx, session.Owner(), domain.BudgetPeriodMonthly)
	if err != nil {
		return
	}
	sess, err := s.session(ctx, session)
	if err != nil {
		return
	}
	usage, err := domain.ComputeUsage(sess.All(), budget, time.Now())
	if err != nil {
		s.logger.Error("Compute budget usage", zap.Error(err))
		return
	}
	s.emitAlert(session.Owner(), usage, domain.BudgetPeriodMonthly)
}

func (s *Service) emitAlert(owner *uint64, usage domain.BudgetUsage, period domain.BudgetPeriod) {
	if !usage.ShouldAlert {
		return
	}
	if usage.Exceeded() {
		s.notifier.Error(owner, fmt.Sprintf("%s budget exceeded: %s%% used", period, usage.PercentUsed))
		return
	}
	s.notifier.Warning(owner, fmt.Sprintf("%s budget at %s%% of limit", period, usage.PercentUsed))
}
