package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/ledger"
	"github.com/savorsave/savorsave/internal/core/port"
)

// AddExpense records an entry through the session ledger. A remote failure
// leaves the optimistic entry in place and is surfaced as a warning rather
// than a lost write.
func (s *Service) AddExpense(ctx context.Context, session port.SessionContext, expense *domain.FoodExpense) (*domain.FoodExpense, error) {
	sess, err := s.session(ctx, session)
	if err != nil {
		return nil, err
	}
	added, err := sess.Add(ctx, expense)
	if err != nil {
		if errors.Is(err, domain.ErrRemoteUnavailable) {
			s.notifier.Warning(session.Owner(), "Expense saved locally, sync pending")
			return added, err
		}
		return nil, err
	}
	s.notifier.Success(session.Owner(), fmt.Sprintf("Added %s", added.Description))
	s.alertBudget(ctx, session)
	return added, nil
}

func (s *Service) UpdateExpense(ctx context.Context, session port.SessionContext, id string, upd *port.ExpenseUpdate) (*domain.FoodExpense, error) {
	sess, err := s.session(ctx, session)
	if err != nil {
		return nil, err
	}
	updated, err := sess.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrRemoteUnavailable) {
			s.notifier.Warning(session.Owner(), "Expense updated locally, sync pending")
		}
		return updated, err
	}
	s.notifier.Success(session.Owner(), "Expense updated")
	s.alertBudget(ctx, session)
	return updated, nil
}

func (s *Service) CancelExpense(ctx context.Context, session port.SessionContext, id string, reason string) (bool, error) {
	sess, err := s.session(ctx, session)
	if err != nil {
		return false, err
	}
	ok, err := sess.Cancel(ctx, id, reason, time.Now())
	if err != nil {
		return ok, err
	}
	if ok {
		s.notifier.Success(session.Owner(), "Expense cancelled")
	}
	return ok, nil
}

func (s *Service) DeleteExpense(ctx context.Context, session port.SessionContext, id string) error {
	sess, err := s.session(ctx, session)
	if err != nil {
		return err
	}
	if err := sess.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRemoteUnavailable) {
			s.notifier.Error(session.Owner(), "Delete failed, expenses resynced")
		}
		return err
	}
	s.notifier.Success(session.Owner(), "Expense deleted")
	return nil
}

func (s *Service) ExpenseSummary(ctx context.Context, session port.SessionContext) (*port.ExpenseSummary, error) {
	sess, err := s.session(ctx, session)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := &port.ExpenseSummary{Recent: sess.Recent(0)}
	if summary.Today, err = sess.TotalForPeriod(domain.PeriodToday, now); err != nil {
		return nil, err
	}
	if summary.Week, err = sess.TotalForPeriod(domain.PeriodWeek, now); err != nil {
		return nil, err
	}
	if summary.Month, err = sess.TotalForPeriod(domain.PeriodMonth, now); err != nil {
		return nil, err
	}
	if summary.ByCategory, err = sess.GroupBy(ledger.ByCategory); err != nil {
		return nil, err
	}
	if summary.ByCuisine, err = sess.GroupBy(ledger.ByCuisine); err != nil {
		return nil, err
	}
	if summary.ByMealType, err = sess.GroupBy(ledger.ByMealType); err != nil {
		return nil, err
	}
	return summary, nil
}
