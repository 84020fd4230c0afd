// Package ledger holds the session-scoped expense collection. Every mutation
// is applied locally first and then confirmed against the repository; the
// compensating action on remote failure depends on the operation (keep the
// optimistic entry for add/update, full refetch for delete).
package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/port"
	"go.uber.org/zap"
)

const tempIDPrefix = "local-"

// IsTempID reports whether id is an optimistic identity that has not been
// reconciled with the store yet.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

func newTempID() string {
	return tempIDPrefix + uuid.NewString()
}

// Session owns the in-memory collection for one owner. The mutex exists
// because the realtime subscriber merges events concurrently with request
// handlers; there is no cross-session sharing.
type Session struct {
	mu        sync.Mutex
	owner     *uint64
	expenses  []*domain.FoodExpense
	repo      port.Repository
	publisher port.EventPublisher
	logger    *zap.Logger
}

func newSession(owner *uint64, repo port.Repository, publisher port.EventPublisher, logger *zap.Logger) *Session {
	return &Session{
		owner:     owner,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Reload replaces the local collection with the remote state. Used at session
// start and as the compensating action after a failed delete.
func (s *Session) Reload(ctx context.Context) error {
	list, err := s.repo.ListExpensesByOwner(ctx, s.owner)
	if err != nil {
		s.logger.Error("reload expenses", zap.Error(err))
		return domain.ErrRemoteUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = list
	s.sortLocked()
	return nil
}

// Add validates, inserts the expense at the head of the collection under a
// temporary identity, then issues the remote insert. On success a reconciled
// copy carrying the server identity replaces the optimistic entry in its
// slot; on failure the optimistic entry stays and the caller gets a
// recoverable error.
func (s *Session) Add(ctx context.Context, e *domain.FoodExpense) (*domain.FoodExpense, error) {
	s.applyDefaults(e)
	if e.IsSplit && e.SplitMethod == domain.SplitMethodEqual {
		shares, err := domain.EqualShares(e.SplitTotal, e.SplitPeopleCount, "")
		if err != nil {
			return nil, err
		}
		e.SplitShares = shares
		e.Amount = shares[0].Amount
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	e.ID = newTempID()
	s.mu.Lock()
	s.expenses = append([]*domain.FoodExpense{e}, s.expenses...)
	s.sortLocked()
	s.mu.Unlock()

	created, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		s.logger.Error("create expense, keeping optimistic entry", zap.Error(err))
		return e, domain.ErrRemoteUnavailable
	}

	reconciled := *e
	reconciled.ID = created.ID
	reconciled.CreatedAt = created.CreatedAt
	s.mu.Lock()
	if idx := s.indexLocked(e.ID); idx >= 0 {
		s.expenses[idx] = &reconciled
	}
	s.mu.Unlock()

	s.publish(ctx, port.ExpenseEvent{Kind: port.EventInsert, ExpenseID: reconciled.ID, OwnerID: s.owner, Expense: &reconciled})
	return &reconciled, nil
}

// Update merges the supplied fields locally and mirrors them remotely. Fields
// not present in upd are never touched. Entries still carrying a temporary
// identity are updated locally only; they reach the store with the pending
// insert.
func (s *Session) Update(ctx context.Context, id string, upd *port.ExpenseUpdate) (*domain.FoodExpense, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, domain.ErrDataNotFound
	}
	merged := *s.expenses[idx]
	mergeUpdate(&merged, upd)
	s.expenses[idx] = &merged
	s.sortLocked()
	s.mu.Unlock()

	if IsTempID(id) {
		return &merged, nil
	}
	if err := s.repo.UpdateExpense(ctx, id, s.owner, upd); err != nil {
		s.logger.Error("update expense, keeping optimistic state", zap.Error(err))
		return &merged, domain.ErrRemoteUnavailable
	}
	s.publish(ctx, port.ExpenseEvent{Kind: port.EventUpdate, ExpenseID: id, OwnerID: s.owner, Expense: &merged})
	return &merged, nil
}

// Cancel transitions the expense to cancelled. Returns false without error if
// the entry is already failed or cancelled.
func (s *Session) Cancel(ctx context.Context, id string, reason string, now time.Time) (bool, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, domain.ErrDataNotFound
	}
	cancelled := *s.expenses[idx]
	if !cancelled.Cancel(reason, now) {
		s.mu.Unlock()
		return false, nil
	}
	s.expenses[idx] = &cancelled
	s.mu.Unlock()

	if IsTempID(id) {
		return true, nil
	}
	status := domain.ExpenseStatusCancelled
	upd := &port.ExpenseUpdate{
		Status:          &status,
		CancelledAt:     cancelled.CancelledAt,
		CancelledReason: &reason,
	}
	if err := s.repo.UpdateExpense(ctx, id, s.owner, upd); err != nil {
		s.logger.Error("cancel expense, keeping optimistic state", zap.Error(err))
		return true, domain.ErrRemoteUnavailable
	}
	s.publish(ctx, port.ExpenseEvent{Kind: port.EventUpdate, ExpenseID: id, OwnerID: s.owner, Expense: &cancelled})
	return true, nil
}

// Delete removes the entry locally, then remotely. A failed remote delete
// triggers a full refetch rather than a fine-grained rollback.
func (s *Session) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrDataNotFound
	}
	s.expenses = append(s.expenses[:idx], s.expenses[idx+1:]...)
	s.mu.Unlock()

	if IsTempID(id) {
		return nil
	}
	if err := s.repo.DeleteExpense(ctx, id, s.owner); err != nil {
		s.logger.Error("delete expense, resyncing collection", zap.Error(err))
		if rerr := s.Reload(ctx); rerr != nil {
			return rerr
		}
		return domain.ErrRemoteUnavailable
	}
	s.publish(ctx, port.ExpenseEvent{Kind: port.EventDelete, ExpenseID: id, OwnerID: s.owner})
	return nil
}

// ApplyRemoteEvent merges a push notification idempotently: events that echo a
// change this session originated are no-ops.
func (s *Session) ApplyRemoteEvent(ev port.ExpenseEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev.Kind {
	case port.EventInsert, port.EventUpdate:
		if ev.Expense == nil {
			return
		}
		if idx := s.indexLocked(ev.ExpenseID); idx >= 0 {
			if ev.Kind == port.EventUpdate {
				// Replace the slot, never write through the stored pointer:
				// snapshots handed out earlier keep their entries intact.
				s.expenses[idx] = ev.Expense
				s.sortLocked()
			}
			return
		}
		s.expenses = append([]*domain.FoodExpense{ev.Expense}, s.expenses...)
		s.sortLocked()
	case port.EventDelete:
		if idx := s.indexLocked(ev.ExpenseID); idx >= 0 {
			s.expenses = append(s.expenses[:idx], s.expenses[idx+1:]...)
		}
	}
}

// All returns a snapshot of the collection, newest first. Entries are copies,
// so callers never share memory with the subscriber merge path.
func (s *Session) All() []*domain.FoodExpense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.FoodExpense, len(s.expenses))
	for i, e := range s.expenses {
		c := *e
		out[i] = &c
	}
	return out
}

// TotalForPeriod sums amounts dated inside the period window.
func (s *Session) TotalForPeriod(p domain.Period, now time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	var err error
	for _, e := range s.expenses {
		if !e.InPeriod(p, now) {
			continue
		}
		total, err = total.Add(e.Amount)
		if err != nil {
			return decimal.Zero, err
		}
	}
	return total, nil
}

type Dimension string

const (
	ByCategory Dimension = "category"
	ByCuisine  Dimension = "cuisine"
	ByMealType Dimension = "mealType"
)

// GroupBy sums amounts per dimension value; entries without a value for the
// dimension are excluded from that grouping.
func (s *Session) GroupBy(dim Dimension) (map[string]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]decimal.Decimal)
	for _, e := range s.expenses {
		var key string
		switch dim {
		case ByCategory:
			key = string(e.Category)
		case ByCuisine:
			key = e.Cuisine
		case ByMealType:
			key = string(e.MealType)
		}
		if key == "" {
			continue
		}
		sum, ok := out[key]
		if !ok {
			sum = decimal.Zero
		}
		sum, err := sum.Add(e.Amount)
		if err != nil {
			return nil, err
		}
		out[key] = sum
	}
	return out, nil
}

// Recent returns the newest entries by date, up to limit (default 5).
func (s *Session) Recent(limit int) []*domain.FoodExpense {
	if limit <= 0 {
		limit = 5
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.expenses) {
		limit = len(s.expenses)
	}
	out := make([]*domain.FoodExpense, limit)
	for i, e := range s.expenses[:limit] {
		c := *e
		out[i] = &c
	}
	return out
}

func (s *Session) applyDefaults(e *domain.FoodExpense) {
	now := time.Now()
	e.OwnerID = s.owner
	if e.Status == "" {
		e.Status = domain.ExpenseStatusCompleted
	}
	if e.TransactionType == "" {
		e.TransactionType = domain.TransactionExpense
	}
	if e.Date.IsZero() {
		e.Date = now
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
}

func (s *Session) indexLocked(id string) int {
	for i, e := range s.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) sortLocked() {
	sort.SliceStable(s.expenses, func(i, j int) bool {
		if s.expenses[i].Date.Equal(s.expenses[j].Date) {
			return s.expenses[i].CreatedAt.After(s.expenses[j].CreatedAt)
		}
		return s.expenses[i].Date.After(s.expenses[j].Date)
	})
}

func (s *Session) publish(ctx context.Context, ev port.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		s.logger.Warn("publish expense event", zap.Error(err))
	}
}

func mergeUpdate(e *domain.FoodExpense, upd *port.ExpenseUpdate) {
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.Amount != nil {
		e.Amount = *upd.Amount
	}
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.MealType != nil {
		e.MealType = *upd.MealType
	}
	if upd.Date != nil {
		e.Date = *upd.Date
	}
	if upd.Cuisine != nil {
		e.Cuisine = *upd.Cuisine
	}
	if upd.Restaurant != nil {
		e.Restaurant = *upd.Restaurant
	}
	if upd.Notes != nil {
		e.Notes = *upd.Notes
	}
	if upd.Status != nil {
		e.Status = *upd.Status
	}
	if upd.CancelledAt != nil {
		e.CancelledAt = upd.CancelledAt
	}
	if upd.CancelledReason != nil {
		e.CancelledReason = *upd.CancelledReason
	}
}
