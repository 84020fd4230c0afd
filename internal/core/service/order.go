package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/port"
	"go.uber.org/zap"
)

type pendingCheckout struct {
	session port.SessionContext
	draft   *port.CheckoutDraft
	order   *domain.Order
}

// Checkout validates the draft, schedules the gateway charge and parks the
// draft until the asynchronous callback arrives. The order itself is created
// only by PaymentSucceeded.
func (s *Service) Checkout(ctx context.Context, session port.SessionContext, draft *port.CheckoutDraft) (string, error) {
	if len(draft.Items) == 0 {
		return "", domain.ErrEmptyOrder
	}
	for _, item := range draft.Items {
		if item.Quantity < 1 {
			return "", domain.ErrBadRequest
		}
	}

	order := &domain.Order{
		OwnerID:        session.Owner(),
		RestaurantID:   draft.RestaurantID,
		RestaurantName: draft.RestaurantName,
		Items:          draft.Items,
		DeliveryType:   draft.DeliveryType,
		DeliveryFee:    draft.DeliveryFee,
		Tax:            draft.Tax,
		Discount:       draft.Discount,
		Payment:        domain.OrderPayment{Method: draft.PaymentMethod, Status: "pending"},
	}
	if err := order.RecomputeTotals(); err != nil {
		s.logger.Error("Recompute totals", zap.Error(err))
		return "", domain.ErrInternal
	}
	if !order.Total.IsPos() {
		return "", domain.ErrInvalidAmount
	}

	checkoutID := uuid.NewString()
	s.pendingMu.Lock()
	s.pending[checkoutID] = &pendingCheckout{session: session, draft: draft, order: order}
	s.pendingMu.Unlock()

	s.payment.ScheduleCharge(port.ChargeRequest{
		CheckoutID:  checkoutID,
		Amount:      order.Total,
		Currency:    "INR",
		Description: fmt.Sprintf("Order at %s", draft.RestaurantName),
	})
	return checkoutID, nil
}

// PaymentSucceeded creates the order and its ledger entry. If order creation
// fails the expense entry and the success notification are still surfaced;
// that fallback mirrors the documented checkout behavior rather than an
// idealized atomic commit.
func (s *Service) PaymentSucceeded(ctx context.Context, cb port.PaymentCallback) error {
	s.pendingMu.Lock()
	pc, ok := s.pending[cb.CheckoutID]
	delete(s.pending, cb.CheckoutID)
	s.pendingMu.Unlock()
	if !ok {
		return domain.ErrUnknownCheckout
	}

	now := time.Now()
	order := pc.order
	order.Status = domain.OrderStatusPlaced
	order.PlacedAt = &now
	order.Payment.Status = "completed"
	order.Payment.PaymentID = cb.PaymentID
	order.Payment.TransactionID = cb.CheckoutID

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		s.logger.Error("Create order after payment", zap.Error(err))
	} else {
		order = created
	}

	description := fmt.Sprintf("Order at %s", order.RestaurantName)
	if order.Number != "" {
		description = fmt.Sprintf("Order #%s at %s", order.Number, order.RestaurantName)
	}
	expense := &domain.FoodExpense{
		Description:     description,
		Amount:          order.Total,
		Category:        pc.draft.Category,
		MealType:        pc.draft.MealType,
		Restaurant:      order.RestaurantName,
		Date:            now,
		Status:          domain.ExpenseStatusCompleted,
		TransactionType: domain.TransactionExpense,
	}
	sess, lerr := s.session(ctx, pc.session)
	if lerr == nil {
		if _, aerr := sess.Add(ctx, expense); aerr != nil {
			s.logger.Error("Record checkout expense", zap.Error(aerr))
		}
	} else {
		s.logger.Error("Load ledger session for checkout", zap.Error(lerr))
	}

	s.notifier.Success(pc.session.Owner(), "Payment received, order placed")
	s.alertBudget(ctx, pc.session)
	return err
}

func (s *Service) PaymentFailed(ctx context.Context, checkoutID string, reason string) {
	s.pendingMu.Lock()
	pc, ok := s.pending[checkoutID]
	delete(s.pending, checkoutID)
	s.pendingMu.Unlock()
	if !ok {
		return
	}
	s.notifier.Error(pc.session.Owner(), fmt.Sprintf("Payment failed: %s", reason))
}

// ownedBy reports whether the order belongs to the calling session's
// partition. Guests own the shared null-owner partition and nothing else.
func ownedBy(session port.SessionContext, order *domain.Order) bool {
	owner := session.Owner()
	if owner == nil || order.OwnerID == nil {
		return owner == nil && order.OwnerID == nil
	}
	return *owner == *order.OwnerID
}

func (s *Service) ListOrders(ctx context.Context, session port.SessionContext) ([]*domain.Order, error) {
	list, err := s.repo.ListOrdersByOwner(ctx, session.Owner())
	if err != nil {
		s.logger.Error("List orders", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) TrackOrder(ctx context.Context, session port.SessionContext, number string) (*port.OrderTracking, error) {
	order, err := s.repo.ReadOrder(ctx, number)
	if err != nil {
		return nil, err
	}
	if !ownedBy(session, order) {
		return nil, domain.ErrUnauthorized
	}
	history, err := s.repo.ListOrderHistory(ctx, order.ID)
	if err != nil {
		s.logger.Error("List order history", zap.Error(err))
		return nil, err
	}
	return &port.OrderTracking{
		Order:   order,
		History: history,
		State:   domain.DeriveTrackingState(order, time.Now()),
	}, nil
}

// TransitionOrder applies the configured guard, persists the status and the
// history entry atomically and reports whether the order row still existed.
// Callers must treat found=false as authoritative failure.
func (s *Service) TransitionOrder(ctx context.Context, session port.SessionContext, number string,
	status domain.OrderStatus, message string, location string) (bool, error) {
	order, err := s.repo.ReadOrder(ctx, number)
	if err != nil {
		if err == domain.ErrDataNotFound {
			return false, nil
		}
		return false, err
	}
	if !ownedBy(session, order) {
		return false, domain.ErrUnauthorized
	}

	if err := order.ApplyTransition(status, time.Now(), s.transitionMode); err != nil {
		return false, err
	}

	entry := &domain.StatusHistoryEntry{
		OrderID:   order.ID,
		Status:    status,
		Message:   message,
		Location:  location,
		CreatedAt: time.Now(),
	}
	found, err := s.repo.UpdateOrderStatus(ctx, order, entry)
	if err != nil {
		s.logger.Error("Update order status", zap.Error(err))
		return false, err
	}
	if found {
		s.notifier.Success(order.OwnerID, fmt.Sprintf("Order #%s is now %s", order.Number, status))
	}
	return found, nil
}

func (s *Service) CancelOrder(ctx context.Context, session port.SessionContext, number string, reason string) error {
	order, err := s.repo.ReadOrder(ctx, number)
	if err != nil {
		return err
	}
	if !ownedBy(session, order) {
		return domain.ErrUnauthorized
	}
	if err := order.Cancel(reason, "customer", time.Now()); err != nil {
		return err
	}

	entry := &domain.StatusHistoryEntry{
		OrderID:   order.ID,
		Status:    domain.OrderStatusCancelled,
		Message:   reason,
		CreatedAt: time.Now(),
	}
	found, err := s.repo.UpdateOrderStatus(ctx, order, entry)
	if err != nil {
		s.logger.Error("Cancel order", zap.Error(err))
		return err
	}
	if !found {
		return domain.ErrDataNotFound
	}
	s.notifier.Success(order.OwnerID, fmt.Sprintf("Order #%s cancelled", order.Number))
	return nil
}

func (s *Service) RateOrder(ctx context.Context, session port.SessionContext, number string, rating int, review string) error {
	order, err := s.repo.ReadOrder(ctx, number)
	if err != nil {
		return err
	}
	if !ownedBy(session, order) {
		return domain.ErrUnauthorized
	}
	if err := order.Rate(rating, review); err != nil {
		return err
	}

	found, err := s.repo.SaveOrderRating(ctx, number, rating, review)
	if err != nil {
		s.logger.Error("Save rating", zap.Error(err))
		return err
	}
	if !found {
		return domain.ErrDataNotFound
	}
	s.notifier.Success(order.OwnerID, "Thanks for rating your order")
	return nil
}
