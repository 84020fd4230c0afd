package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/govalues/decimal"
)

type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusOnTheWay  OrderStatus = "on_the_way"
	OrderStatusNearby    OrderStatus = "nearby"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFailed    OrderStatus = "failed"
)

// StatusSequence is the linear delivery progression. Cancelled and failed sit
// outside of it and absorb from any non-terminal status.
var StatusSequence = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusPickedUp,
	OrderStatusOnTheWay,
	OrderStatusNearby,
	OrderStatusDelivered,
}

func (s OrderStatus) Valid() bool {
	if s == OrderStatusCancelled || s == OrderStatusFailed {
		return true
	}
	return s.SequenceIndex() >= 0
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusFailed
}

// SequenceIndex returns the position in StatusSequence, or -1 for the
// off-sequence terminal statuses.
func (s OrderStatus) SequenceIndex() int {
	for i, st := range StatusSequence {
		if st == s {
			return i
		}
	}
	return -1
}

type TransitionMode int

const (
	// TransitionModeStrict allows only forward moves along StatusSequence or a
	// jump to cancelled/failed, and rejects any move out of a terminal status.
	TransitionModeStrict TransitionMode = iota
	// TransitionModePermissive accepts any valid status from any prior status,
	// for operator corrections. Timestamps stay idempotent either way.
	TransitionModePermissive
)

func ParseTransitionMode(s string) (TransitionMode, error) {
	switch s {
	case "strict", "":
		return TransitionModeStrict, nil
	case "permissive":
		return TransitionModePermissive, nil
	}
	return TransitionModeStrict, fmt.Errorf("unknown transition mode %q", s)
}

type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"
	DeliveryTypeDineIn   DeliveryType = "dine_in"
)

type OrderItem struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

type OrderPayment struct {
	Method        string
	Status        string
	PaymentID     string
	TransactionID string
}

type Order struct {
	ID             uint64
	Number         string
	OwnerID        *uint64
	RestaurantID   string
	RestaurantName string
	Items          []OrderItem
	DeliveryType   DeliveryType

	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal

	Status  OrderStatus
	Payment OrderPayment

	Rating int
	Review string

	EstimatedDeliveryTime *time.Time

	PlacedAt    *time.Time
	ConfirmedAt *time.Time
	PreparingAt *time.Time
	ReadyAt     *time.Time
	PickedUpAt  *time.Time
	OnTheWayAt  *time.Time
	NearbyAt    *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
	FailedAt    *time.Time

	CancelledReason string
	CancelledBy     string
}

// StatusTimestamp returns the timestamp slot for the given status.
func (o *Order) StatusTimestamp(s OrderStatus) **time.Time {
	switch s {
	case OrderStatusPlaced:
		return &o.PlacedAt
	case OrderStatusConfirmed:
		return &o.ConfirmedAt
	case OrderStatusPreparing:
		return &o.PreparingAt
	case OrderStatusReady:
		return &o.ReadyAt
	case OrderStatusPickedUp:
		return &o.PickedUpAt
	case OrderStatusOnTheWay:
		return &o.OnTheWayAt
	case OrderStatusNearby:
		return &o.NearbyAt
	case OrderStatusDelivered:
		return &o.DeliveredAt
	case OrderStatusCancelled:
		return &o.CancelledAt
	case OrderStatusFailed:
		return &o.FailedAt
	}
	return nil
}

// ApplyTransition moves the order to status and stamps the matching timestamp
// slot if it is still empty. Re-entering a status never overwrites an existing
// timestamp.
func (o *Order) ApplyTransition(status OrderStatus, at time.Time, mode TransitionMode) error {
	if !status.Valid() {
		return ErrBadOrderStatus
	}
	if mode == TransitionModeStrict {
		if o.Status.Terminal() {
			return ErrOrderCompleted
		}
		if idx := status.SequenceIndex(); idx >= 0 && idx <= o.Status.SequenceIndex() && status != o.Status {
			return ErrStatusRegression
		}
	}
	o.Status = status
	if ts := o.StatusTimestamp(status); ts != nil && *ts == nil {
		t := at
		*ts = &t
	}
	return nil
}

func (o *Order) CanCancel() bool {
	return o.Status == OrderStatusPlaced || o.Status == OrderStatusConfirmed
}

func (o *Order) CanRate() bool {
	return o.Status == OrderStatusDelivered && o.Rating == 0
}

// Cancel is the customer-facing cancellation. It is allowed only while the
// order is still cancellable, regardless of transition mode.
func (o *Order) Cancel(reason string, by string, at time.Time) error {
	if !o.CanCancel() {
		return ErrOrderNotCancellable
	}
	if err := o.ApplyTransition(OrderStatusCancelled, at, TransitionModePermissive); err != nil {
		return err
	}
	o.CancelledReason = reason
	o.CancelledBy = by
	return nil
}

func (o *Order) Rate(rating int, review string) error {
	if rating < 1 || rating > 5 {
		return ErrRatingOutOfRange
	}
	if o.Rating != 0 {
		return ErrOrderAlreadyRated
	}
	if o.Status != OrderStatusDelivered {
		return ErrOrderNotRatable
	}
	o.Rating = rating
	o.Review = review
	return nil
}

// StatusHistoryEntry is one row of the append-only per-order status log.
type StatusHistoryEntry struct {
	ID        uint64
	OrderID   uint64
	Status    OrderStatus
	Message   string
	Location  string
	CreatedAt time.Time
}

// TrackingState is the derived, never-persisted view of an order in flight.
type TrackingState struct {
	ProgressPercent  float64
	Frozen           bool
	CanCancel        bool
	CanRate          bool
	EstimatedMinutes int
	HasEstimate      bool
}

// DeriveTrackingState is pure: it never mutates the order. For cancelled and
// failed orders progress is frozen rather than computed from the sequence.
func DeriveTrackingState(o *Order, now time.Time) TrackingState {
	state := TrackingState{
		CanCancel: o.CanCancel(),
		CanRate:   o.CanRate(),
	}
	if idx := o.Status.SequenceIndex(); idx >= 0 {
		state.ProgressPercent = float64(idx+1) / float64(len(StatusSequence)) * 100
	} else {
		state.Frozen = true
	}
	if o.EstimatedDeliveryTime != nil && o.Status != OrderStatusDelivered && !state.Frozen {
		mins := int(math.Ceil(o.EstimatedDeliveryTime.Sub(now).Minutes()))
		if mins < 0 {
			mins = 0
		}
		state.EstimatedMinutes = mins
		state.HasEstimate = true
	}
	return state
}

// RecomputeTotals restores the monetary invariant
// total = subtotal + fee + tax - discount from the line items.
func (o *Order) RecomputeTotals() error {
	subtotal := decimal.Zero
	for i := range o.Items {
		item := &o.Items[i]
		qty, err := decimal.New(int64(item.Quantity), 0)
		if err != nil {
			return err
		}
		line, err := item.UnitPrice.Mul(qty)
		if err != nil {
			return err
		}
		item.Subtotal = line
		subtotal, err = subtotal.Add(line)
		if err != nil {
			return err
		}
	}
	o.Subtotal = subtotal
	total, err := subtotal.Add(o.DeliveryFee)
	if err != nil {
		return err
	}
	total, err = total.Add(o.Tax)
	if err != nil {
		return err
	}
	total, err = total.Sub(o.Discount)
	if err != nil {
		return err
	}
	o.Total = total
	return nil
}

// FormatOrderNumber builds the human-readable date-prefixed number, e.g.
// 202608270042 for the 42nd order of 2026-08-27.
func FormatOrderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", day.Format("20060102"), seq)
}
