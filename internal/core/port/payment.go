package port

import (
	"context"

	"github.com/govalues/decimal"
)

// ChargeRequest is handed to the gateway client; CheckoutID is the local
// idempotency key the callback is matched on.
type ChargeRequest struct {
	CheckoutID  string
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// PaymentCallback is the gateway's asynchronous success payload.
type PaymentCallback struct {
	CheckoutID string
	PaymentID  string
	Amount     decimal.Decimal
}

//go:generate mockgen -source=payment.go -destination=mock/payment.go -package=mock
type PaymentClient interface {
	ScheduleCharge(req ChargeRequest)
}

// CheckoutCompleter is implemented by the service; the gateway client invokes
// it once per charge outcome.
type CheckoutCompleter interface {
	PaymentSucceeded(ctx context.Context, cb PaymentCallback) error
	PaymentFailed(ctx context.Context, checkoutID string, reason string)
}
