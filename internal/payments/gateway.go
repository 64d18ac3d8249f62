package payment

import (
	"context"

	"github.com/google/uuid"
)

// CheckoutSessionRequest carries everything the gateway needs to open a
// hosted checkout page for one booking.
type CheckoutSessionRequest struct {
	BookingID   uuid.UUID
	ItemName    string
	Description string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the gateway-side view of a checkout attempt.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	Paid            bool
}

// CheckoutGateway abstracts the hosted-checkout provider so the payment
// service can be tested without network calls.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}
