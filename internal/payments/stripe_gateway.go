package payment

import (
	"context"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/gamerent/gamerent-backend/pkg/errors"
	pkgstripe "github.com/gamerent/gamerent-backend/pkg/stripe"
)

// StripeGateway implements CheckoutGateway against Stripe Checkout Sessions.
type StripeGateway struct {
	client *pkgstripe.Client
}

// NewStripeGateway wraps the shared Stripe client.
func NewStripeGateway(client *pkgstripe.Client) (*StripeGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	return &StripeGateway{client: client}, nil
}

// CreateCheckoutSession opens a single-payment hosted checkout for the booking.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionCreateParams{
		Mode:              stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		ClientReferenceID: stripeapi.String(req.BookingID.String()),
		SuccessURL:        stripeapi.String(req.SuccessURL),
		CancelURL:         stripeapi.String(req.CancelURL),
		LineItems: []*stripeapi.CheckoutSessionCreateLineItemParams{
			{
				Quantity: stripeapi.Int64(1),
				PriceData: &stripeapi.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripeapi.String(req.Currency),
					UnitAmount: stripeapi.Int64(req.AmountCents),
					ProductData: &stripeapi.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name:        stripeapi.String(req.ItemName),
						Description: stripeapi.String(req.Description),
					},
				},
			},
		},
		Metadata: map[string]string{
			"booking_id": req.BookingID.String(),
		},
	}

	session, err := g.client.API().V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePayment, err, "stripe: create checkout session")
	}
	return fromStripeSession(session), nil
}

// RetrieveCheckoutSession loads the current state of a checkout session.
func (g *StripeGateway) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	session, err := g.client.API().V1CheckoutSessions.Retrieve(ctx, sessionID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePayment, err, "stripe: retrieve checkout session")
	}
	return fromStripeSession(session), nil
}

func fromStripeSession(session *stripeapi.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:   session.ID,
		URL:  session.URL,
		Paid: session.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusPaid,
	}
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	return out
}
