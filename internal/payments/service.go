package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	booking "github.com/gamerent/gamerent-backend/internal/bookings"
	"github.com/gamerent/gamerent-backend/pkg/config"
	"github.com/gamerent/gamerent-backend/pkg/db"
	"github.com/gamerent/gamerent-backend/pkg/db/models"
	"github.com/gamerent/gamerent-backend/pkg/enums"
	pkgerrors "github.com/gamerent/gamerent-backend/pkg/errors"
	"github.com/gamerent/gamerent-backend/pkg/logger"
	"github.com/gamerent/gamerent-backend/pkg/metrics"
)

// Service drives the payment leg of the booking lifecycle.
type Service interface {
	CreateCheckoutSession(ctx context.Context, renterID, bookingID uuid.UUID) (*CheckoutSessionDTO, error)
	ConfirmPayment(ctx context.Context, renterID, bookingID uuid.UUID, sessionID string) (*PaymentResultDTO, error)
}

// CheckoutSessionDTO is returned to the client to redirect into hosted checkout.
type CheckoutSessionDTO struct {
	BookingID   uuid.UUID `json:"booking_id"`
	SessionID   string    `json:"session_id"`
	CheckoutURL string    `json:"checkout_url"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
}

// PaymentResultDTO reports the post-confirmation state of a booking.
type PaymentResultDTO struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	AlreadyPaid   bool       `json:"already_paid"`
}

type service struct {
	repo     *booking.Repository
	dbClient *db.Client
	gateway  CheckoutGateway
	cfg      config.PaymentsConfig
	logg     *logger.Logger
	stats    *metrics.BookingMetrics
	nowFn    func() time.Time
}

// NewService constructs a payment service instance.
func NewService(repo *booking.Repository, dbClient *db.Client, gateway CheckoutGateway, cfg config.PaymentsConfig, logg *logger.Logger, stats *metrics.BookingMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("checkout gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		gateway:  gateway,
		cfg:      cfg,
		logg:     logg,
		stats:    stats,
		nowFn:    time.Now,
	}, nil
}

// CreateCheckoutSession opens a hosted checkout for an approved, unpaid
// booking. The gateway call happens between two short transactions so the
// row lock is never held across the network.
func (s *service) CreateCheckoutSession(ctx context.Context, renterID, bookingID uuid.UUID) (*CheckoutSessionDTO, error) {
	ctx = s.logg.WithBookingID(ctx, bookingID.String())

	var (
		item        models.Item
		amountCents int64
	)
	if err := s.guardPayableBooking(ctx, renterID, bookingID, func(_ *booking.Repository, target *models.Booking, lockedItem *models.Item) error {
		item = *lockedItem
		amountCents = booking.PriceCents(target.TotalPrice)
		return nil
	}); err != nil {
		return nil, err
	}

	gwCtx := ctx
	if s.cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		gwCtx, cancel = context.WithTimeout(ctx, s.cfg.GatewayTimeout)
		defer cancel()
	}
	session, err := s.gateway.CreateCheckoutSession(gwCtx, CheckoutSessionRequest{
		BookingID:   bookingID,
		ItemName:    item.Name,
		Description: fmt.Sprintf("GameRent booking #%s", bookingID),
		AmountCents: amountCents,
		Currency:    s.currency(),
		SuccessURL:  s.successURL(bookingID),
		CancelURL:   s.cancelURL(bookingID),
	})
	if err != nil {
		return nil, asPaymentError(err, "gateway: create checkout session")
	}

	// A second lock persists the session ids; the booking may have been
	// cancelled or paid while the gateway call was in flight.
	if err := s.guardPayableBooking(ctx, renterID, bookingID, func(txRepo *booking.Repository, target *models.Booking, _ *models.Item) error {
		target.CheckoutSessionID = &session.ID
		if session.PaymentIntentID != "" {
			target.PaymentIntentID = &session.PaymentIntentID
		}
		if _, err := txRepo.Save(ctx, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save checkout session")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.stats.IncCheckoutSession()
	s.logg.Info(ctx, "checkout session created")

	return &CheckoutSessionDTO{
		BookingID:   bookingID,
		SessionID:   session.ID,
		CheckoutURL: session.URL,
		AmountCents: amountCents,
		Currency:    s.currency(),
	}, nil
}

// ConfirmPayment settles the booking after the renter returns from checkout.
// A booking already marked paid returns successfully without touching the
// gateway.
func (s *service) ConfirmPayment(ctx context.Context, renterID, bookingID uuid.UUID, sessionID string) (*PaymentResultDTO, error) {
	ctx = s.logg.WithBookingID(ctx, bookingID.String())
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session_id is required")
	}

	var (
		result  *PaymentResultDTO
		expired bool
	)
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		target, err := txRepo.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock booking")
		}
		if target.RenterID != renterID {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the renter can confirm this payment")
		}

		if target.PaymentStatus == enums.PaymentStatusPaid {
			result = toPaymentResult(target, true)
			return nil
		}
		if target.Status != enums.BookingStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("booking is %s, payment requires an approved booking", target.Status))
		}
		if target.PaymentOverdue(s.nowFn().UTC()) {
			// commit the cancellation, then report expiry to the caller
			target.Status = enums.BookingStatusCancelled
			if _, err := txRepo.Save(ctx, target); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cancel overdue booking")
			}
			expired = true
			return nil
		}
		if target.CheckoutSessionID == nil || *target.CheckoutSessionID != sessionID {
			return pkgerrors.New(pkgerrors.CodePayment, "checkout session does not match this booking")
		}

		gwCtx := ctx
		if s.cfg.GatewayTimeout > 0 {
			var cancel context.CancelFunc
			gwCtx, cancel = context.WithTimeout(ctx, s.cfg.GatewayTimeout)
			defer cancel()
		}
		session, err := s.gateway.RetrieveCheckoutSession(gwCtx, sessionID)
		if err != nil {
			return asPaymentError(err, "gateway: retrieve checkout session")
		}
		if !session.Paid {
			return pkgerrors.New(pkgerrors.CodePayment, "payment has not been completed")
		}

		now := s.nowFn().UTC()
		target.PaymentStatus = enums.PaymentStatusPaid
		target.PaidAt = &now
		if session.PaymentIntentID != "" {
			target.PaymentIntentID = &session.PaymentIntentID
		}
		if _, err := txRepo.Save(ctx, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark booking paid")
		}
		result = toPaymentResult(target, false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		s.stats.IncExpired()
		s.logg.Warn(ctx, "booking cancelled: payment window expired")
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "payment window has expired, booking cancelled")
	}

	if !result.AlreadyPaid {
		s.stats.IncPaid()
		s.logg.Info(ctx, "booking paid")
	}
	return result, nil
}

// guardPayableBooking runs fn under the booking and item row locks after the
// shared approved/unpaid/ownership checks. An overdue booking is cancelled
// and committed before the expiry error is returned.
func (s *service) guardPayableBooking(ctx context.Context, renterID, bookingID uuid.UUID, fn func(txRepo *booking.Repository, target *models.Booking, item *models.Item) error) error {
	expired := false
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		target, err := txRepo.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock booking")
		}
		if target.RenterID != renterID {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the renter can pay for this booking")
		}
		if target.PaymentStatus == enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking is already paid")
		}
		if target.Status != enums.BookingStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("booking is %s, payment requires an approved booking", target.Status))
		}
		if target.PaymentOverdue(s.nowFn().UTC()) {
			target.Status = enums.BookingStatusCancelled
			if _, err := txRepo.Save(ctx, target); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cancel overdue booking")
			}
			expired = true
			return nil
		}

		item, err := txRepo.LockItem(ctx, target.ItemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock item")
		}
		target.Item = item
		return fn(txRepo, target, item)
	})
	if err != nil {
		return err
	}
	if expired {
		s.stats.IncExpired()
		s.logg.Warn(ctx, "booking cancelled: payment window expired")
		return pkgerrors.New(pkgerrors.CodeExpired, "payment window has expired, booking cancelled")
	}
	return nil
}

func (s *service) currency() string {
	currency := strings.TrimSpace(strings.ToLower(s.cfg.Currency))
	if currency == "" {
		return "eur"
	}
	return currency
}

func (s *service) successURL(bookingID uuid.UUID) string {
	base := s.baseURL()
	// session_id placeholder is substituted by the gateway on redirect
	return fmt.Sprintf("%s/bookings?payment_success=1&bookingId=%s&session_id={CHECKOUT_SESSION_ID}",
		base, url.QueryEscape(bookingID.String()))
}

func (s *service) cancelURL(bookingID uuid.UUID) string {
	return fmt.Sprintf("%s/bookings?payment_cancelled=1&bookingId=%s",
		s.baseURL(), url.QueryEscape(bookingID.String()))
}

func (s *service) baseURL() string {
	return strings.TrimRight(strings.TrimSpace(s.cfg.CheckoutBaseURL), "/")
}

// asPaymentError keeps typed gateway failures as-is and folds transport
// failures and timeouts into a payment error.
func asPaymentError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodePayment, err, message)
}

func toPaymentResult(target *models.Booking, alreadyPaid bool) *PaymentResultDTO {
	return &PaymentResultDTO{
		BookingID:     target.ID,
		Status:        target.Status.String(),
		PaymentStatus: target.PaymentStatus.String(),
		PaidAt:        target.PaidAt,
		AlreadyPaid:   alreadyPaid,
	}
}
