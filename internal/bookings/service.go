package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/gamerent/gamerent-backend/pkg/db"
	"github.com/gamerent/gamerent-backend/pkg/db/models"
	"github.com/gamerent/gamerent-backend/pkg/enums"
	pkgerrors "github.com/gamerent/gamerent-backend/pkg/errors"
	"github.com/gamerent/gamerent-backend/pkg/logger"
	"github.com/gamerent/gamerent-backend/pkg/metrics"
)

// Service exposes the reservation lifecycle.
type Service interface {
	CreateBooking(ctx context.Context, renterID uuid.UUID, input CreateBookingInput) (*BookingDTO, error)
	DecideBooking(ctx context.Context, ownerID, bookingID uuid.UUID, decision enums.BookingStatus) (*BookingDTO, error)
	ListRenterBookings(ctx context.Context, renterID uuid.UUID) ([]BookingDTO, error)
	ListOwnerBookings(ctx context.Context, ownerID uuid.UUID) ([]BookingDTO, error)
	ListItemBookings(ctx context.Context, callerID, itemID uuid.UUID) ([]BookingDTO, error)
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}

// CreateBookingInput holds the validated payload for a booking request.
type CreateBookingInput struct {
	ItemID    uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	logg     *logger.Logger
	stats    *metrics.BookingMetrics
	nowFn    func() time.Time
}

// NewService constructs a booking service instance.
func NewService(repo *Repository, dbClient *db.Client, logg *logger.Logger, stats *metrics.BookingMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		logg:     logg,
		stats:    stats,
		nowFn:    time.Now,
	}, nil
}

// CreateBooking validates and records a pending reservation request. The
// item row is locked so overlap checks and inserts serialize per item.
func (s *service) CreateBooking(ctx context.Context, renterID uuid.UUID, input CreateBookingInput) (*BookingDTO, error) {
	start := NormalizeDate(input.StartDate)
	end := NormalizeDate(input.EndDate)
	today := NormalizeDate(s.nowFn().UTC())

	var created *models.Booking
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		item, err := txRepo.LockItem(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock item")
		}
		if item.OwnerID == renterID {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "cannot book your own item")
		}
		if !item.Available {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "item is not available for booking")
		}

		// ownership and availability failures take precedence over date
		// validation
		if start.After(end) {
			return pkgerrors.New(pkgerrors.CodeValidation, "start_date must not be after end_date")
		}
		if start.Before(today) {
			return pkgerrors.New(pkgerrors.CodeValidation, "start_date must not be in the past")
		}

		days := InclusiveDays(start, end)
		if days < item.MinDays() {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("booking must cover at least %d days", item.MinDays()))
		}

		overlap, err := txRepo.HasOverlap(ctx, item.ID, start, end, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: overlap check")
		}
		if overlap {
			return pkgerrors.New(pkgerrors.CodeConflict, "item is already booked for the requested dates")
		}

		booking := &models.Booking{
			ItemID:        item.ID,
			RenterID:      renterID,
			StartDate:     start,
			EndDate:       end,
			TotalPrice:    TotalPrice(item.PricePerDay, days),
			Status:        enums.BookingStatusPending,
			PaymentStatus: enums.PaymentStatusUnpaid,
		}
		created, err = txRepo.Create(ctx, booking)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert booking")
		}
		created.Item = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithBookingID(ctx, created.ID.String())
	s.logg.Info(ctx, "booking requested")
	return toBookingDTO(created), nil
}

// DecideBooking records the owner's approve/reject decision. Approval stamps
// the payment deadline and re-checks overlap under the item lock, so two
// concurrent approvals for the same dates cannot both land.
func (s *service) DecideBooking(ctx context.Context, ownerID, bookingID uuid.UUID, decision enums.BookingStatus) (*BookingDTO, error) {
	switch decision {
	case enums.BookingStatusApproved, enums.BookingStatusRejected, enums.BookingStatusCancelled:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("decision must be approved, rejected or cancelled, got %q", decision))
	}

	var decided *models.Booking
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		target, err := txRepo.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock booking")
		}

		item, err := txRepo.LockItem(ctx, target.ItemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock item")
		}
		if item.OwnerID != ownerID {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "only the item owner can decide this booking")
		}
		if target.Status != enums.BookingStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("booking is %s, only pending bookings can be decided", target.Status))
		}

		if decision == enums.BookingStatusApproved {
			overlap, err := txRepo.HasOverlap(ctx, target.ItemID, target.StartDate, target.EndDate, &target.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: overlap re-check")
			}
			if overlap {
				return pkgerrors.New(pkgerrors.CodeConflict, "another approved booking already covers these dates")
			}
			now := s.nowFn().UTC()
			due := PaymentDeadline(now)
			target.Status = enums.BookingStatusApproved
			target.ApprovedAt = &now
			target.PaymentDueAt = &due
		} else {
			target.Status = decision
		}

		decided, err = txRepo.Save(ctx, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save booking decision")
		}
		decided.Item = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithBookingID(ctx, decided.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("booking %s", decided.Status))
	return toBookingDTO(decided), nil
}

// ListRenterBookings returns the caller's bookings, expiring any whose
// payment window lapsed before reporting them.
func (s *service) ListRenterBookings(ctx context.Context, renterID uuid.UUID) ([]BookingDTO, error) {
	rows, err := s.repo.ListByRenter(ctx, renterID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list renter bookings")
	}
	if err := s.expireLapsed(ctx, rows); err != nil {
		return nil, err
	}
	return toBookingDTOs(rows), nil
}

// ListOwnerBookings returns bookings made against the owner's items.
func (s *service) ListOwnerBookings(ctx context.Context, ownerID uuid.UUID) ([]BookingDTO, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list owner bookings")
	}
	if err := s.expireLapsed(ctx, rows); err != nil {
		return nil, err
	}
	return toBookingDTOs(rows), nil
}

// ListItemBookings returns all bookings for one item. Restricted to the
// item's owner.
func (s *service) ListItemBookings(ctx context.Context, callerID, itemID uuid.UUID) ([]BookingDTO, error) {
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
	}
	if item.OwnerID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "only the item owner can view its bookings")
	}
	rows, err := s.repo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list item bookings")
	}
	if err := s.expireLapsed(ctx, rows); err != nil {
		return nil, err
	}
	return toBookingDTOs(rows), nil
}

// ExpireOverdue cancels approved bookings whose payment window closed before
// now. Each cancellation commits independently so one bad row cannot hold
// back the rest; per-row failures are collected and returned together.
func (s *service) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	rows, err := s.repo.ListOverdueUnpaid(ctx, now, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list overdue bookings")
	}

	expired := 0
	var sweepErr error
	for i := range rows {
		changed, err := s.expireBooking(ctx, rows[i].ID)
		if err != nil {
			s.logg.Error(s.logg.WithBookingID(ctx, rows[i].ID.String()), "expire booking failed", err)
			sweepErr = multierr.Append(sweepErr, fmt.Errorf("booking %s: %w", rows[i].ID, err))
			continue
		}
		if changed {
			expired++
		}
	}
	return expired, sweepErr
}

// expireLapsed cancels any overdue bookings in the slice and patches the
// rows in place so callers report the post-expiration state.
func (s *service) expireLapsed(ctx context.Context, rows []models.Booking) error {
	now := s.nowFn().UTC()
	for i := range rows {
		if !rows[i].PaymentOverdue(now) {
			continue
		}
		changed, err := s.expireBooking(ctx, rows[i].ID)
		if err != nil {
			return err
		}
		if changed {
			rows[i].Status = enums.BookingStatusCancelled
		}
	}
	return nil
}

// expireBooking cancels one overdue booking in its own transaction. The
// overdue check repeats under the row lock because a payment may have landed
// since the caller last read the row.
func (s *service) expireBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	changed := false
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		target, err := txRepo.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock booking")
		}
		if !target.PaymentOverdue(s.nowFn().UTC()) {
			return nil
		}
		target.Status = enums.BookingStatusCancelled
		if _, err := txRepo.Save(ctx, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cancel overdue booking")
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.stats.IncExpired()
		s.logg.Warn(s.logg.WithBookingID(ctx, bookingID.String()), "booking cancelled: payment window expired")
	}
	return changed, nil
}
