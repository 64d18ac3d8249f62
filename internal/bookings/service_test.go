package booking

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gamerent/gamerent-backend/pkg/db"
	"github.com/gamerent/gamerent-backend/pkg/db/models"
	"github.com/gamerent/gamerent-backend/pkg/enums"
	pkgerrors "github.com/gamerent/gamerent-backend/pkg/errors"
	"github.com/gamerent/gamerent-backend/pkg/logger"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)
	repo := NewRepository(conn)
	logg := logger.New(logger.Options{ServiceName: "booking-test", Output: io.Discard})
	svc, err := NewService(repo, db.NewWithConn(conn), logg, nil)
	require.NoError(t, err)
	typed := svc.(*service)
	typed.nowFn = func() time.Time { return testNow }
	return typed, conn
}

func mustCreateBooking(t *testing.T, conn *gorm.DB, b *models.Booking) *models.Booking {
	t.Helper()
	require.NoError(t, conn.Create(b).Error)
	return b
}

func TestCreateBookingComputesPrice(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)

	dto, err := svc.CreateBooking(ctx, renter.ID, CreateBookingInput{
		ItemID:    item.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
	})
	require.NoError(t, err)
	require.Equal(t, enums.BookingStatusPending.String(), dto.Status)
	require.Equal(t, enums.PaymentStatusUnpaid.String(), dto.PaymentStatus)
	require.Equal(t, 3, dto.Days)
	require.True(t, dto.TotalPrice.Equal(decimal.RequireFromString("30.00")),
		"expected 30.00, got %s", dto.TotalPrice)
	require.NotNil(t, dto.Item)
	require.Equal(t, item.ID, dto.Item.ID)
}

func TestCreateBookingRejectsOwnItem(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)

	_, err := svc.CreateBooking(context.Background(), owner.ID, CreateBookingInput{
		ItemID:    item.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
	})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidOperation))
}

func TestCreateBookingOwnItemWinsOverBadDates(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)

	_, err := svc.CreateBooking(context.Background(), owner.ID, CreateBookingInput{
		ItemID:    item.ID,
		StartDate: date(2026, 3, 12),
		EndDate:   date(2026, 3, 10),
	})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidOperation))
}

func TestCreateBookingUnknownItemWinsOverBadDates(t *testing.T) {
	svc, conn := newTestService(t)
	renter := mustCreateTestUser(t, conn)

	_, err := svc.CreateBooking(context.Background(), renter.ID, CreateBookingInput{
		ItemID:    uuid.New(),
		StartDate: date(2026, 3, 12),
		EndDate:   date(2026, 3, 10),
	})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestCreateBookingRejectsUnavailableItem(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)
	require.NoError(t, conn.Model(item).Update("available", false).Error)

	_, err := svc.CreateBooking(context.Background(), renter.ID, CreateBookingInput{
		ItemID:    item.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
	})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidOperation))
}

func TestCreateBookingDateValidation(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)
	ctx := context.Background()

	t.Run("invertedRange", func(t *testing.T) {
		_, err := svc.CreateBooking(ctx, renter.ID, CreateBookingInput{
			ItemID:    item.ID,
			StartDate: date(2026, 3, 12),
			EndDate:   date(2026, 3, 10),
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})

	t.Run("pastStart", func(t *testing.T) {
		_, err := svc.CreateBooking(ctx, renter.ID, CreateBookingInput{
			ItemID:    item.ID,
			StartDate: date(2026, 2, 20),
			EndDate:   date(2026, 3, 10),
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})

	t.Run("todayIsAllowed", func(t *testing.T) {
		_, err := svc.CreateBooking(ctx, renter.ID, CreateBookingInput{
			ItemID:    item.ID,
			StartDate: date(2026, 3, 1),
			EndDate:   date(2026, 3, 2),
		})
		require.NoError(t, err)
	})

	t.Run("unknownItem", func(t *testing.T) {
		_, err := svc.CreateBooking(ctx, renter.ID, CreateBookingInput{
			ItemID:    uuid.New(),
			StartDate: date(2026, 3, 10),
			EndDate:   date(2026, 3, 12),
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func TestCreateBookingEnforcesMinRentalDays(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)
	require.NoError(t, conn.Model(item).Update("min_rental_days", 3).Error)

	_, err := svc.CreateBooking(context.Background(), renter.ID, CreateBookingInput{
		ItemID:    item.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 11),
	})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCreateBookingOverlapRules(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	other := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)
	ctx := context.Background()

	mustCreateBooking(t, conn, &models.Booking{
		ItemID:    item.ID,
		RenterID:  other.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
		Status:    enums.BookingStatusApproved,
	})

	t.Run("approvedBlocks", func(t *testing.T) {
		_, err := svc.CreateBooking(ctx, renter.ID, CreateBookingInput{
			ItemID:    item.ID,
			StartDate: date(2026, 3, 12),
			EndDate:   date(2026, 3, 14),
		})
		require.Error(t, err)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	})

	t.Run("pendingDoesNotBlock", func(t *testing.T) {
		mustCreateBooking(t, conn, &models.Booking{
			ItemID:    item.ID,
			RenterID:  other.ID,
			StartDate: date(2026, 3, 20),
			EndDate:   date(2026, 3, 22),
			Status:    enums.BookingStatusPending,
		})
		_, err := svc.CreateBooking(ctx, renter.ID, CreateBookingInput{
			ItemID:    item.ID,
			StartDate: date(2026, 3, 20),
			EndDate:   date(2026, 3, 22),
		})
		require.NoError(t, err)
	})
}

func TestDecideBookingApprove(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)
	pending := mustCreateBooking(t, conn, &models.Booking{
		ItemID:    item.ID,
		RenterID:  renter.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
		Status:    enums.BookingStatusPending,
	})

	dto, err := svc.DecideBooking(context.Background(), owner.ID, pending.ID, enums.BookingStatusApproved)
	require.NoError(t, err)
	require.Equal(t, enums.BookingStatusApproved.String(), dto.Status)
	require.NotNil(t, dto.ApprovedAt)
	require.True(t, dto.ApprovedAt.Equal(testNow))
	require.NotNil(t, dto.PaymentDueAt)
	require.True(t, dto.PaymentDueAt.Equal(date(2026, 3, 2)),
		"expected midnight after approval day, got %s", dto.PaymentDueAt)
}

func TestDecideBookingReject(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)
	pending := mustCreateBooking(t, conn, &models.Booking{
		ItemID:    item.ID,
		RenterID:  renter.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
		Status:    enums.BookingStatusPending,
	})

	dto, err := svc.DecideBooking(context.Background(), owner.ID, pending.ID, enums.BookingStatusRejected)
	require.NoError(t, err)
	require.Equal(t, enums.BookingStatusRejected.String(), dto.Status)
	require.Nil(t, dto.ApprovedAt)
	require.Nil(t, dto.PaymentDueAt)
}

func TestDecideBookingCancel(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)
	pending := mustCreateBooking(t, conn, &models.Booking{
		ItemID:    item.ID,
		RenterID:  renter.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
		Status:    enums.BookingStatusPending,
	})

	dto, err := svc.DecideBooking(context.Background(), owner.ID, pending.ID, enums.BookingStatusCancelled)
	require.NoError(t, err)
	require.Equal(t, enums.BookingStatusCancelled.String(), dto.Status)
	require.Nil(t, dto.ApprovedAt)
	require.Nil(t, dto.PaymentDueAt)
}

func TestDecideBookingRejectsUnknownDecision(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)
	pending := mustCreateBooking(t, conn, &models.Booking{
		ItemID:    item.ID,
		RenterID:  renter.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
		Status:    enums.BookingStatusPending,
	})

	for _, decision := range []enums.BookingStatus{enums.BookingStatusPending, enums.BookingStatus("shipped")} {
		_, err := svc.DecideBooking(context.Background(), owner.ID, pending.ID, decision)
		require.Error(t, err)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	}
}

func TestDecideBookingAuthorization(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	stranger := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)
	pending := mustCreateBooking(t, conn, &models.Booking{
		ItemID:    item.ID,
		RenterID:  renter.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
		Status:    enums.BookingStatusPending,
	})

	_, err := svc.DecideBooking(context.Background(), stranger.ID, pending.ID, enums.BookingStatusApproved)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestDecideBookingRequiresPending(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)
	rejected := mustCreateBooking(t, conn, &models.Booking{
		ItemID:    item.ID,
		RenterID:  renter.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
		Status:    enums.BookingStatusRejected,
	})

	_, err := svc.DecideBooking(context.Background(), owner.ID, rejected.ID, enums.BookingStatusApproved)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestDecideBookingDefensiveOverlapRecheck(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renterA := mustCreateTestUser(t, conn)
	renterB := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)

	first := mustCreateBooking(t, conn, &models.Booking{
		ItemID:    item.ID,
		RenterID:  renterA.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
		Status:    enums.BookingStatusPending,
	})
	second := mustCreateBooking(t, conn, &models.Booking{
		ItemID:    item.ID,
		RenterID:  renterB.ID,
		StartDate: date(2026, 3, 11),
		EndDate:   date(2026, 3, 13),
		Status:    enums.BookingStatusPending,
	})

	ctx := context.Background()
	_, err := svc.DecideBooking(ctx, owner.ID, first.ID, enums.BookingStatusApproved)
	require.NoError(t, err)

	_, err = svc.DecideBooking(ctx, owner.ID, second.ID, enums.BookingStatusApproved)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestListRenterBookingsExpiresOverdue(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)

	due := testNow.Add(-time.Hour)
	approvedAt := testNow.Add(-48 * time.Hour)
	overdue := mustCreateBooking(t, conn, &models.Booking{
		ItemID:       item.ID,
		RenterID:     renter.ID,
		StartDate:    date(2026, 3, 10),
		EndDate:      date(2026, 3, 12),
		Status:       enums.BookingStatusApproved,
		ApprovedAt:   &approvedAt,
		PaymentDueAt: &due,
	})

	rows, err := svc.ListRenterBookings(context.Background(), renter.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, enums.BookingStatusCancelled.String(), rows[0].Status)

	var persisted models.Booking
	require.NoError(t, conn.First(&persisted, "id = ?", overdue.ID).Error)
	require.Equal(t, enums.BookingStatusCancelled, persisted.Status)
}

func TestListItemBookingsOwnerOnly(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)
	mustCreateBooking(t, conn, &models.Booking{
		ItemID:    item.ID,
		RenterID:  renter.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
		Status:    enums.BookingStatusPending,
	})
	ctx := context.Background()

	rows, err := svc.ListItemBookings(ctx, owner.ID, item.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = svc.ListItemBookings(ctx, renter.ID, item.ID)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestListOwnerBookingsJoinsItems(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	otherOwner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	mine := mustCreateTestItem(t, conn, owner.ID)
	theirs := mustCreateTestItem(t, conn, otherOwner.ID)

	mustCreateBooking(t, conn, &models.Booking{
		ItemID:    mine.ID,
		RenterID:  renter.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
		Status:    enums.BookingStatusPending,
	})
	mustCreateBooking(t, conn, &models.Booking{
		ItemID:    theirs.ID,
		RenterID:  renter.ID,
		StartDate: date(2026, 3, 10),
		EndDate:   date(2026, 3, 12),
		Status:    enums.BookingStatusPending,
	})

	rows, err := svc.ListOwnerBookings(context.Background(), owner.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, mine.ID, rows[0].ItemID)
}

func TestExpireOverdueSweep(t *testing.T) {
	svc, conn := newTestService(t)
	owner := mustCreateTestUser(t, conn)
	renter := mustCreateTestUser(t, conn)
	item := mustCreateTestItem(t, conn, owner.ID)

	pastDue := testNow.Add(-time.Hour)
	futureDue := testNow.Add(time.Hour)
	overdue := mustCreateBooking(t, conn, &models.Booking{
		ItemID:       item.ID,
		RenterID:     renter.ID,
		StartDate:    date(2026, 3, 10),
		EndDate:      date(2026, 3, 12),
		Status:       enums.BookingStatusApproved,
		PaymentDueAt: &pastDue,
	})
	current := mustCreateBooking(t, conn, &models.Booking{
		ItemID:       item.ID,
		RenterID:     renter.ID,
		StartDate:    date(2026, 3, 20),
		EndDate:      date(2026, 3, 22),
		Status:       enums.BookingStatusApproved,
		PaymentDueAt: &futureDue,
	})

	count, err := svc.ExpireOverdue(context.Background(), testNow, 100)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	var a, b models.Booking
	require.NoError(t, conn.First(&a, "id = ?", overdue.ID).Error)
	require.NoError(t, conn.First(&b, "id = ?", current.ID).Error)
	require.Equal(t, enums.BookingStatusCancelled, a.Status)
	require.Equal(t, enums.BookingStatusApproved, b.Status)
}
