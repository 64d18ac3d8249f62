package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gamerent/gamerent-backend/pkg/db/models"
	"github.com/gamerent/gamerent-backend/pkg/enums"
)

// Repository wires together booking persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new booking row.
func (r *Repository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

// FindByID loads the booking with its item.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Preload("Item").First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByIDForUpdate loads the booking under a row lock so lifecycle
// transitions serialize per booking.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.forUpdate(r.db.WithContext(ctx)).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// LockItem takes a row lock on the item so overlap checks and booking
// inserts serialize per item.
func (r *Repository) LockItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.forUpdate(r.db.WithContext(ctx)).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItem loads the item without taking a lock.
func (r *Repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Save persists all fields of an existing booking row.
func (r *Repository) Save(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := r.db.WithContext(ctx).Omit("Item").Save(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

// HasOverlap reports whether an approved booking already covers any day of
// [start, end] for the item. The exclude id lets a re-check skip the booking
// being decided.
func (r *Repository) HasOverlap(ctx context.Context, itemID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("item_id = ?", itemID).
		Where("status = ?", enums.BookingStatusApproved).
		Where("start_date <= ? AND end_date >= ?", end, start)
	if exclude != nil {
		qb = qb.Where("id <> ?", *exclude)
	}
	var count int64
	if err := qb.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByRenter lists the renter's bookings, newest first.
func (r *Repository) ListByRenter(ctx context.Context, renterID uuid.UUID) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("renter_id = ?", renterID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListByOwner lists bookings made against any item the owner published.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Item").
		Joins("JOIN items ON items.id = bookings.item_id").
		Where("items.owner_id = ?", ownerID).
		Order("bookings.created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListByItem lists all bookings for the item, newest first.
func (r *Repository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListOverdueUnpaid returns approved, unpaid bookings whose payment window
// closed before now. Used by the sweep job.
func (r *Repository) ListOverdueUnpaid(ctx context.Context, now time.Time, limit int) ([]models.Booking, error) {
	var rows []models.Booking
	qb := r.db.WithContext(ctx).
		Where("status = ?", enums.BookingStatusApproved).
		Where("payment_status = ?", enums.PaymentStatusUnpaid).
		Where("payment_due_at IS NOT NULL AND payment_due_at < ?", now).
		Order("payment_due_at ASC")
	if limit > 0 {
		qb = qb.Limit(limit)
	}
	err := qb.Find(&rows).Error
	return rows, err
}

// forUpdate applies a row lock where the dialect supports one. SQLite (used
// by the test suite) serializes writers on its own and has no FOR UPDATE.
func (r *Repository) forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
