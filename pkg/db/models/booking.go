package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamerent/gamerent-backend/pkg/enums"
)

// Booking is a reservation of an item for an inclusive date range. Status
// moves pending -> approved -> (paid | cancelled); rejected and cancelled
// are terminal. PaymentDueAt is stamped on first approval and checked
// lazily by the payment endpoints.
type Booking struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ItemID            uuid.UUID           `gorm:"column:item_id;type:uuid;not null;index:idx_bookings_item_status" json:"itemId"`
	RenterID          uuid.UUID           `gorm:"column:renter_id;type:uuid;not null;index" json:"renterId"`
	StartDate         time.Time           `gorm:"column:start_date;type:date;not null" json:"startDate"`
	EndDate           time.Time           `gorm:"column:end_date;type:date;not null" json:"endDate"`
	TotalPrice        decimal.Decimal     `gorm:"column:total_price;type:numeric(10,2);not null;default:0" json:"totalPrice"`
	Status            enums.BookingStatus `gorm:"column:status;not null;default:'pending';index:idx_bookings_item_status" json:"status"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;not null;default:'unpaid'" json:"paymentStatus"`
	CheckoutSessionID *string             `gorm:"column:checkout_session_id" json:"checkoutSessionId,omitempty"`
	PaymentIntentID   *string             `gorm:"column:payment_intent_id" json:"paymentIntentId,omitempty"`
	ApprovedAt        *time.Time          `gorm:"column:approved_at" json:"approvedAt,omitempty"`
	PaymentDueAt      *time.Time          `gorm:"column:payment_due_at" json:"paymentDueAt,omitempty"`
	PaidAt            *time.Time          `gorm:"column:paid_at" json:"paidAt,omitempty"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`

	Item *Item `gorm:"foreignKey:ItemID;references:ID" json:"item,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// PaymentOverdue reports whether the approved booking's payment window has
// closed as of now. Bookings without a due date are never overdue.
func (b *Booking) PaymentOverdue(now time.Time) bool {
	return b.Status == enums.BookingStatusApproved &&
		b.PaymentStatus == enums.PaymentStatusUnpaid &&
		b.PaymentDueAt != nil &&
		now.After(*b.PaymentDueAt)
}
