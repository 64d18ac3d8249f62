package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamerent/gamerent-backend/pkg/db/models"
)

// BookingDTO represents the reservation payload returned to clients.
type BookingDTO struct {
	ID            uuid.UUID       `json:"id"`
	ItemID        uuid.UUID       `json:"item_id"`
	RenterID      uuid.UUID       `json:"renter_id"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Days          int             `json:"days"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	PaymentDueAt  *time.Time      `json:"payment_due_at,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	Item          *BookingItemDTO `json:"item,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BookingItemDTO is the listing summary embedded in booking payloads.
type BookingItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Name        string          `json:"name"`
	ImageURL    string          `json:"image_url,omitempty"`
	PricePerDay decimal.Decimal `json:"price_per_day"`
}

const dateLayout = "2006-01-02"

func toBookingDTO(m *models.Booking) *BookingDTO {
	if m == nil {
		return nil
	}
	dto := &BookingDTO{
		ID:            m.ID,
		ItemID:        m.ItemID,
		RenterID:      m.RenterID,
		StartDate:     m.StartDate.Format(dateLayout),
		EndDate:       m.EndDate.Format(dateLayout),
		Days:          InclusiveDays(m.StartDate, m.EndDate),
		TotalPrice:    m.TotalPrice,
		Status:        m.Status.String(),
		PaymentStatus: m.PaymentStatus.String(),
		ApprovedAt:    m.ApprovedAt,
		PaymentDueAt:  m.PaymentDueAt,
		PaidAt:        m.PaidAt,
		CreatedAt:     m.CreatedAt,
	}
	if m.Item != nil {
		dto.Item = &BookingItemDTO{
			ID:          m.Item.ID,
			OwnerID:     m.Item.OwnerID,
			Name:        m.Item.Name,
			ImageURL:    m.Item.ImageURL,
			PricePerDay: m.Item.PricePerDay,
		}
	}
	return dto
}

func toBookingDTOs(rows []models.Booking) []BookingDTO {
	out := make([]BookingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toBookingDTO(&rows[i]))
	}
	return out
}
