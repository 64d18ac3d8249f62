package item

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamerent/gamerent-backend/pkg/db/models"
)

// ItemDTO represents the listing payload returned to clients.
type ItemDTO struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	PricePerDay   decimal.Decimal `json:"price_per_day"`
	Available     bool            `json:"available"`
	MinRentalDays int             `json:"min_rental_days"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toItemDTO(m *models.Item) *ItemDTO {
	if m == nil {
		return nil
	}
	return &ItemDTO{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		Name:          m.Name,
		Description:   m.Description,
		Category:      m.Category,
		ImageURL:      m.ImageURL,
		PricePerDay:   m.PricePerDay,
		Available:     m.Available,
		MinRentalDays: m.MinDays(),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toItemDTOs(rows []models.Item) []ItemDTO {
	out := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toItemDTO(&rows[i]))
	}
	return out
}
