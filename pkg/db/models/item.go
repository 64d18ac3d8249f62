package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a rentable listing. The booking engine reads it to resolve the
// owner, the daily rate and the rental constraints; it never mutates one.
type Item struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID       uuid.UUID       `gorm:"column:owner_id;type:uuid;not null;index" json:"ownerId"`
	Name          string          `gorm:"column:name;not null" json:"name"`
	Description   string          `gorm:"column:description" json:"description"`
	Category      string          `gorm:"column:category" json:"category"`
	ImageURL      string          `gorm:"column:image_url" json:"imageUrl"`
	PricePerDay   decimal.Decimal `gorm:"column:price_per_day;type:numeric(10,2);not null;default:0" json:"pricePerDay"`
	Available     bool            `gorm:"column:available;not null;default:false" json:"available"`
	MinRentalDays int             `gorm:"column:min_rental_days;not null;default:1" json:"minRentalDays"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// MinDays returns the effective minimum rental period.
func (i *Item) MinDays() int {
	if i.MinRentalDays <= 0 {
		return 1
	}
	return i.MinRentalDays
}
