package item

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamerent/gamerent-backend/pkg/db/models"
	pkgerrors "github.com/gamerent/gamerent-backend/pkg/errors"
)

// Service exposes listing management and discovery operations.
type Service interface {
	CreateItem(ctx context.Context, ownerID uuid.UUID, input CreateItemInput) (*ItemDTO, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*ItemDTO, error)
	ListAvailableItems(ctx context.Context) ([]ItemDTO, error)
	ListOwnerItems(ctx context.Context, ownerID uuid.UUID) ([]ItemDTO, error)
}

// CreateItemInput holds the validated payload to publish a listing.
type CreateItemInput struct {
	Name          string
	Description   string
	Category      string
	ImageURL      string
	PricePerDay   decimal.Decimal
	Available     bool
	MinRentalDays int
}

type service struct {
	repo *Repository
}

// NewService constructs an item service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	return &service{repo: repo}, nil
}

// CreateItem publishes a new listing owned by the caller.
func (s *service) CreateItem(ctx context.Context, ownerID uuid.UUID, input CreateItemInput) (*ItemDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if input.PricePerDay.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_per_day cannot be negative")
	}
	minDays := input.MinRentalDays
	if minDays == 0 {
		minDays = 1
	}
	if minDays < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_rental_days must be at least 1")
	}

	item := &models.Item{
		OwnerID:       ownerID,
		Name:          name,
		Description:   strings.TrimSpace(input.Description),
		Category:      strings.TrimSpace(input.Category),
		ImageURL:      strings.TrimSpace(input.ImageURL),
		PricePerDay:   input.PricePerDay.Round(2),
		Available:     input.Available,
		MinRentalDays: minDays,
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert item")
	}
	return toItemDTO(created), nil
}

// GetItem returns a single listing by id.
func (s *service) GetItem(ctx context.Context, itemID uuid.UUID) (*ItemDTO, error) {
	found, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
	}
	return toItemDTO(found), nil
}

// ListAvailableItems returns the public catalog of bookable listings.
func (s *service) ListAvailableItems(ctx context.Context) ([]ItemDTO, error) {
	rows, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list items")
	}
	return toItemDTOs(rows), nil
}

// ListOwnerItems returns the caller's own listings, available or not.
func (s *service) ListOwnerItems(ctx context.Context, ownerID uuid.UUID) ([]ItemDTO, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list owner items")
	}
	return toItemDTOs(rows), nil
}
