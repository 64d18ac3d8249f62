package payment

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gamerent/gamerent-backend/pkg/db/models"
	"github.com/gamerent/gamerent-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// a single connection avoids sqlite table-lock flakes under transactions
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	// the production schema uses postgres defaults, so tests declare their
	// own sqlite-compatible tables
	for _, ddl := range testSchema {
		if err := conn.Exec(ddl).Error; err != nil {
			t.Fatalf("failed to create test schema: %v", err)
		}
	}
	return conn
}

var testSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  category TEXT,
  image_url TEXT,
  price_per_day NUMERIC NOT NULL DEFAULT 0,
  available INTEGER NOT NULL DEFAULT 0,
  min_rental_days INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  renter_id TEXT NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  total_price NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  checkout_session_id TEXT,
  payment_intent_id TEXT,
  approved_at DATETIME,
  payment_due_at DATETIME,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
}

func mustCreateTestUser(t *testing.T, tx *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Email:       fmt.Sprintf("gr_test_%s@example.com", uuid.NewString()),
		DisplayName: "Repo Tester",
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateTestItem(t *testing.T, tx *gorm.DB, ownerID uuid.UUID) *models.Item {
	t.Helper()
	item := &models.Item{
		OwnerID:     ownerID,
		Name:        "Test Console",
		PricePerDay: decimal.RequireFromString("10.00"),
		Available:   true,
	}
	if err := tx.Create(item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

func mustCreateApprovedBooking(t *testing.T, tx *gorm.DB, itemID, renterID uuid.UUID, due time.Time) *models.Booking {
	t.Helper()
	approvedAt := due.Add(-24 * time.Hour)
	b := &models.Booking{
		ItemID:        itemID,
		RenterID:      renterID,
		StartDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		TotalPrice:    decimal.RequireFromString("30.00"),
		Status:        enums.BookingStatusApproved,
		PaymentStatus: enums.PaymentStatusUnpaid,
		ApprovedAt:    &approvedAt,
		PaymentDueAt:  &due,
	}
	if err := tx.Create(b).Error; err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}
