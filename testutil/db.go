// Package testutil provides throwaway databases and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bidhouse/models"
)

// NewDB opens an isolated in-memory sqlite database with every model migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// CreateUser inserts a user with the given name.
func CreateUser(t *testing.T, db *gorm.DB, username string, admin bool) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "x",
		Email:        username + "@example.com",
		IsAdmin:      admin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCategory inserts a category with the given name.
func CreateCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

// AuctionFixture describes an auction inserted directly, bypassing creation rules.
type AuctionFixture struct {
	Title        string
	Price        string
	Rating       string
	CategoryID   uint
	AuctioneerID uint
	CreationDate time.Time
	ClosingDate  time.Time
}

// CreateAuction inserts an auction as described by f. Empty fields get usable defaults.
func CreateAuction(t *testing.T, db *gorm.DB, f AuctionFixture) *models.Auction {
	t.Helper()
	now := time.Now().UTC()
	if f.Title == "" {
		f.Title = "Item"
	}
	if f.Price == "" {
		f.Price = "10"
	}
	if f.Rating == "" {
		f.Rating = "1"
	}
	if f.CreationDate.IsZero() {
		f.CreationDate = now.Add(-time.Hour)
	}
	if f.ClosingDate.IsZero() {
		f.ClosingDate = now.Add(30 * 24 * time.Hour)
	}
	auction := &models.Auction{
		Title:        f.Title,
		Price:        decimal.RequireFromString(f.Price),
		Rating:       decimal.RequireFromString(f.Rating),
		Stock:        1,
		Brand:        "Brand",
		CategoryID:   f.CategoryID,
		Thumbnail:    "https://example.com/item.png",
		CreationDate: f.CreationDate.UTC(),
		ClosingDate:  f.ClosingDate.UTC(),
		AuctioneerID: f.AuctioneerID,
	}
	require.NoError(t, db.Create(auction).Error)
	return auction
}

// CreateWallet inserts a wallet holding money for the user.
func CreateWallet(t *testing.T, db *gorm.DB, userID uint, money string) *models.Wallet {
	t.Helper()
	wallet := &models.Wallet{UserID: userID, Money: decimal.RequireFromString(money)}
	require.NoError(t, db.Create(wallet).Error)
	return wallet
}
