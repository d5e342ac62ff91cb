package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinAuctionDuration is the shortest time between listing an auction and its closing date.
const MinAuctionDuration = 15 * 24 * time.Hour

// Auction is an item listed for sale by its auctioneer.
// Price is the starting price; Rating is the stored average of all ratings.
type Auction struct {
	ID           uint            `gorm:"primaryKey"`
	Title        string          `gorm:"type:varchar(150);not null"`
	Description  string          `gorm:"type:text;not null"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Rating       decimal.Decimal `gorm:"type:decimal(3,2);not null"`
	Stock        int             `gorm:"not null"`
	Brand        string          `gorm:"type:varchar(100);not null"`
	CategoryID   uint            `gorm:"not null;index"`
	Thumbnail    string          `gorm:"type:text;not null"`
	CreationDate time.Time       `gorm:"autoCreateTime;not null;<-:create"`
	ClosingDate  time.Time       `gorm:"not null;index"`
	AuctioneerID uint            `gorm:"not null;index;<-:create"`

	Category   *Category `gorm:"foreignKey:CategoryID"`
	Auctioneer *User     `gorm:"foreignKey:AuctioneerID"`

	Bids       []Bid        `gorm:"constraint:OnDelete:CASCADE"`
	Ratings    []Rating     `gorm:"constraint:OnDelete:CASCADE"`
	Commentary []Commentary `gorm:"constraint:OnDelete:CASCADE"`
	Favorites  []Favorite   `gorm:"constraint:OnDelete:CASCADE"`
}

// IsOpen reports whether the auction still accepts bids at the given instant.
// Open and closed are never stored; they are derived from ClosingDate.
func (a *Auction) IsOpen(now time.Time) bool {
	return a.ClosingDate.After(now)
}
