package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid is an offer placed by a bidder on an auction.
type Bid struct {
	ID           uint            `gorm:"primaryKey"`
	AuctionID    uint            `gorm:"not null;index;<-:create"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreationDate time.Time       `gorm:"autoCreateTime;not null;<-:create"`
	BidderID     uint            `gorm:"not null;index;<-:create"`

	Auction *Auction `gorm:"foreignKey:AuctionID"`
	Bidder  *User    `gorm:"foreignKey:BidderID"`
}
