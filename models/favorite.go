package models

import "time"

// Favorite marks an auction a user wants to follow.
type Favorite struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_favorite_user_auction,priority:1;<-:create"`
	AuctionID uint   `gorm:"not null;uniqueIndex:idx_favorite_user_auction,priority:2;<-:create"`
	Note      string `gorm:"type:varchar(255);not null;default:''"`
	CreatedAt time.Time

	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Auction *Auction `gorm:"foreignKey:AuctionID"`
}
