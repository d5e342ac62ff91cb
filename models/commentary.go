package models

import "time"

// Commentary is a user comment attached to an auction.
type Commentary struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"type:varchar(150);not null"`
	Description string `gorm:"type:text;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint `gorm:"not null;index;<-:create"`
	AuctionID   uint `gorm:"not null;index;<-:create"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Auction *Auction `gorm:"foreignKey:AuctionID"`
}
