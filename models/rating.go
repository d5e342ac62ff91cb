package models

// Rating is one user's 1-5 score for an auction. A user rates an auction at most once.
type Rating struct {
	ID        uint `gorm:"primaryKey"`
	AuctionID uint `gorm:"not null;uniqueIndex:idx_rating_user_auction,priority:2"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_rating_user_auction,priority:1"`
	Value     int  `gorm:"not null;check:chk_rating_value,value >= 1 AND value <= 5"`

	Auction *Auction `gorm:"foreignKey:AuctionID"`
	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
