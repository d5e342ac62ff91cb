package models

// Category groups auctions. Removing a category removes its auctions.
type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(50);not null;uniqueIndex"`

	Auctions []Auction `gorm:"constraint:OnDelete:CASCADE"`
}
