package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds the spending capacity of exactly one user.
type Wallet struct {
	ID         uint            `gorm:"primaryKey"`
	UserID     uint            `gorm:"not null;uniqueIndex;<-:create"`
	CreditCard *string         `gorm:"type:varchar(19)"`
	Money      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UpdatedAt  time.Time

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
