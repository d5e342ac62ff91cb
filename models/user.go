package models

import "time"

// User is a marketplace account. Auctioneers, bidders and raters are all users.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	CreatedAt    time.Time `gorm:"<-:create"`
	UpdatedAt    time.Time
	Username     string     `gorm:"type:varchar(150);not null;uniqueIndex;<-:create"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Email        string     `gorm:"type:varchar(254);not null;default:''"`
	FirstName    string     `gorm:"type:varchar(150);not null;default:''"`
	LastName     string     `gorm:"type:varchar(150);not null;default:''"`
	BirthDate    *time.Time `gorm:"type:date"`
	Locality     string     `gorm:"type:varchar(100);not null;default:''"`
	Municipality string     `gorm:"type:varchar(100);not null;default:''"`
	IsAdmin      bool       `gorm:"not null;default:false"`
}
