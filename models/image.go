package models

import "time"

// Image records an uploaded picture, usually an auction thumbnail.
type Image struct {
	ID         uint      `gorm:"primaryKey"`
	UploaderID uint      `gorm:"not null;index;<-:create"`
	Url        string    `gorm:"type:text;not null;<-:create"`
	CreatedAt  time.Time `gorm:"index"`

	Uploader *User `gorm:"foreignKey:UploaderID;constraint:OnDelete:CASCADE"`
}
