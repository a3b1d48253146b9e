package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
	DisplayName  string    `gorm:"not null" json:"displayName"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // Don't expose password in JSON
	AvatarFileID *string   `gorm:"size:36" json:"avatarFileId"`
	GoogleID     *string   `gorm:"uniqueIndex" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// AuthorView is the part of a user that is joined onto comment views.
type AuthorView struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"displayName"`
	AvatarFileID *string `json:"avatarFileId"`
}
