package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxOrgFilenameLength bounds the stored original filename.
const MaxOrgFilenameLength = 38

type File struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Filename    string    `gorm:"uniqueIndex;not null" json:"filename"`
	Type        string    `gorm:"not null" json:"type"`
	OrgFilename string    `gorm:"not null" json:"orgFilename"`
	UserID      *string   `gorm:"size:36;index" json:"userId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
