package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxCommentLength = 900

type Comment struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"size:36;not null;index" json:"userId"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
	Post      string     `gorm:"not null;index" json:"post"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Reactions []Reaction `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"reactions"`
	Edited    bool       `gorm:"not null;default:false" json:"edited"`
	ReplyOf   *string    `gorm:"size:36;index" json:"replyOf"` // nil for top-level comments
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time  `json:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CommentView is a comment as returned by the read pipeline. It is never persisted.
type CommentView struct {
	ID         string     `json:"id"`
	Post       string     `json:"post"`
	Content    string     `json:"content"`
	User       AuthorView `json:"user"`
	Edited     bool       `json:"edited"`
	Reactions  []Reaction `json:"reactions"`
	ReplyOf    *string    `json:"replyOf"`
	CreatedAt  time.Time  `json:"createdAt"`
	Likes      int64      `json:"likes"`
	Dislikes   int64      `json:"dislikes"`
	ReplyCount int64      `json:"replyCount"`
}
