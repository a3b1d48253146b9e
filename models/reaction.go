package models

import (
	"time"
)

type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// Reaction rows keep insertion order through the autoincrement id.
// The unique index allows one reaction per user on a comment.
type Reaction struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"-"`
	CommentID string       `gorm:"size:36;not null;uniqueIndex:idx_reaction_comment_user" json:"-"`
	UserID    string       `gorm:"size:36;not null;uniqueIndex:idx_reaction_comment_user" json:"userId"`
	Kind      ReactionKind `gorm:"type:varchar(10);not null" json:"kind"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"-"`
}

func (Reaction) TableName() string {
	return "comment_reactions"
}
