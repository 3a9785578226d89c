package models

import "time"

// Comment represents a comment on a post. Comments form a forest per
// post through ParentID; a reply must belong to the same post as its
// parent. Comments are hard-deleted so that cascade removal leaves no
// residue behind the like and report ledgers.
type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PostID   uint   `gorm:"not null;index" json:"post_id"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	User     User   `gorm:"foreignKey:UserID" json:"user"`
	Content  string `gorm:"type:text;not null" json:"content"`
	ParentID *uint  `gorm:"index" json:"parent_id,omitempty"`
	// LikesCount is not persisted; computed from the like ledger at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// Liked indicates whether the requesting user liked this comment (computed)
	Liked     bool      `gorm:"->" json:"liked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
