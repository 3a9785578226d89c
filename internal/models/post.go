package models

import (
	"time"

	"gorm.io/gorm"
)

// Post visibility statuses. A post is created pending and only a
// moderator transition moves it to approved or rejected.
const (
	PostStatusPending  = "pending"
	PostStatusApproved = "approved"
	PostStatusRejected = "rejected"
)

// Post represents a forum post.
type Post struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Title        string       `gorm:"not null" json:"title"`
	Content      string       `gorm:"type:text;not null" json:"content"`
	UserID       uint         `gorm:"not null;index" json:"user_id"`
	User         User         `gorm:"foreignKey:UserID" json:"user"`
	Status       string       `gorm:"not null;default:pending;index" json:"status"`
	RejectReason string       `json:"reject_reason,omitempty"`
	Pinned       bool         `gorm:"not null;default:false" json:"pinned"`
	// Hidden is the global kill-switch; it hides the post from every feed
	// regardless of status.
	Hidden      bool         `gorm:"not null;default:false" json:"hidden"`
	ViewCount   int          `gorm:"not null;default:0" json:"view_count"`
	Tags        []Tag        `gorm:"many2many:post_tags" json:"tags"`
	Attachments []Attachment `gorm:"foreignKey:PostID" json:"attachments"`
	// LikesCount is not persisted; computed from the like ledger at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`
	// Liked indicates whether the requesting user liked this post (computed)
	Liked bool `gorm:"->" json:"liked"`
	// HiddenByViewer indicates whether the requesting user hid this post (computed)
	HiddenByViewer bool           `gorm:"->" json:"hidden_by_viewer"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
