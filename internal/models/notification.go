package models

import "time"

// Notification types emitted by moderation transitions.
const (
	NotificationPostApproved   = "post_approved"
	NotificationPostRejected   = "post_rejected"
	NotificationCommentRemoved = "comment_removed"
)

// Notification is a persisted message for a user. The content engine
// only creates these; delivery and read-tracking belong to the owner.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Type      string    `gorm:"not null" json:"type"`
	PostID    *uint     `json:"post_id,omitempty"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
