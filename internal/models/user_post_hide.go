package models

import "time"

// UserPostHide marks a post as hidden from one user's feed. It has no
// effect on what other viewers see.
type UserPostHide struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_post_hides_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_user_post_hides_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
