package models

import "time"

// Attachment is a file owned exclusively by a post. Position preserves
// the order the attachments were submitted in.
type Attachment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	FileName    string    `gorm:"not null" json:"file_name"`
	StorageKey  string    `gorm:"uniqueIndex;not null" json:"storage_key"`
	ContentType string    `json:"content_type"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}
