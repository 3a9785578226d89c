package models

import "time"

// Tag labels posts; names are unique. A tag cannot be deleted while
// any post still references it.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
