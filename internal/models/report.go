package models

import "time"

// Report statuses. A pending report transitions to exactly one of
// approved (the report a moderator acted on), resolved (a sibling
// report against the same comment was acted on first) or dismissed.
const (
	ReportStatusPending   = "pending"
	ReportStatusApproved  = "approved"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// Report is a user complaint against a comment. CommentID is nulled
// when the comment is removed so the report row outlives the comment;
// CommentAuthorID is captured before the detach and is what violation
// statistics are computed from afterwards.
type Report struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ReporterID      uint      `gorm:"not null;index" json:"reporter_id"`
	CommentID       *uint     `gorm:"index" json:"comment_id,omitempty"`
	CommentAuthorID *uint     `gorm:"index" json:"comment_author_id,omitempty"`
	Reason          string    `gorm:"type:text;not null" json:"reason"`
	Status          string    `gorm:"not null;default:pending;index" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
