package repository

import (
	"context"

	"praxis/internal/models"

	"gorm.io/gorm"
)

// HideRepository tracks per-user feed hides.
type HideRepository interface {
	Hide(ctx context.Context, userID, postID uint) error
	Unhide(ctx context.Context, userID, postID uint) (bool, error)
	IsHidden(ctx context.Context, userID, postID uint) (bool, error)
}

type hideRepository struct {
	db *gorm.DB
}

// NewHideRepository creates a new HideRepository
func NewHideRepository(db *gorm.DB) HideRepository {
	return &hideRepository{db: db}
}

func (r *hideRepository) Hide(ctx context.Context, userID, postID uint) error {
	return r.db.WithContext(ctx).Create(&models.UserPostHide{UserID: userID, PostID: postID}).Error
}

func (r *hideRepository) Unhide(ctx context.Context, userID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.UserPostHide{})
	return res.RowsAffected > 0, res.Error
}

func (r *hideRepository) IsHidden(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserPostHide{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}
