package repository

import (
	"context"

	"praxis/internal/models"

	"gorm.io/gorm"
)

// LikeRepository is the vote ledger for posts and comments. One row per
// (user, subject); counts are always derived by counting rows.
type LikeRepository interface {
	IsPostLiked(ctx context.Context, userID, postID uint) (bool, error)
	LikePost(ctx context.Context, userID, postID uint) error
	UnlikePost(ctx context.Context, userID, postID uint) (bool, error)
	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	CountPostLikes(ctx context.Context, postID uint) (int64, error)
	CountByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error)

	IsCommentLiked(ctx context.Context, userID, commentID uint) (bool, error)
	LikeComment(ctx context.Context, userID, commentID uint) error
	UnlikeComment(ctx context.Context, userID, commentID uint) (bool, error)
	DeleteCommentLikes(ctx context.Context, commentIDs []uint) error
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) IsPostLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PostLike{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *likeRepository) LikePost(ctx context.Context, userID, postID uint) error {
	return r.db.WithContext(ctx).Create(&models.PostLike{UserID: userID, PostID: postID}).Error
}

// UnlikePost removes the ledger row. The bool reports whether a row
// existed, so the caller can distinguish an idempotent no-op.
func (r *likeRepository) UnlikePost(ctx context.Context, userID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.PostLike{})
	return res.RowsAffected > 0, res.Error
}

// GetLikedPostIDs returns which of the given posts the user liked in a
// single query. Used for page-level assembly instead of per-post checks.
func (r *likeRepository) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.PostLike{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	return ids, err
}

func (r *likeRepository) CountPostLikes(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PostLike{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

// CountByPostIDs counts likes for every given post in one grouped
// query, for sorting a candidate set by like count.
func (r *likeRepository) CountByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	type row struct {
		PostID uint
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.PostLike{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.PostID] = r.Count
	}
	return counts, nil
}

func (r *likeRepository) IsCommentLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Count(&count).Error
	return count > 0, err
}

func (r *likeRepository) LikeComment(ctx context.Context, userID, commentID uint) error {
	return r.db.WithContext(ctx).Create(&models.CommentLike{UserID: userID, CommentID: commentID}).Error
}

func (r *likeRepository) UnlikeComment(ctx context.Context, userID, commentID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.CommentLike{})
	return res.RowsAffected > 0, res.Error
}

// DeleteCommentLikes drops every ledger row of the given comments.
// Part of cascade removal; runs inside the caller's transaction.
func (r *likeRepository) DeleteCommentLikes(ctx context.Context, commentIDs []uint) error {
	if len(commentIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("comment_id IN ?", commentIDs).
		Delete(&models.CommentLike{}).Error
}
