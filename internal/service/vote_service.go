package service

import (
	"context"
	"errors"

	"praxis/internal/cache"
	"praxis/internal/models"
	"praxis/internal/observability"
	"praxis/internal/repository"

	"gorm.io/gorm"
)

// VoteService maintains the vote ledgers for posts and comments. At
// most one vote per (user, subject); voting twice or retracting a vote
// that does not exist is a conflict.
type VoteService struct {
	likeRepo    repository.LikeRepository
	commentRepo repository.CommentRepository
	canViewPost func(ctx context.Context, postID, viewerID uint) error
}

// NewVoteService creates a new VoteService.
func NewVoteService(
	likeRepo repository.LikeRepository,
	commentRepo repository.CommentRepository,
	canViewPost func(ctx context.Context, postID, viewerID uint) error,
) *VoteService {
	return &VoteService{
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		canViewPost: canViewPost,
	}
}

// VotePost records a vote on a visible post.
func (s *VoteService) VotePost(ctx context.Context, userID, postID uint) error {
	if err := s.canViewPost(ctx, postID, userID); err != nil {
		return err
	}
	liked, err := s.likeRepo.IsPostLiked(ctx, userID, postID)
	if err != nil {
		return err
	}
	if liked {
		return models.NewConflictError("Post is already voted")
	}
	if err := s.likeRepo.LikePost(ctx, userID, postID); err != nil {
		// The unique index catches a concurrent duplicate the pre-check missed.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("Post is already voted")
		}
		return err
	}
	observability.RecordVote("post", "vote")
	cache.InvalidatePost(ctx, postID)
	return nil
}

// UnvotePost removes an existing vote.
func (s *VoteService) UnvotePost(ctx context.Context, userID, postID uint) error {
	if err := s.canViewPost(ctx, postID, userID); err != nil {
		return err
	}
	removed, err := s.likeRepo.UnlikePost(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewConflictError("Post is not voted")
	}
	observability.RecordVote("post", "unvote")
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (s *VoteService) visibleComment(ctx context.Context, commentID, userID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, err
	}
	if err := s.canViewPost(ctx, comment.PostID, userID); err != nil {
		return nil, err
	}
	return comment, nil
}

// VoteComment records a vote on a comment of a visible post.
func (s *VoteService) VoteComment(ctx context.Context, userID, commentID uint) error {
	if _, err := s.visibleComment(ctx, commentID, userID); err != nil {
		return err
	}
	liked, err := s.likeRepo.IsCommentLiked(ctx, userID, commentID)
	if err != nil {
		return err
	}
	if liked {
		return models.NewConflictError("Comment is already voted")
	}
	if err := s.likeRepo.LikeComment(ctx, userID, commentID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("Comment is already voted")
		}
		return err
	}
	observability.RecordVote("comment", "vote")
	return nil
}

// UnvoteComment removes an existing comment vote.
func (s *VoteService) UnvoteComment(ctx context.Context, userID, commentID uint) error {
	if _, err := s.visibleComment(ctx, commentID, userID); err != nil {
		return err
	}
	removed, err := s.likeRepo.UnlikeComment(ctx, userID, commentID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewConflictError("Comment is not voted")
	}
	observability.RecordVote("comment", "unvote")
	return nil
}
