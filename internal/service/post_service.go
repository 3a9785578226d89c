package service

import (
	"context"
	"errors"
	"strings"

	"praxis/internal/cache"
	"praxis/internal/models"
	"praxis/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxTitleLen    = 300
	maxContentLen  = 50000
	maxTagsPerPost = 5
	maxAttachments = 10
)

// PostService owns the post lifecycle up to moderation: create, edit,
// delete, pin. It holds the DB handle directly because deletion
// cascades over the post's comment tree in one transaction.
type PostService struct {
	db       *gorm.DB
	postRepo repository.PostRepository
	tagRepo  repository.TagRepository
	userRepo repository.UserRepository
	isStaff  func(ctx context.Context, userID uint) (bool, error)
}

// AttachmentInput describes one file attached to a new post.
type AttachmentInput struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

type CreatePostInput struct {
	UserID      uint
	Title       string
	Content     string
	Tags        []string
	Attachments []AttachmentInput
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Title   string
	Content string
	Tags    []string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// NewPostService creates a new PostService.
func NewPostService(
	db *gorm.DB,
	postRepo repository.PostRepository,
	tagRepo repository.TagRepository,
	userRepo repository.UserRepository,
	isStaff func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		db:       db,
		postRepo: postRepo,
		tagRepo:  tagRepo,
		userRepo: userRepo,
		isStaff:  isStaff,
	}
}

func validatePostContent(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return models.NewValidationError("Content too long (max 50000 characters)")
	}
	return nil
}

// CreatePost creates a new pending post. Restricted users are refused.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validatePostContent(in.Title, in.Content); err != nil {
		return nil, err
	}
	if len(in.Tags) > maxTagsPerPost {
		return nil, models.NewValidationError("Too many tags (max 5)")
	}
	if len(in.Attachments) > maxAttachments {
		return nil, models.NewValidationError("Too many attachments (max 10)")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", in.UserID)
		}
		return nil, err
	}
	if user.Restricted {
		return nil, models.NewForbiddenError("Restricted users cannot create posts")
	}

	tags, err := s.tagRepo.FindOrCreate(ctx, in.Tags)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:   in.Title,
		Content: in.Content,
		UserID:  in.UserID,
		Status:  models.PostStatusPending,
		Tags:    tags,
	}
	for i, a := range in.Attachments {
		post.Attachments = append(post.Attachments, models.Attachment{
			FileName:    a.FileName,
			StorageKey:  uuid.NewString(),
			ContentType: a.ContentType,
			Position:    i,
		})
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	cache.InvalidateTags(ctx)
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// UpdatePost edits title, content or tags. Only the author may edit,
// and editing does not change the moderation status.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", in.PostID)
		}
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}
	if err := validatePostContent(in.Title, in.Content); err != nil {
		return nil, err
	}
	if len(in.Tags) > maxTagsPerPost {
		return nil, models.NewValidationError("Too many tags (max 5)")
	}

	if in.Tags != nil {
		tags, err := s.tagRepo.FindOrCreate(ctx, in.Tags)
		if err != nil {
			return nil, err
		}
		if err := s.tagRepo.ReplacePostTags(ctx, post, tags); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.UpdateFields(ctx, post.ID, map[string]interface{}{
		"title":   in.Title,
		"content": in.Content,
	}); err != nil {
		return nil, err
	}

	cache.InvalidatePost(ctx, post.ID)
	cache.InvalidateFeeds(ctx)
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// DeletePost removes a post. The author or staff may delete it. The
// post's whole comment tree and its like rows go in the same
// transaction; reports referencing removed comments are detached so
// violation statistics survive.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", in.PostID)
		}
		return err
	}
	if post.UserID != in.UserID {
		staff, err := s.isStaff(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !staff {
			return models.NewForbiddenError("Only the author or staff can delete this post")
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).
			Where("post_id = ?", in.PostID).
			Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := repository.NewLikeRepository(tx).DeleteCommentLikes(ctx, commentIDs); err != nil {
				return err
			}
			if err := repository.NewReportRepository(tx).DetachComments(ctx, commentIDs); err != nil {
				return err
			}
			if err := repository.NewCommentRepository(tx).DeleteByIDs(ctx, commentIDs); err != nil {
				return err
			}
		}
		return repository.NewPostRepository(tx).Delete(ctx, in.PostID)
	})
	if err != nil {
		return err
	}

	cache.InvalidatePost(ctx, in.PostID)
	cache.InvalidateFeeds(ctx)
	return nil
}

// PinPost marks a post to lead the feed. Staff only; pinning requires
// the post to be approved.
func (s *PostService) PinPost(ctx context.Context, userID, postID uint) error {
	return s.setPinned(ctx, userID, postID, true)
}

// UnpinPost reverses PinPost.
func (s *PostService) UnpinPost(ctx context.Context, userID, postID uint) error {
	return s.setPinned(ctx, userID, postID, false)
}

func (s *PostService) setPinned(ctx context.Context, userID, postID uint, pinned bool) error {
	staff, err := s.isStaff(ctx, userID)
	if err != nil {
		return err
	}
	if !staff {
		return models.NewForbiddenError("Moderator access required")
	}

	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", postID)
		}
		return err
	}
	if pinned && post.Status != models.PostStatusApproved {
		return models.NewValidationError("Only approved posts can be pinned")
	}
	if post.Pinned == pinned {
		return models.NewConflictError("Post pin state is unchanged")
	}

	if err := s.postRepo.UpdateFields(ctx, postID, map[string]interface{}{"pinned": pinned}); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, postID)
	cache.InvalidateFeeds(ctx)
	return nil
}
