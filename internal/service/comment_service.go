package service

import (
	"context"
	"errors"

	"praxis/internal/models"
	"praxis/internal/observability"
	"praxis/internal/repository"

	"gorm.io/gorm"
)

const maxCommentLen = 10000

// CommentNode is a comment with its direct replies, forming the
// threaded view of a post.
type CommentNode struct {
	models.Comment
	Replies []*CommentNode `json:"replies"`
}

// CommentService owns threaded comments: reading the forest, creating
// comments and replies, editing and cascading removal.
type CommentService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	isStaff     func(ctx context.Context, userID uint) (bool, error)
	canViewPost func(ctx context.Context, postID, viewerID uint) error
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

// NewCommentService creates a new CommentService. The service holds the
// DB handle directly because subtree removal is transactional.
func NewCommentService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	isStaff func(ctx context.Context, userID uint) (bool, error),
	canViewPost func(ctx context.Context, postID, viewerID uint) error,
) *CommentService {
	return &CommentService{
		db:          db,
		userRepo:    userRepo,
		isStaff:     isStaff,
		canViewPost: canViewPost,
	}
}

// GetCommentsForPost returns the full comment forest of a post. One
// flat query; the tree is assembled in memory. Roots and replies are
// both ordered oldest first.
func (s *CommentService) GetCommentsForPost(ctx context.Context, postID, viewerID uint) ([]*CommentNode, error) {
	if err := s.canViewPost(ctx, postID, viewerID); err != nil {
		return nil, err
	}

	comments, err := repository.NewCommentRepository(s.db).ListByPost(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uint]*CommentNode, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &CommentNode{Comment: *c, Replies: []*CommentNode{}}
	}

	var roots []*CommentNode
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok {
			// Orphaned reply; surface it as a root rather than drop it.
			roots = append(roots, node)
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}
	if roots == nil {
		roots = []*CommentNode{}
	}
	return roots, nil
}

// GetComment returns a single comment if its post is visible to the viewer.
func (s *CommentService) GetComment(ctx context.Context, commentID, viewerID uint) (*models.Comment, error) {
	comment, err := repository.NewCommentRepository(s.db).GetByID(ctx, commentID, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, err
	}
	if err := s.canViewPost(ctx, comment.PostID, viewerID); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateComment adds a comment or reply. Replies must target a parent
// on the same post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Content too long (max 10000 characters)")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", in.UserID)
		}
		return nil, err
	}
	if user.Restricted {
		return nil, models.NewForbiddenError("Restricted users cannot comment")
	}

	if err := s.canViewPost(ctx, in.PostID, in.UserID); err != nil {
		return nil, err
	}

	commentRepo := repository.NewCommentRepository(s.db)
	if in.ParentID != nil {
		parent, err := commentRepo.GetByID(ctx, *in.ParentID, 0)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Comment", *in.ParentID)
			}
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		UserID:   in.UserID,
		ParentID: in.ParentID,
		Content:  in.Content,
	}
	if err := commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return commentRepo.GetByID(ctx, comment.ID, in.UserID)
}

// UpdateComment edits the content. Author or staff only.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Content too long (max 10000 characters)")
	}

	commentRepo := repository.NewCommentRepository(s.db)
	comment, err := commentRepo.GetByID(ctx, in.CommentID, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", in.CommentID)
		}
		return nil, err
	}
	if comment.UserID != in.UserID {
		staff, err := s.isStaff(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if !staff {
			return nil, models.NewForbiddenError("Only the author or staff can edit this comment")
		}
	}

	comment.Content = in.Content
	if err := commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return commentRepo.GetByID(ctx, in.CommentID, in.UserID)
}

// DeleteComment removes a comment and its whole reply subtree. The
// author, the owner of the comment's post, or staff may delete. Like
// rows of every removed comment go with it; reports pointing at removed
// comments are detached, not deleted.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := repository.NewCommentRepository(s.db).GetByID(ctx, in.CommentID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Comment", in.CommentID)
		}
		return err
	}
	if err := s.checkDeleteCapability(ctx, comment, in.UserID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := removeCommentSubtree(ctx, tx, in.CommentID)
		return err
	})
}

// checkDeleteCapability allows the comment author, the post owner, or
// staff to delete. Anyone else gets a capability failure, not a
// not-found.
func (s *CommentService) checkDeleteCapability(ctx context.Context, comment *models.Comment, userID uint) error {
	if comment.UserID == userID {
		return nil
	}

	var post models.Post
	if err := s.db.WithContext(ctx).Select("user_id").First(&post, comment.PostID).Error; err == nil && post.UserID == userID {
		return nil
	}

	staff, err := s.isStaff(ctx, userID)
	if err != nil {
		return err
	}
	if !staff {
		return models.NewForbiddenError("Only the author, the post owner or staff can delete this comment")
	}
	return nil
}

// collectCommentSubtree walks the reply tree level by level and returns
// the root plus every descendant ID.
func collectCommentSubtree(ctx context.Context, tx *gorm.DB, rootID uint) ([]uint, error) {
	commentRepo := repository.NewCommentRepository(tx)
	all := []uint{rootID}
	frontier := []uint{rootID}
	for len(frontier) > 0 {
		children, err := commentRepo.ListIDsByParents(ctx, frontier)
		if err != nil {
			return nil, err
		}
		all = append(all, children...)
		frontier = children
	}
	return all, nil
}

// removeCommentSubtree deletes the comment, its descendants and their
// like rows, and detaches any report that referenced a removed comment.
// Must run inside a transaction. Returns the removed IDs.
func removeCommentSubtree(ctx context.Context, tx *gorm.DB, rootID uint) ([]uint, error) {
	ids, err := collectCommentSubtree(ctx, tx, rootID)
	if err != nil {
		return nil, err
	}

	if err := repository.NewLikeRepository(tx).DeleteCommentLikes(ctx, ids); err != nil {
		return nil, err
	}
	if err := repository.NewReportRepository(tx).DetachComments(ctx, ids); err != nil {
		return nil, err
	}
	if err := repository.NewCommentRepository(tx).DeleteByIDs(ctx, ids); err != nil {
		return nil, err
	}

	observability.CommentsRemovedInCascade.Add(float64(len(ids)))
	return ids, nil
}
