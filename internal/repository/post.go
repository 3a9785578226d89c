package repository

import (
	"context"
	"strings"

	"praxis/internal/models"

	"gorm.io/gorm"
)

// Feed filter modes.
const (
	FeedSortNew    = "new"
	FeedSortHot    = "hot"
	FeedSortTop    = "top"
	FeedSortClosed = "closed"
)

// FeedQuery describes one page of the feed. ViewerID is zero for
// anonymous requests. When ModerationQueue is set the query returns
// pending posts only and skips the visibility rules. ClosedOnly
// restricts the result to posts the viewer personally hid.
type FeedQuery struct {
	Sort            string
	TagID           uint
	AuthorID        uint
	ViewerID        uint
	ModerationQueue bool
	ClosedOnly      bool
	Limit           int
	Offset          int
}

// FeedCandidate is the cheap projection used for in-memory sorting.
type FeedCandidate struct {
	ID     uint
	Pinned bool
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	GetByIDs(ctx context.Context, ids []uint, currentUserID uint) ([]*models.Post, error)
	ListFeedIDs(ctx context.Context, q FeedQuery) ([]uint, error)
	ListCandidates(ctx context.Context, q FeedQuery) ([]FeedCandidate, error)
	Search(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	IncrementViewCount(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Preload("Tags").
		Preload("Attachments").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByIDs loads full posts for a page of IDs in one round trip and
// returns them in the order the IDs were given.
func (r *postRepository) GetByIDs(ctx context.Context, ids []uint, currentUserID uint) ([]*models.Post, error) {
	if len(ids) == 0 {
		return []*models.Post{}, nil
	}

	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Preload("Tags").
		Preload("Attachments").
		Where("posts.id IN ?", ids).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// applyFeedPredicate narrows the posts table to what the query's viewer
// may see.
func (r *postRepository) applyFeedPredicate(db *gorm.DB, q FeedQuery) *gorm.DB {
	if q.ModerationQueue {
		return db.Where("posts.status = ?", models.PostStatusPending)
	}

	db = db.Where("posts.hidden = ?", false)

	if q.ClosedOnly {
		// Only the viewer's own hidden posts; visibility still applies.
		db = db.Where("posts.status = ?", models.PostStatusApproved)
		db = db.Where(
			"EXISTS (SELECT 1 FROM user_post_hides WHERE user_post_hides.post_id = posts.id AND user_post_hides.user_id = ?)",
			q.ViewerID,
		)
	} else if q.ViewerID != 0 {
		// Authors see their own posts in any status.
		db = db.Where("posts.status = ? OR posts.user_id = ?", models.PostStatusApproved, q.ViewerID)
		db = db.Where(
			"NOT EXISTS (SELECT 1 FROM user_post_hides WHERE user_post_hides.post_id = posts.id AND user_post_hides.user_id = ?)",
			q.ViewerID,
		)
	} else {
		db = db.Where("posts.status = ?", models.PostStatusApproved)
	}

	if q.AuthorID != 0 {
		db = db.Where("posts.user_id = ?", q.AuthorID)
	}

	if q.TagID != 0 {
		db = db.Where(
			"EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND post_tags.tag_id = ?)",
			q.TagID,
		)
	}

	return db
}

// ListFeedIDs runs the cheap half of feed assembly for the sorts the
// database can order directly: a filtered, sorted page of post IDs.
func (r *postRepository) ListFeedIDs(ctx context.Context, q FeedQuery) ([]uint, error) {
	db := r.applyFeedPredicate(r.db.WithContext(ctx).Model(&models.Post{}), q)

	if !q.ModerationQueue {
		// Pinned posts lead every page regardless of sort.
		db = db.Order("posts.pinned DESC")
	}

	switch q.Sort {
	case FeedSortHot:
		db = db.Order("posts.view_count DESC, posts.id DESC")
	default: // "new", "closed" and anything unrecognized
		db = db.Order("posts.created_at DESC, posts.id DESC")
	}

	var ids []uint
	err := db.Limit(q.Limit).Offset(q.Offset).Pluck("posts.id", &ids).Error
	return ids, err
}

// ListCandidates returns the full unpaginated candidate set as (id,
// pinned) pairs. The like-count sort happens in memory because the
// count is not a sortable column.
func (r *postRepository) ListCandidates(ctx context.Context, q FeedQuery) ([]FeedCandidate, error) {
	var candidates []FeedCandidate
	err := r.applyFeedPredicate(r.db.WithContext(ctx).Model(&models.Post{}), q).
		Select("posts.id, posts.pinned").
		Scan(&candidates).Error
	return candidates, err
}

func (r *postRepository) Search(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post
	like := "%" + strings.ToLower(query) + "%"
	db := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Preload("Tags").
		Where("LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ?", like, like).
		Where("posts.hidden = ?", false)
	if currentUserID != 0 {
		db = db.Where("posts.status = ? OR posts.user_id = ?", models.PostStatusApproved, currentUserID)
	} else {
		db = db.Where("posts.status = ?", models.PostStatusApproved)
	}
	err := db.Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// applyPostDetails adds subqueries to fetch counts and viewer state in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) as comments_count, " +
		"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) as likes_count"

	if currentUserID != 0 {
		return db.Select(
			selectQuery+
				", EXISTS(SELECT 1 FROM post_likes WHERE post_likes.post_id = posts.id AND post_likes.user_id = ?) as liked"+
				", EXISTS(SELECT 1 FROM user_post_hides WHERE user_post_hides.post_id = posts.id AND user_post_hides.user_id = ?) as hidden_by_viewer",
			currentUserID, currentUserID,
		)
	}

	return db.Select(selectQuery + ", false as liked, false as hidden_by_viewer")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// UpdateFields applies a partial update so computed columns never leak
// back into an UPDATE statement.
func (r *postRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, id).Error
}

func (r *postRepository) IncrementViewCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}
