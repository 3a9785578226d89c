// Package service contains the application's business logic.
package service

import (
	"context"
	"errors"
	"sort"

	"praxis/internal/cache"
	"praxis/internal/models"
	"praxis/internal/observability"
	"praxis/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// FeedService assembles visible post pages for viewers.
type FeedService struct {
	postRepo repository.PostRepository
	likeRepo repository.LikeRepository
	hideRepo repository.HideRepository
	tagRepo  repository.TagRepository
	isStaff  func(ctx context.Context, userID uint) (bool, error)
}

// GetFeedInput selects one page of the feed.
type GetFeedInput struct {
	Sort     string
	Tag      string
	AuthorID uint
	Page     int
	PageSize int
	ViewerID uint
}

// FeedPage is one assembled page of posts.
type FeedPage struct {
	Posts    []*models.Post `json:"posts"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// NewFeedService creates a new FeedService.
func NewFeedService(
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	hideRepo repository.HideRepository,
	tagRepo repository.TagRepository,
	isStaff func(ctx context.Context, userID uint) (bool, error),
) *FeedService {
	return &FeedService{
		postRepo: postRepo,
		likeRepo: likeRepo,
		hideRepo: hideRepo,
		tagRepo:  tagRepo,
		isStaff:  isStaff,
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func emptyPage(page, pageSize int) *FeedPage {
	return &FeedPage{Posts: []*models.Post{}, Page: page, PageSize: pageSize}
}

// GetFeed returns one page of posts visible to the viewer. Assembly is
// two-phase: a cheap ID page first, then one batched load of the full
// rows, reassembled in ID order.
func (s *FeedService) GetFeed(ctx context.Context, in GetFeedInput) (*FeedPage, error) {
	page, pageSize := normalizePage(in.Page, in.PageSize)

	sortMode := in.Sort
	switch sortMode {
	case repository.FeedSortNew, repository.FeedSortHot, repository.FeedSortTop, repository.FeedSortClosed:
	default:
		// Unrecognized filters degrade to the newest-first feed.
		sortMode = repository.FeedSortNew
	}

	if sortMode == repository.FeedSortClosed && in.ViewerID == 0 {
		// Hides are per-viewer; anonymous viewers have none.
		return emptyPage(page, pageSize), nil
	}

	q := repository.FeedQuery{
		Sort:       sortMode,
		AuthorID:   in.AuthorID,
		ViewerID:   in.ViewerID,
		ClosedOnly: sortMode == repository.FeedSortClosed,
	}

	if in.Tag != "" {
		tag, err := s.tagRepo.GetByName(ctx, in.Tag)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Unknown tag resolves to an empty feed, not an error.
				return emptyPage(page, pageSize), nil
			}
			return nil, err
		}
		q.TagID = tag.ID
	}

	key := cache.FeedKey(sortMode, in.Tag, page, pageSize, in.ViewerID)
	if in.AuthorID == 0 {
		var cached FeedPage
		if cache.GetJSON(ctx, key, &cached) {
			observability.RecordFeedCacheHit()
			return &cached, nil
		}
		observability.RecordFeedCacheMiss()
	}

	var ids []uint
	var err error
	if sortMode == repository.FeedSortTop {
		ids, err = s.topIDs(ctx, q, page, pageSize)
	} else {
		q.Limit = pageSize
		q.Offset = (page - 1) * pageSize
		ids, err = s.postRepo.ListFeedIDs(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.GetByIDs(ctx, ids, in.ViewerID)
	if err != nil {
		return nil, err
	}

	result := &FeedPage{Posts: posts, Page: page, PageSize: pageSize}
	if in.AuthorID == 0 {
		cache.SetJSON(ctx, key, result, cache.FeedTTL)
	}
	return result, nil
}

// topIDs orders the candidate set by like count. The counts are
// batch-loaded in one grouped query and the sort happens in memory;
// like counts are not a sortable column in the store.
func (s *FeedService) topIDs(ctx context.Context, q repository.FeedQuery, page, pageSize int) ([]uint, error) {
	candidates, err := s.postRepo.ListCandidates(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	counts, err := s.likeRepo.CountByPostIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if counts[a.ID] != counts[b.ID] {
			return counts[a.ID] > counts[b.ID]
		}
		return a.ID > b.ID
	})

	start := (page - 1) * pageSize
	if start >= len(candidates) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(candidates) {
		end = len(candidates)
	}
	pageIDs := make([]uint, 0, end-start)
	for _, c := range candidates[start:end] {
		pageIDs = append(pageIDs, c.ID)
	}
	return pageIDs, nil
}

// GetModerationQueue returns pending posts for reviewers.
func (s *FeedService) GetModerationQueue(ctx context.Context, viewerID uint, page, pageSize int) (*FeedPage, error) {
	staff, err := s.isStaff(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !staff {
		return nil, models.NewForbiddenError("Moderator access required")
	}

	page, pageSize = normalizePage(page, pageSize)
	ids, err := s.postRepo.ListFeedIDs(ctx, repository.FeedQuery{
		ModerationQueue: true,
		Limit:           pageSize,
		Offset:          (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.GetByIDs(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}
	return &FeedPage{Posts: posts, Page: page, PageSize: pageSize}, nil
}

// GetPost returns a single post if the viewer may see it. Pending and
// rejected posts are visible only to their author and staff; a globally
// hidden post is visible to staff only.
func (s *FeedService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, err
	}

	if post.Status == models.PostStatusApproved && !post.Hidden {
		return post, nil
	}
	if viewerID != 0 && post.UserID == viewerID && !post.Hidden {
		return post, nil
	}
	if viewerID != 0 {
		staff, err := s.isStaff(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		if staff {
			return post, nil
		}
	}
	// Invisible posts are indistinguishable from absent ones.
	return nil, models.NewNotFoundError("Post", postID)
}

// CanViewPost is the capability form of GetPost for injection into
// sibling services.
func (s *FeedService) CanViewPost(ctx context.Context, postID, viewerID uint) error {
	_, err := s.GetPost(ctx, postID, viewerID)
	return err
}

// SearchPosts returns visible posts matching the query.
func (s *FeedService) SearchPosts(ctx context.Context, query string, page, pageSize int, viewerID uint) ([]*models.Post, error) {
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	page, pageSize = normalizePage(page, pageSize)
	return s.postRepo.Search(ctx, query, pageSize, (page-1)*pageSize, viewerID)
}

// RegisterView bumps the view counter. Best effort; the read path never
// fails because a counter write did.
func (s *FeedService) RegisterView(ctx context.Context, postID uint) {
	if err := s.postRepo.IncrementViewCount(ctx, postID); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to register view",
			"post_id", postID, "error", err)
	}
	cache.InvalidatePost(ctx, postID)
}

// HidePost hides the post from the viewer's own feed only.
func (s *FeedService) HidePost(ctx context.Context, viewerID, postID uint) error {
	if _, err := s.GetPost(ctx, postID, viewerID); err != nil {
		return err
	}
	hidden, err := s.hideRepo.IsHidden(ctx, viewerID, postID)
	if err != nil {
		return err
	}
	if hidden {
		return models.NewConflictError("Post is already hidden")
	}
	if err := s.hideRepo.Hide(ctx, viewerID, postID); err != nil {
		return err
	}
	cache.InvalidateFeeds(ctx)
	return nil
}

// UnhidePost reverses HidePost.
func (s *FeedService) UnhidePost(ctx context.Context, viewerID, postID uint) error {
	removed, err := s.hideRepo.Unhide(ctx, viewerID, postID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewConflictError("Post is not hidden")
	}
	cache.InvalidateFeeds(ctx)
	return nil
}
