package service

import (
	"context"
	"errors"
	"strings"

	"praxis/internal/cache"
	"praxis/internal/models"
	"praxis/internal/repository"

	"gorm.io/gorm"
)

// TagService manages the tag vocabulary.
type TagService struct {
	tagRepo repository.TagRepository
	isAdmin func(ctx context.Context, userID uint) (bool, error)
}

// NewTagService creates a new TagService.
func NewTagService(
	tagRepo repository.TagRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *TagService {
	return &TagService{tagRepo: tagRepo, isAdmin: isAdmin}
}

// ListTags returns the whole vocabulary, cached.
func (s *TagService) ListTags(ctx context.Context) ([]*models.Tag, error) {
	var cached []*models.Tag
	if cache.GetJSON(ctx, cache.TagListKey, &cached) {
		return cached, nil
	}

	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, cache.TagListKey, tags, cache.TagListTTL)
	return tags, nil
}

// CreateTag adds a new tag name. Admin only; duplicates conflict.
func (s *TagService) CreateTag(ctx context.Context, userID uint, name string) (*models.Tag, error) {
	admin, err := s.isAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, models.NewForbiddenError("Admin access required")
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, models.NewValidationError("Tag name is required")
	}

	if _, err := s.tagRepo.GetByName(ctx, name); err == nil {
		return nil, models.NewConflictError("Tag already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag := &models.Tag{Name: name}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, err
	}
	cache.InvalidateTags(ctx)
	return tag, nil
}

// DeleteTag removes a tag. Admin only; a tag still referenced by any
// post cannot be deleted.
func (s *TagService) DeleteTag(ctx context.Context, userID, tagID uint) error {
	admin, err := s.isAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError("Admin access required")
	}

	count, err := s.tagRepo.CountPosts(ctx, tagID)
	if err != nil {
		return err
	}
	if count > 0 {
		return models.NewConflictError("Tag is still referenced by posts")
	}

	if err := s.tagRepo.Delete(ctx, tagID); err != nil {
		return err
	}
	cache.InvalidateTags(ctx)
	return nil
}
