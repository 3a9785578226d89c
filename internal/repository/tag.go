package repository

import (
	"context"
	"errors"
	"strings"

	"praxis/internal/models"

	"gorm.io/gorm"
)

// TagRepository manages the tag vocabulary and post-tag bindings.
type TagRepository interface {
	List(ctx context.Context) ([]*models.Tag, error)
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error)
	ReplacePostTags(ctx context.Context, post *models.Post, tags []models.Tag) error
	Create(ctx context.Context, tag *models.Tag) error
	CountPosts(ctx context.Context, tagID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *tagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindOrCreate resolves tag names to rows, creating the ones that do
// not exist yet. Names are normalized to lower case and deduplicated.
func (r *tagRepository) FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error) {
	seen := make(map[string]bool, len(names))
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag models.Tag
		err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{Name: name}
			if err := r.db.WithContext(ctx).Create(&tag).Error; err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (r *tagRepository) ReplacePostTags(ctx context.Context, post *models.Post, tags []models.Tag) error {
	return r.db.WithContext(ctx).Model(post).Association("Tags").Replace(tags)
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// CountPosts counts how many posts still reference the tag, including
// soft-deleted ones; the association row keeps the tag alive.
func (r *tagRepository) CountPosts(ctx context.Context, tagID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("post_tags").
		Where("tag_id = ?", tagID).
		Count(&count).Error
	return count, err
}

func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Tag{}, id).Error
}
