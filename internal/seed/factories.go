// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"praxis/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions tune factory behaviour.
type SeedOptions struct {
	// MaxDays spreads created_at timestamps back this many days.
	MaxDays int
	// SkipBcrypt stores plaintext passwords for fast local seeding.
	SkipBcrypt bool
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// backdate returns a timestamp spread over the configured window so
// feeds do not look like everything was posted at once.
func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Role:     models.RoleUser,
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost constructs and persists a sample `models.Post` for the
// given user. Posts start pending like real submissions; pass an
// override to approve them.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Title:     gofakeit.Sentence(5),
		Content:   gofakeit.Paragraph(1, 3, 5, "\n"),
		UserID:    user.ID,
		Status:    models.PostStatusPending,
		CreatedAt: f.backdate(),
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateTag persists a tag with a normalized name.
func (f *Factory) CreateTag(name string) (*models.Tag, error) {
	tag := &models.Tag{Name: strings.ToLower(strings.TrimSpace(name))}
	if err := f.db.Create(tag).Error; err != nil {
		return nil, err
	}
	return tag, nil
}

// AttachTags links the given tags to a post.
func (f *Factory) AttachTags(post *models.Post, tags []models.Tag) error {
	return f.db.Model(post).Association("Tags").Replace(tags)
}

// CreateComment constructs and persists a sample `models.Comment` on the
// provided post authored by the provided user. Pass a parent via an
// override to build reply threads.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(8),
		UserID:  user.ID,
		PostID:  post.ID,
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreatePostLike persists a vote from `user` on `post`.
func (f *Factory) CreatePostLike(user *models.User, post *models.Post) error {
	like := &models.PostLike{
		UserID: user.ID,
		PostID: post.ID,
	}
	return f.db.Create(like).Error
}

// CreateCommentLike persists a vote from `user` on `comment`.
func (f *Factory) CreateCommentLike(user *models.User, comment *models.Comment) error {
	like := &models.CommentLike{
		UserID:    user.ID,
		CommentID: comment.ID,
	}
	return f.db.Create(like).Error
}

// CreateHide persists a per-user hide of `post` for `user`.
func (f *Factory) CreateHide(user *models.User, post *models.Post) error {
	hide := &models.UserPostHide{
		UserID: user.ID,
		PostID: post.ID,
	}
	return f.db.Create(hide).Error
}

// CreateReport persists a pending report from `reporter` against
// `comment`, capturing the comment author the way the service does.
func (f *Factory) CreateReport(reporter *models.User, comment *models.Comment, overrides ...func(*models.Report)) (*models.Report, error) {
	report := &models.Report{
		ReporterID:      reporter.ID,
		CommentID:       &comment.ID,
		CommentAuthorID: &comment.UserID,
		Reason:          gofakeit.Sentence(6),
		Status:          models.ReportStatusPending,
	}

	for _, override := range overrides {
		override(report)
	}

	if err := f.db.Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}
