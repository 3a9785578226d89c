package seed

import (
	"fmt"
	"log"

	"praxis/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Default tag vocabulary installed by the seeder.
var defaultTags = []string{
	"general", "help", "showcase", "discussion", "meta",
	"announcements", "offtopic", "feedback",
}

// Seeder populates the database with realistic demo data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, SeedOptions{MaxDays: 90})}
}

// ClearAll truncates every seeded table. Order matters for foreign keys.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	tables := []interface{}{
		&models.Notification{},
		&models.Report{},
		&models.CommentLike{},
		&models.PostLike{},
		&models.UserPostHide{},
		&models.Comment{},
		&models.Attachment{},
		&models.Post{},
		&models.Tag{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", table, err)
		}
	}
	if err := s.db.Exec("DELETE FROM post_tags").Error; err != nil {
		return fmt.Errorf("clearing post_tags: %w", err)
	}
	return nil
}

// SeedStaff creates the fixed admin and moderator accounts.
func (s *Seeder) SeedStaff() error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	staff := []models.User{
		{Username: "admin", Email: "admin@praxis.local", Password: string(hash), Role: models.RoleAdmin},
		{Username: "moderator", Email: "moderator@praxis.local", Password: string(hash), Role: models.RoleModerator},
	}
	for i := range staff {
		if err := s.db.Create(&staff[i]).Error; err != nil {
			return fmt.Errorf("creating staff user %s: %w", staff[i].Username, err)
		}
	}
	log.Printf("Created %d staff accounts", len(staff))
	return nil
}

// SeedTags installs the default tag vocabulary.
func (s *Seeder) SeedTags() ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(defaultTags))
	for _, name := range defaultTags {
		tag, err := s.factory.CreateTag(name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	log.Printf("Created %d tags", len(tags))
	return tags, nil
}

// SeedCommunity creates users, posts across all statuses, tagged and
// voted content, comment threads, per-user hides and a handful of
// pending reports so the moderation queue is not empty.
func (s *Seeder) SeedCommunity(numUsers, numPosts int) error {
	tags, err := s.SeedTags()
	if err != nil {
		return err
	}

	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return fmt.Errorf("creating user %d: %w", i, err)
		}
		users = append(users, user)
	}
	log.Printf("Created %d users", len(users))

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[gofakeit.Number(0, len(users)-1)]
		post, err := s.factory.CreatePost(author, func(p *models.Post) {
			// roughly 70% approved, 20% pending, 10% rejected
			switch roll := gofakeit.Number(1, 10); {
			case roll <= 7:
				p.Status = models.PostStatusApproved
				p.ViewCount = gofakeit.Number(0, 500)
			case roll <= 9:
				p.Status = models.PostStatusPending
			default:
				p.Status = models.PostStatusRejected
				p.RejectReason = gofakeit.Sentence(4)
			}
		})
		if err != nil {
			return fmt.Errorf("creating post %d: %w", i, err)
		}

		if n := gofakeit.Number(0, 3); n > 0 {
			idx := tagIndexes(len(tags))
			gofakeit.ShuffleInts(idx)
			picked := make([]models.Tag, 0, n)
			for _, j := range idx[:n] {
				picked = append(picked, tags[j])
			}
			if err := s.factory.AttachTags(post, picked); err != nil {
				return fmt.Errorf("tagging post %d: %w", post.ID, err)
			}
		}
		posts = append(posts, post)
	}
	log.Printf("Created %d posts", len(posts))

	// Pin a couple of approved posts
	pinned := 0
	for _, post := range posts {
		if pinned >= 2 {
			break
		}
		if post.Status == models.PostStatusApproved {
			if err := s.db.Model(post).Update("pinned", true).Error; err != nil {
				return err
			}
			pinned++
		}
	}

	if err := s.seedEngagement(users, posts); err != nil {
		return err
	}

	log.Println("Community seeding complete")
	return nil
}

// seedEngagement layers comments, votes, hides and reports over the
// approved posts.
func (s *Seeder) seedEngagement(users []*models.User, posts []*models.Post) error {
	comments := make([]*models.Comment, 0)
	votes, hides := 0, 0

	for _, post := range posts {
		if post.Status != models.PostStatusApproved {
			continue
		}

		// comment roots plus a shallow reply thread
		var roots []*models.Comment
		for i := 0; i < gofakeit.Number(0, 5); i++ {
			author := users[gofakeit.Number(0, len(users)-1)]
			comment, err := s.factory.CreateComment(author, post)
			if err != nil {
				return err
			}
			roots = append(roots, comment)
			comments = append(comments, comment)
		}
		for _, root := range roots {
			for i := 0; i < gofakeit.Number(0, 2); i++ {
				author := users[gofakeit.Number(0, len(users)-1)]
				reply, err := s.factory.CreateComment(author, post, func(c *models.Comment) {
					c.ParentID = &root.ID
				})
				if err != nil {
					return err
				}
				comments = append(comments, reply)
			}
		}

		// votes from a random slice of users
		for _, user := range users {
			if gofakeit.Number(1, 10) <= 3 {
				if err := s.factory.CreatePostLike(user, post); err != nil {
					return err
				}
				votes++
			}
			if gofakeit.Number(1, 100) <= 3 {
				if err := s.factory.CreateHide(user, post); err != nil {
					return err
				}
				hides++
			}
		}
	}

	// comment votes and a few pending reports
	reports := 0
	for _, comment := range comments {
		for _, user := range users {
			if gofakeit.Number(1, 20) == 1 {
				if err := s.factory.CreateCommentLike(user, comment); err != nil {
					return err
				}
			}
		}
		if reports < 5 && gofakeit.Number(1, 10) == 1 {
			reporter := users[gofakeit.Number(0, len(users)-1)]
			if reporter.ID == comment.UserID {
				continue
			}
			if _, err := s.factory.CreateReport(reporter, comment); err != nil {
				return err
			}
			reports++
		}
	}

	log.Printf("Created %d comments, %d post votes, %d hides, %d reports", len(comments), votes, hides, reports)
	return nil
}

func tagIndexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
