package repository

import (
	"testing"

	"praxis/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Post{},
		&models.Attachment{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
		&models.UserPostHide{},
		&models.Report{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@e.com", Password: "pw", Role: models.RoleUser}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func seedPost(t *testing.T, db *gorm.DB, author *models.User, status string, mutate ...func(*models.Post)) *models.Post {
	t.Helper()
	post := &models.Post{Title: "title", Content: "content", UserID: author.ID, Status: status}
	for _, m := range mutate {
		m(post)
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func seedComment(t *testing.T, db *gorm.DB, author *models.User, post *models.Post, parentID *uint) *models.Comment {
	t.Helper()
	comment := &models.Comment{PostID: post.ID, UserID: author.ID, ParentID: parentID, Content: "text"}
	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return comment
}
