package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"praxis/internal/models"
	"praxis/internal/service"

	"github.com/gofiber/fiber/v2"
)

func TestGetFeedHandler(t *testing.T) {
	s, db := setupHandlerTest(t)

	author := createHandlerUser(t, db, "author", models.RoleUser)
	approved := models.Post{Title: "visible", Content: "c", UserID: author.ID, Status: models.PostStatusApproved}
	db.Create(&approved)
	pending := models.Post{Title: "draft", Content: "c", UserID: author.ID, Status: models.PostStatusPending}
	db.Create(&pending)

	app := fiber.New()
	app.Get("/posts", s.GetFeed)
	app.Get("/posts/mine", func(c *fiber.Ctx) error {
		c.Locals("userID", author.ID)
		return s.GetFeed(c)
	})

	t.Run("anonymous sees approved only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var feed service.FeedPage
		json.NewDecoder(resp.Body).Decode(&feed)
		if len(feed.Posts) != 1 {
			t.Fatalf("expected 1 post, got %d", len(feed.Posts))
		}
		if feed.Posts[0].ID != approved.ID {
			t.Errorf("expected post %d, got %d", approved.ID, feed.Posts[0].ID)
		}
	})

	t.Run("author sees own pending post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts/mine", nil)
		resp, _ := app.Test(req)
		var feed service.FeedPage
		json.NewDecoder(resp.Body).Decode(&feed)
		if len(feed.Posts) != 2 {
			t.Errorf("expected 2 posts, got %d", len(feed.Posts))
		}
	})

	t.Run("unknown filter falls back to new", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts?filter=bogus", nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var feed service.FeedPage
		json.NewDecoder(resp.Body).Decode(&feed)
		if len(feed.Posts) != 1 {
			t.Errorf("expected 1 post, got %d", len(feed.Posts))
		}
	})
}

func TestGetPostHandler(t *testing.T) {
	s, db := setupHandlerTest(t)

	author := createHandlerUser(t, db, "author", models.RoleUser)
	approved := models.Post{Title: "visible", Content: "c", UserID: author.ID, Status: models.PostStatusApproved}
	db.Create(&approved)
	pending := models.Post{Title: "draft", Content: "c", UserID: author.ID, Status: models.PostStatusPending}
	db.Create(&pending)

	app := fiber.New()
	app.Get("/posts/:id", s.GetPost)

	t.Run("approved post is returned and view counted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/posts/%d", approved.ID), nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var got models.Post
		db.First(&got, approved.ID)
		if got.ViewCount != 1 {
			t.Errorf("expected view count 1, got %d", got.ViewCount)
		}
	})

	t.Run("pending post is not found for anonymous viewers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/posts/%d", pending.ID), nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("invalid id parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts/abc", nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}
