package server

import (
	"praxis/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed returns one page of the post feed (public, viewer-aware)
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)

	feed, err := s.feedService.GetFeed(c.UserContext(), service.GetFeedInput{
		Sort:     c.Query("filter"),
		Tag:      c.Query("tag"),
		Page:     page,
		PageSize: pageSize,
		ViewerID: currentUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}

// GetPost returns a single post and registers a view (public, viewer-aware)
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.feedService.GetPost(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	s.feedService.RegisterView(c.UserContext(), postID)
	return c.JSON(post)
}

// SearchPosts searches visible posts by title or content (public)
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)

	posts, err := s.feedService.SearchPosts(c.UserContext(), c.Query("q"), page, pageSize, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetUserPosts lists a user's posts as seen by the requester (protected)
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, pageSize := pageParams(c)

	feed, err := s.feedService.GetFeed(c.UserContext(), service.GetFeedInput{
		Sort:     c.Query("filter"),
		AuthorID: authorID,
		Page:     page,
		PageSize: pageSize,
		ViewerID: currentUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}

// HidePost hides a post from the requester's own feed (protected)
func (s *Server) HidePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.feedService.HidePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnhidePost restores a post to the requester's feed (protected)
func (s *Server) UnhidePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.feedService.UnhidePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
