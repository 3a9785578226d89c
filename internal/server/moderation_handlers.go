package server

import (
	"praxis/internal/models"
	"praxis/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ReportComment files a report against a comment (protected)
func (s *Server) ReportComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.moderationService.CreateReport(c.UserContext(), service.CreateReportInput{
		ReporterID: currentUserID(c),
		CommentID:  commentID,
		Reason:     req.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetModerationQueue lists pending posts awaiting review (moderator)
func (s *Server) GetModerationQueue(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)

	feed, err := s.feedService.GetModerationQueue(c.UserContext(), currentUserID(c), page, pageSize)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}

// GetReports lists reports, optionally filtered by status (moderator)
func (s *Server) GetReports(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)

	reports, err := s.moderationService.ListReports(c.UserContext(), currentUserID(c), c.Query("status"), page, pageSize)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reports)
}

// ApproveReport acts on a report, removing the comment subtree (moderator)
func (s *Server) ApproveReport(c *fiber.Ctx) error {
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.moderationService.ApproveReport(c.UserContext(), currentUserID(c), reportID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// DismissReport rejects a report, leaving the comment in place (moderator)
func (s *Server) DismissReport(c *fiber.Ctx) error {
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.moderationService.DismissReport(c.UserContext(), currentUserID(c), reportID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// ApprovePost publishes a pending post to the feed (moderator)
func (s *Server) ApprovePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.moderationService.ApprovePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RejectPost rejects a post with a reason for the author (moderator)
func (s *Server) RejectPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.moderationService.RejectPost(c.UserContext(), currentUserID(c), postID, req.Reason); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HidePostGlobally flips the global kill-switch on (moderator)
func (s *Server) HidePostGlobally(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.moderationService.SetPostHidden(c.UserContext(), currentUserID(c), postID, true); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnhidePostGlobally flips the global kill-switch off (moderator)
func (s *Server) UnhidePostGlobally(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.moderationService.SetPostHidden(c.UserContext(), currentUserID(c), postID, false); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RestrictUser blocks a user from creating content (moderator)
func (s *Server) RestrictUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.SetRestricted(c.UserContext(), userID, true); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnrestrictUser lifts a content-creation restriction (moderator)
func (s *Server) UnrestrictUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.SetRestricted(c.UserContext(), userID, false); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
