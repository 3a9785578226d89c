package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetNotifications lists the requester's notifications, newest first (protected)
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)

	notifs, err := s.userService.ListNotifications(c.UserContext(), currentUserID(c), page, pageSize)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(notifs)
}

// GetUnreadNotificationCount returns the unread badge count (protected)
func (s *Server) GetUnreadNotificationCount(c *fiber.Ctx) error {
	count, err := s.userService.CountUnreadNotifications(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}

// MarkNotificationRead flags one of the requester's notifications as read (protected)
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	notificationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.MarkNotificationRead(c.UserContext(), currentUserID(c), notificationID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllNotificationsRead flags every notification of the requester as read (protected)
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	if err := s.userService.MarkAllNotificationsRead(c.UserContext(), currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
