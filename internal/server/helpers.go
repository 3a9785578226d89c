package server

import (
	"strconv"

	"praxis/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseID reads a positive integer route parameter. On failure it
// writes the 400 response itself and returns a non-nil error so the
// caller can bail out with `return nil`.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param+" parameter"))
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}

// currentUserID returns the authenticated user's ID, or zero for
// anonymous requests behind OptionalAuth.
func currentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}

// pageParams reads page/page_size query parameters with defaults.
func pageParams(c *fiber.Ctx) (int, int) {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)
	return page, pageSize
}

// respondError maps an application error onto the HTTP response.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}
