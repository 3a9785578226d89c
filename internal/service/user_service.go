package service

import (
	"context"
	"errors"
	"strings"

	"praxis/internal/cache"
	"praxis/internal/models"
	"praxis/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStats aggregates a user's content and moderation footprint.
type UserStats struct {
	UserID           uint  `json:"user_id"`
	PostsApproved    int64 `json:"posts_approved"`
	PostsPending     int64 `json:"posts_pending"`
	PostsRejected    int64 `json:"posts_rejected"`
	Comments         int64 `json:"comments"`
	ReportedComments int64 `json:"reported_comments"`
}

// UserService owns accounts, roles, statistics and notification reads.
type UserService struct {
	userRepo  repository.UserRepository
	notifRepo repository.NotificationRepository
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, notifRepo repository.NotificationRepository) *UserService {
	return &UserService{userRepo: userRepo, notifRepo: notifRepo}
}

// Register creates a new account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if in.Username == "" || in.Email == "" {
		return nil, models.NewValidationError("Username and email are required")
	}
	if len(in.Password) < 8 {
		return nil, models.NewValidationError("Password must be at least 8 characters")
	}

	if _, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil {
		return nil, models.NewConflictError("Username is already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, models.NewConflictError("Email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies credentials and returns the account.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewForbiddenError("Invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewForbiddenError("Invalid credentials")
	}
	return user, nil
}

// GetUser returns an account by ID.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, err
	}
	return user, nil
}

// GetRole resolves the role string for the auth middleware.
func (s *UserService) GetRole(ctx context.Context, userID uint) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// IsStaff is the capability function injected into sibling services.
func (s *UserService) IsStaff(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsStaff(), nil
}

// GetUserStats computes the user's content counts and approved
// violations. ReportedComments counts approved reports only, so sibling
// resolved reports never double-count a removal.
func (s *UserService) GetUserStats(ctx context.Context, userID uint) (*UserStats, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	key := cache.UserStatsKey(userID)
	var cached UserStats
	if cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	stats := &UserStats{UserID: userID}
	var err error
	if stats.PostsApproved, err = s.userRepo.CountPostsByStatus(ctx, userID, models.PostStatusApproved); err != nil {
		return nil, err
	}
	if stats.PostsPending, err = s.userRepo.CountPostsByStatus(ctx, userID, models.PostStatusPending); err != nil {
		return nil, err
	}
	if stats.PostsRejected, err = s.userRepo.CountPostsByStatus(ctx, userID, models.PostStatusRejected); err != nil {
		return nil, err
	}
	if stats.Comments, err = s.userRepo.CountCommentsByUser(ctx, userID); err != nil {
		return nil, err
	}
	if stats.ReportedComments, err = s.userRepo.CountViolations(ctx, userID); err != nil {
		return nil, err
	}

	cache.SetJSON(ctx, key, stats, cache.UserStatsTTL)
	return stats, nil
}

// SetRestricted flips the restriction flag on an account. Staff only;
// the check belongs to the caller via the injected capability in the
// HTTP layer.
func (s *UserService) SetRestricted(ctx context.Context, userID uint, restricted bool) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.SetRestricted(ctx, userID, restricted); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

// ListNotifications returns the user's notifications, newest first.
func (s *UserService) ListNotifications(ctx context.Context, userID uint, page, pageSize int) ([]*models.Notification, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.notifRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
}

// MarkNotificationRead flags one of the user's notifications as read.
func (s *UserService) MarkNotificationRead(ctx context.Context, userID, notificationID uint) error {
	updated, err := s.notifRepo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !updated {
		return models.NewNotFoundError("Notification", notificationID)
	}
	return nil
}

// MarkAllNotificationsRead flags every unread notification of the user.
func (s *UserService) MarkAllNotificationsRead(ctx context.Context, userID uint) error {
	return s.notifRepo.MarkAllRead(ctx, userID)
}

// CountUnreadNotifications returns the unread badge count.
func (s *UserService) CountUnreadNotifications(ctx context.Context, userID uint) (int64, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}
