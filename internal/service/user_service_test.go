package service

import (
	"context"
	"testing"

	"praxis/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// notifRepoStub is a stub for repository.NotificationRepository.
type notifRepoStub struct {
	createFn      func(context.Context, *models.Notification) error
	listByUserFn  func(context.Context, uint, int, int) ([]*models.Notification, error)
	markReadFn    func(context.Context, uint, uint) (bool, error)
	markAllReadFn func(context.Context, uint) error
	countUnreadFn func(context.Context, uint) (int64, error)
}

func (s *notifRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}
func (s *notifRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *notifRepoStub) MarkRead(ctx context.Context, userID, id uint) (bool, error) {
	return s.markReadFn(ctx, userID, id)
}
func (s *notifRepoStub) MarkAllRead(ctx context.Context, userID uint) error {
	return s.markAllReadFn(ctx, userID)
}
func (s *notifRepoStub) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.countUnreadFn(ctx, userID)
}

func noopNotifRepo() *notifRepoStub {
	return &notifRepoStub{
		createFn:      func(_ context.Context, _ *models.Notification) error { return nil },
		listByUserFn:  func(_ context.Context, _ uint, _, _ int) ([]*models.Notification, error) { return nil, nil },
		markReadFn:    func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		markAllReadFn: func(_ context.Context, _ uint) error { return nil },
		countUnreadFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

func TestUserService_Register_Validation(t *testing.T) {
	t.Parallel()

	svc := NewUserService(noopUserRepo(), noopNotifRepo())
	ctx := context.Background()

	t.Run("missing username", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password1"})
		assertValidationError(t, err)
	})

	t.Run("short password", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@b.com", Password: "short"})
		assertValidationError(t, err)
	})
}

func TestUserService_Register_Conflicts(t *testing.T) {
	t.Parallel()

	t.Run("username taken", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByUsernameFn = func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{ID: 1}, nil
		}
		svc := NewUserService(userRepo, noopNotifRepo())
		_, err := svc.Register(context.Background(), RegisterInput{
			Username: "alice", Email: "a@b.com", Password: "password1",
		})
		assertConflictError(t, err)
	})

	t.Run("email taken", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByEmailFn = func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{ID: 1}, nil
		}
		svc := NewUserService(userRepo, noopNotifRepo())
		_, err := svc.Register(context.Background(), RegisterInput{
			Username: "alice", Email: "a@b.com", Password: "password1",
		})
		assertConflictError(t, err)
	})
}

func TestUserService_Register_Success(t *testing.T) {
	t.Parallel()

	var created *models.User
	userRepo := noopUserRepo()
	userRepo.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 3
		created = u
		return nil
	}
	svc := NewUserService(userRepo, noopNotifRepo())

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "  Alice@B.com ", Password: "password1",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(3), user.ID)
	assert.Equal(t, "alice@b.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	// the stored password is a bcrypt hash, not the plaintext
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("password1")))
}

func TestUserService_Authenticate(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)

	userRepo := noopUserRepo()
	userRepo.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
		if username == "alice" {
			return &models.User{ID: 1, Username: "alice", Password: string(hash)}, nil
		}
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewUserService(userRepo, noopNotifRepo())
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()
		user, err := svc.Authenticate(ctx, "alice", "password1")
		require.NoError(t, err)
		assert.Equal(t, uint(1), user.ID)
	})

	// Unknown user and wrong password are indistinguishable to the caller.
	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Authenticate(ctx, "alice", "wrong")
		assertForbiddenError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Authenticate(ctx, "nobody", "password1")
		assertForbiddenError(t, err)
	})
}

func TestUserService_IsStaff(t *testing.T) {
	t.Parallel()

	userRepo := noopUserRepo()
	userRepo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		switch id {
		case 1:
			return &models.User{ID: 1, Role: models.RoleModerator}, nil
		case 2:
			return &models.User{ID: 2, Role: models.RoleUser}, nil
		}
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewUserService(userRepo, noopNotifRepo())
	ctx := context.Background()

	staff, err := svc.IsStaff(ctx, 1)
	require.NoError(t, err)
	assert.True(t, staff)

	staff, err = svc.IsStaff(ctx, 2)
	require.NoError(t, err)
	assert.False(t, staff)

	// anonymous and unknown users are never staff
	staff, err = svc.IsStaff(ctx, 0)
	require.NoError(t, err)
	assert.False(t, staff)

	staff, err = svc.IsStaff(ctx, 99)
	require.NoError(t, err)
	assert.False(t, staff)
}

func TestUserService_GetUserStats(t *testing.T) {
	t.Parallel()

	userRepo := noopUserRepo()
	userRepo.countPostsByStatusFn = func(_ context.Context, _ uint, status string) (int64, error) {
		switch status {
		case models.PostStatusApproved:
			return 4, nil
		case models.PostStatusPending:
			return 2, nil
		case models.PostStatusRejected:
			return 1, nil
		}
		return 0, nil
	}
	userRepo.countCommentsFn = func(_ context.Context, _ uint) (int64, error) { return 9, nil }
	userRepo.countViolationsFn = func(_ context.Context, _ uint) (int64, error) { return 1, nil }

	svc := NewUserService(userRepo, noopNotifRepo())
	stats, err := svc.GetUserStats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.PostsApproved)
	assert.Equal(t, int64(2), stats.PostsPending)
	assert.Equal(t, int64(1), stats.PostsRejected)
	assert.Equal(t, int64(9), stats.Comments)
	assert.Equal(t, int64(1), stats.ReportedComments)
}

func TestUserService_GetUserStats_UnknownUser(t *testing.T) {
	t.Parallel()

	userRepo := noopUserRepo()
	userRepo.getByIDFn = func(_ context.Context, _ uint) (*models.User, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewUserService(userRepo, noopNotifRepo())
	_, err := svc.GetUserStats(context.Background(), 99)
	assertNotFoundError(t, err)
}

func TestUserService_MarkNotificationRead(t *testing.T) {
	t.Parallel()

	t.Run("not owned or missing", func(t *testing.T) {
		t.Parallel()
		notifRepo := noopNotifRepo()
		notifRepo.markReadFn = func(_ context.Context, _, _ uint) (bool, error) { return false, nil }
		svc := NewUserService(noopUserRepo(), notifRepo)
		err := svc.MarkNotificationRead(context.Background(), 1, 9)
		assertNotFoundError(t, err)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo(), noopNotifRepo())
		require.NoError(t, svc.MarkNotificationRead(context.Background(), 1, 9))
	})
}

func TestUserService_MarkAllNotificationsRead(t *testing.T) {
	t.Parallel()

	notifRepo := noopNotifRepo()
	var gotUserID uint
	notifRepo.markAllReadFn = func(_ context.Context, userID uint) error {
		gotUserID = userID
		return nil
	}
	svc := NewUserService(noopUserRepo(), notifRepo)
	require.NoError(t, svc.MarkAllNotificationsRead(context.Background(), 7))
	assert.Equal(t, uint(7), gotUserID)
}
