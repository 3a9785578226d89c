package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"praxis/internal/models"
	"praxis/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupNotifier(t *testing.T) (*Notifier, repository.NotificationRepository, *redis.Client) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := repository.NewNotificationRepository(db)
	return NewNotifier(repo, rdb), repo, rdb
}

func TestNotifier_PersistsAndPublishes(t *testing.T) {
	notifier, repo, rdb := setupNotifier(t)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, "notifications:user:42")
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(ctx)
	require.NoError(t, err, "subscription confirmed before publishing")

	postID := uint(7)
	notifier.Notify(ctx, &models.Notification{
		UserID:  42,
		Content: "Your post was approved",
		Type:    models.NotificationPostApproved,
		PostID:  &postID,
	})

	stored, err := repo.ListByUser(ctx, 42, 10, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotificationPostApproved, stored[0].Type)
	assert.False(t, stored[0].Read)

	select {
	case msg := <-sub.Channel():
		var got models.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, uint(42), got.UserID)
		assert.Equal(t, "Your post was approved", got.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received on the user channel")
	}
}

func TestNotifier_NilRedisStillPersists(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	repo := repository.NewNotificationRepository(db)

	notifier := NewNotifier(repo, nil)
	ctx := context.Background()

	notifier.Notify(ctx, &models.Notification{UserID: 1, Content: "hi", Type: models.NotificationPostRejected})

	count, err := repo.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

type failingRepo struct{}

func (failingRepo) Create(ctx context.Context, n *models.Notification) error {
	return errors.New("db down")
}

func (failingRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error) {
	return nil, nil
}

func (failingRepo) MarkRead(ctx context.Context, userID, id uint) (bool, error) {
	return false, nil
}

func (failingRepo) MarkAllRead(ctx context.Context, userID uint) error {
	return nil
}

func (failingRepo) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return 0, nil
}

func TestNotifier_PersistFailureDoesNotPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	notifier := NewNotifier(failingRepo{}, rdb)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, "notifications:user:1")
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	notifier.Notify(ctx, &models.Notification{UserID: 1, Content: "hi", Type: models.NotificationPostApproved})

	select {
	case msg := <-sub.Channel():
		t.Fatalf("unexpected publish after failed persist: %s", msg.Payload)
	case <-time.After(200 * time.Millisecond):
	}
}
