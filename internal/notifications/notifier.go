// Package notifications provides notification persistence and delivery.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"praxis/internal/models"
	"praxis/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Sink receives notifications produced by moderation transitions. It is
// invoked after the owning transaction commits, so implementations must
// tolerate being the only side effect that failed.
type Sink interface {
	Notify(ctx context.Context, notification *models.Notification)
}

// Notifier persists notifications and publishes them to the user's
// Redis channel for live delivery.
type Notifier struct {
	repo repository.NotificationRepository
	rdb  *redis.Client
}

// NewNotifier creates a new Notifier instance.
func NewNotifier(repo repository.NotificationRepository, rdb *redis.Client) *Notifier {
	return &Notifier{repo: repo, rdb: rdb}
}

// Notify stores the notification and publishes it. Failures are logged
// rather than returned; the triggering operation has already committed.
func (n *Notifier) Notify(ctx context.Context, notification *models.Notification) {
	if err := n.repo.Create(ctx, notification); err != nil {
		slog.ErrorContext(ctx, "failed to persist notification",
			"user_id", notification.UserID,
			"type", notification.Type,
			"error", err,
		)
		return
	}

	if n.rdb == nil {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return
	}
	channel := fmt.Sprintf("notifications:user:%d", notification.UserID)
	if err := n.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		slog.WarnContext(ctx, "failed to publish notification",
			"channel", channel,
			"error", err,
		)
	}
}
