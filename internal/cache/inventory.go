package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix   = "user:%d"
	PostKeyPrefix   = "post:%d"
	TagListKey      = "tags:all"
	FeedKeyPrefix   = "feed:%s:%s:p%d:s%d:v%d"
	UserStatsKeyFmt = "user:%d:stats"
	FeedScanPattern = "feed:*"
)

const (
	UserTTL      = 5 * time.Minute
	PostTTL      = 30 * time.Minute
	TagListTTL   = 10 * time.Minute
	FeedTTL      = 1 * time.Minute
	UserStatsTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// FeedKey identifies one page of an assembled feed. Viewer-specific fields
// (vote markers, per-user hides) make the viewer part of the key.
func FeedKey(filter, tag string, page, size int, viewerID uint) string {
	return fmt.Sprintf(FeedKeyPrefix, filter, tag, page, size, viewerID)
}

func UserStatsKey(userID uint) string {
	return fmt.Sprintf(UserStatsKeyFmt, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
	Invalidate(ctx, UserStatsKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateTags(ctx context.Context) {
	Invalidate(ctx, TagListKey)
}

// InvalidateFeeds drops every cached feed page. Feed keys are viewer and
// page specific, so a SCAN walk is the only way to clear them all.
func InvalidateFeeds(ctx context.Context) {
	if client == nil {
		return
	}
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, FeedScanPattern, 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}
