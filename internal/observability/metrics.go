package observability

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "praxis_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by statement verb.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "praxis_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// FeedCacheRequests counts feed cache lookups by outcome (hit or miss).
	FeedCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "praxis_feed_cache_requests_total",
		Help: "Total number of feed cache lookups by outcome",
	}, []string{"outcome"})

	// PostStatusTransitions counts moderation transitions of post status.
	PostStatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "praxis_post_status_transitions_total",
		Help: "Total number of post status transitions by target status",
	}, []string{"to_status"})

	// ReportResolutions counts moderation report resolutions by outcome.
	ReportResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "praxis_report_resolutions_total",
		Help: "Total number of report resolutions by outcome",
	}, []string{"outcome"})

	// VotesTotal counts vote and unvote operations by subject and direction.
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "praxis_votes_total",
		Help: "Total number of vote operations by subject type and action",
	}, []string{"subject", "action"})

	// CommentsRemovedInCascade counts comments deleted as part of a subtree removal.
	CommentsRemovedInCascade = promauto.NewCounter(prometheus.CounterOpts{
		Name: "praxis_comments_removed_in_cascade_total",
		Help: "Total number of comments removed by cascading deletes",
	})
)

// ObserveQueryLatency records one executed statement in the latency
// histogram. The leading SQL verb becomes the operation label.
func ObserveQueryLatency(sql string, elapsed time.Duration) {
	operation := "other"
	if i := strings.IndexByte(sql, ' '); i > 0 {
		operation = strings.ToLower(sql[:i])
	}
	DatabaseQueryLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordFeedCacheHit increments the feed cache hit counter.
func RecordFeedCacheHit() {
	FeedCacheRequests.WithLabelValues("hit").Inc()
}

// RecordFeedCacheMiss increments the feed cache miss counter.
func RecordFeedCacheMiss() {
	FeedCacheRequests.WithLabelValues("miss").Inc()
}

// RecordPostStatusTransition increments the transition counter for the target status.
func RecordPostStatusTransition(toStatus string) {
	PostStatusTransitions.WithLabelValues(toStatus).Inc()
}

// RecordReportResolution increments the report resolution counter for the outcome.
func RecordReportResolution(outcome string) {
	ReportResolutions.WithLabelValues(outcome).Inc()
}

// RecordVote increments the vote counter for the subject type and action.
func RecordVote(subject, action string) {
	VotesTotal.WithLabelValues(subject, action).Inc()
}
