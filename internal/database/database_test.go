package database

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"praxis/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestGormLoggerFeedsQueryLatencyHistogram(t *testing.T) {
	observability.DatabaseQueryLatency.Reset()

	gl := &CustomGormLogger{
		logger: slog.Default(),
		Config: logger.Config{LogLevel: logger.Silent},
	}

	// Silent suppresses log output but the histogram still sees the query.
	gl.Trace(context.Background(), time.Now().Add(-5*time.Millisecond), func() (string, int64) {
		return "SELECT * FROM posts WHERE id = 1", 1
	}, nil)
	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "UPDATE posts SET view_count = view_count + 1", 1
	}, nil)

	// one histogram series per statement verb
	assert.Equal(t, 2, testutil.CollectAndCount(observability.DatabaseQueryLatency))
}
