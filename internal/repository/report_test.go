package repository

import (
	"context"
	"testing"

	"praxis/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepository_PendingLookups(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	r1 := seedUser(t, db, "reporter1")
	r2 := seedUser(t, db, "reporter2")
	post := seedPost(t, db, author, models.PostStatusApproved)
	comment := seedComment(t, db, author, post, nil)

	mk := func(reporter *models.User, status string) *models.Report {
		rep := &models.Report{ReporterID: reporter.ID, CommentID: &comment.ID,
			CommentAuthorID: &author.ID, Reason: "spam", Status: status}
		require.NoError(t, repo.Create(ctx, rep))
		return rep
	}
	pending1 := mk(r1, models.ReportStatusPending)
	pending2 := mk(r2, models.ReportStatusPending)

	t.Run("HasPendingByReporter", func(t *testing.T) {
		has, err := repo.HasPendingByReporter(ctx, r1.ID, comment.ID)
		require.NoError(t, err)
		assert.True(t, has)

		has, err = repo.HasPendingByReporter(ctx, author.ID, comment.ID)
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("ListPendingByComment", func(t *testing.T) {
		reports, err := repo.ListPendingByComment(ctx, comment.ID)
		require.NoError(t, err)
		require.Len(t, reports, 2)
	})

	t.Run("dismissed report no longer counts as pending", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, pending1.ID, models.ReportStatusDismissed))

		has, err := repo.HasPendingByReporter(ctx, r1.ID, comment.ID)
		require.NoError(t, err)
		assert.False(t, has)

		reports, err := repo.ListPendingByComment(ctx, comment.ID)
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, pending2.ID, reports[0].ID)
	})
}

func TestReportRepository_DetachComments(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	reporter := seedUser(t, db, "reporter")
	post := seedPost(t, db, author, models.PostStatusApproved)
	c1 := seedComment(t, db, author, post, nil)
	c2 := seedComment(t, db, author, post, nil)

	rep1 := &models.Report{ReporterID: reporter.ID, CommentID: &c1.ID,
		CommentAuthorID: &author.ID, Reason: "spam", Status: models.ReportStatusPending}
	rep2 := &models.Report{ReporterID: reporter.ID, CommentID: &c2.ID,
		CommentAuthorID: &author.ID, Reason: "spam", Status: models.ReportStatusPending}
	require.NoError(t, repo.Create(ctx, rep1))
	require.NoError(t, repo.Create(ctx, rep2))

	require.NoError(t, repo.DetachComments(ctx, []uint{c1.ID}))

	var got models.Report
	require.NoError(t, db.First(&got, rep1.ID).Error)
	assert.Nil(t, got.CommentID)
	require.NotNil(t, got.CommentAuthorID, "author capture survives the detach")

	got = models.Report{}
	require.NoError(t, db.First(&got, rep2.ID).Error)
	assert.NotNil(t, got.CommentID, "untouched report keeps its comment")
}

func TestReportRepository_UpdateStatusBulk(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	reporter := seedUser(t, db, "reporter")
	post := seedPost(t, db, author, models.PostStatusApproved)
	comment := seedComment(t, db, author, post, nil)

	var ids []uint
	for i := 0; i < 3; i++ {
		rep := &models.Report{ReporterID: reporter.ID, CommentID: &comment.ID,
			Reason: "spam", Status: models.ReportStatusPending}
		require.NoError(t, repo.Create(ctx, rep))
		ids = append(ids, rep.ID)
	}

	// empty input must be a no-op, not a global update
	require.NoError(t, repo.UpdateStatusBulk(ctx, nil, models.ReportStatusResolved))
	var count int64
	db.Model(&models.Report{}).Where("status = ?", models.ReportStatusPending).Count(&count)
	assert.Equal(t, int64(3), count)

	require.NoError(t, repo.UpdateStatusBulk(ctx, ids[:2], models.ReportStatusResolved))
	db.Model(&models.Report{}).Where("status = ?", models.ReportStatusResolved).Count(&count)
	assert.Equal(t, int64(2), count)
}
