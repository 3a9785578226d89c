package service

import (
	"context"
	"testing"

	"praxis/internal/cache"
	"praxis/internal/models"
	"praxis/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// sinkStub records notifications instead of delivering them.
type sinkStub struct {
	sent []*models.Notification
}

func (s *sinkStub) Notify(_ context.Context, n *models.Notification) {
	s.sent = append(s.sent, n)
}

func newTestModerationService(db *gorm.DB, sink *sinkStub, isStaff func(context.Context, uint) (bool, error)) *ModerationService {
	if isStaff == nil {
		isStaff = alwaysStaff
	}
	return NewModerationService(db, sink, isStaff)
}

func TestModerationService_CreateReport(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	svc := newTestModerationService(db, &sinkStub{}, nil)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	reporter := createTestUser(t, db, "reporter")
	post := createTestPost(t, db, author, models.PostStatusApproved)
	comment := createTestComment(t, db, author, post, nil)

	t.Run("reason required", func(t *testing.T) {
		_, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: reporter.ID, CommentID: comment.ID})
		assertValidationError(t, err)
	})

	t.Run("missing comment", func(t *testing.T) {
		_, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: reporter.ID, CommentID: 9999, Reason: "spam"})
		assertNotFoundError(t, err)
	})

	t.Run("own comment", func(t *testing.T) {
		_, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: author.ID, CommentID: comment.ID, Reason: "spam"})
		assertValidationError(t, err)
	})

	t.Run("success captures comment author", func(t *testing.T) {
		report, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: reporter.ID, CommentID: comment.ID, Reason: "spam"})
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusPending, report.Status)
		require.NotNil(t, report.CommentAuthorID)
		assert.Equal(t, author.ID, *report.CommentAuthorID)
	})

	t.Run("second pending report by same reporter conflicts", func(t *testing.T) {
		_, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: reporter.ID, CommentID: comment.ID, Reason: "again"})
		assertConflictError(t, err)
	})
}

func TestModerationService_ApproveReport_Cascade(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	sink := &sinkStub{}
	svc := newTestModerationService(db, sink, nil)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	mod := createTestUser(t, db, "mod")
	r1 := createTestUser(t, db, "reporter1")
	r2 := createTestUser(t, db, "reporter2")
	r3 := createTestUser(t, db, "reporter3")
	post := createTestPost(t, db, author, models.PostStatusApproved)

	comment := createTestComment(t, db, author, post, nil)
	reply := createTestComment(t, db, author, post, &comment.ID)
	require.NoError(t, db.Create(&models.CommentLike{UserID: r1.ID, CommentID: reply.ID}).Error)

	// three pending reports against the same comment, one of them
	// without the author captured yet
	mkReport := func(reporter *models.User, withAuthor bool) *models.Report {
		rep := &models.Report{ReporterID: reporter.ID, CommentID: &comment.ID,
			Reason: "spam", Status: models.ReportStatusPending}
		if withAuthor {
			rep.CommentAuthorID = &author.ID
		}
		require.NoError(t, db.Create(rep).Error)
		return rep
	}
	acted := mkReport(r1, true)
	sib1 := mkReport(r2, true)
	sib2 := mkReport(r3, false)

	result, err := svc.ApproveReport(ctx, mod.ID, acted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, result.Status)

	// exactly one approved report, siblings resolved
	var got models.Report
	require.NoError(t, db.First(&got, sib1.ID).Error)
	assert.Equal(t, models.ReportStatusResolved, got.Status)
	got = models.Report{}
	require.NoError(t, db.First(&got, sib2.ID).Error)
	assert.Equal(t, models.ReportStatusResolved, got.Status)

	// every affected report kept the comment author and lost the comment
	for _, id := range []uint{acted.ID, sib1.ID, sib2.ID} {
		got = models.Report{}
		require.NoError(t, db.First(&got, id).Error)
		assert.Nil(t, got.CommentID, "report %d must be detached", id)
		require.NotNil(t, got.CommentAuthorID, "report %d must keep the author", id)
		assert.Equal(t, author.ID, *got.CommentAuthorID)
	}

	// the comment and its subtree are gone, likes included
	var count int64
	db.Model(&models.Comment{}).Where("id IN ?", []uint{comment.ID, reply.ID}).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&models.CommentLike{}).Where("comment_id = ?", reply.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	// the author was notified exactly once
	require.Len(t, sink.sent, 1)
	assert.Equal(t, author.ID, sink.sent[0].UserID)
	assert.Equal(t, models.NotificationCommentRemoved, sink.sent[0].Type)
}

func TestModerationService_ApproveReport_Idempotent(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	sink := &sinkStub{}
	svc := newTestModerationService(db, sink, nil)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	mod := createTestUser(t, db, "mod")
	reporter := createTestUser(t, db, "reporter")
	post := createTestPost(t, db, author, models.PostStatusApproved)
	comment := createTestComment(t, db, author, post, nil)

	report := &models.Report{ReporterID: reporter.ID, CommentID: &comment.ID,
		CommentAuthorID: &author.ID, Reason: "spam", Status: models.ReportStatusPending}
	require.NoError(t, db.Create(report).Error)

	_, err := svc.ApproveReport(ctx, mod.ID, report.ID)
	require.NoError(t, err)
	require.Len(t, sink.sent, 1)

	// a retry leaves the end state alone and sends nothing new
	result, err := svc.ApproveReport(ctx, mod.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, result.Status)
	assert.Len(t, sink.sent, 1)
}

// Not parallel: swaps the package-level cache client.
func TestModerationService_ApproveReport_DropsCachedAuthorStats(t *testing.T) {
	db := setupServiceDB(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	svc := newTestModerationService(db, &sinkStub{}, nil)
	userSvc := NewUserService(repository.NewUserRepository(db), repository.NewNotificationRepository(db))

	author := createTestUser(t, db, "author")
	mod := createTestUser(t, db, "mod")
	reporter := createTestUser(t, db, "reporter")
	post := createTestPost(t, db, author, models.PostStatusApproved)
	comment := createTestComment(t, db, author, post, nil)

	report := &models.Report{ReporterID: reporter.ID, CommentID: &comment.ID,
		CommentAuthorID: &author.ID, Reason: "spam", Status: models.ReportStatusPending}
	require.NoError(t, db.Create(report).Error)

	// prime the stats cache with zero violations
	stats, err := userSvc.GetUserStats(ctx, author.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), stats.ReportedComments)
	require.True(t, mr.Exists(cache.UserStatsKey(author.ID)))

	_, err = svc.ApproveReport(ctx, mod.ID, report.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.UserStatsKey(author.ID)))

	stats, err = userSvc.GetUserStats(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ReportedComments, "approval must be visible immediately")
}

func TestModerationService_ApproveReport_CommentAlreadyGone(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	sink := &sinkStub{}
	svc := newTestModerationService(db, sink, nil)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	mod := createTestUser(t, db, "mod")
	reporter := createTestUser(t, db, "reporter")

	report := &models.Report{ReporterID: reporter.ID, CommentID: nil,
		CommentAuthorID: &author.ID, Reason: "spam", Status: models.ReportStatusPending}
	require.NoError(t, db.Create(report).Error)

	result, err := svc.ApproveReport(ctx, mod.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, result.Status)
	assert.Empty(t, sink.sent, "no comment left to notify about")
}

func TestModerationService_ApproveReport_SettledConflicts(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	svc := newTestModerationService(db, &sinkStub{}, nil)
	ctx := context.Background()

	mod := createTestUser(t, db, "mod")
	reporter := createTestUser(t, db, "reporter")

	report := &models.Report{ReporterID: reporter.ID, Reason: "spam", Status: models.ReportStatusDismissed}
	require.NoError(t, db.Create(report).Error)

	_, err := svc.ApproveReport(ctx, mod.ID, report.ID)
	assertConflictError(t, err)
}

func TestModerationService_ApproveReport_RequiresStaff(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	svc := newTestModerationService(db, &sinkStub{}, neverStaff)

	_, err := svc.ApproveReport(context.Background(), 1, 1)
	assertForbiddenError(t, err)
}

func TestModerationService_DismissReport(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	svc := newTestModerationService(db, &sinkStub{}, nil)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	mod := createTestUser(t, db, "mod")
	reporter := createTestUser(t, db, "reporter")
	post := createTestPost(t, db, author, models.PostStatusApproved)
	comment := createTestComment(t, db, author, post, nil)

	report := &models.Report{ReporterID: reporter.ID, CommentID: &comment.ID,
		CommentAuthorID: &author.ID, Reason: "spam", Status: models.ReportStatusPending}
	require.NoError(t, db.Create(report).Error)

	result, err := svc.DismissReport(ctx, mod.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDismissed, result.Status)

	// the comment survives a dismissal
	var count int64
	db.Model(&models.Comment{}).Where("id = ?", comment.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	// dismissing again is a no-op
	result, err = svc.DismissReport(ctx, mod.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDismissed, result.Status)
}

func TestModerationService_ApprovePost(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	sink := &sinkStub{}
	svc := newTestModerationService(db, sink, nil)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	mod := createTestUser(t, db, "mod")
	post := createTestPost(t, db, author, models.PostStatusPending)

	require.NoError(t, svc.ApprovePost(ctx, mod.ID, post.ID))

	var got models.Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.Equal(t, models.PostStatusApproved, got.Status)

	require.Len(t, sink.sent, 1)
	assert.Equal(t, author.ID, sink.sent[0].UserID)
	assert.Equal(t, models.NotificationPostApproved, sink.sent[0].Type)

	// approving again conflicts
	err := svc.ApprovePost(ctx, mod.ID, post.ID)
	assertConflictError(t, err)
}

func TestModerationService_ApprovePost_ClearsRejectReason(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	svc := newTestModerationService(db, &sinkStub{}, nil)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	mod := createTestUser(t, db, "mod")
	post := createTestPost(t, db, author, models.PostStatusRejected)
	require.NoError(t, db.Model(post).Update("reject_reason", "too spammy").Error)

	require.NoError(t, svc.ApprovePost(ctx, mod.ID, post.ID))

	var got models.Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.Equal(t, models.PostStatusApproved, got.Status)
	assert.Empty(t, got.RejectReason)
}

func TestModerationService_RejectPost(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	sink := &sinkStub{}
	svc := newTestModerationService(db, sink, nil)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	mod := createTestUser(t, db, "mod")
	post := createTestPost(t, db, author, models.PostStatusPending)

	t.Run("reason required", func(t *testing.T) {
		err := svc.RejectPost(ctx, mod.ID, post.ID, "")
		assertValidationError(t, err)
	})

	t.Run("rejection stores the reason and notifies", func(t *testing.T) {
		require.NoError(t, svc.RejectPost(ctx, mod.ID, post.ID, "spam"))

		var got models.Post
		require.NoError(t, db.First(&got, post.ID).Error)
		assert.Equal(t, models.PostStatusRejected, got.Status)
		assert.Equal(t, "spam", got.RejectReason)

		require.Len(t, sink.sent, 1)
		assert.Equal(t, models.NotificationPostRejected, sink.sent[0].Type)
		assert.Contains(t, sink.sent[0].Content, "spam")
	})

	t.Run("rejecting again conflicts", func(t *testing.T) {
		err := svc.RejectPost(ctx, mod.ID, post.ID, "still spam")
		assertConflictError(t, err)
	})
}

func TestModerationService_SetPostHidden(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	svc := newTestModerationService(db, &sinkStub{}, nil)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	mod := createTestUser(t, db, "mod")
	post := createTestPost(t, db, author, models.PostStatusApproved)

	require.NoError(t, svc.SetPostHidden(ctx, mod.ID, post.ID, true))

	var got models.Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.True(t, got.Hidden)

	// setting the same state again conflicts
	err := svc.SetPostHidden(ctx, mod.ID, post.ID, true)
	assertConflictError(t, err)

	require.NoError(t, svc.SetPostHidden(ctx, mod.ID, post.ID, false))
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.False(t, got.Hidden)
}

// A reported comment is removed end to end: the report is filed, a
// moderator approves it, the comment stops resolving, and the author's
// violation count reflects exactly one approved report.
func TestModeration_ReportedCommentLifecycle(t *testing.T) {
	t.Parallel()
	db := setupServiceDB(t)
	ctx := context.Background()

	modSvc := newTestModerationService(db, &sinkStub{}, nil)
	commentSvc := newTestCommentService(db, nil)
	userSvc := NewUserService(repository.NewUserRepository(db), repository.NewNotificationRepository(db))

	author := createTestUser(t, db, "author")
	reporter := createTestUser(t, db, "reporter")
	mod := createTestUser(t, db, "mod")
	post := createTestPost(t, db, author, models.PostStatusApproved)

	comment, err := commentSvc.CreateComment(ctx, CreateCommentInput{
		UserID:  author.ID,
		PostID:  post.ID,
		Content: "this will be reported",
	})
	require.NoError(t, err)

	report, err := modSvc.CreateReport(ctx, CreateReportInput{
		ReporterID: reporter.ID,
		CommentID:  comment.ID,
		Reason:     "abuse",
	})
	require.NoError(t, err)

	_, err = modSvc.ApproveReport(ctx, mod.ID, report.ID)
	require.NoError(t, err)

	_, err = commentSvc.GetComment(ctx, comment.ID, reporter.ID)
	assertNotFoundError(t, err)

	stats, err := userSvc.GetUserStats(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ReportedComments)
}
