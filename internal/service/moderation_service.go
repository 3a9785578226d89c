package service

import (
	"context"
	"errors"
	"fmt"

	"praxis/internal/cache"
	"praxis/internal/models"
	"praxis/internal/notifications"
	"praxis/internal/observability"
	"praxis/internal/repository"

	"gorm.io/gorm"
)

// ModerationService is the state machine over reports and post
// visibility. It holds the DB handle directly because report
// resolution is a multi-entity transaction.
type ModerationService struct {
	db      *gorm.DB
	sink    notifications.Sink
	isStaff func(ctx context.Context, userID uint) (bool, error)
}

type CreateReportInput struct {
	ReporterID uint
	CommentID  uint
	Reason     string
}

// NewModerationService returns a new ModerationService.
func NewModerationService(
	db *gorm.DB,
	sink notifications.Sink,
	isStaff func(ctx context.Context, userID uint) (bool, error),
) *ModerationService {
	return &ModerationService{db: db, sink: sink, isStaff: isStaff}
}

func (s *ModerationService) requireStaff(ctx context.Context, userID uint) error {
	staff, err := s.isStaff(ctx, userID)
	if err != nil {
		return err
	}
	if !staff {
		return models.NewForbiddenError("Moderator access required")
	}
	return nil
}

// CreateReport files a report against a comment. The comment author is
// captured immediately so violation statistics survive later removal.
func (s *ModerationService) CreateReport(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	if in.Reason == "" {
		return nil, models.NewValidationError("Reason is required")
	}

	comment, err := repository.NewCommentRepository(s.db).GetByID(ctx, in.CommentID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", in.CommentID)
		}
		return nil, err
	}
	if comment.UserID == in.ReporterID {
		return nil, models.NewValidationError("You cannot report your own comment")
	}

	reportRepo := repository.NewReportRepository(s.db)
	pending, err := reportRepo.HasPendingByReporter(ctx, in.ReporterID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, models.NewConflictError("You already reported this comment")
	}

	commentID := in.CommentID
	authorID := comment.UserID
	report := &models.Report{
		ReporterID:      in.ReporterID,
		CommentID:       &commentID,
		CommentAuthorID: &authorID,
		Reason:          in.Reason,
		Status:          models.ReportStatusPending,
	}
	if err := reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ListReports returns reports for the moderation view, oldest first.
func (s *ModerationService) ListReports(ctx context.Context, moderatorID uint, status string, page, pageSize int) ([]*models.Report, error) {
	if err := s.requireStaff(ctx, moderatorID); err != nil {
		return nil, err
	}
	switch status {
	case "", models.ReportStatusPending, models.ReportStatusApproved, models.ReportStatusResolved, models.ReportStatusDismissed:
	default:
		return nil, models.NewValidationError("Unknown report status")
	}
	page, pageSize = normalizePage(page, pageSize)
	return repository.NewReportRepository(s.db).ListByStatus(ctx, status, pageSize, (page-1)*pageSize)
}

// ApproveReport acts on a report: the referenced comment and its whole
// reply subtree are removed, sibling pending reports against the same
// comment become resolved, and the comment author is notified. The
// whole transition is one transaction; a retry against an already
// approved report is a no-op.
func (s *ModerationService) ApproveReport(ctx context.Context, moderatorID, reportID uint) (*models.Report, error) {
	if err := s.requireStaff(ctx, moderatorID); err != nil {
		return nil, err
	}

	var notifyUserID uint
	var transitioned bool
	var report *models.Report

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reportRepo := repository.NewReportRepository(tx)

		var err error
		report, err = reportRepo.GetByID(ctx, reportID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Report", reportID)
			}
			return err
		}

		switch report.Status {
		case models.ReportStatusApproved:
			// Retry after a completed approval; end state is unchanged.
			return nil
		case models.ReportStatusPending:
		default:
			return models.NewConflictError("Report is already settled")
		}

		transitioned = true

		if report.CommentID == nil {
			// The comment is already gone; the report alone flips.
			report.Status = models.ReportStatusApproved
			return reportRepo.UpdateStatus(ctx, report.ID, models.ReportStatusApproved)
		}

		comment, err := repository.NewCommentRepository(tx).GetByID(ctx, *report.CommentID, 0)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				report.Status = models.ReportStatusApproved
				return reportRepo.UpdateStatus(ctx, report.ID, models.ReportStatusApproved)
			}
			return err
		}

		siblings, err := reportRepo.ListPendingByComment(ctx, comment.ID)
		if err != nil {
			return err
		}

		// The author must be captured on every affected report before
		// the comment reference is broken.
		authorID := comment.UserID
		var siblingIDs []uint
		for _, sibling := range siblings {
			if sibling.ID == report.ID {
				continue
			}
			siblingIDs = append(siblingIDs, sibling.ID)
			if sibling.CommentAuthorID == nil {
				if err := tx.Model(&models.Report{}).
					Where("id = ?", sibling.ID).
					Update("comment_author_id", authorID).Error; err != nil {
					return err
				}
			}
		}
		if report.CommentAuthorID == nil {
			if err := tx.Model(&models.Report{}).
				Where("id = ?", report.ID).
				Update("comment_author_id", authorID).Error; err != nil {
				return err
			}
			report.CommentAuthorID = &authorID
		}

		if err := reportRepo.UpdateStatus(ctx, report.ID, models.ReportStatusApproved); err != nil {
			return err
		}
		if err := reportRepo.UpdateStatusBulk(ctx, siblingIDs, models.ReportStatusResolved); err != nil {
			return err
		}

		if _, err := removeCommentSubtree(ctx, tx, comment.ID); err != nil {
			return err
		}

		report.Status = models.ReportStatusApproved
		notifyUserID = authorID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		observability.RecordReportResolution("approved")
	}
	if notifyUserID != 0 {
		// The removal changed the author's violation count.
		cache.InvalidateUser(ctx, notifyUserID)
		s.sink.Notify(ctx, &models.Notification{
			UserID:  notifyUserID,
			Content: "Your comment was removed for violating community guidelines",
			Type:    models.NotificationCommentRemoved,
		})
	}
	return report, nil
}

// DismissReport rejects a report; the comment is untouched and nobody
// is notified.
func (s *ModerationService) DismissReport(ctx context.Context, moderatorID, reportID uint) (*models.Report, error) {
	if err := s.requireStaff(ctx, moderatorID); err != nil {
		return nil, err
	}

	reportRepo := repository.NewReportRepository(s.db)
	report, err := reportRepo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", reportID)
		}
		return nil, err
	}

	switch report.Status {
	case models.ReportStatusDismissed:
		return report, nil
	case models.ReportStatusPending:
	default:
		return nil, models.NewConflictError("Report is already settled")
	}

	if err := reportRepo.UpdateStatus(ctx, report.ID, models.ReportStatusDismissed); err != nil {
		return nil, err
	}
	report.Status = models.ReportStatusDismissed
	observability.RecordReportResolution("dismissed")
	return report, nil
}

// ApprovePost moves a pending or rejected post into the feed and
// notifies the author. Any prior rejection reason is cleared.
func (s *ModerationService) ApprovePost(ctx context.Context, moderatorID, postID uint) error {
	if err := s.requireStaff(ctx, moderatorID); err != nil {
		return err
	}

	postRepo := repository.NewPostRepository(s.db)
	post, err := postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", postID)
		}
		return err
	}
	if post.Status == models.PostStatusApproved {
		return models.NewConflictError("Post is already approved")
	}

	if err := postRepo.UpdateFields(ctx, postID, map[string]interface{}{
		"status":        models.PostStatusApproved,
		"reject_reason": "",
	}); err != nil {
		return err
	}

	observability.RecordPostStatusTransition(models.PostStatusApproved)
	cache.InvalidatePost(ctx, postID)
	cache.InvalidateFeeds(ctx)

	id := postID
	s.sink.Notify(ctx, &models.Notification{
		UserID:  post.UserID,
		Content: fmt.Sprintf("Your post %q was approved", post.Title),
		Type:    models.NotificationPostApproved,
		PostID:  &id,
	})
	return nil
}

// RejectPost removes a post from circulation and records the reason on
// the post for the author.
func (s *ModerationService) RejectPost(ctx context.Context, moderatorID, postID uint, reason string) error {
	if err := s.requireStaff(ctx, moderatorID); err != nil {
		return err
	}
	if reason == "" {
		return models.NewValidationError("Rejection reason is required")
	}

	postRepo := repository.NewPostRepository(s.db)
	post, err := postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", postID)
		}
		return err
	}
	if post.Status == models.PostStatusRejected {
		return models.NewConflictError("Post is already rejected")
	}

	if err := postRepo.UpdateFields(ctx, postID, map[string]interface{}{
		"status":        models.PostStatusRejected,
		"reject_reason": reason,
	}); err != nil {
		return err
	}

	observability.RecordPostStatusTransition(models.PostStatusRejected)
	cache.InvalidatePost(ctx, postID)
	cache.InvalidateFeeds(ctx)

	id := postID
	s.sink.Notify(ctx, &models.Notification{
		UserID:  post.UserID,
		Content: fmt.Sprintf("Your post %q was rejected: %s", post.Title, reason),
		Type:    models.NotificationPostRejected,
		PostID:  &id,
	})
	return nil
}

// SetPostHidden flips the global kill-switch on a post.
func (s *ModerationService) SetPostHidden(ctx context.Context, moderatorID, postID uint, hidden bool) error {
	if err := s.requireStaff(ctx, moderatorID); err != nil {
		return err
	}

	postRepo := repository.NewPostRepository(s.db)
	post, err := postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", postID)
		}
		return err
	}
	if post.Hidden == hidden {
		return models.NewConflictError("Post hidden state is unchanged")
	}

	if err := postRepo.UpdateFields(ctx, postID, map[string]interface{}{"hidden": hidden}); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, postID)
	cache.InvalidateFeeds(ctx)
	return nil
}
