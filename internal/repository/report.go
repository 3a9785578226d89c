package repository

import (
	"context"

	"praxis/internal/models"

	"gorm.io/gorm"
)

// ReportRepository manages moderation reports against comments.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Report, error)
	ListPendingByComment(ctx context.Context, commentID uint) ([]*models.Report, error)
	HasPendingByReporter(ctx context.Context, reporterID, commentID uint) (bool, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	UpdateStatusBulk(ctx context.Context, ids []uint, status string) error
	DetachComments(ctx context.Context, commentIDs []uint) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Report, error) {
	var reports []*models.Report
	db := r.db.WithContext(ctx).Model(&models.Report{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	return reports, err
}

// ListPendingByComment returns the open sibling reports of a comment.
// Resolving one report settles all of these in the same transaction.
func (r *reportRepository) ListPendingByComment(ctx context.Context, commentID uint) ([]*models.Report, error) {
	var reports []*models.Report
	err := r.db.WithContext(ctx).
		Where("comment_id = ? AND status = ?", commentID, models.ReportStatusPending).
		Find(&reports).Error
	return reports, err
}

func (r *reportRepository) HasPendingByReporter(ctx context.Context, reporterID, commentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("reporter_id = ? AND comment_id = ? AND status = ?", reporterID, commentID, models.ReportStatusPending).
		Count(&count).Error
	return count > 0, err
}

func (r *reportRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *reportRepository) UpdateStatusBulk(ctx context.Context, ids []uint, status string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}

// DetachComments nulls the comment reference on every report that
// points at one of the given comments. The rows survive the comment
// removal with the captured author ID intact.
func (r *reportRepository) DetachComments(ctx context.Context, commentIDs []uint) error {
	if len(commentIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("comment_id IN ?", commentIDs).
		Update("comment_id", nil).Error
}
