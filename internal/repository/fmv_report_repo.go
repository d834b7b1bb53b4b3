package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crane-intelligence/backend/internal/model"
)

// FMVReportRepository FMV 报告数据访问接口
type FMVReportRepository interface {
	Create(ctx context.Context, report *model.FMVReport) error
	GetByID(ctx context.Context, id uint) (*model.FMVReport, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*model.FMVReport, error)
	// GetByPaymentIntentForUpdate 按支付意图查找并加行锁
	GetByPaymentIntentForUpdate(ctx context.Context, intentID string) (*model.FMVReport, error)
	// GetLatestDraftForUpdate 锁定提交人最近一份待支付报告（草稿或已提交且未绑定支付）
	GetLatestDraftForUpdate(ctx context.Context, userID *uint, email string) (*model.FMVReport, error)
	Update(ctx context.Context, report *model.FMVReport) error
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]model.FMVReport, int64, error)
	List(ctx context.Context, status model.ReportStatus, offset, limit int) ([]model.FMVReport, int64, error)
}

type fmvReportRepo struct {
	db *gorm.DB
}

// NewFMVReportRepo 创建 FMVReportRepository 实例
func NewFMVReportRepo(db *gorm.DB) FMVReportRepository {
	return &fmvReportRepo{db: db}
}

func (r *fmvReportRepo) Create(ctx context.Context, report *model.FMVReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *fmvReportRepo) GetByID(ctx context.Context, id uint) (*model.FMVReport, error) {
	var report model.FMVReport
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *fmvReportRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.FMVReport, error) {
	var report model.FMVReport
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *fmvReportRepo) GetByPaymentIntentForUpdate(ctx context.Context, intentID string) (*model.FMVReport, error) {
	var report model.FMVReport
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payment_intent_id = ?", intentID).
		Take(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *fmvReportRepo) GetLatestDraftForUpdate(ctx context.Context, userID *uint, email string) (*model.FMVReport, error) {
	db := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status IN ?", []model.ReportStatus{model.ReportStatusDraft, model.ReportStatusSubmitted}).
		Where("payment_intent_id IS NULL")

	switch {
	case userID != nil && email != "":
		db = db.Where("(user_id = ? OR LOWER(user_email) = LOWER(?))", *userID, email)
	case userID != nil:
		db = db.Where("user_id = ?", *userID)
	default:
		db = db.Where("LOWER(user_email) = LOWER(?)", email)
	}

	var report model.FMVReport
	if err := db.Order("created_at DESC, id DESC").Take(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *fmvReportRepo) Update(ctx context.Context, report *model.FMVReport) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *fmvReportRepo) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]model.FMVReport, int64, error) {
	var reports []model.FMVReport
	var total int64

	db := r.db.WithContext(ctx).Model(&model.FMVReport{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *fmvReportRepo) List(ctx context.Context, status model.ReportStatus, offset, limit int) ([]model.FMVReport, int64, error) {
	var reports []model.FMVReport
	var total int64

	db := r.db.WithContext(ctx).Model(&model.FMVReport{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}
