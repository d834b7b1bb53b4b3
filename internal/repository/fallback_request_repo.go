package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crane-intelligence/backend/internal/model"
)

// FallbackRequestRepository 人工估值申请数据访问接口
// status 参数为空字符串时不过滤
type FallbackRequestRepository interface {
	Create(ctx context.Context, req *model.FallbackRequest) error
	GetByID(ctx context.Context, id uint) (*model.FallbackRequest, error)
	// GetByIDForUpdate 须在事务内调用，对目标行加 FOR UPDATE 锁
	GetByIDForUpdate(ctx context.Context, id uint) (*model.FallbackRequest, error)
	Update(ctx context.Context, req *model.FallbackRequest) error
	ListAll(ctx context.Context, status model.FallbackStatus) ([]model.FallbackRequest, error)
	List(ctx context.Context, status model.FallbackStatus, offset, limit int) ([]model.FallbackRequest, int64, error)
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]model.FallbackRequest, int64, error)
	CountByStatus(ctx context.Context, status model.FallbackStatus) (map[model.FallbackStatus]int64, error)
}

type fallbackRequestRepo struct {
	db *gorm.DB
}

// NewFallbackRequestRepo 创建 FallbackRequestRepository 实例
func NewFallbackRequestRepo(db *gorm.DB) FallbackRequestRepository {
	return &fallbackRequestRepo{db: db}
}

func (r *fallbackRequestRepo) Create(ctx context.Context, req *model.FallbackRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *fallbackRequestRepo) GetByID(ctx context.Context, id uint) (*model.FallbackRequest, error) {
	var req model.FallbackRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *fallbackRequestRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.FallbackRequest, error) {
	var req model.FallbackRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *fallbackRequestRepo) Update(ctx context.Context, req *model.FallbackRequest) error {
	return r.db.WithContext(ctx).Omit("User", "LinkedFMVReport").Save(req).Error
}

func (r *fallbackRequestRepo) scoped(ctx context.Context, status model.FallbackStatus) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.FallbackRequest{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	return db
}

func (r *fallbackRequestRepo) ListAll(ctx context.Context, status model.FallbackStatus) ([]model.FallbackRequest, error) {
	var reqs []model.FallbackRequest
	err := r.scoped(ctx, status).
		Order("created_at DESC, id DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *fallbackRequestRepo) List(ctx context.Context, status model.FallbackStatus, offset, limit int) ([]model.FallbackRequest, int64, error) {
	var reqs []model.FallbackRequest
	var total int64

	if err := r.scoped(ctx, status).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.FallbackRequest{}, 0, nil
	}

	if err := r.scoped(ctx, status).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *fallbackRequestRepo) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]model.FallbackRequest, int64, error) {
	var reqs []model.FallbackRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.FallbackRequest{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// statusCount GROUP BY 扫描行
type statusCount struct {
	Status model.FallbackStatus
	Count  int64
}

func (r *fallbackRequestRepo) CountByStatus(ctx context.Context, status model.FallbackStatus) (map[model.FallbackStatus]int64, error) {
	var rows []statusCount
	err := r.scoped(ctx, status).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.FallbackStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
