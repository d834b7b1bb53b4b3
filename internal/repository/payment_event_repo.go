package repository

import (
	"context"

	"gorm.io/gorm"

	"crane-intelligence/backend/internal/model"
)

// PaymentEventRepository 支付对账审计数据访问接口（仅追加）
type PaymentEventRepository interface {
	Create(ctx context.Context, event *model.PaymentEvent) error
	// ListUnmatched 未匹配到草稿且支付意图至今未在任何报告上入账的审计记录
	ListUnmatched(ctx context.Context, offset, limit int) ([]model.PaymentEvent, int64, error)
}

type paymentEventRepo struct {
	db *gorm.DB
}

// NewPaymentEventRepo 创建 PaymentEventRepository 实例
func NewPaymentEventRepo(db *gorm.DB) PaymentEventRepository {
	return &paymentEventRepo{db: db}
}

func (r *paymentEventRepo) Create(ctx context.Context, event *model.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *paymentEventRepo) ListUnmatched(ctx context.Context, offset, limit int) ([]model.PaymentEvent, int64, error) {
	var events []model.PaymentEvent
	var total int64

	settled := r.db.Model(&model.FMVReport{}).Select("1").
		Where("fmv_reports.payment_intent_id = payment_events.payment_intent_id").
		Where("fmv_reports.payment_status = ?", model.PaymentStatusSucceeded)
	db := r.db.WithContext(ctx).Model(&model.PaymentEvent{}).
		Where("payment_events.outcome = ?", model.PaymentOutcomeNoDraft).
		Where("NOT EXISTS (?)", settled)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("payment_events.created_at DESC, payment_events.id DESC").
		Offset(offset).Limit(limit).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
