package model

import "time"

// 支付网关来源
const (
	PaymentProviderMercadoPago = "mercadopago"
	PaymentProviderManual      = "manual"
)

// PaymentOutcome 对账结果
type PaymentOutcome string

const (
	PaymentOutcomeReconciled PaymentOutcome = "reconciled"
	PaymentOutcomeDuplicate  PaymentOutcome = "duplicate"
	PaymentOutcomeNoDraft    PaymentOutcome = "no_draft"
	PaymentOutcomeConflict   PaymentOutcome = "conflict"
	PaymentOutcomeIgnored    PaymentOutcome = "ignored"
	PaymentOutcomeFailed     PaymentOutcome = "failed"
)

// PaymentEvent 支付对账审计表 — 对应 payment_events（仅追加）
// outcome=no_draft 的记录供运营人工处理
type PaymentEvent struct {
	ID              uint           `gorm:"primaryKey;autoIncrement"               json:"id"`
	Provider        string         `gorm:"type:varchar(20);not null"              json:"provider"`
	PaymentIntentID string         `gorm:"type:varchar(255);not null;index"       json:"payment_intent_id"`
	Amount          float64        `gorm:"type:numeric(12,2);not null;default:0"  json:"amount"`
	PayerEmail      string         `gorm:"type:varchar(255);not null;default:''"  json:"payer_email"`
	Outcome         PaymentOutcome `gorm:"type:varchar(20);not null"              json:"outcome"`
	FMVReportID     *uint          `json:"fmv_report_id,omitempty"`
	Detail          string         `gorm:"type:text;not null;default:''"          json:"detail"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"     json:"created_at"`
}

// TableName 指定表名
func (PaymentEvent) TableName() string { return "payment_events" }
