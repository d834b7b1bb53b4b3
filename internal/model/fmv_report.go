package model

import "time"

// 报告类型
const (
	ReportTypeBasic        = "basic"
	ReportTypeProfessional = "professional"
	ReportTypeFleet        = "fleet"
)

// FMVReport 公允市场价值报告表 — 对应 fmv_reports
type FMVReport struct {
	ID           uint    `gorm:"primaryKey;autoIncrement"              json:"id"`
	UserID       *uint   `gorm:"index"                                 json:"user_id,omitempty"`
	UserEmail    string  `gorm:"type:varchar(255);not null"            json:"user_email"`
	ReportType   string  `gorm:"type:varchar(20);not null;default:'basic'" json:"report_type"` // basic | professional | fleet
	Manufacturer string  `gorm:"type:varchar(100);not null"            json:"manufacturer"`
	Model        string  `gorm:"type:varchar(100);not null"            json:"model"`
	Year         int     `gorm:"not null"                              json:"year"`
	CapacityTons float64 `gorm:"type:numeric(10,2);not null;default:0" json:"capacity_tons"`
	AmountDue    float64 `gorm:"type:numeric(12,2);not null;default:0" json:"amount_due"`

	Status          ReportStatus  `gorm:"type:varchar(20);not null;default:'draft'"   json:"status"`
	PaymentIntentID *string       `gorm:"type:varchar(255);uniqueIndex"               json:"payment_intent_id,omitempty"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	AmountPaid      float64       `gorm:"type:numeric(12,2);not null;default:0"       json:"amount_paid"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	InReviewAt  *time.Time `json:"in_review_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (FMVReport) TableName() string { return "fmv_reports" }

// EnterStatus 切换报告状态并记录时间台账
func (r *FMVReport) EnterStatus(to ReportStatus, now time.Time) {
	switch to {
	case ReportStatusSubmitted:
		setOnce(&r.SubmittedAt, now)
	case ReportStatusPaid:
		// 未经提交直接支付的草稿同时补记提交时间
		setOnce(&r.SubmittedAt, now)
		setOnce(&r.PaidAt, now)
	case ReportStatusInReview:
		setOnce(&r.InReviewAt, now)
	case ReportStatusCompleted:
		setOnce(&r.CompletedAt, now)
	case ReportStatusCancelled:
		setOnce(&r.CancelledAt, now)
	}
	r.Status = to
	r.Touch(now)
}

// IsPaymentSucceeded 支付是否已成功入账
func (r *FMVReport) IsPaymentSucceeded() bool {
	return r.PaymentStatus == PaymentStatusSucceeded
}

// MarkPaid 记录一次成功支付
// 报告仍处于草稿或已提交时推进至 paid，已越过 paid 的报告保持原状态
func (r *FMVReport) MarkPaid(intentID string, amount float64, now time.Time) {
	id := intentID
	r.PaymentIntentID = &id
	r.PaymentStatus = PaymentStatusSucceeded
	r.AmountPaid = amount
	if r.Status == ReportStatusDraft || r.Status == ReportStatusSubmitted {
		r.EnterStatus(ReportStatusPaid, now)
		return
	}
	setOnce(&r.PaidAt, now)
	r.Touch(now)
}

// IsOwnedBy 报告是否属于该用户
func (r *FMVReport) IsOwnedBy(userID uint) bool {
	return r.UserID != nil && *r.UserID == userID
}
