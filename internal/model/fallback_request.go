package model

import "time"

// FallbackRequest 人工估值申请表 — 对应 fallback_requests
// 目录无法自动匹配的设备由分析师人工估值
type FallbackRequest struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"           json:"id"`
	UserID    *uint  `gorm:"index"                              json:"user_id,omitempty"`
	UserEmail string `gorm:"type:varchar(255);not null"         json:"user_email"`

	// 设备信息
	Manufacturer       string   `gorm:"type:varchar(100);not null"      json:"manufacturer"`
	Model              string   `gorm:"type:varchar(100);not null"      json:"model"`
	Year               int      `gorm:"not null"                        json:"year"`
	SerialNumber       *string  `gorm:"type:varchar(100)"               json:"serial_number,omitempty"`
	CapacityTons       float64  `gorm:"type:numeric(10,2);not null"     json:"capacity_tons"`
	CraneType          string   `gorm:"type:varchar(50);not null"       json:"crane_type"`
	OperatingHours     int      `gorm:"not null"                        json:"operating_hours"`
	Mileage            *int     `json:"mileage,omitempty"`
	BoomLength         *float64 `gorm:"type:numeric(10,2)"              json:"boom_length,omitempty"`
	JibLength          *float64 `gorm:"type:numeric(10,2)"              json:"jib_length,omitempty"`
	MaxHookHeight      *float64 `gorm:"type:numeric(10,2)"              json:"max_hook_height,omitempty"`
	MaxRadius          *float64 `gorm:"type:numeric(10,2)"              json:"max_radius,omitempty"`
	Region             string   `gorm:"type:varchar(100);not null"      json:"region"`
	Condition          string   `gorm:"type:varchar(50);not null"       json:"condition"`
	Specifications     string   `gorm:"type:text;not null;default:''"   json:"specifications"`
	AdditionalFeatures string   `gorm:"type:text;not null;default:''"   json:"additional_features"`
	ServiceHistory     string   `gorm:"type:text;not null;default:''"   json:"service_history"`

	// 流程
	Status            FallbackStatus `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`
	AssignedAnalyst   string         `gorm:"type:varchar(255);not null;default:''"       json:"assigned_analyst"`
	AnalystNotes      string         `gorm:"type:text;not null;default:''"               json:"analyst_notes"`
	RejectionReason   string         `gorm:"type:text;not null;default:''"               json:"rejection_reason"`
	LinkedFMVReportID *uint          `json:"linked_fmv_report_id,omitempty"`

	// 状态时间戳，各自仅在首次进入对应状态时写入
	InReviewAt         *time.Time `json:"in_review_at,omitempty"`
	ValuationStartedAt *time.Time `json:"valuation_started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	BaseModel

	// 关联
	User            *User      `gorm:"foreignKey:UserID"            json:"-"`
	LinkedFMVReport *FMVReport `gorm:"foreignKey:LinkedFMVReportID" json:"-"`
}

// TableName 指定表名
func (FallbackRequest) TableName() string { return "fallback_requests" }

// EnterStatus 切换状态并记录时间台账
// 调用方负责事先校验流转合法性
func (r *FallbackRequest) EnterStatus(to FallbackStatus, now time.Time) {
	switch to {
	case FallbackStatusInReview:
		setOnce(&r.InReviewAt, now)
	case FallbackStatusValuationInProgress:
		setOnce(&r.ValuationStartedAt, now)
	case FallbackStatusCompleted:
		setOnce(&r.CompletedAt, now)
	case FallbackStatusRejected:
		setOnce(&r.RejectedAt, now)
	case FallbackStatusCancelled:
		setOnce(&r.CancelledAt, now)
	}
	r.Status = to
	r.Touch(now)
}

// IsOwnedBy 申请是否属于该用户
func (r *FallbackRequest) IsOwnedBy(userID uint) bool {
	return r.UserID != nil && *r.UserID == userID
}
