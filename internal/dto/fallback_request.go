package dto

// ── 人工估值申请 DTO ──

// CreateFallbackRequest 提交人工估值申请
// 未登录时 user_email 必填，由服务层校验
type CreateFallbackRequest struct {
	UserEmail          string   `json:"user_email"          binding:"omitempty,email,max=255"`
	Manufacturer       string   `json:"manufacturer"        binding:"required,max=100"`
	Model              string   `json:"model"               binding:"required,max=100"`
	Year               int      `json:"year"                binding:"required,equipment_year"`
	SerialNumber       *string  `json:"serial_number"       binding:"omitempty,max=100"`
	CapacityTons       float64  `json:"capacity_tons"       binding:"required,gt=0"`
	CraneType          string   `json:"crane_type"          binding:"required,max=50"`
	OperatingHours     int      `json:"operating_hours"     binding:"min=0"`
	Mileage            *int     `json:"mileage"             binding:"omitempty,min=0"`
	BoomLength         *float64 `json:"boom_length"         binding:"omitempty,gt=0"`
	JibLength          *float64 `json:"jib_length"          binding:"omitempty,gt=0"`
	MaxHookHeight      *float64 `json:"max_hook_height"     binding:"omitempty,gt=0"`
	MaxRadius          *float64 `json:"max_radius"          binding:"omitempty,gt=0"`
	Region             string   `json:"region"              binding:"required,max=100"`
	Condition          string   `json:"condition"           binding:"required,max=50"`
	Specifications     string   `json:"specifications"      binding:"max=5000"`
	AdditionalFeatures string   `json:"additional_features" binding:"max=5000"`
	ServiceHistory     string   `json:"service_history"     binding:"max=5000"`
}

// TransitionFallbackRequest 管理员更新申请状态
// 未提供的可选字段保持原值
type TransitionFallbackRequest struct {
	Status            string  `json:"status"               binding:"required"`
	AssignedAnalyst   *string `json:"assigned_analyst"     binding:"omitempty,max=255"`
	AnalystNotes      *string `json:"analyst_notes"        binding:"omitempty,max=5000"`
	RejectionReason   *string `json:"rejection_reason"     binding:"omitempty,max=2000"`
	LinkedFMVReportID *uint   `json:"linked_fmv_report_id" binding:"omitempty,min=1"`
}

// FallbackListQuery 管理端列表查询参数
type FallbackListQuery struct {
	Status string `form:"status"`
	PaginationRequest
}

// FallbackStatsResponse 申请统计
type FallbackStatsResponse struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}
