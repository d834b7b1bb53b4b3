package dto

// ── FMV 报告 DTO ──

// CreateFMVReportRequest 创建报告草稿
type CreateFMVReportRequest struct {
	ReportType   string  `json:"report_type"   binding:"required,oneof=basic professional fleet"`
	Manufacturer string  `json:"manufacturer"  binding:"required,max=100"`
	Model        string  `json:"model"         binding:"required,max=100"`
	Year         int     `json:"year"          binding:"required,equipment_year"`
	CapacityTons float64 `json:"capacity_tons" binding:"omitempty,gte=0"`
	AmountDue    float64 `json:"amount_due"    binding:"omitempty,gte=0"`
}

// TransitionFMVReportRequest 管理员推进报告状态
type TransitionFMVReportRequest struct {
	Status string `json:"status" binding:"required"`
}

// FMVReportListQuery 管理端报告列表查询参数
type FMVReportListQuery struct {
	Status string `form:"status"`
	PaginationRequest
}
