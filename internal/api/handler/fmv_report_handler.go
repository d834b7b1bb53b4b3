package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/dto"
	"crane-intelligence/backend/internal/service"
	"crane-intelligence/backend/pkg/response"
)

// FMVReportHandler FMV 报告 HTTP 处理器
type FMVReportHandler struct {
	reportSvc service.FMVReportService
	listing   config.ListingConfig
}

// NewFMVReportHandler 创建 FMVReportHandler
func NewFMVReportHandler(reportSvc service.FMVReportService, listing config.ListingConfig) *FMVReportHandler {
	return &FMVReportHandler{reportSvc: reportSvc, listing: listing}
}

// Create 创建报告草稿
// POST /api/v1/fmv-reports
func (h *FMVReportHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateFMVReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	report, err := h.reportSvc.CreateDraft(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.Created(c, report)
}

// My 我的报告
// GET /api/v1/fmv-reports/my
func (h *FMVReportHandler) My(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var q dto.PaginationRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	q.Normalize(h.listing.DefaultPageSize, h.listing.MaxPageSize)

	list, total, err := h.reportSvc.ListMine(c.Request.Context(), userID, q.GetOffset(), q.GetPageSize())
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OKPage(c, list, total, q.GetPage(), q.GetPageSize())
}

// Get 查看报告
// GET /api/v1/fmv-reports/:id
func (h *FMVReportHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.GetForUser(c.Request.Context(), id, userID, IsAdmin(c))
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// Submit 提交草稿
// POST /api/v1/fmv-reports/:id/submit
func (h *FMVReportHandler) Submit(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.Submit(c.Request.Context(), id, userID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// Cancel 取消未支付的报告
// POST /api/v1/fmv-reports/:id/cancel
func (h *FMVReportHandler) Cancel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.Cancel(c.Request.Context(), id, userID, IsAdmin(c))
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// List 管理端报告列表
// GET /api/v1/admin/fmv-reports?status=&page=&page_size=
func (h *FMVReportHandler) List(c *gin.Context) {
	var q dto.FMVReportListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	q.Normalize(h.listing.DefaultPageSize, h.listing.MaxPageSize)

	list, total, err := h.reportSvc.List(c.Request.Context(), q.Status, q.GetOffset(), q.GetPageSize())
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OKPage(c, list, total, q.GetPage(), q.GetPageSize())
}

// Transition 管理员推进报告状态
// PUT /api/v1/admin/fmv-reports/:id/status
func (h *FMVReportHandler) Transition(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req dto.TransitionFMVReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	report, err := h.reportSvc.Transition(c.Request.Context(), id, req.Status)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

func (h *FMVReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFMVReportNotFound):
		response.NotFound(c, 13001, "FMV 报告不存在")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 13002, err.Error())
	case errors.Is(err, service.ErrInvalidStatusFilter):
		response.BadRequest(c, 12006, "无效的状态筛选条件")
	default:
		respondUnexpected(c, err)
	}
}
