package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/dto"
	"crane-intelligence/backend/internal/model"
	"crane-intelligence/backend/internal/service"
	"crane-intelligence/backend/pkg/response"
)

// FallbackRequestHandler 人工估值申请 HTTP 处理器
type FallbackRequestHandler struct {
	lifecycle service.FallbackRequestService
	query     service.QueryService
	notifier  service.NotificationService
	listing   config.ListingConfig
}

// NewFallbackRequestHandler 创建 FallbackRequestHandler
func NewFallbackRequestHandler(
	lifecycle service.FallbackRequestService,
	query service.QueryService,
	notifier service.NotificationService,
	listing config.ListingConfig,
) *FallbackRequestHandler {
	return &FallbackRequestHandler{
		lifecycle: lifecycle,
		query:     query,
		notifier:  notifier,
		listing:   listing,
	}
}

// ──── 用户端 ────

// Create 提交人工估值申请（允许匿名）
// POST /api/v1/fallback-requests
func (h *FallbackRequestHandler) Create(c *gin.Context) {
	var req dto.CreateFallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	fr, err := h.lifecycle.Create(c.Request.Context(), &req, OptionalUserID(c))
	if err != nil {
		h.handleFallbackError(c, err)
		return
	}

	response.Created(c, fr)
}

// My 我的申请
// GET /api/v1/fallback-requests/my
func (h *FallbackRequestHandler) My(c *gin.Context) {
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

	list, total, err := h.lifecycle.ListMine(c.Request.Context(), userID, q.GetOffset(), q.GetPageSize())
	if err != nil {
		h.handleFallbackError(c, err)
		return
	}

	response.OKPage(c, list, total, q.GetPage(), q.GetPageSize())
}

// Get 查看申请详情（申请人或管理员）
// GET /api/v1/fallback-requests/:id
// GET /api/v1/admin/fallback-requests/:id
func (h *FallbackRequestHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	fr, err := h.lifecycle.GetForUser(c.Request.Context(), id, userID, IsAdmin(c))
	if err != nil {
		h.handleFallbackError(c, err)
		return
	}

	response.OK(c, fr)
}

// Cancel 申请人撤销申请
// POST /api/v1/fallback-requests/:id/cancel
func (h *FallbackRequestHandler) Cancel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	fr, err := h.lifecycle.Cancel(c.Request.Context(), id, userID)
	if err != nil {
		h.handleFallbackError(c, err)
		return
	}

	h.notifyStatusChanged(c, fr)
	response.OK(c, fr)
}

// ──── 管理端 ────

// List 分页查询申请
// GET /api/v1/admin/fallback-requests?status=&page=&page_size=
func (h *FallbackRequestHandler) List(c *gin.Context) {
	var q dto.FallbackListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	q.Normalize(h.listing.DefaultPageSize, h.listing.MaxPageSize)

	list, total, err := h.query.ListFallbackRequests(c.Request.Context(), q.Status, q.GetOffset(), q.GetPageSize())
	if err != nil {
		h.handleFallbackError(c, err)
		return
	}

	response.OKPage(c, list, total, q.GetPage(), q.GetPageSize())
}

// GetAll 不分页查询全部申请
// GET /api/v1/admin/fallback-requests/all?status=
func (h *FallbackRequestHandler) GetAll(c *gin.Context) {
	list, err := h.lifecycle.GetAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.handleFallbackError(c, err)
		return
	}
	if list == nil {
		list = []model.FallbackRequest{}
	}

	response.OK(c, list)
}

// Stats 按状态统计
// GET /api/v1/admin/fallback-requests/stats?status=
func (h *FallbackRequestHandler) Stats(c *gin.Context) {
	stats, err := h.query.FallbackStats(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.handleFallbackError(c, err)
		return
	}

	response.OK(c, stats)
}

// Transition 推进申请状态
// PUT /api/v1/admin/fallback-requests/:id/status
func (h *FallbackRequestHandler) Transition(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req dto.TransitionFallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	fr, changed, err := h.lifecycle.Transition(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleFallbackError(c, err)
		return
	}

	if changed {
		h.notifyStatusChanged(c, fr)
	}
	response.OK(c, fr)
}

// notifyStatusChanged 事务提交后异步通知申请人，通知失败不影响响应
func (h *FallbackRequestHandler) notifyStatusChanged(c *gin.Context, fr *model.FallbackRequest) {
	if h.notifier == nil {
		return
	}
	go h.notifier.FallbackStatusChanged(context.WithoutCancel(c.Request.Context()), fr)
}

func (h *FallbackRequestHandler) handleFallbackError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFallbackRequestNotFound):
		response.NotFound(c, 12001, "人工估值申请不存在")
	case errors.Is(err, service.ErrSubmitterEmailRequired):
		response.BadRequest(c, 12002, "未登录提交时必须填写邮箱")
	case errors.Is(err, service.ErrRejectionReasonRequired):
		response.BadRequest(c, 12003, "驳回申请必须填写原因")
	case errors.Is(err, service.ErrReportLinkRequired):
		response.BadRequest(c, 12004, "完成申请必须关联已存在的 FMV 报告")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 12005, err.Error())
	case errors.Is(err, service.ErrInvalidStatusFilter):
		response.BadRequest(c, 12006, "无效的状态筛选条件")
	default:
		respondUnexpected(c, err)
	}
}
