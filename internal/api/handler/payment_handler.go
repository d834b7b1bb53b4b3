package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/dto"
	"crane-intelligence/backend/internal/model"
	"crane-intelligence/backend/internal/service"
	"crane-intelligence/backend/pkg/payment"
	"crane-intelligence/backend/pkg/response"
)

// PaymentHandler 支付回调与对账 HTTP 处理器
type PaymentHandler struct {
	paymentSvc    service.PaymentService
	query         service.QueryService
	notifier      service.NotificationService
	webhookSecret string
	listing       config.ListingConfig
	logger        *zap.Logger
}

// NewPaymentHandler 创建 PaymentHandler
func NewPaymentHandler(
	paymentSvc service.PaymentService,
	query service.QueryService,
	notifier service.NotificationService,
	cfg *config.Config,
	logger *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		paymentSvc:    paymentSvc,
		query:         query,
		notifier:      notifier,
		webhookSecret: cfg.Payment.WebhookSecret,
		listing:       cfg.Listing,
		logger:        logger,
	}
}

// MercadoPagoWebhook 接收 Mercado Pago 支付通知
// POST /api/v1/payments/webhook/mercadopago
//
// 未找到草稿时仍返回 200，事件已落库供管理员处理，避免网关无限重试。
func (h *PaymentHandler) MercadoPagoWebhook(c *gin.Context) {
	// 部分通知只带查询参数，空请求体按空通知处理
	var n dto.MercadoPagoNotification
	if err := c.ShouldBindJSON(&n); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if n.Data.ID == "" {
		n.Data.ID = c.Query("data.id")
	}
	if n.Type == "" {
		n.Type = c.Query("type")
	}

	if n.Type != "payment" {
		response.OK(c, dto.ReconcileResponse{Outcome: string(model.PaymentOutcomeIgnored)})
		return
	}

	if h.webhookSecret != "" {
		err := payment.VerifySignature(h.webhookSecret, c.GetHeader("x-signature"), c.GetHeader("x-request-id"), n.Data.ID)
		if err != nil {
			h.logger.Warn("Mercado Pago 回调签名校验失败",
				zap.String("data_id", n.Data.ID),
				zap.String("ip", c.ClientIP()),
			)
			response.Unauthorized(c, 14006, "回调签名无效")
			return
		}
	}

	result, err := h.paymentSvc.HandleGatewayNotification(c.Request.Context(), n.Data.ID)
	if err != nil {
		if errors.Is(err, service.ErrNoDraftFound) {
			response.OK(c, dto.ReconcileResponse{Outcome: string(model.PaymentOutcomeNoDraft)})
			return
		}
		h.handlePaymentError(c, err)
		return
	}

	h.notifyPaid(c, result)
	response.OK(c, toReconcileResponse(result))
}

// Reconcile 管理员手动对账
// POST /api/v1/admin/payments/reconcile
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if req.UserID == nil && req.Email == "" {
		response.BadRequest(c, 10001, "user_id 与 email 至少提供一个")
		return
	}

	result, err := h.paymentSvc.Reconcile(c.Request.Context(), req.PaymentIntentID, req.Amount,
		service.Submitter{UserID: req.UserID, Email: req.Email}, model.PaymentProviderManual)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	h.notifyPaid(c, result)
	response.OK(c, toReconcileResponse(result))
}

// AttachPayment 管理员将支付绑定到指定报告
// POST /api/v1/admin/fmv-reports/:id/payment
func (h *PaymentHandler) AttachPayment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req dto.AttachPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.paymentSvc.AttachPayment(c.Request.Context(), id, req.PaymentIntentID, req.Amount)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	h.notifyPaid(c, result)
	response.OK(c, toReconcileResponse(result))
}

// Unmatched 未匹配到草稿的支付事件
// GET /api/v1/admin/payments/unmatched?page=&page_size=
func (h *PaymentHandler) Unmatched(c *gin.Context) {
	var q dto.PaginationRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	q.Normalize(h.listing.DefaultPageSize, h.listing.MaxPageSize)

	list, total, err := h.query.ListUnmatchedPayments(c.Request.Context(), q.GetOffset(), q.GetPageSize())
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.OKPage(c, list, total, q.GetPage(), q.GetPageSize())
}

// notifyPaid 仅首次入账时发送通知
func (h *PaymentHandler) notifyPaid(c *gin.Context, result *service.ReconcileResult) {
	if h.notifier == nil || result == nil || result.Report == nil {
		return
	}
	if result.Outcome != model.PaymentOutcomeReconciled {
		return
	}
	go h.notifier.ReportPaid(context.WithoutCancel(c.Request.Context()), result.Report)
}

func toReconcileResponse(result *service.ReconcileResult) dto.ReconcileResponse {
	resp := dto.ReconcileResponse{Outcome: string(result.Outcome)}
	if result.Report != nil {
		resp.Report = result.Report
	}
	return resp
}

func (h *PaymentHandler) handlePaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		response.BadRequest(c, 14001, "支付金额必须大于 0")
	case errors.Is(err, service.ErrPaymentIntentRequired):
		response.BadRequest(c, 14002, "支付意图 ID 不能为空")
	case errors.Is(err, service.ErrNoDraftFound):
		response.Unprocessable(c, 14003, "未找到可关联支付的报告草稿")
	case errors.Is(err, service.ErrPaymentIntentConflict):
		response.Conflict(c, 14004, "支付意图已关联到其他报告")
	case errors.Is(err, service.ErrGatewayNotConfigured):
		response.Error(c, http.StatusServiceUnavailable, 14005, "支付网关未配置")
	case errors.Is(err, service.ErrFMVReportNotFound):
		response.NotFound(c, 13001, "FMV 报告不存在")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 13002, err.Error())
	case errors.Is(err, payment.ErrInvalidPaymentID):
		response.BadRequest(c, 14002, "支付编号无效")
	default:
		respondUnexpected(c, err)
	}
}
