package handler

import (
	"go.uber.org/zap"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth            *AuthHandler
	FallbackRequest *FallbackRequestHandler
	FMVReport       *FMVReportHandler
	Payment         *PaymentHandler
	Export          *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:            NewAuthHandler(svc.Auth),
		FallbackRequest: NewFallbackRequestHandler(svc.FallbackRequest, svc.Query, svc.Notification, cfg.Listing),
		FMVReport:       NewFMVReportHandler(svc.FMVReport, cfg.Listing),
		Payment:         NewPaymentHandler(svc.Payment, svc.Query, svc.Notification, cfg, logger),
		Export:          NewExportHandler(svc.Export),
	}
}
