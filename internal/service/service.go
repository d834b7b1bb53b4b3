package service

import (
	"go.uber.org/zap"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/repository"
	"crane-intelligence/backend/pkg/jwt"
	"crane-intelligence/backend/pkg/mailer"
	"crane-intelligence/backend/pkg/payment"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth            AuthService
	FallbackRequest FallbackRequestService
	FMVReport       FMVReportService
	Payment         PaymentService
	Query           QueryService
	Notification    NotificationService
	Export          ExportService
}

// Deps 外部依赖，Blacklist / Locker / Gateway 可为 nil
type Deps struct {
	JWT       *jwt.Manager
	Blacklist TokenBlacklist
	Locker    Locker
	Gateway   payment.Gateway
	Mailer    mailer.Sender
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	deps Deps,
	logger *zap.Logger,
) *Service {
	lifecycle := NewFallbackRequestService(cfg, repo, logger)
	return &Service{
		Auth:            NewAuthService(cfg, repo, deps.JWT, deps.Blacklist, logger),
		FallbackRequest: lifecycle,
		FMVReport:       NewFMVReportService(cfg, repo, logger),
		Payment:         NewPaymentService(cfg, repo, deps.Gateway, deps.Locker, logger),
		Query:           NewQueryService(cfg, repo, logger),
		Notification:    NewNotificationService(cfg, deps.Mailer, logger),
		Export:          NewExportService(lifecycle, logger),
	}
}
