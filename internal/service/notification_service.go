package service

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/model"
	"crane-intelligence/backend/pkg/mailer"
)

// NotificationService 状态变更邮件通知
// 仅在事务提交后由 Handler 调用；发送失败只记录日志，不回滚状态
type NotificationService interface {
	FallbackStatusChanged(ctx context.Context, req *model.FallbackRequest)
	ReportPaid(ctx context.Context, report *model.FMVReport)
}

type notificationService struct {
	sender  mailer.Sender
	baseURL string
	logger  *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(cfg *config.Config, sender mailer.Sender, logger *zap.Logger) NotificationService {
	return &notificationService{
		sender:  sender,
		baseURL: cfg.Server.BaseURL,
		logger:  logger,
	}
}

func (s *notificationService) FallbackStatusChanged(ctx context.Context, req *model.FallbackRequest) {
	subject, body, ok := fallbackMessage(req, s.baseURL)
	if !ok {
		return
	}
	s.send(ctx, req.UserEmail, subject, body)
}

func (s *notificationService) ReportPaid(ctx context.Context, report *model.FMVReport) {
	if report == nil || report.UserEmail == "" {
		return
	}
	subject := fmt.Sprintf("Payment received for FMV report #%d", report.ID)
	body := fmt.Sprintf(
		"<p>We received your payment of $%.2f for the %s FMV report on your %d %s %s.</p>"+
			"<p>Our analysts will start working on it shortly.</p>",
		report.AmountPaid, report.ReportType, report.Year,
		html.EscapeString(report.Manufacturer), html.EscapeString(report.Model),
	)
	s.send(ctx, report.UserEmail, subject, body)
}

func (s *notificationService) send(ctx context.Context, to, subject, body string) {
	if err := s.sender.Send(ctx, to, subject, body); err != nil {
		s.logger.Error("发送通知邮件失败",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// fallbackMessage 仅对提交人关心的状态生成邮件
func fallbackMessage(req *model.FallbackRequest, baseURL string) (subject, body string, ok bool) {
	if req == nil || req.UserEmail == "" {
		return "", "", false
	}
	equipment := html.EscapeString(fmt.Sprintf("%d %s %s", req.Year, req.Manufacturer, req.Model))

	switch req.Status {
	case model.FallbackStatusInReview:
		subject = "Your valuation request is under review"
		body = fmt.Sprintf("<p>An analyst is reviewing your request #%d for the %s.</p>", req.ID, equipment)
	case model.FallbackStatusCompleted:
		subject = "Your valuation is ready"
		body = fmt.Sprintf("<p>The valuation for your %s is complete.</p>", equipment)
		if req.LinkedFMVReportID != nil {
			body += fmt.Sprintf(`<p><a href="%s/reports/%d">View FMV report #%d</a></p>`,
				baseURL, *req.LinkedFMVReportID, *req.LinkedFMVReportID)
		}
	case model.FallbackStatusRejected:
		subject = "Your valuation request could not be completed"
		body = fmt.Sprintf("<p>We could not value the %s.</p><p>Reason: %s</p>", equipment, html.EscapeString(req.RejectionReason))
	case model.FallbackStatusCancelled:
		subject = "Your valuation request was cancelled"
		body = fmt.Sprintf("<p>Request #%d for the %s has been cancelled.</p>", req.ID, equipment)
	default:
		return "", "", false
	}
	return subject, body, true
}
