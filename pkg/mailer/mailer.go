package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"crane-intelligence/backend/config"
)

// Sender 邮件发送接口，body 为 HTML
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New 根据配置创建 Sender，未配置 SMTP 主机时返回只记录日志的 NopSender
func New(cfg *config.MailConfig, logger *zap.Logger) Sender {
	if cfg.SMTPHost == "" {
		logger.Warn("未配置 SMTP，邮件通知仅记录日志")
		return &NopSender{logger: logger}
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

// SMTPSender 基于 gomail 的 SMTP 发送器
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(s.buildMessage(to, subject, body)); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	s.logger.Info("邮件已发送", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (s *SMTPSender) buildMessage(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

// NopSender 不发送邮件，仅记录日志
type NopSender struct {
	logger *zap.Logger
}

func (s *NopSender) Send(_ context.Context, to, subject, _ string) error {
	s.logger.Info("跳过邮件发送（未配置 SMTP）", zap.String("to", to), zap.String("subject", subject))
	return nil
}
