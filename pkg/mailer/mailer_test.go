package mailer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"crane-intelligence/backend/config"
)

func TestNew_WithoutSMTPHost(t *testing.T) {
	s := New(&config.MailConfig{}, zap.NewNop())
	if _, ok := s.(*NopSender); !ok {
		t.Fatalf("未配置 SMTP 时期望 NopSender，实际 %T", s)
	}
	if err := s.Send(context.Background(), "a@b.com", "subject", "body"); err != nil {
		t.Errorf("NopSender 不应返回错误: %v", err)
	}
}

func TestNew_WithSMTPHost(t *testing.T) {
	s := New(&config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, From: "noreply@example.com"}, zap.NewNop())
	if _, ok := s.(*SMTPSender); !ok {
		t.Fatalf("配置 SMTP 时期望 SMTPSender，实际 %T", s)
	}
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	s := New(&config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, "a@b.com", "subject", "body"); err == nil {
		t.Error("上下文已取消时应直接返回错误")
	}
}

func TestSMTPSender_BuildMessageIsHTML(t *testing.T) {
	s := New(&config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, From: "noreply@example.com"}, zap.NewNop()).(*SMTPSender)

	var buf bytes.Buffer
	if _, err := s.buildMessage("a@b.com", "估值完成", `<p>报告已就绪，<a href="https://crane.io/r/1">查看</a></p>`).WriteTo(&buf); err != nil {
		t.Fatalf("序列化邮件失败: %v", err)
	}
	raw := buf.String()
	if !strings.Contains(raw, "Content-Type: text/html") {
		t.Errorf("邮件正文应为 text/html:\n%s", raw)
	}
	if strings.Contains(raw, "text/plain") {
		t.Errorf("不应以 text/plain 发送 HTML 正文:\n%s", raw)
	}
	if !strings.Contains(raw, "To: a@b.com") {
		t.Errorf("收件人头缺失:\n%s", raw)
	}
}
