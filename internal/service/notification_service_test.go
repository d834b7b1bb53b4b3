package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"crane-intelligence/backend/internal/model"
)

type sentMail struct {
	to, subject, body string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (s *fakeSender) Send(_ context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{to, subject, body})
	return nil
}

func TestNotificationService_FallbackStatusChanged(t *testing.T) {
	sender := &fakeSender{}
	svc := NewNotificationService(testConfig(), sender, nopLogger())

	req := &model.FallbackRequest{
		ID:                9,
		UserEmail:         "a@b.com",
		Manufacturer:      "Manitowoc",
		Model:             "MLC300",
		Year:              2016,
		Status:            model.FallbackStatusCompleted,
		LinkedFMVReportID: uintPtr(42),
	}
	svc.FallbackStatusChanged(context.Background(), req)

	if len(sender.sent) != 1 {
		t.Fatalf("应发送 1 封邮件，实际 %d", len(sender.sent))
	}
	if sender.sent[0].to != "a@b.com" || !strings.Contains(sender.sent[0].body, "/reports/42") {
		t.Errorf("完成邮件应包含报告链接: %+v", sender.sent[0])
	}

	req.Status = model.FallbackStatusRejected
	req.RejectionReason = "<b>no comps</b>"
	svc.FallbackStatusChanged(context.Background(), req)
	if !strings.Contains(sender.sent[1].body, "&lt;b&gt;no comps&lt;/b&gt;") {
		t.Errorf("驳回原因应转义: %s", sender.sent[1].body)
	}

	// valuation_in_progress 不通知
	req.Status = model.FallbackStatusValuationInProgress
	svc.FallbackStatusChanged(context.Background(), req)
	if len(sender.sent) != 2 {
		t.Errorf("估值中状态不应发送邮件，已发送 %d", len(sender.sent))
	}
}

func TestNotificationService_FailureIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp: 535 auth failed")}
	svc := NewNotificationService(testConfig(), sender, nopLogger())

	// 发送失败只记录日志，不 panic
	svc.ReportPaid(context.Background(), &model.FMVReport{ID: 1, UserEmail: "a@b.com", AmountPaid: 495})
	svc.ReportPaid(context.Background(), nil)
}
