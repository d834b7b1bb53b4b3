package service

import (
	"context"
	"errors"
	"testing"

	"crane-intelligence/backend/internal/dto"
	"crane-intelligence/backend/internal/model"
)

func setupFMVReportService() (*fmvReportService, *mockRepos) {
	repo, m := newMockRepository()
	svc := NewFMVReportService(testConfig(), repo, nopLogger()).(*fmvReportService)
	svc.now = tickingClock(epoch())
	_ = m.users.Create(context.Background(), &model.User{Email: "owner@crane.io", Role: model.RoleUser})
	_ = m.users.Create(context.Background(), &model.User{Email: "other@crane.io", Role: model.RoleUser})
	return svc, m
}

func createDraft(t *testing.T, svc *fmvReportService, userID uint) *model.FMVReport {
	t.Helper()
	r, err := svc.CreateDraft(context.Background(), &dto.CreateFMVReportRequest{
		ReportType:   model.ReportTypeProfessional,
		Manufacturer: "Tadano",
		Model:        "GR-1000XL",
		Year:         2019,
		CapacityTons: 100,
		AmountDue:    495,
	}, userID)
	if err != nil {
		t.Fatalf("创建草稿失败: %v", err)
	}
	return r
}

func TestFMVReportService_CreateDraft(t *testing.T) {
	svc, _ := setupFMVReportService()

	r := createDraft(t, svc, 1)
	if r.Status != model.ReportStatusDraft || r.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("新草稿状态错误: %s / %s", r.Status, r.PaymentStatus)
	}
	if r.UserEmail != "owner@crane.io" || !r.IsOwnedBy(1) {
		t.Errorf("草稿应归属用户 1: email=%s user=%v", r.UserEmail, r.UserID)
	}

	_, err := svc.CreateDraft(context.Background(), &dto.CreateFMVReportRequest{ReportType: "basic"}, 99)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestFMVReportService_SubmitAndCancel(t *testing.T) {
	svc, _ := setupFMVReportService()
	ctx := context.Background()
	r := createDraft(t, svc, 1)

	if _, err := svc.Submit(ctx, r.ID, 2); !errors.Is(err, ErrFMVReportNotFound) {
		t.Fatalf("他人提交应返回 NotFound，实际: %v", err)
	}

	submitted, err := svc.Submit(ctx, r.ID, 1)
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if submitted.Status != model.ReportStatusSubmitted || submitted.SubmittedAt == nil {
		t.Errorf("提交未记录: %s %v", submitted.Status, submitted.SubmittedAt)
	}

	cancelled, err := svc.Cancel(ctx, r.ID, 1, false)
	if err != nil {
		t.Fatalf("取消失败: %v", err)
	}
	if cancelled.Status != model.ReportStatusCancelled || cancelled.CancelledAt == nil {
		t.Errorf("取消未记录: %s %v", cancelled.Status, cancelled.CancelledAt)
	}

	if _, err := svc.Submit(ctx, r.ID, 1); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("已取消报告再提交期望 ErrInvalidTransition，实际: %v", err)
	}
}

func TestFMVReportService_Transition_AdminFlow(t *testing.T) {
	svc, m := setupFMVReportService()
	ctx := context.Background()
	r := createDraft(t, svc, 1)

	if _, err := svc.Transition(ctx, r.ID, "paid"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("手动置为 paid 期望 ErrInvalidTransition，实际: %v", err)
	}
	if _, err := svc.Transition(ctx, r.ID, "in_review"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("未支付报告进入审核期望 ErrInvalidTransition，实际: %v", err)
	}

	// 模拟对账入账
	stored := m.reports.reports[r.ID]
	stored.MarkPaid("pi_flow", 495, epoch())

	inReview, err := svc.Transition(ctx, r.ID, "in_review")
	if err != nil {
		t.Fatalf("进入审核失败: %v", err)
	}
	done, err := svc.Transition(ctx, r.ID, "completed")
	if err != nil {
		t.Fatalf("完成失败: %v", err)
	}
	if inReview.InReviewAt == nil || done.CompletedAt == nil || !done.CompletedAt.After(*done.InReviewAt) {
		t.Errorf("时间台账错误: in_review=%v completed=%v", done.InReviewAt, done.CompletedAt)
	}
	if _, err := svc.Cancel(ctx, r.ID, 0, true); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("已完成报告取消期望 ErrInvalidTransition，实际: %v", err)
	}
	if _, err := svc.Transition(ctx, r.ID, "unknown"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("未知状态期望 ErrInvalidTransition，实际: %v", err)
	}
}

func TestFMVReportService_GetForUserAndList(t *testing.T) {
	svc, _ := setupFMVReportService()
	ctx := context.Background()
	r := createDraft(t, svc, 1)
	createDraft(t, svc, 2)

	if _, err := svc.GetForUser(ctx, r.ID, 2, false); !errors.Is(err, ErrFMVReportNotFound) {
		t.Errorf("他人查看期望 NotFound，实际: %v", err)
	}
	if _, err := svc.GetForUser(ctx, r.ID, 2, true); err != nil {
		t.Errorf("管理员应可查看: %v", err)
	}

	mine, total, err := svc.ListMine(ctx, 1, 0, 20)
	if err != nil || total != 1 || len(mine) != 1 {
		t.Errorf("我的报告应有 1 份: total=%d err=%v", total, err)
	}

	_, total, err = svc.List(ctx, "draft", 0, 20)
	if err != nil || total != 2 {
		t.Errorf("draft 应有 2 份: total=%d err=%v", total, err)
	}
	if _, _, err := svc.List(ctx, "nope", 0, 20); !errors.Is(err, ErrInvalidStatusFilter) {
		t.Errorf("未知筛选期望 ErrInvalidStatusFilter，实际: %v", err)
	}
}
