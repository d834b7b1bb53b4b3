package model

import "fmt"

// ── 人工估值申请状态 ──

// FallbackStatus 人工估值申请状态
type FallbackStatus string

const (
	FallbackStatusPending             FallbackStatus = "pending"
	FallbackStatusInReview            FallbackStatus = "in_review"
	FallbackStatusValuationInProgress FallbackStatus = "valuation_in_progress"
	FallbackStatusCompleted           FallbackStatus = "completed"
	FallbackStatusRejected            FallbackStatus = "rejected"
	FallbackStatusCancelled           FallbackStatus = "cancelled"
)

// FallbackStatuses 全部状态，按流程顺序
var FallbackStatuses = []FallbackStatus{
	FallbackStatusPending,
	FallbackStatusInReview,
	FallbackStatusValuationInProgress,
	FallbackStatusCompleted,
	FallbackStatusRejected,
	FallbackStatusCancelled,
}

// ValidFallbackTransitions 合法的申请状态流转（同状态重复提交另行放行）
var ValidFallbackTransitions = map[FallbackStatus][]FallbackStatus{
	FallbackStatusPending:             {FallbackStatusInReview, FallbackStatusRejected, FallbackStatusCancelled},
	FallbackStatusInReview:            {FallbackStatusValuationInProgress, FallbackStatusRejected, FallbackStatusCancelled},
	FallbackStatusValuationInProgress: {FallbackStatusCompleted, FallbackStatusRejected, FallbackStatusCancelled},
}

// ParseFallbackStatus 解析状态字符串，未知值返回错误
func ParseFallbackStatus(s string) (FallbackStatus, error) {
	for _, st := range FallbackStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("未知的申请状态 %q", s)
}

// IsTerminal 是否终态
func (s FallbackStatus) IsTerminal() bool {
	return s == FallbackStatusCompleted || s == FallbackStatusRejected || s == FallbackStatusCancelled
}

// CanTransitionTo 判断 s → to 是否合法；s == to 视为幂等重放
func (s FallbackStatus) CanTransitionTo(to FallbackStatus) bool {
	if s == to {
		return true
	}
	for _, next := range ValidFallbackTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ── FMV 报告状态 ──

// ReportStatus FMV 报告状态
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusSubmitted ReportStatus = "submitted"
	ReportStatusPaid      ReportStatus = "paid"
	ReportStatusInReview  ReportStatus = "in_review"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusCancelled ReportStatus = "cancelled"
)

// ReportStatuses 全部报告状态
var ReportStatuses = []ReportStatus{
	ReportStatusDraft,
	ReportStatusSubmitted,
	ReportStatusPaid,
	ReportStatusInReview,
	ReportStatusCompleted,
	ReportStatusCancelled,
}

// ValidReportTransitions 合法的报告状态流转
// → paid 仅由支付对账触发，不对外开放
var ValidReportTransitions = map[ReportStatus][]ReportStatus{
	ReportStatusDraft:     {ReportStatusSubmitted, ReportStatusPaid, ReportStatusCancelled},
	ReportStatusSubmitted: {ReportStatusPaid, ReportStatusCancelled},
	ReportStatusPaid:      {ReportStatusInReview},
	ReportStatusInReview:  {ReportStatusCompleted},
}

// ParseReportStatus 解析报告状态字符串
func ParseReportStatus(s string) (ReportStatus, error) {
	for _, st := range ReportStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("未知的报告状态 %q", s)
}

// CanTransitionTo 判断 s → to 是否合法；s == to 视为幂等重放
func (s ReportStatus) CanTransitionTo(to ReportStatus) bool {
	if s == to {
		return true
	}
	for _, next := range ValidReportTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// PastDraft 报告是否已越过草稿阶段
func (s ReportStatus) PastDraft() bool {
	return s != ReportStatusDraft
}

// ── 支付状态 ──

// PaymentStatus 报告的支付状态
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)
