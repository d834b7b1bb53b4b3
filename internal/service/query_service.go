package service

import (
	"context"

	"go.uber.org/zap"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/dto"
	"crane-intelligence/backend/internal/model"
	"crane-intelligence/backend/internal/repository"
	pkgerrors "crane-intelligence/backend/pkg/errors"
)

// QueryService 管理端列表与统计
// 分页与计数下推到 SQL，不在内存中加载全集
type QueryService interface {
	ListFallbackRequests(ctx context.Context, status string, offset, limit int) ([]model.FallbackRequest, int64, error)
	FallbackStats(ctx context.Context, status string) (*dto.FallbackStatsResponse, error)
	ListUnmatchedPayments(ctx context.Context, offset, limit int) ([]model.PaymentEvent, int64, error)
}

type queryService struct {
	repo        *repository.Repository
	logger      *zap.Logger
	readRetries int
}

// NewQueryService 创建 QueryService 实例
func NewQueryService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) QueryService {
	return &queryService{
		repo:        repo,
		logger:      logger,
		readRetries: cfg.Database.ReadRetries,
	}
}

func (s *queryService) ListFallbackRequests(ctx context.Context, status string, offset, limit int) ([]model.FallbackRequest, int64, error) {
	filter, err := parseFallbackFilter(status)
	if err != nil {
		return nil, 0, err
	}

	var (
		reqs  []model.FallbackRequest
		total int64
	)
	err = withReadRetry(ctx, s.readRetries, func() error {
		var err error
		reqs, total, err = s.repo.FallbackRequest.List(ctx, filter, offset, limit)
		return pkgerrors.Storage(err)
	})
	if err != nil {
		s.logger.Error("分页查询申请失败", zap.String("status", status), zap.Error(err))
		return nil, 0, err
	}
	return reqs, total, nil
}

// FallbackStats 统计总数与各状态数量；未出现的状态计为 0
func (s *queryService) FallbackStats(ctx context.Context, status string) (*dto.FallbackStatsResponse, error) {
	filter, err := parseFallbackFilter(status)
	if err != nil {
		return nil, err
	}

	var counts map[model.FallbackStatus]int64
	err = withReadRetry(ctx, s.readRetries, func() error {
		var err error
		counts, err = s.repo.FallbackRequest.CountByStatus(ctx, filter)
		return pkgerrors.Storage(err)
	})
	if err != nil {
		s.logger.Error("统计申请失败", zap.String("status", status), zap.Error(err))
		return nil, err
	}

	resp := &dto.FallbackStatsResponse{ByStatus: make(map[string]int64, len(model.FallbackStatuses))}
	for _, st := range model.FallbackStatuses {
		if filter != "" && st != filter {
			continue
		}
		resp.ByStatus[string(st)] = counts[st]
		resp.Total += counts[st]
	}
	return resp, nil
}

// ListUnmatchedPayments 未匹配到草稿的支付，供运营人工处理
// 之后已通过手动绑定或重发回调入账的支付不再列出
func (s *queryService) ListUnmatchedPayments(ctx context.Context, offset, limit int) ([]model.PaymentEvent, int64, error) {
	var (
		events []model.PaymentEvent
		total  int64
	)
	err := withReadRetry(ctx, s.readRetries, func() error {
		var err error
		events, total, err = s.repo.PaymentEvent.ListUnmatched(ctx, offset, limit)
		return pkgerrors.Storage(err)
	})
	if err != nil {
		s.logger.Error("查询未匹配支付失败", zap.Error(err))
		return nil, 0, err
	}
	return events, total, nil
}
