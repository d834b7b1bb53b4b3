package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/dto"
	"crane-intelligence/backend/internal/model"
	"crane-intelligence/backend/internal/repository"
	pkgerrors "crane-intelligence/backend/pkg/errors"
)

// ── 人工估值申请模块业务错误 ──

var (
	ErrFallbackRequestNotFound = errors.New("人工估值申请不存在")
	ErrSubmitterEmailRequired  = errors.New("未登录提交时必须填写邮箱")
	ErrRejectionReasonRequired = errors.New("驳回申请必须填写原因")
	ErrReportLinkRequired      = errors.New("完成申请必须关联已存在的 FMV 报告")
	ErrInvalidStatusFilter     = errors.New("无效的状态筛选条件")
	// ErrInvalidTransition 状态流转不合法，包括离开终态和未知状态
	ErrInvalidTransition = errors.New("不允许的状态流转")
)

// FallbackRequestService 人工估值申请生命周期接口
//
// 所有状态变更在单个事务内完成：行锁读取 → 校验流转表 → 写时间台账 → 提交。
// 通知由 Handler 在提交后发送，本服务不做任何外部调用。
type FallbackRequestService interface {
	Create(ctx context.Context, req *dto.CreateFallbackRequest, userID *uint) (*model.FallbackRequest, error)
	Get(ctx context.Context, id uint) (*model.FallbackRequest, error)
	// GetForUser 仅申请人或管理员可见，其他人视为不存在
	GetForUser(ctx context.Context, id, userID uint, isAdmin bool) (*model.FallbackRequest, error)
	// changed 以行锁内读到的原状态判断，自流转重放时为 false
	Transition(ctx context.Context, id uint, req *dto.TransitionFallbackRequest, callerID uint) (fr *model.FallbackRequest, changed bool, err error)
	Cancel(ctx context.Context, id, ownerID uint) (*model.FallbackRequest, error)
	GetAll(ctx context.Context, status string) ([]model.FallbackRequest, error)
	ListMine(ctx context.Context, userID uint, offset, limit int) ([]model.FallbackRequest, int64, error)
}

type fallbackRequestService struct {
	repo        *repository.Repository
	logger      *zap.Logger
	readRetries int
	now         func() time.Time
}

// NewFallbackRequestService 创建 FallbackRequestService 实例
func NewFallbackRequestService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) FallbackRequestService {
	return &fallbackRequestService{
		repo:        repo,
		logger:      logger,
		readRetries: cfg.Database.ReadRetries,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ────────────────────── Create ──────────────────────

func (s *fallbackRequestService) Create(ctx context.Context, req *dto.CreateFallbackRequest, userID *uint) (*model.FallbackRequest, error) {
	var ownerID *uint
	email := strings.TrimSpace(req.UserEmail)

	// 登录用户以账号邮箱为准
	if userID != nil {
		user, err := s.repo.User.GetByID(ctx, *userID)
		switch {
		case err == nil:
			id := user.ID
			ownerID = &id
			email = user.Email
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.logger.Warn("提交人账号不存在，回退到请求邮箱", zap.Uint("user_id", *userID))
		default:
			s.logger.Error("查询提交人失败", zap.Uint("user_id", *userID), zap.Error(err))
			return nil, pkgerrors.Storage(err)
		}
	}
	if email == "" {
		return nil, ErrSubmitterEmailRequired
	}

	now := s.now()
	fr := &model.FallbackRequest{
		UserID:             ownerID,
		UserEmail:          email,
		Manufacturer:       strings.TrimSpace(req.Manufacturer),
		Model:              strings.TrimSpace(req.Model),
		Year:               req.Year,
		SerialNumber:       req.SerialNumber,
		CapacityTons:       req.CapacityTons,
		CraneType:          req.CraneType,
		OperatingHours:     req.OperatingHours,
		Mileage:            req.Mileage,
		BoomLength:         req.BoomLength,
		JibLength:          req.JibLength,
		MaxHookHeight:      req.MaxHookHeight,
		MaxRadius:          req.MaxRadius,
		Region:             req.Region,
		Condition:          req.Condition,
		Specifications:     req.Specifications,
		AdditionalFeatures: req.AdditionalFeatures,
		ServiceHistory:     req.ServiceHistory,
		Status:             model.FallbackStatusPending,
		BaseModel:          model.BaseModel{CreatedAt: now, UpdatedAt: now},
	}

	if err := s.repo.FallbackRequest.Create(ctx, fr); err != nil {
		s.logger.Error("创建人工估值申请失败", zap.String("email", email), zap.Error(err))
		return nil, pkgerrors.Storage(err)
	}

	s.logger.Info("人工估值申请已创建",
		zap.Uint("id", fr.ID),
		zap.String("manufacturer", fr.Manufacturer),
		zap.String("model", fr.Model),
	)
	return fr, nil
}

// ────────────────────── Get ──────────────────────

func (s *fallbackRequestService) Get(ctx context.Context, id uint) (*model.FallbackRequest, error) {
	var fr *model.FallbackRequest
	err := withReadRetry(ctx, s.readRetries, func() error {
		var err error
		fr, err = s.repo.FallbackRequest.GetByID(ctx, id)
		return pkgerrors.Storage(err)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFallbackRequestNotFound
		}
		s.logger.Error("查询人工估值申请失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return fr, nil
}

func (s *fallbackRequestService) GetForUser(ctx context.Context, id, userID uint, isAdmin bool) (*model.FallbackRequest, error) {
	fr, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !fr.IsOwnedBy(userID) {
		return nil, ErrFallbackRequestNotFound
	}
	return fr, nil
}

// ────────────────────── Transition ──────────────────────

func (s *fallbackRequestService) Transition(ctx context.Context, id uint, req *dto.TransitionFallbackRequest, callerID uint) (*model.FallbackRequest, bool, error) {
	to, err := model.ParseFallbackStatus(req.Status)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	var (
		result  *model.FallbackRequest
		changed bool
	)
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		fr, err := txRepo.FallbackRequest.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFallbackRequestNotFound
			}
			return pkgerrors.Storage(err)
		}

		from := fr.Status
		if !from.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
		}
		if from == to && from.IsTerminal() {
			if err := checkTerminalReplay(fr, req); err != nil {
				return err
			}
		}

		if req.AssignedAnalyst != nil {
			fr.AssignedAnalyst = strings.TrimSpace(*req.AssignedAnalyst)
		}
		if req.AnalystNotes != nil {
			fr.AnalystNotes = *req.AnalystNotes
		}

		switch to {
		case model.FallbackStatusRejected:
			if req.RejectionReason != nil {
				fr.RejectionReason = strings.TrimSpace(*req.RejectionReason)
			}
			if fr.RejectionReason == "" {
				return ErrRejectionReasonRequired
			}
		case model.FallbackStatusCompleted:
			if req.LinkedFMVReportID != nil {
				if _, err := txRepo.FMVReport.GetByID(ctx, *req.LinkedFMVReportID); err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return fmt.Errorf("%w: 报告 %d 不存在", ErrReportLinkRequired, *req.LinkedFMVReportID)
					}
					return pkgerrors.Storage(err)
				}
				linked := *req.LinkedFMVReportID
				fr.LinkedFMVReportID = &linked
			}
			if fr.LinkedFMVReportID == nil {
				return ErrReportLinkRequired
			}
		}

		fr.EnterStatus(to, s.now())
		if err := txRepo.FallbackRequest.Update(ctx, fr); err != nil {
			return pkgerrors.Storage(err)
		}
		result = fr
		changed = from != to
		return nil
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStorageUnavailable) {
			s.logger.Error("更新申请状态失败", zap.Uint("id", id), zap.String("to", string(to)), zap.Error(err))
		}
		return nil, false, err
	}

	s.logger.Info("申请状态已更新",
		zap.Uint("id", id),
		zap.String("status", string(result.Status)),
		zap.Bool("changed", changed),
		zap.Uint("caller_id", callerID),
	)
	return result, changed, nil
}

// checkTerminalReplay 终态记录只接受原样重放，任何字段改动都视为非法流转
func checkTerminalReplay(fr *model.FallbackRequest, req *dto.TransitionFallbackRequest) error {
	if req.LinkedFMVReportID != nil && (fr.LinkedFMVReportID == nil || *fr.LinkedFMVReportID != *req.LinkedFMVReportID) {
		return fmt.Errorf("%w: 终态申请不能修改关联报告", ErrInvalidTransition)
	}
	if req.RejectionReason != nil && strings.TrimSpace(*req.RejectionReason) != fr.RejectionReason {
		return fmt.Errorf("%w: 终态申请不能修改驳回原因", ErrInvalidTransition)
	}
	if req.AssignedAnalyst != nil && strings.TrimSpace(*req.AssignedAnalyst) != fr.AssignedAnalyst {
		return fmt.Errorf("%w: 终态申请不能修改分析师", ErrInvalidTransition)
	}
	if req.AnalystNotes != nil && *req.AnalystNotes != fr.AnalystNotes {
		return fmt.Errorf("%w: 终态申请不能修改分析备注", ErrInvalidTransition)
	}
	return nil
}

// ────────────────────── Cancel ──────────────────────

func (s *fallbackRequestService) Cancel(ctx context.Context, id, ownerID uint) (*model.FallbackRequest, error) {
	var result *model.FallbackRequest
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		fr, err := txRepo.FallbackRequest.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFallbackRequestNotFound
			}
			return pkgerrors.Storage(err)
		}
		if !fr.IsOwnedBy(ownerID) {
			return ErrFallbackRequestNotFound
		}
		if !fr.Status.CanTransitionTo(model.FallbackStatusCancelled) {
			return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, fr.Status, model.FallbackStatusCancelled)
		}

		fr.EnterStatus(model.FallbackStatusCancelled, s.now())
		if err := txRepo.FallbackRequest.Update(ctx, fr); err != nil {
			return pkgerrors.Storage(err)
		}
		result = fr
		return nil
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStorageUnavailable) {
			s.logger.Error("取消申请失败", zap.Uint("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("申请已由提交人取消", zap.Uint("id", id), zap.Uint("owner_id", ownerID))
	return result, nil
}

// ────────────────────── GetAll ──────────────────────

func (s *fallbackRequestService) GetAll(ctx context.Context, status string) ([]model.FallbackRequest, error) {
	filter, err := parseFallbackFilter(status)
	if err != nil {
		return nil, err
	}

	var reqs []model.FallbackRequest
	err = withReadRetry(ctx, s.readRetries, func() error {
		var err error
		reqs, err = s.repo.FallbackRequest.ListAll(ctx, filter)
		return pkgerrors.Storage(err)
	})
	if err != nil {
		s.logger.Error("查询申请列表失败", zap.String("status", status), zap.Error(err))
		return nil, err
	}
	return reqs, nil
}

// ────────────────────── ListMine ──────────────────────

func (s *fallbackRequestService) ListMine(ctx context.Context, userID uint, offset, limit int) ([]model.FallbackRequest, int64, error) {
	var (
		reqs  []model.FallbackRequest
		total int64
	)
	err := withReadRetry(ctx, s.readRetries, func() error {
		var err error
		reqs, total, err = s.repo.FallbackRequest.ListByUser(ctx, userID, offset, limit)
		return pkgerrors.Storage(err)
	})
	if err != nil {
		s.logger.Error("查询我的申请失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	return reqs, total, nil
}

// parseFallbackFilter 空字符串表示不过滤
func parseFallbackFilter(status string) (model.FallbackStatus, error) {
	if status == "" {
		return "", nil
	}
	st, err := model.ParseFallbackStatus(status)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidStatusFilter, err)
	}
	return st, nil
}
