package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/dto"
	"crane-intelligence/backend/internal/model"
	"crane-intelligence/backend/internal/repository"
	pkgerrors "crane-intelligence/backend/pkg/errors"
)

// ── FMV 报告模块业务错误 ──

var (
	ErrFMVReportNotFound = errors.New("FMV 报告不存在")
)

// FMVReportService FMV 报告业务接口
// 进入 paid 只能经由支付对账，本服务的任何入口都会拒绝
type FMVReportService interface {
	CreateDraft(ctx context.Context, req *dto.CreateFMVReportRequest, userID uint) (*model.FMVReport, error)
	GetForUser(ctx context.Context, id, userID uint, isAdmin bool) (*model.FMVReport, error)
	ListMine(ctx context.Context, userID uint, offset, limit int) ([]model.FMVReport, int64, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.FMVReport, int64, error)
	Submit(ctx context.Context, id, ownerID uint) (*model.FMVReport, error)
	Cancel(ctx context.Context, id, callerID uint, isAdmin bool) (*model.FMVReport, error)
	// Transition 管理员推进 paid → in_review → completed
	Transition(ctx context.Context, id uint, status string) (*model.FMVReport, error)
}

type fmvReportService struct {
	repo        *repository.Repository
	logger      *zap.Logger
	readRetries int
	now         func() time.Time
}

// NewFMVReportService 创建 FMVReportService 实例
func NewFMVReportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) FMVReportService {
	return &fmvReportService{
		repo:        repo,
		logger:      logger,
		readRetries: cfg.Database.ReadRetries,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ────────────────────── CreateDraft ──────────────────────

func (s *fmvReportService) CreateDraft(ctx context.Context, req *dto.CreateFMVReportRequest, userID uint) (*model.FMVReport, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, pkgerrors.Storage(err)
	}

	now := s.now()
	uid := user.ID
	report := &model.FMVReport{
		UserID:        &uid,
		UserEmail:     user.Email,
		ReportType:    req.ReportType,
		Manufacturer:  req.Manufacturer,
		Model:         req.Model,
		Year:          req.Year,
		CapacityTons:  req.CapacityTons,
		AmountDue:     req.AmountDue,
		Status:        model.ReportStatusDraft,
		PaymentStatus: model.PaymentStatusPending,
		BaseModel:     model.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	if err := s.repo.FMVReport.Create(ctx, report); err != nil {
		s.logger.Error("创建报告草稿失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, pkgerrors.Storage(err)
	}
	return report, nil
}

// ────────────────────── Query ──────────────────────

func (s *fmvReportService) GetForUser(ctx context.Context, id, userID uint, isAdmin bool) (*model.FMVReport, error) {
	var report *model.FMVReport
	err := withReadRetry(ctx, s.readRetries, func() error {
		var err error
		report, err = s.repo.FMVReport.GetByID(ctx, id)
		return pkgerrors.Storage(err)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFMVReportNotFound
		}
		s.logger.Error("查询报告失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	if !isAdmin && !report.IsOwnedBy(userID) {
		return nil, ErrFMVReportNotFound
	}
	return report, nil
}

func (s *fmvReportService) ListMine(ctx context.Context, userID uint, offset, limit int) ([]model.FMVReport, int64, error) {
	var (
		reports []model.FMVReport
		total   int64
	)
	err := withReadRetry(ctx, s.readRetries, func() error {
		var err error
		reports, total, err = s.repo.FMVReport.ListByUser(ctx, userID, offset, limit)
		return pkgerrors.Storage(err)
	})
	if err != nil {
		s.logger.Error("查询我的报告失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *fmvReportService) List(ctx context.Context, status string, offset, limit int) ([]model.FMVReport, int64, error) {
	var filter model.ReportStatus
	if status != "" {
		st, err := model.ParseReportStatus(status)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidStatusFilter, err)
		}
		filter = st
	}

	var (
		reports []model.FMVReport
		total   int64
	)
	err := withReadRetry(ctx, s.readRetries, func() error {
		var err error
		reports, total, err = s.repo.FMVReport.List(ctx, filter, offset, limit)
		return pkgerrors.Storage(err)
	})
	if err != nil {
		s.logger.Error("分页查询报告失败", zap.String("status", status), zap.Error(err))
		return nil, 0, err
	}
	return reports, total, nil
}

// ────────────────────── Status ──────────────────────

func (s *fmvReportService) Submit(ctx context.Context, id, ownerID uint) (*model.FMVReport, error) {
	return s.move(ctx, id, model.ReportStatusSubmitted, func(r *model.FMVReport) bool {
		return r.IsOwnedBy(ownerID)
	})
}

func (s *fmvReportService) Cancel(ctx context.Context, id, callerID uint, isAdmin bool) (*model.FMVReport, error) {
	return s.move(ctx, id, model.ReportStatusCancelled, func(r *model.FMVReport) bool {
		return isAdmin || r.IsOwnedBy(callerID)
	})
}

func (s *fmvReportService) Transition(ctx context.Context, id uint, status string) (*model.FMVReport, error) {
	to, err := model.ParseReportStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	if to == model.ReportStatusPaid || to == model.ReportStatusDraft {
		return nil, fmt.Errorf("%w: 报告不能手动置为 %s", ErrInvalidTransition, to)
	}
	return s.move(ctx, id, to, nil)
}

// move 在事务内加锁并推进报告状态；visible 为 nil 表示不校验归属
func (s *fmvReportService) move(ctx context.Context, id uint, to model.ReportStatus, visible func(*model.FMVReport) bool) (*model.FMVReport, error) {
	var result *model.FMVReport
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		report, err := txRepo.FMVReport.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFMVReportNotFound
			}
			return pkgerrors.Storage(err)
		}
		if visible != nil && !visible(report) {
			return ErrFMVReportNotFound
		}
		if !report.Status.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, report.Status, to)
		}

		report.EnterStatus(to, s.now())
		if err := txRepo.FMVReport.Update(ctx, report); err != nil {
			return pkgerrors.Storage(err)
		}
		result = report
		return nil
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStorageUnavailable) {
			s.logger.Error("更新报告状态失败", zap.Uint("id", id), zap.String("to", string(to)), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("报告状态已更新", zap.Uint("id", id), zap.String("status", string(to)))
	return result, nil
}
