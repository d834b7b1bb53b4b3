package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/model"
	"crane-intelligence/backend/internal/repository"
	pkgerrors "crane-intelligence/backend/pkg/errors"
	"crane-intelligence/backend/pkg/payment"
)

// ── 支付对账模块业务错误 ──

var (
	ErrInvalidAmount         = errors.New("支付金额必须大于 0")
	ErrPaymentIntentRequired = errors.New("支付意图 ID 不能为空")
	ErrNoDraftFound          = errors.New("未找到可关联支付的报告草稿")
	ErrPaymentIntentConflict = errors.New("支付意图已关联到其他报告")
	ErrGatewayNotConfigured  = errors.New("支付网关未配置")
)

// Locker 短时分布式锁，获取失败时对账仍可依赖数据库行锁
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

// Submitter 支付提交人，UserID 与 Email 至少一个非空
type Submitter struct {
	UserID *uint
	Email  string
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	Outcome model.PaymentOutcome `json:"outcome"`
	Report  *model.FMVReport     `json:"report,omitempty"`
}

// PaymentService 支付对账接口
//
// 同一支付意图无论回调多少次、以何种顺序到达，最多关联一份报告且金额只记一次：
//   - 事务内先按支付意图加锁查找，已成功则原样返回
//   - 否则锁定提交人最近的草稿并绑定
//   - 并发写入触发唯一索引冲突时整体重试一次，此时第一步即可命中
type PaymentService interface {
	Reconcile(ctx context.Context, intentID string, amount float64, submitter Submitter, provider string) (*ReconcileResult, error)
	// AttachPayment 管理员手动将支付绑定到指定报告，不覆盖已有绑定
	AttachPayment(ctx context.Context, reportID uint, intentID string, amount float64) (*ReconcileResult, error)
	// HandleGatewayNotification 通过网关查询支付详情后对账
	HandleGatewayNotification(ctx context.Context, paymentID string) (*ReconcileResult, error)
}

type paymentService struct {
	repo    *repository.Repository
	gateway payment.Gateway
	locker  Locker
	lockTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewPaymentService 创建 PaymentService 实例，gateway 与 locker 均可为 nil
func NewPaymentService(
	cfg *config.Config,
	repo *repository.Repository,
	gateway payment.Gateway,
	locker Locker,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:    repo,
		gateway: gateway,
		locker:  locker,
		lockTTL: cfg.Payment.LockTTL,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ────────────────────── Reconcile ──────────────────────

func (s *paymentService) Reconcile(ctx context.Context, intentID string, amount float64, submitter Submitter, provider string) (*ReconcileResult, error) {
	intentID = strings.TrimSpace(intentID)
	if err := validatePayment(intentID, amount); err != nil {
		return nil, err
	}

	release := s.lock(ctx, intentID)
	defer release()

	var (
		result *ReconcileResult
		err    error
	)
	for attempt := 0; attempt < 2; attempt++ {
		result, err = s.reconcileOnce(ctx, intentID, amount, submitter)
		if !pkgerrors.IsDuplicateKey(err) {
			break
		}
		s.logger.Warn("支付意图唯一约束冲突，重试对账",
			zap.String("payment_intent_id", intentID),
			zap.Int("attempt", attempt+1),
		)
	}
	if pkgerrors.IsDuplicateKey(err) {
		err = ErrPaymentIntentConflict
	}

	s.recordEvent(ctx, provider, intentID, amount, submitter.Email, result, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("支付对账完成",
		zap.String("payment_intent_id", intentID),
		zap.String("outcome", string(result.Outcome)),
		zap.Uint("report_id", result.Report.ID),
	)
	return result, nil
}

// reconcileOnce 单次对账事务
func (s *paymentService) reconcileOnce(ctx context.Context, intentID string, amount float64, submitter Submitter) (*ReconcileResult, error) {
	var result *ReconcileResult
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		// a. 支付意图已绑定
		report, err := txRepo.FMVReport.GetByPaymentIntentForUpdate(ctx, intentID)
		switch {
		case err == nil:
			result, err = s.applyToBound(ctx, txRepo, report, intentID, amount)
			return err
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Storage(err)
		}

		// b. 关联提交人最近的草稿
		if submitter.UserID == nil && strings.TrimSpace(submitter.Email) == "" {
			return fmt.Errorf("%w: 缺少提交人信息", ErrNoDraftFound)
		}
		draft, err := txRepo.FMVReport.GetLatestDraftForUpdate(ctx, submitter.UserID, strings.TrimSpace(submitter.Email))
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Storage(err)
			}
			// 并发回调可能在 a 之后把同一支付绑定到了这份草稿，行锁释放后草稿不再匹配，按支付意图再查一次
			report, err := txRepo.FMVReport.GetByPaymentIntentForUpdate(ctx, intentID)
			switch {
			case err == nil:
				result, err = s.applyToBound(ctx, txRepo, report, intentID, amount)
				return err
			case errors.Is(err, gorm.ErrRecordNotFound):
				return ErrNoDraftFound
			default:
				return pkgerrors.Storage(err)
			}
		}

		draft.MarkPaid(intentID, amount, s.now())
		if err := txRepo.FMVReport.Update(ctx, draft); err != nil {
			return pkgerrors.Storage(err)
		}
		result = &ReconcileResult{Outcome: model.PaymentOutcomeReconciled, Report: draft}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyToBound 处理已绑定该支付意图的报告：已入账视为重复回调，否则补记入账
func (s *paymentService) applyToBound(ctx context.Context, txRepo *repository.Repository, report *model.FMVReport, intentID string, amount float64) (*ReconcileResult, error) {
	if report.IsPaymentSucceeded() {
		if report.AmountPaid != amount {
			s.logger.Warn("重复回调金额与已入账金额不一致",
				zap.String("payment_intent_id", intentID),
				zap.Float64("recorded", report.AmountPaid),
				zap.Float64("received", amount),
			)
		}
		return &ReconcileResult{Outcome: model.PaymentOutcomeDuplicate, Report: report}, nil
	}
	report.MarkPaid(intentID, amount, s.now())
	if err := txRepo.FMVReport.Update(ctx, report); err != nil {
		return nil, pkgerrors.Storage(err)
	}
	return &ReconcileResult{Outcome: model.PaymentOutcomeReconciled, Report: report}, nil
}

// ────────────────────── AttachPayment ──────────────────────

func (s *paymentService) AttachPayment(ctx context.Context, reportID uint, intentID string, amount float64) (*ReconcileResult, error) {
	intentID = strings.TrimSpace(intentID)
	if err := validatePayment(intentID, amount); err != nil {
		return nil, err
	}

	release := s.lock(ctx, intentID)
	defer release()

	var result *ReconcileResult
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		bound, err := txRepo.FMVReport.GetByPaymentIntentForUpdate(ctx, intentID)
		switch {
		case err == nil && bound.ID != reportID:
			return fmt.Errorf("%w: 已关联报告 %d", ErrPaymentIntentConflict, bound.ID)
		case err == nil && bound.IsPaymentSucceeded():
			result = &ReconcileResult{Outcome: model.PaymentOutcomeDuplicate, Report: bound}
			return nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Storage(err)
		}

		report, err := txRepo.FMVReport.GetByIDForUpdate(ctx, reportID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFMVReportNotFound
			}
			return pkgerrors.Storage(err)
		}
		if report.PaymentIntentID != nil && *report.PaymentIntentID != intentID && report.IsPaymentSucceeded() {
			return fmt.Errorf("%w: 报告已绑定支付 %s", ErrPaymentIntentConflict, *report.PaymentIntentID)
		}
		if report.Status == model.ReportStatusCancelled {
			return fmt.Errorf("%w: 已取消的报告不能绑定支付", ErrInvalidTransition)
		}

		report.MarkPaid(intentID, amount, s.now())
		if err := txRepo.FMVReport.Update(ctx, report); err != nil {
			return pkgerrors.Storage(err)
		}
		result = &ReconcileResult{Outcome: model.PaymentOutcomeReconciled, Report: report}
		return nil
	})
	if pkgerrors.IsDuplicateKey(err) {
		err = ErrPaymentIntentConflict
	}

	s.recordEvent(ctx, model.PaymentProviderManual, intentID, amount, "", result, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("管理员手动绑定支付",
		zap.Uint("report_id", reportID),
		zap.String("payment_intent_id", intentID),
		zap.String("outcome", string(result.Outcome)),
	)
	return result, nil
}

// ────────────────────── HandleGatewayNotification ──────────────────────

func (s *paymentService) HandleGatewayNotification(ctx context.Context, paymentID string) (*ReconcileResult, error) {
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, ErrPaymentIntentRequired
	}

	conf, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		s.logger.Error("查询网关支付失败", zap.String("payment_id", paymentID), zap.Error(err))
		s.appendEvent(ctx, &model.PaymentEvent{
			Provider:        model.PaymentProviderMercadoPago,
			PaymentIntentID: paymentID,
			Outcome:         model.PaymentOutcomeFailed,
			Detail:          err.Error(),
		})
		return nil, fmt.Errorf("查询网关支付失败: %w", err)
	}

	if !conf.Approved() {
		s.logger.Info("忽略未批准的支付通知",
			zap.String("payment_id", conf.PaymentID),
			zap.String("status", conf.Status),
		)
		s.appendEvent(ctx, &model.PaymentEvent{
			Provider:        model.PaymentProviderMercadoPago,
			PaymentIntentID: conf.PaymentID,
			Amount:          conf.Amount,
			PayerEmail:      conf.PayerEmail,
			Outcome:         model.PaymentOutcomeIgnored,
			Detail:          "status=" + conf.Status,
		})
		return &ReconcileResult{Outcome: model.PaymentOutcomeIgnored}, nil
	}

	return s.Reconcile(ctx, conf.PaymentID, conf.Amount, Submitter{Email: conf.PayerEmail}, model.PaymentProviderMercadoPago)
}

// ────────────────────── helpers ──────────────────────

func validatePayment(intentID string, amount float64) error {
	if intentID == "" {
		return ErrPaymentIntentRequired
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// lock 尽力获取对账锁，失败时退化为仅依赖数据库行锁与唯一索引
func (s *paymentService) lock(ctx context.Context, intentID string) func() {
	if s.locker == nil {
		return func() {}
	}
	release, err := s.locker.AcquireLock(ctx, "payment:"+intentID, s.lockTTL)
	if err != nil {
		s.logger.Warn("获取对账锁失败，继续依赖数据库约束",
			zap.String("payment_intent_id", intentID),
			zap.Error(err),
		)
		return func() {}
	}
	return release
}

// recordEvent 按对账结果追加审计记录
func (s *paymentService) recordEvent(ctx context.Context, provider, intentID string, amount float64, payerEmail string, result *ReconcileResult, err error) {
	event := &model.PaymentEvent{
		Provider:        provider,
		PaymentIntentID: intentID,
		Amount:          amount,
		PayerEmail:      payerEmail,
	}
	switch {
	case err == nil:
		event.Outcome = result.Outcome
		id := result.Report.ID
		event.FMVReportID = &id
	case errors.Is(err, ErrNoDraftFound):
		event.Outcome = model.PaymentOutcomeNoDraft
		event.Detail = err.Error()
	case errors.Is(err, ErrPaymentIntentConflict):
		event.Outcome = model.PaymentOutcomeConflict
		event.Detail = err.Error()
	default:
		event.Outcome = model.PaymentOutcomeFailed
		event.Detail = err.Error()
	}
	s.appendEvent(ctx, event)
}

// appendEvent 审计写入失败只记录日志，不影响对账结果
func (s *paymentService) appendEvent(ctx context.Context, event *model.PaymentEvent) {
	event.CreatedAt = s.now()
	if err := s.repo.PaymentEvent.Create(ctx, event); err != nil {
		s.logger.Error("写入支付审计失败",
			zap.String("payment_intent_id", event.PaymentIntentID),
			zap.String("outcome", string(event.Outcome)),
			zap.Error(err),
		)
	}
}
