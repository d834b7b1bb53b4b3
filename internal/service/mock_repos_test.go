package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crane-intelligence/backend/config"
	"crane-intelligence/backend/internal/model"
	"crane-intelligence/backend/internal/repository"
)

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{ReadRetries: 2},
		Payment:  config.PaymentConfig{LockTTL: time.Second},
		Listing:  config.ListingConfig{DefaultPageSize: 20, MaxPageSize: 100},
		Server:   config.ServerConfig{BaseURL: "https://craneintelligence.tech"},
	}
}

type mockRepos struct {
	repo     *repository.Repository
	users    *mockUserRepo
	fallback *mockFallbackRequestRepo
	reports  *mockFMVReportRepo
	events   *mockPaymentEventRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	reports := newMockFMVReportRepo()
	m := &mockRepos{
		users:    newMockUserRepo(),
		fallback: newMockFallbackRequestRepo(),
		reports:  reports,
		events:   newMockPaymentEventRepo(reports),
	}
	repo := &repository.Repository{
		User:            m.users,
		FallbackRequest: m.fallback,
		FMVReport:       m.reports,
		PaymentEvent:    m.events,
	}
	m.repo = repo
	return repo, m
}

// tickingClock 每次调用前进 1 秒，便于断言时间戳先后
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }

func nopLogger() *zap.Logger { return zap.NewNop() }

func epoch() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu     sync.Mutex
	users  map[uint]*model.User
	nextID uint
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*model.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

// ── Mock FallbackRequestRepository ──

type mockFallbackRequestRepo struct {
	mu     sync.Mutex
	reqs   map[uint]*model.FallbackRequest
	nextID uint

	// readErrs 依次返回给读操作的错误，用于模拟存储抖动
	readErrs []error
	readHits int
	// writeErr 非 nil 时所有写操作返回该错误
	writeErr error
}

func newMockFallbackRequestRepo() *mockFallbackRequestRepo {
	return &mockFallbackRequestRepo{reqs: make(map[uint]*model.FallbackRequest), nextID: 1}
}

func (m *mockFallbackRequestRepo) nextReadErr() error {
	m.readHits++
	if len(m.readErrs) == 0 {
		return nil
	}
	err := m.readErrs[0]
	m.readErrs = m.readErrs[1:]
	return err
}

func (m *mockFallbackRequestRepo) Create(_ context.Context, req *model.FallbackRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if req.ID == 0 {
		req.ID = m.nextID
		m.nextID++
	}
	cp := *req
	m.reqs[req.ID] = &cp
	return nil
}

func (m *mockFallbackRequestRepo) GetByID(_ context.Context, id uint) (*model.FallbackRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.nextReadErr(); err != nil {
		return nil, err
	}
	if r, ok := m.reqs[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFallbackRequestRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.FallbackRequest, error) {
	return m.GetByID(ctx, id)
}

func (m *mockFallbackRequestRepo) Update(_ context.Context, req *model.FallbackRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	cp := *req
	m.reqs[req.ID] = &cp
	return nil
}

func (m *mockFallbackRequestRepo) sorted(status model.FallbackStatus) []model.FallbackRequest {
	var result []model.FallbackRequest
	for _, r := range m.reqs {
		if status == "" || r.Status == status {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (m *mockFallbackRequestRepo) ListAll(_ context.Context, status model.FallbackStatus) ([]model.FallbackRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.nextReadErr(); err != nil {
		return nil, err
	}
	return m.sorted(status), nil
}

func (m *mockFallbackRequestRepo) List(_ context.Context, status model.FallbackStatus, offset, limit int) ([]model.FallbackRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.nextReadErr(); err != nil {
		return nil, 0, err
	}
	all := m.sorted(status)
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockFallbackRequestRepo) ListByUser(_ context.Context, userID uint, offset, limit int) ([]model.FallbackRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []model.FallbackRequest
	for _, r := range m.sorted("") {
		if r.IsOwnedBy(userID) {
			mine = append(mine, r)
		}
	}
	return paginate(mine, offset, limit), int64(len(mine)), nil
}

func (m *mockFallbackRequestRepo) CountByStatus(_ context.Context, status model.FallbackStatus) (map[model.FallbackStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.nextReadErr(); err != nil {
		return nil, err
	}
	counts := make(map[model.FallbackStatus]int64)
	for _, r := range m.reqs {
		if status == "" || r.Status == status {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ── Mock FMVReportRepository ──

type mockFMVReportRepo struct {
	mu      sync.Mutex
	reports map[uint]*model.FMVReport
	nextID  uint

	// beforeUpdate 在唯一性检查之前调用，可用于模拟并发写入方先提交
	beforeUpdate func(m *mockFMVReportRepo, r *model.FMVReport)
	// beforeDraftLookup 在持锁查找草稿前调用，可用于模拟并发回调已先绑定草稿
	beforeDraftLookup func(m *mockFMVReportRepo)
	// updateErr 非 nil 时 Update 直接返回该错误
	updateErr error
	updates   int
}

func newMockFMVReportRepo() *mockFMVReportRepo {
	return &mockFMVReportRepo{reports: make(map[uint]*model.FMVReport), nextID: 1}
}

// insert 直接写入存储，不触发 beforeUpdate
func (m *mockFMVReportRepo) insert(r *model.FMVReport) {
	if r.ID == 0 {
		r.ID = m.nextID
		m.nextID++
	}
	cp := *r
	m.reports[r.ID] = &cp
}

func (m *mockFMVReportRepo) Create(_ context.Context, report *model.FMVReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(report)
	return nil
}

func (m *mockFMVReportRepo) GetByID(_ context.Context, id uint) (*model.FMVReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reports[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFMVReportRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.FMVReport, error) {
	return m.GetByID(ctx, id)
}

func (m *mockFMVReportRepo) GetByPaymentIntentForUpdate(_ context.Context, intentID string) (*model.FMVReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.PaymentIntentID != nil && *r.PaymentIntentID == intentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFMVReportRepo) GetLatestDraftForUpdate(_ context.Context, userID *uint, email string) (*model.FMVReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beforeDraftLookup != nil {
		m.beforeDraftLookup(m)
	}
	var best *model.FMVReport
	for _, r := range m.reports {
		if r.Status != model.ReportStatusDraft && r.Status != model.ReportStatusSubmitted {
			continue
		}
		if r.PaymentIntentID != nil {
			continue
		}
		byUser := userID != nil && r.IsOwnedBy(*userID)
		byEmail := email != "" && strings.EqualFold(r.UserEmail, email)
		if !byUser && !byEmail {
			continue
		}
		if best == nil || r.CreatedAt.After(best.CreatedAt) ||
			(r.CreatedAt.Equal(best.CreatedAt) && r.ID > best.ID) {
			best = r
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *mockFMVReportRepo) Update(_ context.Context, report *model.FMVReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(m, report)
	}
	if report.PaymentIntentID != nil {
		for id, r := range m.reports {
			if id != report.ID && r.PaymentIntentID != nil && *r.PaymentIntentID == *report.PaymentIntentID {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	cp := *report
	m.reports[report.ID] = &cp
	return nil
}

func (m *mockFMVReportRepo) ListByUser(_ context.Context, userID uint, offset, limit int) ([]model.FMVReport, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []model.FMVReport
	for _, r := range m.reports {
		if r.IsOwnedBy(userID) {
			mine = append(mine, *r)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].ID > mine[j].ID })
	return paginate(mine, offset, limit), int64(len(mine)), nil
}

func (m *mockFMVReportRepo) List(_ context.Context, status model.ReportStatus, offset, limit int) ([]model.FMVReport, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.FMVReport
	for _, r := range m.reports {
		if status == "" || r.Status == status {
			all = append(all, *r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock PaymentEventRepository ──

type mockPaymentEventRepo struct {
	mu     sync.Mutex
	events []model.PaymentEvent
	// reports 用于判断支付意图是否已入账
	reports *mockFMVReportRepo
}

func newMockPaymentEventRepo(reports *mockFMVReportRepo) *mockPaymentEventRepo {
	return &mockPaymentEventRepo{reports: reports}
}

func (m *mockPaymentEventRepo) Create(_ context.Context, event *model.PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = uint(len(m.events) + 1)
	m.events = append(m.events, *event)
	return nil
}

func (m *mockPaymentEventRepo) ListUnmatched(ctx context.Context, offset, limit int) ([]model.PaymentEvent, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []model.PaymentEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]
		if e.Outcome != model.PaymentOutcomeNoDraft {
			continue
		}
		if r, err := m.reports.GetByPaymentIntentForUpdate(ctx, e.PaymentIntentID); err == nil && r.IsPaymentSucceeded() {
			continue
		}
		matched = append(matched, e)
	}
	return paginate(matched, offset, limit), int64(len(matched)), nil
}

func (m *mockPaymentEventRepo) outcomes() []model.PaymentOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PaymentOutcome, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Outcome)
	}
	return out
}
