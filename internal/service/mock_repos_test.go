package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bonus-wheel/config"
	"bonus-wheel/internal/model"
	"bonus-wheel/internal/repository"
	"bonus-wheel/internal/wheel"
	pkgerrors "bonus-wheel/pkg/errors"
	"bonus-wheel/pkg/redis"
)

// ── Mock PrizeRepository ──

type mockPrizeRepo struct {
	mu      sync.Mutex
	prizes  map[string]*model.Prize
	seq     int
	listErr error
}

func newMockPrizeRepo() *mockPrizeRepo {
	return &mockPrizeRepo{prizes: make(map[string]*model.Prize)}
}

func (m *mockPrizeRepo) Create(_ context.Context, prize *model.Prize) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if prize.PrizeID == "" {
		prize.PrizeID = uuid.NewString()
	}
	prize.CreatedAt = time.Unix(int64(m.seq), 0).UTC()
	prize.UpdatedAt = prize.CreatedAt
	cp := *prize
	m.prizes[prize.PrizeID] = &cp
	return nil
}

func (m *mockPrizeRepo) GetByID(_ context.Context, id string) (*model.Prize, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.prizes[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPrizeRepo) ListActive(ctx context.Context) ([]model.Prize, error) {
	return m.List(ctx, false)
}

func (m *mockPrizeRepo) List(_ context.Context, includeInactive bool) ([]model.Prize, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.Prize
	for _, p := range m.prizes {
		if !includeInactive && !p.IsActive {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DisplayOrder != result[j].DisplayOrder {
			return result[i].DisplayOrder < result[j].DisplayOrder
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockPrizeRepo) Update(_ context.Context, prize *model.Prize) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *prize
	m.prizes[prize.PrizeID] = &cp
	return nil
}

// ── Mock IssuedCodeRepository ──
// 用互斥锁复现数据库的唯一索引与条件更新语义

type mockIssuedCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*model.IssuedCode

	dupOnCreate int // 前 N 次 Create 返回 ErrDuplicateCode
	createErr   error
	existsErr   error
	getErr      error
	markErr     error

	createCalls int
	markCalls   int
}

func newMockIssuedCodeRepo() *mockIssuedCodeRepo {
	return &mockIssuedCodeRepo{codes: make(map[string]*model.IssuedCode)}
}

func (m *mockIssuedCodeRepo) Create(_ context.Context, code *model.IssuedCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	if m.dupOnCreate > 0 {
		m.dupOnCreate--
		return pkgerrors.ErrDuplicateCode
	}
	if _, ok := m.codes[code.Code]; ok {
		return pkgerrors.ErrDuplicateCode
	}
	code.IssuedCodeID = fmt.Sprintf("ic-%d", len(m.codes)+1)
	cp := *code
	m.codes[code.Code] = &cp
	return nil
}

func (m *mockIssuedCodeRepo) Exists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.codes[code]
	return ok, nil
}

func (m *mockIssuedCodeRepo) GetByCode(_ context.Context, code string) (*model.IssuedCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if c, ok := m.codes[code]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockIssuedCodeRepo) MarkUsed(_ context.Context, code, redeemedBy string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls++
	if m.markErr != nil {
		return false, m.markErr
	}
	c, ok := m.codes[code]
	if !ok || c.Used {
		return false, nil
	}
	c.Used = true
	c.UsedAt = &at
	c.RedeemedBy = &redeemedBy
	return true, nil
}

func (m *mockIssuedCodeRepo) List(_ context.Context, filter repository.IssuedCodeFilter) ([]model.IssuedCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.IssuedCode
	for _, c := range m.codes {
		if filter.PrizeID != "" && c.PrizeID != filter.PrizeID {
			continue
		}
		if filter.Used != nil && c.Used != *filter.Used {
			continue
		}
		if filter.From != nil && c.IssuedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !c.IssuedAt.Before(*filter.To) {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *mockIssuedCodeRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codes)
}

// ── Mock Cache ──

type mockCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (m *mockCache) GetJSON(_ context.Context, key string, dst interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	data, ok := m.entries[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(data, dst)
}

func (m *mockCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	return nil
}

func (m *mockCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// ── Mock Notifier ──

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (m *mockNotifier) SendText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	return m.err
}

func (m *mockNotifier) sent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Wheel: config.WheelConfig{
			CodeLength:       16,
			CodeAlphabet:     "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz",
			MaxCodeAttempts:  10,
			MaxIssueAttempts: 3,
			SegmentsCacheTTL: time.Minute,
		},
		Claim: config.ClaimConfig{
			Scheme:  "https",
			BotHost: "t.me",
			BotName: "bonus_wheel_bot",
			Param:   "start",
		},
	}
}

type testEnv struct {
	prizes   *mockPrizeRepo
	codes    *mockIssuedCodeRepo
	cache    *mockCache
	notifier *mockNotifier
	repo     *repository.Repository
	wheel    WheelService
	prize    PrizeService
}

// newTestEnv 创建测试环境；selector 为 nil 时使用 crypto/rand
func newTestEnv(selector *wheel.Selector) *testEnv {
	if selector == nil {
		selector = wheel.NewSelector()
	}
	env := &testEnv{
		prizes:   newMockPrizeRepo(),
		codes:    newMockIssuedCodeRepo(),
		cache:    newMockCache(),
		notifier: &mockNotifier{},
	}
	env.repo = &repository.Repository{Prize: env.prizes, IssuedCode: env.codes}
	logger := zap.NewNop()
	env.wheel = NewWheelService(testConfig(), env.repo, selector, env.cache, env.notifier, logger)
	env.prize = NewPrizeService(env.repo, env.cache, logger)
	return env
}
