//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-course-access/internal/domain"
	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/adapter"
	"telegram-course-access/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// -----------------------------
// Orders
// -----------------------------

type MockOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*model.Order

	CreateFunc            func(ctx context.Context, tx repository.Tx, o *model.Order) error
	FindByAccessTokenFunc func(ctx context.Context, tx repository.Tx, token string) (*model.Order, error)
	BindFunc              func(ctx context.Context, tx repository.Tx, orderID string, tgID int64, username *string, usedAt time.Time) (bool, error)

	FindByTokenCalls int
	BindCalls        int
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{orders: map[string]*model.Order{}}
}

func (m *MockOrderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepo) FindByAccessToken(ctx context.Context, tx repository.Tx, token string) (*model.Order, error) {
	m.mu.Lock()
	m.FindByTokenCalls++
	m.mu.Unlock()
	if m.FindByAccessTokenFunc != nil {
		return m.FindByAccessTokenFunc(ctx, tx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.AccessToken == token {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockOrderRepo) SetProviderPaymentID(ctx context.Context, tx repository.Tx, orderID, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.ProviderPaymentID = &paymentID
	return nil
}

func (m *MockOrderRepo) MarkPaid(ctx context.Context, tx repository.Tx, orderID, providerPaymentID string, paidAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status = model.OrderStatusPaid
	o.ProviderPaymentID = &providerPaymentID
	o.PaidAt = &paidAt
	return true, nil
}

func (m *MockOrderRepo) MarkFailed(ctx context.Context, tx repository.Tx, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = model.OrderStatusFailed
	return nil
}

func (m *MockOrderRepo) BindTelegramUser(ctx context.Context, tx repository.Tx, orderID string, tgID int64, username *string, usedAt time.Time) (bool, error) {
	m.mu.Lock()
	m.BindCalls++
	m.mu.Unlock()
	if m.BindFunc != nil {
		return m.BindFunc(ctx, tx, orderID, tgID, username, usedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if o.TelegramUserID != nil {
		return false, nil
	}
	o.TelegramUserID = &tgID
	if username != nil {
		o.TelegramUsername = username
	}
	o.AccessUsedAt = &usedAt
	return true, nil
}

func (m *MockOrderRepo) ExpirePending(ctx context.Context, tx repository.Tx, createdBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.orders {
		if o.Status == model.OrderStatusPending && o.CreatedAt.Before(createdBefore) {
			o.Status = model.OrderStatusFailed
			n++
		}
	}
	return n, nil
}

// Seed installs an order directly, bypassing Create hooks.
func (m *MockOrderRepo) Seed(o *model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
}

// Get returns the stored order for assertions.
func (m *MockOrderRepo) Get(id string) *model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil
	}
	cp := *o
	return &cp
}

// -----------------------------
// Telegram users
// -----------------------------

type MockTelegramUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.TelegramUser

	UpsertFunc func(ctx context.Context, tx repository.Tx, u *model.TelegramUser) error
}

func NewMockTelegramUserRepo() *MockTelegramUserRepo {
	return &MockTelegramUserRepo{users: map[int64]*model.TelegramUser{}}
}

func (m *MockTelegramUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.TelegramUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockTelegramUserRepo) Upsert(ctx context.Context, tx repository.Tx, u *model.TelegramUser) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.TelegramID] = &cp
	return nil
}

func (m *MockTelegramUserRepo) Get(tgID int64) *model.TelegramUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[tgID]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

// -----------------------------
// Access grants
// -----------------------------

type grantKey struct {
	tgID      int64
	productID string
}

type MockAccessGrantRepo struct {
	mu     sync.Mutex
	grants map[grantKey]*model.AccessGrant

	UpsertFunc  func(ctx context.Context, tx repository.Tx, g *model.AccessGrant) error
	UpsertCalls int
}

func NewMockAccessGrantRepo() *MockAccessGrantRepo {
	return &MockAccessGrantRepo{grants: map[grantKey]*model.AccessGrant{}}
}

func (m *MockAccessGrantRepo) Upsert(ctx context.Context, tx repository.Tx, g *model.AccessGrant) error {
	m.mu.Lock()
	m.UpsertCalls++
	m.mu.Unlock()
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, g)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.grants[grantKey{g.TelegramUserID, g.ProductID}] = &cp
	return nil
}

func (m *MockAccessGrantRepo) FindByUserAndProduct(ctx context.Context, tx repository.Tx, tgID int64, productID string) (*model.AccessGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.grants[grantKey{tgID, productID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

// -----------------------------
// Token attempts
// -----------------------------

type MockTokenAttemptRepo struct {
	mu       sync.Mutex
	attempts []*model.TokenAttempt

	InsertFunc func(ctx context.Context, tx repository.Tx, a *model.TokenAttempt) error
}

func NewMockTokenAttemptRepo() *MockTokenAttemptRepo {
	return &MockTokenAttemptRepo{}
}

func (m *MockTokenAttemptRepo) Insert(ctx context.Context, tx repository.Tx, a *model.TokenAttempt) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.attempts = append(m.attempts, &cp)
	return nil
}

func (m *MockTokenAttemptRepo) CountSince(ctx context.Context, tx repository.Tx, tgID int64, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.attempts {
		if a.TelegramUserID == tgID && !a.AttemptedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *MockTokenAttemptRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.TokenAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.TokenAttempt, 0, limit)
	for i := len(m.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.attempts[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockTokenAttemptRepo) All() []*model.TokenAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.TokenAttempt, len(m.attempts))
	for i, a := range m.attempts {
		cp := *a
		out[i] = &cp
	}
	return out
}

// -----------------------------
// Transaction manager
// -----------------------------

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

// WithTx runs fn directly by default; assign WithTxFunc to observe or fail
// transactional paths.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// -----------------------------
// Payment gateway
// -----------------------------

type MockPaymentGateway struct {
	RequestPaymentFunc     func(ctx context.Context, order *model.Order, description string) (string, string, error)
	VerifyNotificationFunc func(n adapter.Notification) error
}

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) RequestPayment(ctx context.Context, order *model.Order, description string) (string, string, error) {
	if m.RequestPaymentFunc != nil {
		return m.RequestPaymentFunc(ctx, order, description)
	}
	return "pay-" + order.ID, "https://pay.example/" + order.ID, nil
}

func (m *MockPaymentGateway) VerifyNotification(n adapter.Notification) error {
	if m.VerifyNotificationFunc != nil {
		return m.VerifyNotificationFunc(n)
	}
	return nil
}
