// Package mocks provides hand-rolled in-memory test doubles for the
// usecase interfaces. MockLedgerStore emulates the storage gateway's
// exclusive row locks so concurrency behavior is observable in tests.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// MockLedgerStore is an in-memory account/transaction store shared by the
// mock repositories. Locked loads block on per-account mutexes that are
// held until the unit of work commits or rolls back, mirroring
// SELECT ... FOR UPDATE semantics.
type MockLedgerStore struct {
	mu           sync.Mutex
	accounts     map[string]*domain.Account
	transactions map[string]*domain.Transaction
	rowLocks     map[string]*sync.Mutex
}

// NewMockLedgerStore creates an empty store.
func NewMockLedgerStore() *MockLedgerStore {
	return &MockLedgerStore{
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
		rowLocks:     make(map[string]*sync.Mutex),
	}
}

// Put inserts or replaces an account directly, bypassing locks. Test setup
// helper.
func (s *MockLedgerStore) Put(account *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[account.ID] = copyAccount(account)
}

// Account returns a copy of the committed account state.
func (s *MockLedgerStore) Account(id string) (*domain.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, false
	}

	return copyAccount(a), true
}

// Transactions returns the number of committed transactions.
func (s *MockLedgerStore) Transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.transactions)
}

func (s *MockLedgerStore) rowLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}

	return l
}

func copyAccount(a *domain.Account) *domain.Account {
	clone := *a
	return &clone
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	clone := *t
	clone.Postings = append([]domain.Posting(nil), t.Postings...)

	return &clone
}

// MockUnitOfWork stages writes against a MockLedgerStore and applies them
// on Commit, releasing every held row lock on either exit path.
type MockUnitOfWork struct {
	store *MockLedgerStore

	mu              sync.Mutex
	locked          []string
	pendingBalances map[string]decimal.Decimal
	pendingTxs      []*domain.Transaction
	finished        bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func newMockUnitOfWork(store *MockLedgerStore) *MockUnitOfWork {
	return &MockUnitOfWork{
		store:           store,
		pendingBalances: make(map[string]decimal.Decimal),
	}
}

// Commit applies the staged writes and releases all row locks.
func (u *MockUnitOfWork) Commit(ctx context.Context) error {
	if u.CommitFunc != nil {
		return u.CommitFunc(ctx)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finished {
		return nil
	}

	u.store.mu.Lock()
	for id, balance := range u.pendingBalances {
		if a, ok := u.store.accounts[id]; ok {
			a.Balance = domain.Money{Amount: balance, Currency: a.Currency}
			a.UpdatedAt = time.Now().UTC()
		}
	}

	for _, tx := range u.pendingTxs {
		u.store.transactions[tx.ID] = copyTransaction(tx)
	}
	u.store.mu.Unlock()

	u.release()

	return nil
}

// Rollback discards staged writes and releases all row locks. Safe to call
// after Commit.
func (u *MockUnitOfWork) Rollback(ctx context.Context) error {
	if u.RollbackFunc != nil {
		return u.RollbackFunc(ctx)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finished {
		return nil
	}

	u.release()

	return nil
}

func (u *MockUnitOfWork) release() {
	for _, id := range u.locked {
		u.store.rowLock(id).Unlock()
	}

	u.locked = nil
	u.finished = true
}

func (u *MockUnitOfWork) hold(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.locked = append(u.locked, id)
}

func (u *MockUnitOfWork) stageBalance(id string, balance decimal.Decimal) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.pendingBalances[id] = balance
}

func (u *MockUnitOfWork) stageTransaction(tx *domain.Transaction) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.pendingTxs = append(u.pendingTxs, tx)
}

// MockUnitOfWorkManager implements usecase.UnitOfWorkManager.
type MockUnitOfWorkManager struct {
	Store *MockLedgerStore

	BeginFunc func(ctx context.Context) (usecase.UnitOfWork, error)
}

// NewMockUnitOfWorkManager creates a manager over the given store.
func NewMockUnitOfWorkManager(store *MockLedgerStore) *MockUnitOfWorkManager {
	return &MockUnitOfWorkManager{Store: store}
}

// Begin starts a unit of work.
func (m *MockUnitOfWorkManager) Begin(ctx context.Context) (usecase.UnitOfWork, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}

	return newMockUnitOfWork(m.Store), nil
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	Store *MockLedgerStore

	CreateFunc            func(ctx context.Context, account *domain.Account) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, uow usecase.UnitOfWork, ids []string) ([]*domain.Account, error)
	UpdateBalanceFunc     func(ctx context.Context, uow usecase.UnitOfWork, id string, balance decimal.Decimal, updatedAt time.Time) error
	ListFunc              func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// NewMockAccountRepository creates a repository over the given store.
func NewMockAccountRepository(store *MockLedgerStore) *MockAccountRepository {
	return &MockAccountRepository{Store: store}
}

func (r *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, account)
	}

	r.Store.Put(account)

	return nil
}

func (r *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if r.GetByIDFunc != nil {
		return r.GetByIDFunc(ctx, id)
	}

	a, ok := r.Store.Account(id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return a, nil
}

// GetByIDsForUpdate acquires the row lock for each id in the given order,
// blocking like a real FOR UPDATE, then returns copies of the rows that
// exist. Missing ids are simply absent from the result.
func (r *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, uow usecase.UnitOfWork, ids []string) ([]*domain.Account, error) {
	if r.GetByIDsForUpdateFunc != nil {
		return r.GetByIDsForUpdateFunc(ctx, uow, ids)
	}

	mockUow := uow.(*MockUnitOfWork)

	accounts := make([]*domain.Account, 0, len(ids))

	for _, id := range ids {
		r.Store.rowLock(id).Lock()
		mockUow.hold(id)

		if a, ok := r.Store.Account(id); ok {
			accounts = append(accounts, a)
		}
	}

	return accounts, nil
}

func (r *MockAccountRepository) UpdateBalance(ctx context.Context, uow usecase.UnitOfWork, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if r.UpdateBalanceFunc != nil {
		return r.UpdateBalanceFunc(ctx, uow, id, balance, updatedAt)
	}

	uow.(*MockUnitOfWork).stageBalance(id, balance)

	return nil
}

func (r *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if r.ListFunc != nil {
		return r.ListFunc(ctx, limit, offset)
	}

	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	accounts := make([]*domain.Account, 0, len(r.Store.accounts))
	for _, a := range r.Store.accounts {
		accounts = append(accounts, copyAccount(a))
	}

	return accounts, nil
}

// MockTransactionRepository is a mock implementation of
// TransactionRepository.
type MockTransactionRepository struct {
	Store *MockLedgerStore

	CreateFunc        func(ctx context.Context, uow usecase.UnitOfWork, tx *domain.Transaction) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.Transaction, error)
	ListByAccountFunc func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
}

// NewMockTransactionRepository creates a repository over the given store.
func NewMockTransactionRepository(store *MockLedgerStore) *MockTransactionRepository {
	return &MockTransactionRepository{Store: store}
}

func (r *MockTransactionRepository) Create(ctx context.Context, uow usecase.UnitOfWork, tx *domain.Transaction) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, uow, tx)
	}

	uow.(*MockUnitOfWork).stageTransaction(tx)

	return nil
}

func (r *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if r.GetByIDFunc != nil {
		return r.GetByIDFunc(ctx, id)
	}

	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	tx, ok := r.Store.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	return copyTransaction(tx), nil
}

func (r *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	if r.ListByAccountFunc != nil {
		return r.ListByAccountFunc(ctx, accountID, limit, offset)
	}

	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	var txs []*domain.Transaction
	for _, tx := range r.Store.transactions {
		for _, p := range tx.Postings {
			if p.AccountID == accountID {
				txs = append(txs, copyTransaction(tx))
				break
			}
		}
	}

	return txs, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	counter atomic.Int64

	GenerateFunc func() string
}

// NewMockIDGenerator creates a generator producing "id-1", "id-2", ...
func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (g *MockIDGenerator) Generate() string {
	if g.GenerateFunc != nil {
		return g.GenerateFunc()
	}

	return fmt.Sprintf("id-%d", g.counter.Add(1))
}

// MockRetrier is a pass-through Retrier.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

// NewMockRetrier creates a retrier that runs the operation exactly once.
func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (r *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if r.RetryFunc != nil {
		return r.RetryFunc(ctx, operation)
	}

	return operation()
}

// MockCache is a map-backed Cache.
type MockCache struct {
	mu      sync.Mutex
	entries map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

// NewMockCache creates an empty cache.
func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string][]byte)}
}

func (c *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	if !ok {
		return nil, fmt.Errorf("cache miss: %s", key)
	}

	return v, nil
}

func (c *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.SetFunc != nil {
		return c.SetFunc(ctx, key, value, ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value

	return nil
}

func (c *MockCache) Delete(ctx context.Context, key string) error {
	if c.DeleteFunc != nil {
		return c.DeleteFunc(ctx, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// Has reports whether a key is cached. Test helper.
func (c *MockCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]

	return ok
}

// MockIdempotencyStore is a map-backed IdempotencyStore.
type MockIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// NewMockIdempotencyStore creates an empty store.
func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{entries: make(map[string][]byte)}
}

func (s *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if s.CheckAndSetFunc != nil {
		return s.CheckAndSetFunc(ctx, key, response, ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		return true, existing, nil
	}

	if response != nil {
		s.entries[key] = response
	} else {
		s.entries[key] = []byte("processing")
	}

	return false, nil, nil
}

func (s *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if s.UpdateFunc != nil {
		return s.UpdateFunc(ctx, key, response, ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = response

	return nil
}
