package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDsForUpdate loads accounts with exclusive row locks for the
	// duration of the unit of work. Callers must pass ids in a deterministic
	// sorted order so concurrent units of work acquire locks in the same
	// relative order.
	GetByIDsForUpdate(ctx context.Context, uow UnitOfWork, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, uow UnitOfWork, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for ledger transactions and
// their postings.
type TransactionRepository interface {
	Create(ctx context.Context, uow UnitOfWork, tx *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
}

// UnitOfWork is the atomic scope for one posting operation: all locked
// reads and writes inside it commit together or not at all.
type UnitOfWork interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkManager starts units of work.
type UnitOfWorkManager interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// Retrier re-runs a unit of work after transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
