package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
	cache       Cache
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator, cache Cache, m *metrics.Metrics) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
		cache:       cache,
		metrics:     m,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name     string
	Type     domain.AccountType
	Currency string
}

// CreateAccount creates a new account with a zero opening balance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: account name is required", domain.ErrInvalidCommand)
	}

	if _, err := domain.ParseAccountType(string(input.Type)); err != nil {
		return nil, err
	}

	account, err := domain.NewAccount(uc.idGen.Generate(), input.Name, input.Type, input.Currency)
	if err != nil {
		return nil, err
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	uc.metrics.AccountsCreated.Inc()

	return account, nil
}

// GetAccount retrieves an account by ID through the read cache.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, AccountCacheKey(id)); err == nil {
			var account domain.Account
			if err := json.Unmarshal(cached, &account); err == nil {
				return &account, nil
			}
		}
	}

	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if payload, err := json.Marshal(account); err == nil {
			_ = uc.cache.Set(ctx, AccountCacheKey(id), payload, AccountCacheTTL)
		}
	}

	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.accountRepo.List(ctx, input.Limit, input.Offset)
}
