package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
)

// SystemAccounts holds the well-known account ids the service uses as
// counter-parties for funding and fee collection. They come from
// configuration, not hardcoded constants, and are provisioned at startup.
type SystemAccounts struct {
	GenesisAccountID string
	RevenueAccountID string
	Currency         string
}

// LedgerUseCase orchestrates the posting of balanced transactions across
// multiple accounts under a single unit of work.
type LedgerUseCase struct {
	uowManager  UnitOfWorkManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	idGen       IDGenerator
	retrier     Retrier
	cache       Cache
	metrics     *metrics.Metrics
	feeRate     decimal.Decimal
	system      SystemAccounts
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	uowManager UnitOfWorkManager,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	idGen IDGenerator,
	retrier Retrier,
	cache Cache,
	m *metrics.Metrics,
	feeRate decimal.Decimal,
	system SystemAccounts,
) *LedgerUseCase {
	return &LedgerUseCase{
		uowManager:  uowManager,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		idGen:       idGen,
		retrier:     retrier,
		cache:       cache,
		metrics:     m,
		feeRate:     feeRate,
		system:      system,
	}
}

// PostingInput is one requested line item of a transaction.
type PostingInput struct {
	AccountID string
	Amount    decimal.Decimal
	Currency  string
	Direction domain.Direction
}

// PostTransactionInput represents input for posting a transaction.
type PostTransactionInput struct {
	Description string
	Postings    []PostingInput
}

// PostTransaction validates and applies a balanced set of postings across
// the referenced accounts as one atomic unit of work. Accounts are locked
// in ascending id order regardless of request order, so overlapping
// concurrent operations cannot deadlock.
func (uc *LedgerUseCase) PostTransaction(ctx context.Context, input PostTransactionInput) (*domain.Transaction, error) {
	tx, err := uc.buildTransaction(input)
	if err != nil {
		uc.metrics.PostingErrors.WithLabelValues(errorKind(err)).Inc()
		return nil, err
	}

	if err := uc.postValidated(ctx, tx); err != nil {
		uc.metrics.PostingErrors.WithLabelValues(errorKind(err)).Inc()
		return nil, err
	}

	uc.metrics.TransactionsPosted.Inc()

	return tx, nil
}

// TransferFundsInput represents input for a transfer between two accounts.
type TransferFundsInput struct {
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	Currency             string
	Description          string
	// FeeAccountID, when set, makes the transfer collect a fee into that
	// account as a third leg.
	FeeAccountID string
}

// TransferFunds builds a synthetic balanced transaction and runs it through
// the same posting pipeline as PostTransaction.
//
// Without a fee account the transaction is two legs: CREDIT source, DEBIT
// destination, both for the full amount. With a fee account the fee is
// computed from the configured rate, rounded half-up to the currency's
// minor-unit scale, and the destination leg becomes amount-fee, so the
// three legs sum to zero by construction.
func (uc *LedgerUseCase) TransferFunds(ctx context.Context, input TransferFundsInput) (*domain.Transaction, error) {
	if strings.TrimSpace(input.SourceAccountID) == "" || strings.TrimSpace(input.DestinationAccountID) == "" {
		return nil, fmt.Errorf("%w: source and destination account ids are required", domain.ErrInvalidCommand)
	}

	if input.SourceAccountID == input.DestinationAccountID {
		return nil, fmt.Errorf("%w: source and destination must differ", domain.ErrInvalidCommand)
	}

	postings := []PostingInput{
		{AccountID: input.SourceAccountID, Amount: input.Amount, Currency: input.Currency, Direction: domain.Credit},
	}

	if input.FeeAccountID == "" {
		postings = append(postings, PostingInput{
			AccountID: input.DestinationAccountID, Amount: input.Amount, Currency: input.Currency, Direction: domain.Debit,
		})
	} else {
		fee, net, err := uc.splitFee(input.Amount, input.Currency)
		if err != nil {
			return nil, err
		}

		postings = append(postings, PostingInput{
			AccountID: input.DestinationAccountID, Amount: net, Currency: input.Currency, Direction: domain.Debit,
		})

		if !fee.IsZero() {
			postings = append(postings, PostingInput{
				AccountID: input.FeeAccountID, Amount: fee, Currency: input.Currency, Direction: domain.Debit,
			})
		}
	}

	tx, err := uc.PostTransaction(ctx, PostTransactionInput{
		Description: input.Description,
		Postings:    postings,
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.TransfersCreated.Inc()

	return tx, nil
}

// DepositInput represents input for funding an account from the Genesis
// account.
type DepositInput struct {
	AccountID   string
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// Deposit credits the Genesis system account and debits the target account,
// moving new funds into the ledger as a balanced two-leg transaction.
func (uc *LedgerUseCase) Deposit(ctx context.Context, input DepositInput) (*domain.Transaction, error) {
	if strings.TrimSpace(input.AccountID) == "" {
		return nil, fmt.Errorf("%w: account id is required", domain.ErrInvalidCommand)
	}

	if input.AccountID == uc.system.GenesisAccountID {
		return nil, fmt.Errorf("%w: cannot deposit into the genesis account", domain.ErrInvalidCommand)
	}

	tx, err := uc.PostTransaction(ctx, PostTransactionInput{
		Description: input.Description,
		Postings: []PostingInput{
			{AccountID: uc.system.GenesisAccountID, Amount: input.Amount, Currency: input.Currency, Direction: domain.Credit},
			{AccountID: input.AccountID, Amount: input.Amount, Currency: input.Currency, Direction: domain.Debit},
		},
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.DepositsCreated.Inc()

	return tx, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txRepo.GetByID(ctx, id)
}

// ListTransactionsByAccountInput represents input for listing transactions.
type ListTransactionsByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListTransactionsByAccount lists transactions touching an account.
func (uc *LedgerUseCase) ListTransactionsByAccount(ctx context.Context, input ListTransactionsByAccountInput) ([]*domain.Transaction, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.txRepo.ListByAccount(ctx, input.AccountID, input.Limit, input.Offset)
}

// buildTransaction performs the structural validation and the domain-level
// invariant checks before any I/O happens.
func (uc *LedgerUseCase) buildTransaction(input PostTransactionInput) (*domain.Transaction, error) {
	for i, p := range input.Postings {
		if strings.TrimSpace(p.AccountID) == "" {
			return nil, fmt.Errorf("%w: posting %d has no account id", domain.ErrInvalidCommand, i)
		}

		if !p.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: posting %d amount must be positive, got %s", domain.ErrInvalidCommand, i, p.Amount)
		}

		if strings.TrimSpace(p.Currency) == "" {
			return nil, fmt.Errorf("%w: posting %d has no currency", domain.ErrInvalidCommand, i)
		}

		if p.Direction != domain.Debit && p.Direction != domain.Credit {
			return nil, fmt.Errorf("%w: posting %d direction %q", domain.ErrInvalidCommand, i, p.Direction)
		}
	}

	tx := domain.NewTransaction(uc.idGen.Generate(), input.Description)

	for _, p := range input.Postings {
		amount, err := domain.NewMoney(p.Amount, p.Currency)
		if err != nil {
			return nil, err
		}

		if err := tx.AddPosting(domain.Posting{
			AccountID: p.AccountID,
			Amount:    amount,
			Direction: p.Direction,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}

	return tx, nil
}

// postValidated runs the unit of work for an already validated transaction:
// lock accounts in sorted order, apply each posting, persist everything
// together. The retrier re-runs the whole unit on transient storage
// conflicts; each attempt reloads account state under fresh locks.
func (uc *LedgerUseCase) postValidated(ctx context.Context, tx *domain.Transaction) error {
	ids := tx.AccountIDs()
	sort.Strings(ids)

	start := time.Now()
	defer func() {
		uc.metrics.PostingDuration.Observe(time.Since(start).Seconds())
	}()

	err := uc.retrier.Retry(ctx, func() error {
		return uc.runUnitOfWork(ctx, tx, ids)
	})
	if err != nil {
		return err
	}

	uc.invalidateAccounts(ctx, ids)

	return nil
}

func (uc *LedgerUseCase) runUnitOfWork(ctx context.Context, tx *domain.Transaction, ids []string) error {
	uow, err := uc.uowManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback(ctx)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, uow, ids)
	if err != nil {
		return err
	}

	if len(accounts) != len(ids) {
		return domain.ErrAccountNotFound
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountMap[a.ID] = a
	}

	for _, p := range tx.Postings {
		account := accountMap[p.AccountID]
		if account == nil {
			return domain.ErrAccountNotFound
		}

		if _, err := account.ApplyPosting(p); err != nil {
			return err
		}
	}

	now := time.Now().UTC()

	for _, id := range ids {
		if err := uc.accountRepo.UpdateBalance(ctx, uow, id, accountMap[id].Balance.Amount, now); err != nil {
			return err
		}
	}

	if err := uc.txRepo.Create(ctx, uow, tx); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// splitFee computes (fee, amount-fee) for the configured rate, rounding the
// fee half-up to the currency's minor-unit scale. Rounding only ever moves
// value between the fee and destination legs, never out of the triple, so
// the zero-sum invariant holds by construction.
func (uc *LedgerUseCase) splitFee(amount decimal.Decimal, currency string) (fee, net decimal.Decimal, err error) {
	scale, err := domain.CurrencyScale(currency)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	fee = amount.Mul(uc.feeRate).Round(scale)
	net = amount.Sub(fee)

	if !net.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf(
			"%w: amount %s does not cover the transfer fee %s", domain.ErrInvalidCommand, amount, fee)
	}

	return fee, net, nil
}

func (uc *LedgerUseCase) invalidateAccounts(ctx context.Context, ids []string) {
	if uc.cache == nil {
		return
	}

	for _, id := range ids {
		// Best effort: a stale cache entry expires on its own TTL.
		_ = uc.cache.Delete(ctx, AccountCacheKey(id))
	}
}

// AccountCacheKey is the cache key for one account's cached representation.
func AccountCacheKey(id string) string {
	return "account:" + id
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCommand):
		return "invalid_command"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInvalidCurrency):
		return "invalid_currency"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, domain.ErrEmptyTransaction):
		return "empty_transaction"
	case errors.Is(err, domain.ErrUnbalancedTransaction):
		return "unbalanced_transaction"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	default:
		return "internal"
	}
}
