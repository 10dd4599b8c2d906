package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
	"github.com/iho/ledgercore/internal/usecase"
	"github.com/iho/ledgercore/internal/usecase/mocks"
)

const (
	genesisID = "sys-genesis"
	revenueID = "sys-revenue"
)

type ledgerFixture struct {
	store *mocks.MockLedgerStore
	cache *mocks.MockCache
	uc    *usecase.LedgerUseCase
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	store := mocks.NewMockLedgerStore()
	cache := mocks.NewMockCache()

	uc := usecase.NewLedgerUseCase(
		mocks.NewMockUnitOfWorkManager(store),
		mocks.NewMockAccountRepository(store),
		mocks.NewMockTransactionRepository(store),
		mocks.NewMockIDGenerator(),
		mocks.NewMockRetrier(),
		cache,
		metrics.New(prometheus.NewRegistry()),
		decimal.RequireFromString("0.10"),
		usecase.SystemAccounts{
			GenesisAccountID: genesisID,
			RevenueAccountID: revenueID,
			Currency:         "USD",
		},
	)

	return &ledgerFixture{store: store, cache: cache, uc: uc}
}

func (f *ledgerFixture) addAccount(t *testing.T, id, name string, typ domain.AccountType, currency string) {
	t.Helper()

	account, err := domain.NewAccount(id, name, typ, currency)
	if err != nil {
		t.Fatalf("NewAccount(%s): %v", id, err)
	}

	f.store.Put(account)
}

func (f *ledgerFixture) addStandardAccounts(t *testing.T) {
	t.Helper()

	f.addAccount(t, genesisID, "Genesis", domain.AccountTypeEquity, "USD")
	f.addAccount(t, revenueID, "Company Revenue", domain.AccountTypeAsset, "USD")
	f.addAccount(t, "alice", "Alice", domain.AccountTypeAsset, "USD")
	f.addAccount(t, "bob", "Bob", domain.AccountTypeAsset, "USD")
}

func (f *ledgerFixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()

	account, ok := f.store.Account(id)
	if !ok {
		t.Fatalf("account %s not in store", id)
	}

	return account.Balance.Amount
}

func (f *ledgerFixture) fundAlice(t *testing.T, amount string) {
	t.Helper()

	_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
		Description: "Fund Alice",
		Postings: []usecase.PostingInput{
			{AccountID: genesisID, Amount: decimal.RequireFromString(amount), Currency: "USD", Direction: domain.Credit},
			{AccountID: "alice", Amount: decimal.RequireFromString(amount), Currency: "USD", Direction: domain.Debit},
		},
	})
	if err != nil {
		t.Fatalf("funding failed: %v", err)
	}
}

func TestLedgerUseCase_PostTransactionSuccess(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)

	tx, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
		Description: "Deposit to Alice",
		Postings: []usecase.PostingInput{
			{AccountID: genesisID, Amount: decimal.RequireFromString("100.00"), Currency: "USD", Direction: domain.Credit},
			{AccountID: "alice", Amount: decimal.RequireFromString("100.00"), Currency: "USD", Direction: domain.Debit},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tx.ID == "" || tx.Status != domain.StatusValid {
		t.Errorf("expected validated transaction with id, got %+v", tx)
	}

	if got := f.balance(t, "alice"); !got.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("alice balance = %s, want 100.00", got)
	}

	if got := f.balance(t, genesisID); !got.Equal(decimal.RequireFromString("-100.00")) {
		t.Errorf("genesis balance = %s, want -100.00", got)
	}

	// Conservation: the account deltas sum to zero.
	sum := f.balance(t, "alice").Add(f.balance(t, genesisID))
	if !sum.IsZero() {
		t.Errorf("balance deltas must conserve, sum = %s", sum)
	}

	stored, err := f.uc.GetTransaction(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}

	if len(stored.Postings) != 2 {
		t.Errorf("expected 2 persisted postings, got %d", len(stored.Postings))
	}
}

func TestLedgerUseCase_PostTransactionValidation(t *testing.T) {
	amount := decimal.RequireFromString("10.00")

	tests := []struct {
		name      string
		input     usecase.PostTransactionInput
		errorType error
	}{
		{
			name:      "empty postings",
			input:     usecase.PostTransactionInput{Description: "empty"},
			errorType: domain.ErrEmptyTransaction,
		},
		{
			name: "blank account id",
			input: usecase.PostTransactionInput{
				Postings: []usecase.PostingInput{
					{AccountID: "  ", Amount: amount, Currency: "USD", Direction: domain.Debit},
				},
			},
			errorType: domain.ErrInvalidCommand,
		},
		{
			name: "non-positive amount",
			input: usecase.PostTransactionInput{
				Postings: []usecase.PostingInput{
					{AccountID: "alice", Amount: decimal.Zero, Currency: "USD", Direction: domain.Debit},
				},
			},
			errorType: domain.ErrInvalidCommand,
		},
		{
			name: "blank currency",
			input: usecase.PostTransactionInput{
				Postings: []usecase.PostingInput{
					{AccountID: "alice", Amount: amount, Currency: "", Direction: domain.Debit},
				},
			},
			errorType: domain.ErrInvalidCommand,
		},
		{
			name: "unknown direction",
			input: usecase.PostTransactionInput{
				Postings: []usecase.PostingInput{
					{AccountID: "alice", Amount: amount, Currency: "USD", Direction: "SIDEWAYS"},
				},
			},
			errorType: domain.ErrInvalidCommand,
		},
		{
			name: "over-scaled amount",
			input: usecase.PostTransactionInput{
				Postings: []usecase.PostingInput{
					{AccountID: "alice", Amount: decimal.RequireFromString("10.005"), Currency: "USD", Direction: domain.Debit},
					{AccountID: "bob", Amount: decimal.RequireFromString("10.005"), Currency: "USD", Direction: domain.Credit},
				},
			},
			errorType: domain.ErrInvalidAmount,
		},
		{
			name: "mixed currencies rejected fail-fast",
			input: usecase.PostTransactionInput{
				Postings: []usecase.PostingInput{
					{AccountID: "alice", Amount: amount, Currency: "USD", Direction: domain.Debit},
					{AccountID: "bob", Amount: amount, Currency: "EUR", Direction: domain.Credit},
				},
			},
			errorType: domain.ErrCurrencyMismatch,
		},
		{
			name: "unbalanced",
			input: usecase.PostTransactionInput{
				Postings: []usecase.PostingInput{
					{AccountID: "alice", Amount: decimal.RequireFromString("100.00"), Currency: "USD", Direction: domain.Debit},
					{AccountID: "bob", Amount: decimal.RequireFromString("50.00"), Currency: "USD", Direction: domain.Credit},
				},
			},
			errorType: domain.ErrUnbalancedTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			f.addStandardAccounts(t)

			// Any of these failures must happen before a unit of work starts.
			manager := mocks.NewMockUnitOfWorkManager(f.store)
			manager.BeginFunc = func(ctx context.Context) (usecase.UnitOfWork, error) {
				t.Fatal("unit of work must not begin for invalid input")
				return nil, nil
			}

			uc := usecase.NewLedgerUseCase(
				manager,
				mocks.NewMockAccountRepository(f.store),
				mocks.NewMockTransactionRepository(f.store),
				mocks.NewMockIDGenerator(),
				mocks.NewMockRetrier(),
				f.cache,
				metrics.New(prometheus.NewRegistry()),
				decimal.RequireFromString("0.10"),
				usecase.SystemAccounts{GenesisAccountID: genesisID, RevenueAccountID: revenueID, Currency: "USD"},
			)

			_, err := uc.PostTransaction(context.Background(), tt.input)
			if !errors.Is(err, tt.errorType) {
				t.Fatalf("expected %v, got %v", tt.errorType, err)
			}

			if f.store.Transactions() != 0 {
				t.Error("no transaction may be persisted on failure")
			}
		})
	}
}

func TestLedgerUseCase_AccountNotFoundAbortsWholeUnit(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)
	f.fundAlice(t, "100.00")

	_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
		Description: "to nowhere",
		Postings: []usecase.PostingInput{
			{AccountID: "alice", Amount: decimal.RequireFromString("10.00"), Currency: "USD", Direction: domain.Credit},
			{AccountID: "ghost", Amount: decimal.RequireFromString("10.00"), Currency: "USD", Direction: domain.Debit},
		},
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	// The existing account in the same request is untouched.
	if got := f.balance(t, "alice"); !got.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("alice balance mutated by aborted unit: %s", got)
	}

	if f.store.Transactions() != 1 {
		t.Errorf("aborted unit must not persist a transaction, have %d", f.store.Transactions())
	}
}

func TestLedgerUseCase_AccountCurrencyMismatchAborts(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)
	f.addAccount(t, "claire", "Claire", domain.AccountTypeAsset, "EUR")
	f.fundAlice(t, "100.00")

	// Balanced USD transaction, but claire's account holds EUR.
	_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
		Description: "cross-currency",
		Postings: []usecase.PostingInput{
			{AccountID: "alice", Amount: decimal.RequireFromString("10.00"), Currency: "USD", Direction: domain.Credit},
			{AccountID: "claire", Amount: decimal.RequireFromString("10.00"), Currency: "USD", Direction: domain.Debit},
		},
	})
	if !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}

	if got := f.balance(t, "alice"); !got.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("alice balance mutated by aborted unit: %s", got)
	}

	if got := f.balance(t, "claire"); !got.IsZero() {
		t.Errorf("claire balance mutated by aborted unit: %s", got)
	}
}

func TestLedgerUseCase_TransferWithoutFee(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)
	f.fundAlice(t, "100.00")

	tx, err := f.uc.TransferFunds(context.Background(), usecase.TransferFundsInput{
		SourceAccountID:      "alice",
		DestinationAccountID: "bob",
		Amount:               decimal.RequireFromString("40.00"),
		Currency:             "USD",
		Description:          "rent share",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tx.Postings) != 2 {
		t.Errorf("expected 2 postings, got %d", len(tx.Postings))
	}

	if got := f.balance(t, "alice"); !got.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("alice balance = %s, want 60.00", got)
	}

	if got := f.balance(t, "bob"); !got.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("bob balance = %s, want 40.00", got)
	}
}

func TestLedgerUseCase_TransferWithFee(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)
	f.fundAlice(t, "100.00")

	// First a plain 40.00 transfer, then a 50.00 transfer with a 10% fee:
	// alice 100 - 40 - 50 = 10, bob 40 + 45 = 85, revenue 5.
	if _, err := f.uc.TransferFunds(context.Background(), usecase.TransferFundsInput{
		SourceAccountID:      "alice",
		DestinationAccountID: "bob",
		Amount:               decimal.RequireFromString("40.00"),
		Currency:             "USD",
		Description:          "plain",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx, err := f.uc.TransferFunds(context.Background(), usecase.TransferFundsInput{
		SourceAccountID:      "alice",
		DestinationAccountID: "bob",
		Amount:               decimal.RequireFromString("50.00"),
		Currency:             "USD",
		Description:          "with fee",
		FeeAccountID:         revenueID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tx.Postings) != 3 {
		t.Errorf("expected 3 postings, got %d", len(tx.Postings))
	}

	sum := decimal.Zero
	for _, p := range tx.Postings {
		sum = sum.Add(p.Signed())
	}
	if !sum.IsZero() {
		t.Errorf("fee transaction must sum to zero, got %s", sum)
	}

	if got := f.balance(t, "alice"); !got.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("alice balance = %s, want 10.00", got)
	}

	if got := f.balance(t, "bob"); !got.Equal(decimal.RequireFromString("85.00")) {
		t.Errorf("bob balance = %s, want 85.00", got)
	}

	if got := f.balance(t, revenueID); !got.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("revenue balance = %s, want 5.00", got)
	}
}

func TestLedgerUseCase_TransferFeeRounding(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)
	f.fundAlice(t, "100.00")

	// 10% of 0.25 is 0.025; the fee rounds half-up to 0.03 and the
	// destination leg absorbs the difference: -0.25 + 0.22 + 0.03 = 0.
	tx, err := f.uc.TransferFunds(context.Background(), usecase.TransferFundsInput{
		SourceAccountID:      "alice",
		DestinationAccountID: "bob",
		Amount:               decimal.RequireFromString("0.25"),
		Currency:             "USD",
		Description:          "rounded fee",
		FeeAccountID:         revenueID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := decimal.Zero
	for _, p := range tx.Postings {
		sum = sum.Add(p.Signed())
	}
	if !sum.IsZero() {
		t.Fatalf("rounding broke the zero-sum invariant: %s", sum)
	}

	if got := f.balance(t, "bob"); !got.Equal(decimal.RequireFromString("0.22")) {
		t.Errorf("bob balance = %s, want 0.22", got)
	}

	if got := f.balance(t, revenueID); !got.Equal(decimal.RequireFromString("0.03")) {
		t.Errorf("revenue balance = %s, want 0.03", got)
	}
}

func TestLedgerUseCase_TransferValidation(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)

	tests := []struct {
		name  string
		input usecase.TransferFundsInput
	}{
		{
			name: "same account",
			input: usecase.TransferFundsInput{
				SourceAccountID:      "alice",
				DestinationAccountID: "alice",
				Amount:               decimal.RequireFromString("10.00"),
				Currency:             "USD",
			},
		},
		{
			name: "missing source",
			input: usecase.TransferFundsInput{
				DestinationAccountID: "bob",
				Amount:               decimal.RequireFromString("10.00"),
				Currency:             "USD",
			},
		},
		{
			name: "fee swallows the whole amount",
			input: usecase.TransferFundsInput{
				SourceAccountID:      "alice",
				DestinationAccountID: "bob",
				Amount:               decimal.RequireFromString("0.01"),
				Currency:             "USD",
				FeeAccountID:         revenueID,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.TransferFunds(context.Background(), tt.input)
			if !errors.Is(err, domain.ErrInvalidCommand) {
				t.Fatalf("expected ErrInvalidCommand, got %v", err)
			}
		})
	}
}

func TestLedgerUseCase_Deposit(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)

	tx, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
		AccountID:   "alice",
		Amount:      decimal.RequireFromString("25.00"),
		Currency:    "USD",
		Description: "initial funding",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tx.Postings) != 2 {
		t.Errorf("expected 2 postings, got %d", len(tx.Postings))
	}

	if got := f.balance(t, "alice"); !got.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("alice balance = %s, want 25.00", got)
	}

	if got := f.balance(t, genesisID); !got.Equal(decimal.RequireFromString("-25.00")) {
		t.Errorf("genesis balance = %s, want -25.00", got)
	}
}

func TestLedgerUseCase_DepositIntoGenesisRejected(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)

	_, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
		AccountID: genesisID,
		Amount:    decimal.RequireFromString("25.00"),
		Currency:  "USD",
	})
	if !errors.Is(err, domain.ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}
}

func TestLedgerUseCase_CacheInvalidationOnPosting(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)

	f.cache.Set(context.Background(), usecase.AccountCacheKey("alice"), []byte("stale"), 0)

	f.fundAlice(t, "10.00")

	if f.cache.Has(usecase.AccountCacheKey("alice")) {
		t.Error("posting must invalidate the cached account")
	}
}

func TestLedgerUseCase_ConcurrentDisjointTransfers(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)
	f.addAccount(t, "carol", "Carol", domain.AccountTypeAsset, "USD")
	f.addAccount(t, "dave", "Dave", domain.AccountTypeAsset, "USD")

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	transfer := func(src, dst string) {
		defer wg.Done()

		_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
			Description: "disjoint",
			Postings: []usecase.PostingInput{
				{AccountID: src, Amount: decimal.RequireFromString("5.00"), Currency: "USD", Direction: domain.Credit},
				{AccountID: dst, Amount: decimal.RequireFromString("5.00"), Currency: "USD", Direction: domain.Debit},
			},
		})
		errs <- err
	}

	wg.Add(2)
	go transfer("alice", "bob")
	go transfer("carol", "dave")
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("disjoint transfers must both succeed: %v", err)
		}
	}

	if got := f.balance(t, "bob"); !got.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("bob balance = %s, want 5.00", got)
	}

	if got := f.balance(t, "dave"); !got.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("dave balance = %s, want 5.00", got)
	}
}

func TestLedgerUseCase_ConcurrentSharedAccountNoLostUpdate(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)

	const workers = 25

	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
				AccountID:   "alice",
				Amount:      decimal.RequireFromString("1.00"),
				Currency:    "USD",
				Description: fmt.Sprintf("deposit %d", i),
			})
			errs <- err
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent deposits must serialize, not fail: %v", err)
		}
	}

	want := decimal.NewFromInt(workers)
	if got := f.balance(t, "alice"); !got.Equal(want) {
		t.Errorf("alice balance = %s, want %s (lost update)", got, want)
	}

	if got := f.balance(t, genesisID); !got.Equal(want.Neg()) {
		t.Errorf("genesis balance = %s, want %s", got, want.Neg())
	}
}

func TestLedgerUseCase_ListTransactionsByAccount(t *testing.T) {
	f := newLedgerFixture(t)
	f.addStandardAccounts(t)
	f.fundAlice(t, "100.00")

	if _, err := f.uc.TransferFunds(context.Background(), usecase.TransferFundsInput{
		SourceAccountID:      "alice",
		DestinationAccountID: "bob",
		Amount:               decimal.RequireFromString("5.00"),
		Currency:             "USD",
		Description:          "coffee",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	txs, err := f.uc.ListTransactionsByAccount(context.Background(), usecase.ListTransactionsByAccountInput{AccountID: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(txs) != 2 {
		t.Errorf("expected 2 transactions touching alice, got %d", len(txs))
	}
}
