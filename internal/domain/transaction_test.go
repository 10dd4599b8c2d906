package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func mustMoney(t *testing.T, amount, currency string) Money {
	t.Helper()

	m, err := NewMoney(decimal.RequireFromString(amount), currency)
	if err != nil {
		t.Fatalf("NewMoney(%s, %s): %v", amount, currency, err)
	}

	return m
}

func TestTransaction_ValidBalanced(t *testing.T) {
	tx := NewTransaction("tx-1", "test tx")

	if err := tx.AddPosting(Posting{AccountID: "acc-1", Amount: mustMoney(t, "100", "USD"), Direction: Debit}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.AddPosting(Posting{AccountID: "acc-2", Amount: mustMoney(t, "100", "USD"), Direction: Credit}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tx.Validate(); err != nil {
		t.Fatalf("expected valid transaction, got %v", err)
	}

	if tx.Status != StatusValid {
		t.Errorf("expected status VALID, got %s", tx.Status)
	}

	// Idempotent: revalidating derives the same result.
	if err := tx.Validate(); err != nil {
		t.Errorf("revalidation failed: %v", err)
	}
}

func TestTransaction_Unbalanced(t *testing.T) {
	tx := NewTransaction("tx-1", "unbalanced")

	tx.AddPosting(Posting{AccountID: "acc-1", Amount: mustMoney(t, "100", "USD"), Direction: Debit})
	tx.AddPosting(Posting{AccountID: "acc-2", Amount: mustMoney(t, "50", "USD"), Direction: Credit})

	if err := tx.Validate(); !errors.Is(err, ErrUnbalancedTransaction) {
		t.Fatalf("expected ErrUnbalancedTransaction, got %v", err)
	}

	if tx.Status != StatusPending {
		t.Errorf("failed validation must not seal the transaction, status=%s", tx.Status)
	}
}

func TestTransaction_MixedCurrenciesRejectedOnAdd(t *testing.T) {
	tx := NewTransaction("tx-1", "mixed currency")

	if err := tx.AddPosting(Posting{AccountID: "acc-1", Amount: mustMoney(t, "100", "USD"), Direction: Debit}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Rejected at the moment it is added, not deferred to Validate.
	err := tx.AddPosting(Posting{AccountID: "acc-2", Amount: mustMoney(t, "100", "EUR"), Direction: Credit})
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}

	if len(tx.Postings) != 1 {
		t.Errorf("rejected posting must not be appended, got %d postings", len(tx.Postings))
	}
}

func TestTransaction_Empty(t *testing.T) {
	tx := NewTransaction("tx-1", "empty")

	if err := tx.Validate(); !errors.Is(err, ErrEmptyTransaction) {
		t.Fatalf("expected ErrEmptyTransaction, got %v", err)
	}
}

func TestTransaction_SealedAfterValidate(t *testing.T) {
	tx := NewTransaction("tx-1", "sealed")

	tx.AddPosting(Posting{AccountID: "acc-1", Amount: mustMoney(t, "10", "USD"), Direction: Debit})
	tx.AddPosting(Posting{AccountID: "acc-2", Amount: mustMoney(t, "10", "USD"), Direction: Credit})

	if err := tx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := tx.AddPosting(Posting{AccountID: "acc-3", Amount: mustMoney(t, "10", "USD"), Direction: Debit})
	if !errors.Is(err, ErrTransactionSealed) {
		t.Fatalf("expected ErrTransactionSealed, got %v", err)
	}
}

func TestTransaction_MultiLegBalanced(t *testing.T) {
	// Three-way split: -50 +45 +5 = 0
	tx := NewTransaction("tx-1", "transfer with fee")

	tx.AddPosting(Posting{AccountID: "alice", Amount: mustMoney(t, "50.00", "USD"), Direction: Credit})
	tx.AddPosting(Posting{AccountID: "bob", Amount: mustMoney(t, "45.00", "USD"), Direction: Debit})
	tx.AddPosting(Posting{AccountID: "fees", Amount: mustMoney(t, "5.00", "USD"), Direction: Debit})

	if err := tx.Validate(); err != nil {
		t.Fatalf("expected valid transaction, got %v", err)
	}
}

func TestTransaction_AccountIDs(t *testing.T) {
	tx := NewTransaction("tx-1", "distinct accounts")

	tx.AddPosting(Posting{AccountID: "b", Amount: mustMoney(t, "10", "USD"), Direction: Debit})
	tx.AddPosting(Posting{AccountID: "a", Amount: mustMoney(t, "5", "USD"), Direction: Credit})
	tx.AddPosting(Posting{AccountID: "b", Amount: mustMoney(t, "5", "USD"), Direction: Credit})

	ids := tx.AccountIDs()
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Errorf("expected [b a], got %v", ids)
	}
}

func TestPosting_Signed(t *testing.T) {
	debit := Posting{AccountID: "a", Amount: mustMoney(t, "10.00", "USD"), Direction: Debit}
	credit := Posting{AccountID: "a", Amount: mustMoney(t, "10.00", "USD"), Direction: Credit}

	if !debit.Signed().Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("debit signed = %s", debit.Signed())
	}

	if !credit.Signed().Equal(decimal.RequireFromString("-10.00")) {
		t.Errorf("credit signed = %s", credit.Signed())
	}
}
