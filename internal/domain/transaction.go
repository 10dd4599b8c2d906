package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "PENDING"
	StatusValid   TransactionStatus = "VALID"
)

// Transaction is an ordered set of postings that must balance to zero.
// It is append-only while PENDING and frozen once validated.
type Transaction struct {
	ID          string
	Description string
	Postings    []Posting
	Status      TransactionStatus
	CreatedAt   time.Time
}

// NewTransaction creates an empty PENDING transaction.
func NewTransaction(id, description string) *Transaction {
	return &Transaction{
		ID:          id,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

// AddPosting appends a posting. A posting whose currency differs from the
// transaction's established currency is rejected immediately, not at
// validation time.
func (t *Transaction) AddPosting(p Posting) error {
	if t.Status == StatusValid {
		return ErrTransactionSealed
	}

	if len(t.Postings) > 0 && p.Amount.Currency != t.Postings[0].Amount.Currency {
		return fmt.Errorf("%w: transaction is in %s, posting is in %s",
			ErrCurrencyMismatch, t.Postings[0].Amount.Currency, p.Amount.Currency)
	}

	t.Postings = append(t.Postings, p)

	return nil
}

// Validate enforces the non-empty and zero-sum invariants and transitions
// the transaction to VALID. It is idempotent: re-validating a VALID
// transaction re-derives the same result.
func (t *Transaction) Validate() error {
	if len(t.Postings) == 0 {
		return ErrEmptyTransaction
	}

	sum := decimal.Zero
	for _, p := range t.Postings {
		sum = sum.Add(p.Signed())
	}

	if !sum.IsZero() {
		return fmt.Errorf("%w: signed sum is %s", ErrUnbalancedTransaction, sum)
	}

	t.Status = StatusValid

	return nil
}

// Currency returns the currency established by the first posting, or ""
// for an empty transaction.
func (t *Transaction) Currency() string {
	if len(t.Postings) == 0 {
		return ""
	}

	return t.Postings[0].Amount.Currency
}

// AccountIDs returns the distinct account ids referenced by the postings,
// in first-appearance order.
func (t *Transaction) AccountIDs() []string {
	seen := make(map[string]bool)

	var ids []string
	for _, p := range t.Postings {
		if !seen[p.AccountID] {
			seen[p.AccountID] = true
			ids = append(ids, p.AccountID)
		}
	}

	return ids
}
