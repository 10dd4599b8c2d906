package domain

import (
	"fmt"
	"time"
)

// AccountType classifies an account. The classification does not change the
// balance mutation rule: debits increase and credits decrease the balance
// uniformly across all types.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// ParseAccountType converts a wire string to an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense:
		return AccountType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountType, s)
	}
}

// Account holds a running balance in a single currency. The balance is
// mutated only through ApplyPosting, and only while the caller holds the
// account's exclusive lock.
type Account struct {
	ID        string
	Name      string
	Type      AccountType
	Currency  string
	Balance   Money
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount creates an account with a zero balance in the given currency.
func NewAccount(id, name string, typ AccountType, currency string) (*Account, error) {
	balance, err := ZeroMoney(currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Account{
		ID:        id,
		Name:      name,
		Type:      typ,
		Currency:  balance.Currency,
		Balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyPosting mutates the balance per the posting's direction and returns
// the new balance. A DEBIT increases the balance, a CREDIT decreases it.
// The caller must already hold exclusive access to the account; no locking
// happens here.
func (a *Account) ApplyPosting(p Posting) (Money, error) {
	if p.Amount.Currency != a.Currency {
		return Money{}, fmt.Errorf("%w: account %s holds %s, posting is in %s",
			ErrCurrencyMismatch, a.ID, a.Currency, p.Amount.Currency)
	}

	var (
		balance Money
		err     error
	)

	switch p.Direction {
	case Debit:
		balance, err = a.Balance.Add(p.Amount)
	case Credit:
		balance, err = a.Balance.Sub(p.Amount)
	default:
		return Money{}, fmt.Errorf("%w: direction %q", ErrInvalidCommand, p.Direction)
	}

	if err != nil {
		return Money{}, err
	}

	a.Balance = balance

	return balance, nil
}
