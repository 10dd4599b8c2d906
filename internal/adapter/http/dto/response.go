package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Currency:  a.Currency,
		Balance:   a.Balance.Amount,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// PostingResponse represents one line item of a transaction.
type PostingResponse struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Direction string          `json:"direction"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Postings    []PostingResponse `json:"postings"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	postings := make([]PostingResponse, len(t.Postings))
	for i, p := range t.Postings {
		postings[i] = PostingResponse{
			AccountID: p.AccountID,
			Amount:    p.Amount.Amount,
			Currency:  p.Amount.Currency,
			Direction: string(p.Direction),
		}
	}
	return &TransactionResponse{
		ID:          t.ID,
		Description: t.Description,
		Status:      string(t.Status),
		Postings:    postings,
		CreatedAt:   t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse represents a page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
