package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:     r.Name,
		Type:     domain.AccountType(r.Type),
		Currency: r.Currency,
	}
}

// PostingRequest represents a single line item of a transaction request.
type PostingRequest struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Direction string          `json:"direction"`
}

// PostTransactionRequest represents a request to post a balanced transaction.
type PostTransactionRequest struct {
	Description string           `json:"description"`
	Postings    []PostingRequest `json:"postings"`
}

// ToUseCaseInput converts to use case input.
func (r *PostTransactionRequest) ToUseCaseInput() usecase.PostTransactionInput {
	postings := make([]usecase.PostingInput, len(r.Postings))
	for i, p := range r.Postings {
		postings[i] = usecase.PostingInput{
			AccountID: p.AccountID,
			Amount:    p.Amount,
			Currency:  p.Currency,
			Direction: domain.Direction(p.Direction),
		}
	}
	return usecase.PostTransactionInput{
		Description: r.Description,
		Postings:    postings,
	}
}

// CreateTransferRequest represents a request to transfer funds between two
// accounts.
type CreateTransferRequest struct {
	SourceAccountID      string          `json:"source_account_id"`
	DestinationAccountID string          `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Description          string          `json:"description"`
	FeeAccountID         string          `json:"fee_account_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() usecase.TransferFundsInput {
	return usecase.TransferFundsInput{
		SourceAccountID:      r.SourceAccountID,
		DestinationAccountID: r.DestinationAccountID,
		Amount:               r.Amount,
		Currency:             r.Currency,
		Description:          r.Description,
		FeeAccountID:         r.FeeAccountID,
	}
}

// CreateDepositRequest represents a request to fund an account.
type CreateDepositRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateDepositRequest) ToUseCaseInput() usecase.DepositInput {
	return usecase.DepositInput{
		AccountID:   r.AccountID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Description: r.Description,
	}
}
