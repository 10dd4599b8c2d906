package domain

import "errors"

var (
	// Command errors
	ErrInvalidCommand  = errors.New("invalid command")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCurrency = errors.New("invalid currency code")

	// Money and posting errors
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// Transaction errors
	ErrEmptyTransaction      = errors.New("transaction has no postings")
	ErrUnbalancedTransaction = errors.New("transaction postings must sum to zero")
	ErrTransactionSealed     = errors.New("transaction is already validated")
	ErrTransactionNotFound   = errors.New("transaction not found")

	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidAccountType = errors.New("invalid account type")
)
