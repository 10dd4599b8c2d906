package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Direction is the side of a posting.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// ParseDirection converts a wire string to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Debit, Credit:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("%w: direction must be DEBIT or CREDIT, got %q", ErrInvalidCommand, s)
	}
}

// Posting is one signed line item of a transaction: an amount applied to one
// account in a direction. Postings exist only inside a Transaction.
type Posting struct {
	AccountID string
	Amount    Money
	Direction Direction
}

// Signed returns the posting's contribution to the transaction sum:
// +amount for a debit, -amount for a credit.
func (p Posting) Signed() decimal.Decimal {
	if p.Direction == Debit {
		return p.Amount.Amount
	}

	return p.Amount.Amount.Neg()
}
