package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an immutable amount bound to a single currency. Arithmetic is
// currency-checked; operations return new values and never mutate.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// NewMoney creates a Money value. The amount must not carry more fractional
// digits than the currency's minor-unit scale.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	scale, err := CurrencyScale(currency)
	if err != nil {
		return Money{}, err
	}

	if !amount.Round(scale).Equal(amount) {
		return Money{}, fmt.Errorf("%w: %s has more than %d decimal places for %s",
			ErrInvalidAmount, amount, scale, currency)
	}

	return Money{Amount: amount, Currency: currency}, nil
}

// ZeroMoney returns a zero-valued Money in the given currency.
func ZeroMoney(currency string) (Money, error) {
	return NewMoney(decimal.Zero, currency)
}

// Add returns m + other. Fails if the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}

	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other. Fails if the currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}

	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Equal reports value equality on (amount, currency).
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// String renders the amount followed by the currency code, e.g. "100.00 USD".
func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency
}

func (m Money) checkCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}

	return nil
}
