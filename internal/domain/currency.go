package domain

import (
	"fmt"
	"strings"
)

// Minor-unit scale per ISO 4217 currency code. Amounts must not carry
// more fractional digits than the currency allows.
var currencyScale = map[string]int32{
	"USD": 2, "EUR": 2, "GBP": 2, "JPY": 0,
	"CNY": 2, "AUD": 2, "CAD": 2, "CHF": 2,
	"SEK": 2, "NZD": 2, "KRW": 0, "SGD": 2,
	"NOK": 2, "MXN": 2, "INR": 2, "BRL": 2,
	"ZAR": 2, "RUB": 2, "TRY": 2, "HKD": 2,
	"KWD": 3, "BHD": 3, "OMR": 3,
}

// CurrencyScale returns the number of minor-unit digits for a currency code.
func CurrencyScale(code string) (int32, error) {
	scale, ok := currencyScale[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a supported ISO 4217 code", ErrInvalidCurrency, code)
	}

	return scale, nil
}

// ValidateCurrency checks that a currency code is supported.
func ValidateCurrency(code string) error {
	_, err := CurrencyScale(code)
	return err
}
