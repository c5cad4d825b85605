// Package types provides common types used across DreamBiz.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value as an exact decimal in major units.
// No floating point is involved at any step: totals computed from Money
// values do not depend on summation order.
//
// Examples:
//   - USD("49.00") = $49.00
//   - ZAR("199.5") = R199.50
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"` // ISO 4217 uppercase: "USD", "ZAR", "ZWG"
}

// NewMoney creates a Money value from a decimal amount.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}
}

// ParseMoney parses a major-unit string such as "12.50".
func ParseMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", amount, err)
	}
	return NewMoney(d, currency), nil
}

// FromMinor creates a Money value from an amount in the smallest currency
// unit (cents, thebe, kobo).
func FromMinor(minor int64, currency string) Money {
	return NewMoney(decimal.New(minor, -int32(currencyDecimals(currency))), currency)
}

// Common currency constructors. They panic on malformed literals, so use
// them with constants only.

// USD creates a Money value in US Dollars.
func USD(amount string) Money { return mustParse(amount, "USD") }

// ZAR creates a Money value in South African Rand.
func ZAR(amount string) Money { return mustParse(amount, "ZAR") }

// ZWG creates a Money value in Zimbabwe Gold.
func ZWG(amount string) Money { return mustParse(amount, "ZWG") }

// KES creates a Money value in Kenyan Shillings.
func KES(amount string) Money { return mustParse(amount, "KES") }

// NGN creates a Money value in Nigerian Naira.
func NGN(amount string) Money { return mustParse(amount, "NGN") }

// JPY creates a Money value in Japanese Yen (no decimal).
func JPY(amount string) Money { return mustParse(amount, "JPY") }

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return NewMoney(decimal.Zero, currency) }

func mustParse(amount, currency string) Money {
	m, err := ParseMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Arithmetic operations

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(qty)), Currency: m.Currency}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	return Money{Amount: m.Amount.Abs(), Currency: m.Currency}
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Equal returns true if both values have the same currency and numerically
// equal amounts ("1.5" equals "1.50").
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// LessThan returns true if this Money is less than other. Panics if currencies don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount.LessThan(other.Amount)
}

// GreaterThan returns true if this Money is greater than other. Panics if currencies don't match.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount.GreaterThan(other.Amount)
}

// Formatting methods

// FormatMajor returns the amount rounded to the currency's minor unit,
// without a symbol: "49.00" for USD, "100" for JPY.
func (m Money) FormatMajor() string {
	return m.Amount.StringFixed(int32(currencyDecimals(m.Currency)))
}

// String returns a human-readable string with currency symbol.
// Examples: "$49.00", "R199.50", "ZiG 12.00".
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler. Amounts are encoded as strings
// so no precision is lost in transit.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount.String(),
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The display field is ignored.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = NewMoney(raw.Amount, raw.Currency)
	return nil
}

// SameCurrency reports whether m and other are in the same currency.
func (m Money) SameCurrency(other Money) bool {
	return strings.EqualFold(m.Currency, other.Currency)
}

// Helper functions

// assertSameCurrency panics if currencies don't match.
func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

// currencySymbol returns the symbol for a currency code.
func currencySymbol(currency string) string {
	symbols := map[string]string{
		"USD": "$",
		"EUR": "€",
		"GBP": "£",
		"JPY": "¥",
		"ZAR": "R",
		"ZWG": "ZiG ",
		"BWP": "P",
		"NGN": "₦",
		"KES": "KSh ",
		"GHS": "GH₵",
	}
	if sym, ok := symbols[strings.ToUpper(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

// currencyDecimals returns the number of decimal places for a currency.
func currencyDecimals(currency string) int {
	zeroDecimal := map[string]bool{
		"JPY": true,
		"KRW": true,
		"VND": true,
		"CLP": true,
		"PYG": true,
		"UGX": true,
		"RWF": true,
	}
	if zeroDecimal[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// Sum calculates the sum of multiple Money values in the given currency.
// All values must carry that currency.
func Sum(currency string, values ...Money) Money {
	result := Zero(currency)
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
