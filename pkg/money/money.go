// Package money implements exact decimal arithmetic with currency tagging,
// per spec.md §3: half-up rounding to two fractional digits, and a hard
// error on mixing currencies without going through the rate table first.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO-4217-shaped tag. Ventro does not validate membership
// in the ISO list; it only requires consistency across an operation.
type Currency string

// Money is an exact decimal amount tagged with its currency. The zero value
// is not meaningful; always construct via New or Zero.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

// CurrencyMismatchError is returned by arithmetic across incompatible currencies.
type CurrencyMismatchError struct {
	A, B Currency
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("money: currency mismatch: %s vs %s", e.A, e.B)
}

// roundPlaces is the fixed number of fractional digits money is rounded to.
const roundPlaces = 2

// New builds a Money value rounded half-up to two fractional digits.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: RoundHalfUp(amount), Currency: currency}
}

// NewFromString parses a decimal string (e.g. "1234.5") into Money.
func NewFromString(s string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return New(d, currency), nil
}

// Zero returns a zero-valued Money in the given currency.
func Zero(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// RoundHalfUp rounds d to two fractional digits using half-up (not
// banker's) rounding, matching spec.md's explicit "half-up" requirement.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	// shopspring/decimal's Round uses half-away-from-zero for positives,
	// which coincides with half-up for the non-negative amounts money
	// deals in; for negative amounts we mirror explicitly to stay exact.
	if d.Sign() >= 0 {
		return d.Round(roundPlaces)
	}
	return d.Neg().Round(roundPlaces).Neg()
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return &CurrencyMismatchError{A: m.Currency, B: other.Currency}
	}
	return nil
}

// Add returns m+other. Adding incompatible currencies is a hard error.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return New(m.Amount.Add(other.Amount), m.Currency), nil
}

// Sub returns m-other.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return New(m.Amount.Sub(other.Amount), m.Currency), nil
}

// Mul multiplies by a unitless decimal factor (e.g. quantity), rounding
// the result to two fractional digits half-up.
func (m Money) Mul(factor decimal.Decimal) Money {
	return New(m.Amount.Mul(factor), m.Currency)
}

// AbsDiff returns the absolute value of m-other, requiring matching currency.
func (m Money) AbsDiff(other Money) (decimal.Decimal, error) {
	d, err := m.Sub(other)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return d.Amount.Abs(), nil
}

// WithinTolerance reports whether |m-other| <= eps, requiring matching currency.
func (m Money) WithinTolerance(other Money, eps decimal.Decimal) (bool, error) {
	diff, err := m.AbsDiff(other)
	if err != nil {
		return false, err
	}
	return diff.LessThanOrEqual(eps), nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(roundPlaces), m.Currency)
}

// ComputeLineTotal recomputes quantity*unit_price, rounded half-up, exactly
// matching the invariant in spec.md §3 LineItem: |qty*price - total| <= 0.01.
func ComputeLineTotal(quantity decimal.Decimal, unitPrice Money) Money {
	return unitPrice.Mul(quantity)
}

// DefaultTolerance is the ε used throughout C8's exact-arithmetic checks.
var DefaultTolerance = decimal.NewFromFloat(0.01)
