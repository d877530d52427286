package money

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Rate is one quarterly-refreshable exchange rate to the base currency.
type Rate struct {
	Quote             Currency
	RateToBase        decimal.Decimal
	EffectiveQuarter  string // e.g. "2026-Q3"
}

// RateTable converts amounts into a single base currency. It is safe for
// concurrent use; rates are swapped wholesale on Refresh so readers never
// observe a half-updated table.
type RateTable struct {
	mu      sync.RWMutex
	base    Currency
	rates   map[Currency]decimal.Decimal // quote -> rate-to-base
	quarter string
}

// NewRateTable seeds a table with the static quarterly fallback rates,
// grounded on original_source's STATIC_RATES_TO_USD.
func NewRateTable(base Currency) *RateTable {
	t := &RateTable{base: base, rates: make(map[Currency]decimal.Decimal)}
	t.LoadStaticDefaults()
	return t
}

// LoadStaticDefaults installs the on-premise fallback table (USD base).
func (t *RateTable) LoadStaticDefaults() {
	defaults := map[Currency]string{
		"USD": "1.000000", "EUR": "1.085000", "GBP": "1.265000", "JPY": "0.006700",
		"CNY": "0.138000", "INR": "0.011900", "AED": "0.272300", "SAR": "0.266600",
		"SGD": "0.742000", "HKD": "0.128000", "CHF": "1.115000", "AUD": "0.647000",
		"CAD": "0.739000", "MYR": "0.213000", "THB": "0.027800", "IDR": "0.000063",
		"KRW": "0.000724", "BRL": "0.196000", "MXN": "0.052000", "ZAR": "0.054000",
		"TRY": "0.029500", "RUB": "0.011100", "PLN": "0.249000", "NOK": "0.094000",
		"SEK": "0.095000", "DKK": "0.146000", "NZD": "0.605000", "PKR": "0.003590",
		"BDT": "0.009100", "NGN": "0.000630", "EGP": "0.020500", "KWD": "3.255000",
		"BHD": "2.653000", "OMR": "2.597000", "QAR": "0.274600",
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for cur, rate := range defaults {
		d, err := decimal.NewFromString(rate)
		if err != nil {
			continue
		}
		t.rates[cur] = d
	}
	t.quarter = currentQuarter(time.Now())
}

// Refresh atomically replaces the rate table, e.g. from a live-rates provider.
func (t *RateTable) Refresh(quarter string, rates map[Currency]decimal.Decimal) {
	next := make(map[Currency]decimal.Decimal, len(rates))
	for k, v := range rates {
		next[k] = v
	}
	t.mu.Lock()
	t.rates = next
	t.quarter = quarter
	t.mu.Unlock()
}

// Quarter reports the quarter label the currently loaded rates were refreshed for.
func (t *RateTable) Quarter() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.quarter
}

// ToBase converts Money to the table's base currency. Unknown currencies
// produce an error rather than silently treating the rate as 1.0.
func (t *RateTable) ToBase(m Money) (Money, error) {
	if m.Currency == t.base {
		return m, nil
	}
	t.mu.RLock()
	rate, ok := t.rates[m.Currency]
	t.mu.RUnlock()
	if !ok {
		return Money{}, &UnknownCurrencyError{Currency: m.Currency}
	}
	return New(m.Amount.Mul(rate), t.base), nil
}

// UnknownCurrencyError is returned when a currency has no entry in the table.
type UnknownCurrencyError struct {
	Currency Currency
}

func (e *UnknownCurrencyError) Error() string {
	return "money: no exchange rate known for currency " + string(e.Currency)
}

func currentQuarter(t time.Time) string {
	q := (int(t.Month())-1)/3 + 1
	return t.Format("2006") + "-Q" + string(rune('0'+q))
}

// CompareNormalized compares two Money values that may carry different
// currencies by normalizing both through the table, using a relative
// tolerance (default 0.5% of the larger magnitude) rather than absolute ε,
// per spec.md §4.8 rule 5.
func (t *RateTable) CompareNormalized(a, b Money, relTolerance decimal.Decimal) (withinTolerance bool, variance decimal.Decimal, err error) {
	an, err := t.ToBase(a)
	if err != nil {
		return false, decimal.Zero, err
	}
	bn, err := t.ToBase(b)
	if err != nil {
		return false, decimal.Zero, err
	}
	diff := an.Amount.Sub(bn.Amount).Abs()
	maxAbs := an.Amount.Abs()
	if bn.Amount.Abs().GreaterThan(maxAbs) {
		maxAbs = bn.Amount.Abs()
	}
	if maxAbs.IsZero() {
		return diff.IsZero(), diff, nil
	}
	allowed := maxAbs.Mul(relTolerance)
	return diff.LessThanOrEqual(allowed), diff, nil
}

// DefaultRelativeTolerance is the 0.5% cross-currency comparison band from spec.md §4.8.
var DefaultRelativeTolerance = decimal.NewFromFloat(0.005)
