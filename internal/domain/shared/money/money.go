package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// KRW is the only currency the pricing engine emits.
const KRW = "KRW"

// MaxAmount bounds every amount produced by arithmetic here. Two bounded
// amounts always sum inside int64.
const MaxAmount int64 = 1_000_000_000_000_000

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrOutOfRange       = errors.New("money: amount out of range")
)

var (
	hundred   = decimal.NewFromInt(100)
	maxAmount = decimal.NewFromInt(MaxAmount)
)

// Money keeps amounts in whole currency units; KRW has no minor unit.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Won is a shorthand for KRW amounts.
func Won(amount int64) Money {
	return Money{Amount: amount, Currency: KRW}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: currency}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	if !InRange(m.Amount) || !InRange(other.Amount) {
		return Money{}, ErrOutOfRange
	}
	return bounded(m.Amount+other.Amount, m.Currency)
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	if !InRange(m.Amount) || !InRange(other.Amount) {
		return Money{}, ErrOutOfRange
	}
	return bounded(m.Amount-other.Amount, m.Currency)
}

// Neg returns the negated amount preserving currency.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Multiply multiplies the amount by an integer factor.
func (m Money) Multiply(times int64) (Money, error) {
	return m.MulDecimal(decimal.NewFromInt(times))
}

// MulDecimal multiplies by a decimal factor and rounds half-up to a whole unit.
// Rounding is symmetric around zero, so -2.5 becomes -3.
func (m Money) MulDecimal(factor decimal.Decimal) (Money, error) {
	product := decimal.NewFromInt(m.Amount).Mul(factor).Round(0)
	if product.Abs().GreaterThan(maxAmount) {
		return Money{}, ErrOutOfRange
	}
	return Money{Amount: product.IntPart(), Currency: m.Currency}, nil
}

// Percent returns round(amount * rate / 100).
func (m Money) Percent(rate decimal.Decimal) (Money, error) {
	return m.MulDecimal(rate.Div(hundred))
}

// InRange reports whether amount lies within [-MaxAmount, MaxAmount].
func InRange(amount int64) bool {
	return amount >= -MaxAmount && amount <= MaxAmount
}

func bounded(amount int64, currency string) (Money, error) {
	if !InRange(amount) {
		return Money{}, ErrOutOfRange
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// ClampZero floors the amount at zero.
func (m Money) ClampZero() Money {
	if m.Amount < 0 {
		return Money{Currency: m.Currency}
	}
	return m
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
