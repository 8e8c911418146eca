// Package core provides money handling for the ledger.
//
// All monetary values are stored as an integer count of minor currency
// units (cents). Arithmetic is exact integer arithmetic; float64 never
// appears in stored or compared form.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// maxUnits bounds the integer part of a parsed amount. Input fields in
// the clients cap amounts below one billion units.
const maxUnits = 1_000_000_000

// Money is an amount in minor currency units. The zero value is zero
// cents. Negative values represent credits; callers interpret the sign.
type Money struct {
	Cents int64
}

// NewMoney builds a Money from a cent count.
func NewMoney(cents int64) Money {
	return Money{Cents: cents}
}

// ParseMoney converts a decimal string into Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// The literal must be non-negative, carry at most two fractional
// digits, and stay below 1e9 whole units. Anything else fails with
// ErrInvalidAmount.
//
// Examples:
//
//	ParseMoney("12.34") -> 1234 cents
//	ParseMoney("12,3")  -> 1230 cents
//	ParseMoney("12.345") -> ErrInvalidAmount (too many decimals)
//	ParseMoney("-1")     -> ErrInvalidAmount (negative)
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, fmt.Errorf("%w: signed literals are not accepted", ErrInvalidAmount)
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		return Money{}, fmt.Errorf("%w: at most 2 decimal places allowed, got %q", ErrInvalidAmount, s)
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return Money{}, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}
	if iv >= maxUnits {
		return Money{}, fmt.Errorf("%w: %q exceeds the maximum amount", ErrInvalidAmount, s)
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
		}
	}
	return Money{Cents: iv*100 + fracCents}, nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o. A negative result is a credit.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// MulInt returns m scaled by an integer factor.
func (m Money) MulInt(n int64) Money {
	return Money{Cents: m.Cents * n}
}

// Divide splits m into n shares that sum exactly to m. Each share is
// the floor of m/n; the first m mod n shares carry one extra cent, so
// no two shares differ by more than one cent. The caller decides which
// participant gets which slot. n <= 0 fails with ErrDivisionByZero.
func (m Money) Divide(n int) ([]Money, error) {
	if n <= 0 {
		return nil, ErrDivisionByZero
	}
	base := m.Cents / int64(n)
	rem := m.Cents % int64(n)
	shares := make([]Money, n)
	for i := range shares {
		shares[i] = Money{Cents: base}
		if int64(i) < rem {
			shares[i].Cents++
		}
	}
	return shares, nil
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, 1 if m > o.
func (m Money) Cmp(o Money) int {
	switch {
	case m.Cents < o.Cents:
		return -1
	case m.Cents > o.Cents:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Cents == 0 }

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.Cents > 0 }

// IsNegative reports whether the amount is a credit.
func (m Money) IsNegative() bool { return m.Cents < 0 }

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// String formats the amount as a plain decimal, e.g. "12.34" or "-0.05".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Validate rejects amounts that are not strictly positive. Expense and
// payment amounts must pass this before they enter the ledger.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}
	return nil
}
