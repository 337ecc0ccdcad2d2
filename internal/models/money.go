package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidMoney is returned when a money string does not match the accepted formats.
var ErrInvalidMoney = errors.New("invalid money amount")

// moneyPattern accepts "1234.56", "$1,234.56", "1,234" and similar.
// Thousands separators must be well formed and at most two decimals are allowed.
var moneyPattern = regexp.MustCompile(`^\$?(\d{1,3}(,\d{3})+|\d+)(\.\d{1,2})?$`)

// Money is a decimal currency amount.
// Stored documents carry amounts either as JSON numbers or numeric strings;
// both decode into Money. Blank and null values decode to zero.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromCents builds an amount from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// ParseMoney parses a user-supplied amount such as "$1,234.56" or "1234.56".
// Anything else (negative values, letters, malformed separators, more than
// two decimals) is rejected with ErrInvalidMoney.
func ParseMoney(s string) (Money, error) {
	trimmed := strings.TrimSpace(s)
	if !moneyPattern.MatchString(trimmed) {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}

	plain := strings.ReplaceAll(strings.TrimPrefix(trimmed, "$"), ",", "")
	d, err := decimal.NewFromString(plain)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	return Money{d: d}, nil
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

// Sub returns m - o.
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.d.IsZero() }

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.d.IsPositive() }

// LessThan reports whether m < o.
func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

// Equal reports whether both amounts are numerically equal.
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// String formats the amount with exactly two decimals, e.g. "1234.50".
func (m Money) String() string { return m.d.StringFixed(2) }

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(2)), nil
}

// UnmarshalJSON decodes a JSON number or numeric string. Stored amounts are
// read leniently: a sign and any precision are kept, and "$" or thousands
// separators are stripped. User input goes through ParseMoney instead.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Zero
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to unmarshal money string: %w", err)
		}
		raw = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(raw))
		if raw == "" {
			*m = Zero
			return nil
		}
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMoney, string(data))
	}
	*m = Money{d: d}
	return nil
}
