// Package core provides money parsing and handling utilities.
//
// Amounts are kept exactly as entered and only interpreted as decimals when
// aggregated or validated, so saved data round-trips byte for byte.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a currency value as entered by the user.
type Amount string

// NewAmount formats d as an Amount with two decimal places.
func NewAmount(d decimal.Decimal) Amount {
	return Amount(d.StringFixed(2))
}

// Decimal interprets the amount for aggregation. Unparseable values count as zero.
func (a Amount) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(a)))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// UnmarshalJSON accepts both strings and bare numbers; older saved data
// stored amounts as numbers. Any other JSON value is kept as its raw text,
// which Decimal reads as zero.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*a = Amount(data)
		return nil
	}
	*a = Amount(n.String())
	return nil
}

// ParseAmount parses a user-entered amount strictly.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rejects
// empty input, signs and anything that is not a plain decimal. Zero is allowed.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
