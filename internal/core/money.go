// Package core provides the domain types and the numeric/date helpers used
// before any arithmetic on payment and ledger fields.
//
// This file contains the numeric normalizer. Amounts are stored as text and
// normalized to decimals on read; invalid input is zero, never an error.
package core

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyFormat is the display format used for monetary spreadsheet cells.
const CurrencyFormat = `R$ #,##0.00`

// plainDecimal is the accepted amount syntax. Exponent forms are rejected so
// a stored amount can never expand into an arbitrarily long number.
var plainDecimal = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)$`)

// Normalize converts a textual amount into a decimal.
//
// It accepts a dot decimal separator (the storage format) and, when no dot is
// present, a single comma separator as typed by pt-BR users. Empty or
// unparseable input yields zero.
//
// Examples:
//
//	Normalize("100.5")  -> 100.5
//	Normalize("12,34")  -> 12.34
//	Normalize(" 7 ")    -> 7
//	Normalize("abc")    -> 0
//	Normalize("1e9")    -> 0
func Normalize(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	if !plainDecimal.MatchString(s) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NormalizeValue is the total form of Normalize for loosely typed input
// (JSON numbers, form values, float columns).
func NormalizeValue(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case string:
		return Normalize(x)
	case json.Number:
		return Normalize(x.String())
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case int:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt32(x)
	case int64:
		return decimal.NewFromInt(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	default:
		return decimal.Zero
	}
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Sum normalizes and adds the given amounts.
func Sum(amounts ...string) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(Normalize(a))
	}
	return total
}

// FormatComma renders d with two fraction digits and a comma separator,
// without thousands grouping ("1234,50").
func FormatComma(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
