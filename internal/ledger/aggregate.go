// Package ledger derives the read-only fields of a control's FinancialData
// from its payments.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"saa/internal/core"
)

// Aggregate returns fin with the derived fields refreshed from payments.
//
// The period bounds are filled from the earliest and latest parseable due
// date, and only when they are empty. The four reserved-category subtotals
// are always recomputed and overwrite whatever was stored. Every other field
// passes through unchanged. Aggregate is idempotent and does not modify its
// inputs.
func Aggregate(payments []core.Payment, fin core.FinancialData) core.FinancialData {
	out := fin

	if from, to, ok := DueDateRange(payments); ok {
		if out.PeriodFrom == "" {
			out.PeriodFrom = core.FormatISODate(from)
		}
		if out.PeriodTo == "" {
			out.PeriodTo = core.FormatISODate(to)
		}
	}

	out.BankFees = Subtotal(payments, core.CategoryBankFees).String()
	out.Reversals = Subtotal(payments, core.CategoryReversals).String()
	out.FinancialApplication = Subtotal(payments, core.CategoryFinancialApplication).String()
	out.ImproperPayment = Subtotal(payments, core.CategoryImproperPayment).String()

	return out
}

// Subtotal sums the normalized amount of every payment whose category is
// exactly tag.
func Subtotal(payments []core.Payment, tag string) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Category == tag {
			total = total.Add(core.Normalize(p.Amount))
		}
	}
	return total
}

// Total sums the normalized amount of every payment regardless of category.
func Total(payments []core.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(core.Normalize(p.Amount))
	}
	return total
}

// DueDateRange returns the earliest and latest parseable due dates.
func DueDateRange(payments []core.Payment) (from, to time.Time, ok bool) {
	for _, p := range payments {
		d, valid := core.ParseDate(p.DueDate)
		if !valid {
			continue
		}
		if !ok {
			from, to, ok = d, d, true
			continue
		}
		if d.Before(from) {
			from = d
		}
		if d.After(to) {
			to = d
		}
	}
	return from, to, ok
}

// Refresh re-aggregates a control in place on a copy and returns it.
func Refresh(c core.MonthlyControl) core.MonthlyControl {
	out := c.Clone()
	out.Financials = Aggregate(out.Payments, out.Financials)
	return out
}
