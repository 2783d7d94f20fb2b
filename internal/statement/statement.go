// Package statement builds the reconciliation statement ("prestação de
// contas") of a monthly control: a fixed sequence of rows with the income,
// expense and balance totals cross-checked against the bank statement.
package statement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"saa/internal/core"
	"saa/internal/ledger"
)

// Title is the first row of every statement.
const Title = "RELATÓRIO FINANCEIRO - Prestação de Contas"

// Kind classifies a statement row for renderers.
type Kind int

const (
	KindTitle Kind = iota
	KindHeader
	KindSection
	KindColumns
	KindValue
	KindItem
	KindTotal
	KindBlank
	KindClosing
)

var kindNames = [...]string{"title", "header", "section", "columns", "value", "item", "total", "blank", "closing"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText renders the kind by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name written by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown statement row kind %q", b)
}

// Cell is one positioned value of a row. Money cells carry Amount and are
// rendered with the currency format; the others carry Text. A zero Cell is
// an empty position.
type Cell struct {
	Text   string          `json:"text,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	Money  bool            `json:"money,omitempty"`
}

// Empty reports whether the cell holds nothing.
func (c Cell) Empty() bool {
	return !c.Money && c.Text == ""
}

// Row is one line of the statement. Cells are positional, starting at the
// first column.
type Row struct {
	Kind  Kind   `json:"kind"`
	Cells []Cell `json:"cells"`
}

// Totals are the computed figures of a statement.
type Totals struct {
	TotalApproved          decimal.Decimal `json:"totalApproved"`
	InstallmentReceived    decimal.Decimal `json:"installmentReceived"`
	PriorBalance           decimal.Decimal `json:"priorBalance"`
	TotalExpenses          decimal.Decimal `json:"totalExpenses"`
	AvailableToSpend       decimal.Decimal `json:"availableToSpend"`
	ComputedClosingBalance decimal.Decimal `json:"computedClosingBalance"`
	TotalRevenue           decimal.Decimal `json:"totalRevenue"`
	ProjectBalance         decimal.Decimal `json:"projectBalance"`
	BankStatementBalance   decimal.Decimal `json:"bankStatementBalance"`
	InvestmentBalance      decimal.Decimal `json:"investmentStatementBalance"`
	FinalDifference        decimal.Decimal `json:"finalDifference"`

	BankFees             decimal.Decimal `json:"bankFees"`
	Reversals            decimal.Decimal `json:"reversals"`
	FinancialApplication decimal.Decimal `json:"financialApplication"`
	ImproperPayment      decimal.Decimal `json:"improperPayment"`
}

// Statement is the rendered reconciliation of one control.
type Statement struct {
	ProjectID string         `json:"projectId"`
	ControlID string         `json:"controlId"`
	Issued    string         `json:"issued"`
	Totals    Totals         `json:"totals"`
	Ordinary  []core.Payment `json:"ordinaryPayments"`
	Rows      []Row          `json:"rows"`
}

// Compute derives the statement totals of a control.
//
// TotalExpenses covers every payment, reserved categories included, while
// the special subtotals are read from the control's FinancialData as last
// stored by the aggregator.
func Compute(control core.MonthlyControl) Totals {
	fin := control.Financials
	n := core.Normalize

	t := Totals{
		TotalApproved:        n(fin.TotalApproved),
		InstallmentReceived:  n(fin.InstallmentReceived),
		PriorBalance:         n(fin.PriorBalance),
		TotalExpenses:        ledger.Total(control.Payments),
		BankStatementBalance: n(fin.BankStatementBalance),
		InvestmentBalance:    n(fin.InvestmentStatementBalance),
		BankFees:             n(fin.BankFees),
		Reversals:            n(fin.Reversals),
		FinancialApplication: n(fin.FinancialApplication),
		ImproperPayment:      n(fin.ImproperPayment),
	}

	t.AvailableToSpend = t.PriorBalance.Add(t.InstallmentReceived)
	t.ComputedClosingBalance = t.AvailableToSpend.Sub(t.TotalExpenses)
	t.TotalRevenue = core.Sum(
		fin.PriorBalance,
		fin.InvestmentYield,
		fin.Donation,
		fin.InterAccountLoans,
		fin.CreditRefund,
		fin.NetworkDonation,
		fin.Redemptions,
	)
	t.ProjectBalance = t.TotalRevenue.Sub(t.TotalExpenses)
	t.FinalDifference = t.BankStatementBalance.Add(t.InvestmentBalance).Sub(t.ProjectBalance)
	return t
}

// Ordinary returns the payments listed individually in the expense section,
// in their original order: every payment not tagged with a reserved category.
func Ordinary(payments []core.Payment) []core.Payment {
	out := make([]core.Payment, 0, len(payments))
	for _, p := range payments {
		if !core.IsReservedCategory(p.Category) {
			out = append(out, p)
		}
	}
	return out
}
