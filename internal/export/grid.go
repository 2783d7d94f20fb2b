package export

import (
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"saa/internal/core"
	"saa/internal/statement"
)

// CellKind is the type of a grid cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is one typed spreadsheet cell. Format is a number format code and
// only applies to number cells.
type Cell struct {
	Kind   CellKind
	Text   string
	Number decimal.Decimal
	Format string
}

// TextCell returns a text cell, or an empty cell for "".
func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a number cell with the given format.
func NumberCell(d decimal.Decimal, format string) Cell {
	return Cell{Kind: CellNumber, Number: d, Format: format}
}

// Literal is the plain text of the cell, used for sizing and for
// value-only uploads.
func (c Cell) Literal() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return c.Number.String()
	default:
		return ""
	}
}

// Merge is a rectangular merged region, zero-based and inclusive.
type Merge struct {
	StartRow, StartCol int
	EndRow, EndCol     int
}

// Grid is one named sheet.
type Grid struct {
	Name      string
	Rows      [][]Cell
	Merges    []Merge
	ColWidths []float64
}

// Cols returns the widest row length.
func (g Grid) Cols() int {
	n := len(g.ColWidths)
	for _, r := range g.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// StatementWidths are the fixed column widths of a statement sheet.
var StatementWidths = []float64{45, 20, 20, 20, 25, 25}

// PaymentGrid renders payments as a sheet with the payment header row. The
// two monetary columns are numbers rounded to cents in currency format.
// Column widths fit the longest literal plus two.
func PaymentGrid(name string, payments []core.Payment) Grid {
	rows := make([][]Cell, 0, len(payments)+1)

	header := make([]Cell, len(PaymentHeaders))
	for i, h := range PaymentHeaders {
		header[i] = TextCell(h)
	}
	rows = append(rows, header)

	for _, p := range payments {
		rec := PaymentRecord(p)
		row := make([]Cell, len(rec))
		for i, v := range rec {
			row[i] = TextCell(v)
		}
		row[ColAmount] = NumberCell(core.Normalize(p.Amount).Round(2), core.CurrencyFormat)
		row[ColAmountPaid] = NumberCell(core.Normalize(p.AmountPaid).Round(2), core.CurrencyFormat)
		rows = append(rows, row)
	}

	return Grid{Name: name, Rows: rows, ColWidths: fitWidths(rows, len(PaymentHeaders))}
}

func fitWidths(rows [][]Cell, cols int) []float64 {
	widths := make([]float64, cols)
	for _, r := range rows {
		for i := 0; i < cols && i < len(r); i++ {
			if n := float64(utf8.RuneCountInString(r[i].Literal())); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i := range widths {
		widths[i] += 2
	}
	return widths
}

// StatementGrid renders a statement as a sheet. The title spans A1:F1 and
// the header values of rows 2 to 4 span columns B:C.
func StatementGrid(name string, st statement.Statement) Grid {
	rows := make([][]Cell, len(st.Rows))
	for i, r := range st.Rows {
		cells := make([]Cell, len(r.Cells))
		for j, c := range r.Cells {
			if c.Money {
				cells[j] = NumberCell(c.Amount, core.CurrencyFormat)
			} else {
				cells[j] = TextCell(c.Text)
			}
		}
		rows[i] = cells
	}

	return Grid{
		Name: name,
		Rows: rows,
		Merges: []Merge{
			{StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 5},
			{StartRow: 1, StartCol: 1, EndRow: 1, EndCol: 2},
			{StartRow: 2, StartCol: 1, EndRow: 2, EndCol: 2},
			{StartRow: 3, StartCol: 1, EndRow: 3, EndCol: 2},
		},
		ColWidths: append([]float64(nil), StatementWidths...),
	}
}
