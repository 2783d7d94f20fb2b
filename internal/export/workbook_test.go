package export

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saa/internal/core"
	"saa/internal/statement"
)

var issued = time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Janeiro 2024", "Janeiro 2024"},
		{`Jan/Fev: "extra"?`, "JanFev extra"},
		{"[Março]*", "Março"},
		{"'quoted'", "quoted"},
		{strings.Repeat("á", 40), strings.Repeat("á", 31)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeSheetName(tt.in))
		})
	}
}

func TestPaymentGridEmpty(t *testing.T) {
	g := PaymentGrid("Vazio", nil)
	require.Len(t, g.Rows, 1)
	assert.Equal(t, "Código Fornecedor", g.Rows[0][0].Text)
	require.Len(t, g.ColWidths, len(PaymentHeaders))
	assert.Equal(t, float64(utf8.RuneCountInString("Código Fornecedor")+2), g.ColWidths[0])
}

func TestPaymentGridTypesMoney(t *testing.T) {
	g := PaymentGrid("Jan", samplePayments())
	require.Len(t, g.Rows, 3)

	amount := g.Rows[1][ColAmount]
	assert.Equal(t, CellNumber, amount.Kind)
	assert.Equal(t, core.CurrencyFormat, amount.Format)
	assert.True(t, amount.Number.Equal(decimal.RequireFromString("1234.5")))
	assert.Equal(t, CellNumber, g.Rows[2][ColAmountPaid].Kind)
	assert.True(t, g.Rows[2][ColAmountPaid].Number.IsZero())

	assert.Equal(t, CellText, g.Rows[1][1].Kind)
	assert.Equal(t, "10/01/2024", g.Rows[1][1].Text)
	assert.Equal(t, CellEmpty, g.Rows[2][1].Kind)

	desc := samplePayments()[0].Description
	assert.Equal(t, float64(utf8.RuneCountInString(desc)+2), g.ColWidths[9])
}

func TestStatementGridLayout(t *testing.T) {
	st := statement.Build(core.Project{Title: "P"}, core.MonthlyControl{}, issued)
	g := StatementGrid("PC - Jan", st)

	assert.Equal(t, StatementWidths, g.ColWidths)
	assert.Equal(t, []Merge{
		{0, 0, 0, 5},
		{1, 1, 1, 2},
		{2, 1, 2, 2},
		{3, 1, 3, 2},
	}, g.Merges)
	assert.Equal(t, statement.Title, g.Rows[0][0].Text)
	assert.Equal(t, CellNumber, g.Rows[6][1].Kind)
	assert.Equal(t, core.CurrencyFormat, g.Rows[6][1].Format)
	assert.Len(t, g.Rows, len(st.Rows))
}

func TestProjectWorkbookNames(t *testing.T) {
	long := strings.Repeat("x", 40)
	project := core.Project{Controls: []core.MonthlyControl{
		{ID: "1", Name: "Jan/2024"},
		{ID: "2", Name: "jan2024"},
		{ID: "3", Name: "::"},
		{ID: "4", Name: long},
		{ID: "5", Name: long},
	}}

	grids := ProjectWorkbook(project, issued)
	names := make([]string, len(grids))
	for i, g := range grids {
		names[i] = g.Name
		assert.LessOrEqual(t, utf8.RuneCountInString(g.Name), MaxSheetName, g.Name)
	}

	x31 := strings.Repeat("x", 31)
	assert.Equal(t, []string{
		"Jan2024", "PC - Jan2024",
		"jan2024 (2)", "PC - jan2024 (2)",
		"Controle 3", "PC - Controle 3",
		x31, "PC - " + strings.Repeat("x", 26),
		strings.Repeat("x", 27) + " (2)", "PC - " + strings.Repeat("x", 22) + " (2)",
	}, names)
}

func TestProjectWorkbookDeterministic(t *testing.T) {
	project := core.Project{Controls: []core.MonthlyControl{{Name: "A"}, {Name: "a"}, {Name: "A"}}}
	first := ProjectWorkbook(project, issued)
	second := ProjectWorkbook(project, issued)
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
	}
	assert.Equal(t, "a (2)", first[2].Name)
	assert.Equal(t, "A (3)", first[4].Name)
}

func TestPrefixSheets(t *testing.T) {
	grids := []Grid{{Name: "Maio"}, {Name: "PC - Maio"}}

	got := PrefixSheets(grids, "Projeto Água: ")
	require.Len(t, got, 2)
	assert.Equal(t, "Projeto Água Maio", got[0].Name)
	assert.Equal(t, "Projeto Água PC - Maio", got[1].Name)
	assert.Equal(t, "Maio", grids[0].Name, "input must not be renamed")

	long := PrefixSheets([]Grid{
		{Name: strings.Repeat("x", 31)},
		{Name: strings.Repeat("x", 30) + "y"},
	}, "Prefixo longo ")
	require.Len(t, long, 2)
	assert.NotEqual(t, long[0].Name, long[1].Name)
	for _, g := range long {
		assert.LessOrEqual(t, utf8.RuneCountInString(g.Name), MaxSheetName)
	}
}
