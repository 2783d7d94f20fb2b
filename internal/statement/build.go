package statement

import (
	"time"

	"github.com/shopspring/decimal"

	"saa/internal/core"
)

func text(s string) Cell            { return Cell{Text: s} }
func money(d decimal.Decimal) Cell  { return Cell{Amount: d, Money: true} }
func row(k Kind, cells ...Cell) Row { return Row{Kind: k, Cells: cells} }

var blank = Row{Kind: KindBlank}

// Build renders the statement of control within project. issued is the
// delivery date printed in the header block.
func Build(project core.Project, control core.MonthlyControl, issued time.Time) Statement {
	fin := control.Financials
	t := Compute(control)
	ordinary := Ordinary(control.Payments)

	statementDate := core.FormatBR(fin.StatementDate)

	rows := make([]Row, 0, 40+len(ordinary))
	rows = append(rows,
		row(KindTitle, text(Title)),
		row(KindHeader, text("Título do Projeto:"), text(project.Title), Cell{}, text("Contrato nº:"), text(project.Title)),
		row(KindHeader, text("Organização:"), text(project.Organization), Cell{}, text("Responsável financeiro:"), text(project.ResponsibleParty)),
		row(KindHeader, text("Data de entrega:"), text(issued.Format(core.BRDate)), Cell{}, text("Banco:"), text(project.Bank),
			text("Agência: "+project.Branch), text("Conta Corrente: "+project.Account)),
		row(KindHeader, text("Período relatado:"), text("De: "+core.FormatBR(fin.PeriodFrom)), text("Até: "+core.FormatBR(fin.PeriodTo))),
		blank,
		row(KindValue, text("TOTAL APROVADO"), money(t.TotalApproved)),
		row(KindValue, text("PARCELA RECEBIDA em R$"), money(t.InstallmentReceived)),
		row(KindValue, text("SALDO DA PARCELA ANTERIOR"), money(t.PriorBalance)),
		row(KindValue, text("DISPONÍVEL PARA GASTO"), money(t.AvailableToSpend)),
		row(KindValue, text("TOTAL DE GASTOS"), money(t.TotalExpenses)),
		row(KindValue, text("SALDO FINAL"), money(t.ComputedClosingBalance)),
		blank,
		row(KindSection, text("1. Receitas"), text("Valor (R$)")),
		row(KindValue, text("Saldo Anterior"), money(t.PriorBalance)),
		row(KindValue, text("Rendimentos Líquidos de Aplicação Financeira"), money(core.Normalize(fin.InvestmentYield))),
		row(KindValue, text("Doação"), money(core.Normalize(fin.Donation))),
		row(KindValue, text("Empréstimos entre contas"), money(core.Normalize(fin.InterAccountLoans))),
		row(KindValue, text("Devolução de crédito indevido"), money(core.Normalize(fin.CreditRefund))),
		row(KindValue, text("Doação Rede Cerrado"), money(core.Normalize(fin.NetworkDonation))),
		row(KindValue, text("Resgates"), money(core.Normalize(fin.Redemptions))),
		blank,
		row(KindTotal, text("Total das Receitas"), money(t.TotalRevenue)),
		blank,
		row(KindSection, text("2. Despesas"), text("Valor (R$)")),
		row(KindColumns, text("Elemento de Despesa"), text("Descrição da Despesa"), text("Valor (R$)")),
	)

	for _, p := range ordinary {
		rows = append(rows, row(KindItem, text(p.Category), text(p.Description), money(core.Normalize(p.Amount))))
	}

	rows = append(rows,
		blank,
		row(KindValue, text("Taxas Bancárias"), money(t.BankFees)),
		row(KindValue, text("Estornos"), money(t.Reversals)),
		row(KindValue, text("Aplicação Financeira"), money(t.FinancialApplication)),
		row(KindValue, text("Pagamento indevido"), money(t.ImproperPayment)),
		blank,
		row(KindTotal, text("Total das Despesas"), money(t.TotalExpenses)),
		blank,
		row(KindClosing, text("3. Saldo do Projeto ( 1 - 2 )"), money(t.ProjectBalance)),
		row(KindClosing, text("4. Saldo Bancário (Conforme Extrato Bancário): Em "+statementDate), money(t.BankStatementBalance)),
		row(KindClosing, text("5. Saldo de Aplicação Financeira (Conforme Extrato Bancário): Em "+statementDate), money(t.InvestmentBalance)),
		row(KindClosing, text("6. Saldo Final = Diferença ( = 4 (+) 5 (-) 3 )"), money(t.FinalDifference)),
	)

	return Statement{
		ProjectID: project.ID,
		ControlID: control.ID,
		Issued:    core.FormatISODate(issued),
		Totals:    t,
		Ordinary:  ordinary,
		Rows:      rows,
	}
}
