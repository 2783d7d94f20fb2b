// Package docfields projects a project and one of its payments onto the
// closed set of placeholder keys available to document templates.
package docfields

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"saa/internal/core"
)

// Placeholder describes one template key.
type Placeholder struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Placeholders lists every key produced by Project, in display order.
var Placeholders = []Placeholder{
	{"tituloProjeto", "Título do Projeto"},
	{"organizacao", "Organização"},
	{"responsavelFinanceiro", "Responsável financeiro"},
	{"bancoPROJ", "Banco do Projeto"},
	{"agenciaPROJ", "Agência do Projeto"},
	{"contaCorrentePROJ", "Conta Corrente do Projeto"},
	{"SAA", "Nº do SAA"},
	{"dataEmissaoBR", "Data de Geração do Documento (dd/mm/aaaa)"},
	{"nomeFornecedor", "Nome / Razão Social do Fornecedor"},
	{"CNPJ_FORNECEDOR", "CNPJ / CPF do Fornecedor"},
	{"codigoFornecedor", "Código do Fornecedor"},
	{"bancoCodigo", "Banco / Código do Fornecedor"},
	{"agencia", "Agência do Fornecedor"},
	{"contaCorrente", "Conta Corrente do Fornecedor"},
	{"pix", "Chave PIX do Fornecedor"},
	{"objetivo", "Objetivo da Despesa"},
	{"tipoDespesa", "Elemento de Despesa"},
	{"descricaoDespesa", "Descrição da Despesa"},
	{"tipoComprovante", "Tipo de Comprovante"},
	{"numComprovante", "Número do Comprovante"},
	{"valor", "Valor a Pagar (número)"},
	{"valorBR", "Valor a Pagar (Formatado R$)"},
	{"dataVencimento", "Data de Vencimento (aaaa-mm-dd)"},
	{"dataVencimentoBR", "Data de Vencimento (dd/mm/aaaa)"},
	{"dataPagamento", "Data do Pagamento (aaaa-mm-dd)"},
	{"dataPagamentoBR", "Data do Pagamento (dd/mm/aaaa)"},
	{"valorPago", "Valor Pago (número)"},
	{"valorPagoBR", "Valor Pago (Formatado R$)"},
	{"observacoes", "Observações"},
	{"statusPagamento", "Status do Pagamento"},
	{"statusSAA", "Status do SAA"},
}

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Project returns the template values for payment within project. now is
// the document issue date.
func Project(project core.Project, payment core.Payment, now time.Time) map[string]string {
	return map[string]string{
		"tituloProjeto":         project.Title,
		"organizacao":           project.Organization,
		"responsavelFinanceiro": project.ResponsibleParty,
		"bancoPROJ":             project.Bank,
		"agenciaPROJ":           project.Branch,
		"contaCorrentePROJ":     project.Account,
		"SAA":                   payment.Reference,
		"dataEmissaoBR":         now.Format(core.BRDate),
		"nomeFornecedor":        payment.SupplierName,
		"CNPJ_FORNECEDOR":       payment.SupplierTaxID,
		"codigoFornecedor":      payment.SupplierCode,
		"bancoCodigo":           payment.BankCode,
		"agencia":               payment.Branch,
		"contaCorrente":         payment.Account,
		"pix":                   payment.PixKey,
		"objetivo":              payment.Objective,
		"tipoDespesa":           payment.Category,
		"descricaoDespesa":      payment.Description,
		"tipoComprovante":       payment.VoucherType,
		"numComprovante":        payment.VoucherNumber,
		"valor":                 payment.Amount,
		"valorBR":               Currency(payment.Amount),
		"dataVencimento":        payment.DueDate,
		"dataVencimentoBR":      core.FormatBR(payment.DueDate),
		"dataPagamento":         payment.PaymentDate,
		"dataPagamentoBR":       core.FormatBR(payment.PaymentDate),
		"valorPago":             payment.AmountPaid,
		"valorPagoBR":           Currency(payment.AmountPaid),
		"observacoes":           payment.Notes,
		"statusPagamento":       payment.PaymentStatus,
		"statusSAA":             payment.ApprovalStatus,
	}
}

// Currency formats a stored amount as Brazilian reais, e.g. "R$ 1.234,56".
// Unparseable amounts render as "R$ 0,00".
func Currency(amount string) string {
	d := core.Normalize(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "R$ " + printer.Sprintf("%.2f", d.InexactFloat64())
}
