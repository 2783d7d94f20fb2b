package core

// Reserved expense categories. Totals for these tags are always derived
// from the payment list and never edited directly.
const (
	CategoryBankFees             = "Taxas Bancarias"
	CategoryReversals            = "Estornos"
	CategoryFinancialApplication = "Aplicação Financeira"
	CategoryImproperPayment      = "Pagamento indevido"
)

// ReservedCategories lists the reserved tags in statement order.
var ReservedCategories = []string{
	CategoryBankFees,
	CategoryReversals,
	CategoryFinancialApplication,
	CategoryImproperPayment,
}

// IsReservedCategory reports whether tag is one of the reserved categories.
// The comparison is exact: case-sensitive and without trimming.
func IsReservedCategory(tag string) bool {
	for _, c := range ReservedCategories {
		if tag == c {
			return true
		}
	}
	return false
}

type (
	// Payment is one payable transaction (an SAA) inside a monthly control.
	// Amounts and dates are kept as entered; use Normalize and ParseDate
	// before doing arithmetic or formatting.
	Payment struct {
		ID             string `json:"id"`
		Reference      string `json:"reference"` // SAA number
		DueDate        string `json:"dueDate"`
		PaymentDate    string `json:"paymentDate"`
		Amount         string `json:"amount"`
		AmountPaid     string `json:"amountPaid"`
		Category       string `json:"category"` // expense element
		Objective      string `json:"objective"`
		Description    string `json:"description"`
		Notes          string `json:"notes"`
		PaymentStatus  string `json:"paymentStatus"`
		ApprovalStatus string `json:"approvalStatus"`
		VoucherType    string `json:"voucherType"`
		VoucherNumber  string `json:"voucherNumber"`

		SupplierCode  string `json:"supplierCode"`
		SupplierName  string `json:"supplierName"`
		SupplierTaxID string `json:"supplierTaxId"`
		BankCode      string `json:"bankCode"`
		Branch        string `json:"branch"`
		Account       string `json:"account"`
		PixKey        string `json:"pixKey"`
	}

	// FinancialData holds the period inputs of a monthly control together
	// with the fields derived from its payments.
	FinancialData struct {
		PeriodFrom string `json:"periodFrom"`
		PeriodTo   string `json:"periodTo"`

		TotalApproved       string `json:"totalApproved"`
		InstallmentReceived string `json:"installmentReceived"`
		PriorBalance        string `json:"priorBalance"`

		// Revenues
		InvestmentYield   string `json:"investmentYield"`
		Donation          string `json:"donation"`
		InterAccountLoans string `json:"interAccountLoans"`
		CreditRefund      string `json:"creditRefund"`
		NetworkDonation   string `json:"networkDonation"`
		Redemptions       string `json:"redemptions"`

		// Derived from payments, read-only.
		BankFees             string `json:"bankFees"`
		Reversals            string `json:"reversals"`
		FinancialApplication string `json:"financialApplication"`
		ImproperPayment      string `json:"improperPayment"`

		BankStatementBalance       string `json:"bankStatementBalance"`
		InvestmentStatementBalance string `json:"investmentStatementBalance"`
		StatementDate              string `json:"statementDate"`
	}

	// MonthlyControl is one accounting period of a project.
	MonthlyControl struct {
		ID         string        `json:"id"`
		Name       string        `json:"name"`
		Payments   []Payment     `json:"payments"`
		Financials FinancialData `json:"financials"`
	}

	// Project is the top-level owner of monthly controls. Only the header
	// fields are used by reports.
	Project struct {
		ID               string           `json:"id"`
		Title            string           `json:"title"`
		Organization     string           `json:"organization"`
		ResponsibleParty string           `json:"responsibleParty"`
		Bank             string           `json:"bank"`
		Branch           string           `json:"branch"`
		Account          string           `json:"account"`
		Controls         []MonthlyControl `json:"controls"`
		Version          int64            `json:"version"`
	}

	// Supplier is a registry entry reused when filling payments.
	Supplier struct {
		ID       string `json:"id"`
		Code     string `json:"code"`
		Name     string `json:"name"`
		TaxID    string `json:"taxId"`
		BankCode string `json:"bankCode"`
		Branch   string `json:"branch"`
		Account  string `json:"account"`
		PixKey   string `json:"pixKey"`
	}
)

// Clone returns a deep copy of the control so callers can apply
// copy-with-replacement updates without touching shared snapshots.
func (c MonthlyControl) Clone() MonthlyControl {
	out := c
	if c.Payments != nil {
		out.Payments = append([]Payment(nil), c.Payments...)
	}
	return out
}

// Clone returns a deep copy of the project, including every control.
func (p Project) Clone() Project {
	out := p
	if p.Controls != nil {
		out.Controls = make([]MonthlyControl, len(p.Controls))
		for i, c := range p.Controls {
			out.Controls[i] = c.Clone()
		}
	}
	return out
}

// ControlIndex returns the position of the control with the given ID, or -1.
func (p Project) ControlIndex(id string) int {
	for i, c := range p.Controls {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// PaymentIndex returns the position of the payment with the given ID, or -1.
func (c MonthlyControl) PaymentIndex(id string) int {
	for i, p := range c.Payments {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// SupplierFromPayment extracts the supplier identification carried by a payment.
func SupplierFromPayment(p Payment) Supplier {
	return Supplier{
		Code:     p.SupplierCode,
		Name:     p.SupplierName,
		TaxID:    p.SupplierTaxID,
		BankCode: p.BankCode,
		Branch:   p.Branch,
		Account:  p.Account,
		PixKey:   p.PixKey,
	}
}
