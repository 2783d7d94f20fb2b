package docfields

import (
	"testing"
	"time"

	"saa/internal/core"
)

func TestProjectKeysAreClosed(t *testing.T) {
	got := Project(core.Project{}, core.Payment{}, time.Now())
	if len(got) != len(Placeholders) {
		t.Fatalf("expected %d keys, got %d", len(Placeholders), len(got))
	}
	for _, p := range Placeholders {
		if _, ok := got[p.Key]; !ok {
			t.Errorf("missing key %q", p.Key)
		}
	}
}

func TestProjectValues(t *testing.T) {
	project := core.Project{Title: "Projeto Água", Bank: "001", Branch: "1234", Account: "999-1"}
	payment := core.Payment{
		Reference:    "SAA-12",
		SupplierName: "Fornecedor X",
		DueDate:      "2024-03-09",
		PaymentDate:  "",
		Amount:       "150.5",
		AmountPaid:   "abc",
		Category:     "Serviços",
	}
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

	got := Project(project, payment, now)

	tests := map[string]string{
		"tituloProjeto":    "Projeto Água",
		"agenciaPROJ":      "1234",
		"SAA":              "SAA-12",
		"dataEmissaoBR":    "01/03/2024",
		"dataVencimento":   "2024-03-09",
		"dataVencimentoBR": "09/03/2024",
		"dataPagamentoBR":  "",
		"valor":            "150.5",
		"valorBR":          "R$ 150,50",
		"valorPagoBR":      "R$ 0,00",
		"tipoDespesa":      "Serviços",
	}
	for key, want := range tests {
		if got[key] != want {
			t.Errorf("%s: expected %q, got %q", key, want, got[key])
		}
	}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "R$ 0,00"},
		{"0", "R$ 0,00"},
		{"12,3", "R$ 12,30"},
		{"999.994", "R$ 999,99"},
		{"-5", "-R$ 5,00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Currency(tt.in); got != tt.want {
				t.Fatalf("Currency(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
