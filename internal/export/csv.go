// Package export renders payments and statements into the tabular formats
// handed to users: a delimited text table and a cell grid written as XLSX.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"saa/internal/core"
)

// PaymentHeaders are the fixed column titles of the payment table, in order.
var PaymentHeaders = []string{
	"Código Fornecedor",
	"Data de Vencimento",
	"Nome do Fornecedor (Beneficiário)",
	"CNPJ Fornecedor (Beneficiário)",
	"Valor à Pagar (R$)",
	"Tipo de Comprovante",
	"Nº do Comprovante",
	"Objetivo",
	"Elemento de Despesa",
	"Descrição da Despesa",
	"Data do Pagto",
	"Valor Pago (R$)",
	"Observações",
	"Status do Pagamento",
	"Status do SAA",
	"Nº do SAA",
}

// Column positions of the monetary fields.
const (
	ColAmount     = 4
	ColAmountPaid = 11
)

// BOM is the UTF-8 byte order mark spreadsheet tools need to detect the
// encoding of a downloaded CSV.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrHeaderMismatch is returned by DecodeCSV when the first record is not
// the payment header.
var ErrHeaderMismatch = errors.New("csv header does not match payment columns")

// PaymentRecord projects a payment onto the 16 table columns as text.
func PaymentRecord(p core.Payment) []string {
	return []string{
		p.SupplierCode,
		core.FormatBR(p.DueDate),
		p.SupplierName,
		p.SupplierTaxID,
		core.FormatComma(core.Normalize(p.Amount)),
		p.VoucherType,
		p.VoucherNumber,
		p.Objective,
		p.Category,
		p.Description,
		core.FormatBR(p.PaymentDate),
		core.FormatComma(core.Normalize(p.AmountPaid)),
		p.Notes,
		p.PaymentStatus,
		p.ApprovalStatus,
		p.Reference,
	}
}

// EncodeCSV renders the payments as a comma-delimited table with a header
// row. Rows are joined by "\n" with no trailing newline. Cells containing a
// comma, a quote or a line break are quoted with inner quotes doubled.
func EncodeCSV(payments []core.Payment) string {
	var b strings.Builder
	writeRecord(&b, PaymentHeaders)
	for _, p := range payments {
		b.WriteByte('\n')
		writeRecord(&b, PaymentRecord(p))
	}
	return b.String()
}

func writeRecord(b *strings.Builder, cells []string) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeCell(c))
	}
}

func escapeCell(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WithBOM prefixes data with the UTF-8 byte order mark.
func WithBOM(data []byte) []byte {
	out := make([]byte, 0, len(BOM)+len(data))
	out = append(out, BOM...)
	return append(out, data...)
}

// DecodeCSV parses a table produced by EncodeCSV, with or without BOM, and
// returns the data records without the header. Quoted cells come back byte
// for byte, "\r\n" line breaks included.
func DecodeCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, BOM)

	records, err := splitRecords(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrHeaderMismatch
	}
	for i, rec := range records {
		if len(rec) != len(PaymentHeaders) {
			return nil, fmt.Errorf("parse csv: record %d has %d fields, want %d", i+1, len(rec), len(PaymentHeaders))
		}
	}
	for i, h := range PaymentHeaders {
		if records[0][i] != h {
			return nil, fmt.Errorf("%w: column %d is %q", ErrHeaderMismatch, i+1, records[0][i])
		}
	}
	return records[1:], nil
}

// splitRecords reverses writeRecord over "\n"-joined rows. A "\r" ending an
// unquoted cell before a row break is dropped, so tables resaved with CRLF
// rows still parse; escapeCell always quotes cells that contain one. Blank
// lines are skipped.
func splitRecords(s string) ([][]string, error) {
	var (
		records [][]string
		rec     []string
		blank   = true
		line    = 1
	)
	for i := 0; ; {
		var cell string
		if i < len(s) && s[i] == '"' {
			var b strings.Builder
			closed := false
			for i++; i < len(s); i++ {
				c := s[i]
				if c == '"' {
					if i+1 < len(s) && s[i+1] == '"' {
						b.WriteByte('"')
						i++
						continue
					}
					closed = true
					i++
					break
				}
				if c == '\n' {
					line++
				}
				b.WriteByte(c)
			}
			if !closed {
				return nil, fmt.Errorf("line %d: unterminated quoted cell", line)
			}
			if strings.HasPrefix(s[i:], "\r\n") {
				i++
			}
			if i < len(s) && s[i] != ',' && s[i] != '\n' {
				return nil, fmt.Errorf("line %d: unexpected %q after quoted cell", line, s[i])
			}
			cell, blank = b.String(), false
		} else {
			end := strings.IndexAny(s[i:], ",\n")
			if end < 0 {
				end = len(s) - i
			}
			cell = s[i : i+end]
			i += end
			if i == len(s) || s[i] == '\n' {
				cell = strings.TrimSuffix(cell, "\r")
			}
			if strings.ContainsRune(cell, '"') {
				return nil, fmt.Errorf("line %d: bare quote in unquoted cell", line)
			}
			if cell != "" || (i < len(s) && s[i] == ',') || len(rec) > 0 {
				blank = false
			}
		}
		rec = append(rec, cell)

		if i < len(s) && s[i] == ',' {
			i++
			continue
		}
		if !blank {
			records = append(records, rec)
		}
		if i >= len(s) {
			return records, nil
		}
		rec, blank = nil, true
		i++
		line++
	}
}

// DecodePayments parses a payment table back into payments. Dates are
// stored as YYYY-MM-DD and amounts in dot-decimal form; IDs are left empty.
func DecodePayments(r io.Reader) ([]core.Payment, error) {
	records, err := DecodeCSV(r)
	if err != nil {
		return nil, err
	}
	out := make([]core.Payment, 0, len(records))
	for _, rec := range records {
		out = append(out, core.Payment{
			SupplierCode:   rec[0],
			DueDate:        isoFromBR(rec[1]),
			SupplierName:   rec[2],
			SupplierTaxID:  rec[3],
			Amount:         core.Normalize(rec[4]).String(),
			VoucherType:    rec[5],
			VoucherNumber:  rec[6],
			Objective:      rec[7],
			Category:       rec[8],
			Description:    rec[9],
			PaymentDate:    isoFromBR(rec[10]),
			AmountPaid:     core.Normalize(rec[11]).String(),
			Notes:          rec[12],
			PaymentStatus:  rec[13],
			ApprovalStatus: rec[14],
			Reference:      rec[15],
		})
	}
	return out, nil
}

func isoFromBR(s string) string {
	t, err := time.Parse(core.BRDate, strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return core.FormatISODate(t)
}
