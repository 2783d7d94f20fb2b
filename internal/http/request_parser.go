// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for decoding and sanitizing request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"saa/internal/core"
	"saa/internal/services"
)

// maxBodyBytes bounds JSON and CSV request bodies.
const maxBodyBytes = 1 << 20

// errBodyTooLarge is returned when a body exceeds maxBodyBytes.
var errBodyTooLarge = errors.New("corpo da requisição muito grande")

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return fmt.Errorf("decode request body: %w", err)
	}
	if dec.More() {
		return errors.New("decode request body: trailing data")
	}
	return nil
}

// decodeFailure turns a decode error into the matching response.
func decodeFailure(err error) *ResponseBuilder {
	if errors.Is(err, errBodyTooLarge) {
		return ErrorResponse(http.StatusRequestEntityTooLarge, err.Error())
	}
	return BadRequestError("formato da requisição inválido")
}

// sanitizeInput removes control characters other than tab and newlines
// and trims whitespace.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizeAll(fields ...*string) {
	for _, f := range fields {
		*f = sanitizeInput(*f)
	}
}

// sanitizePayment leaves Category untrimmed: subtotals match the reserved
// category tags exactly, so "Estornos " stays an ordinary expense.
func sanitizePayment(p *core.Payment) {
	p.Category = stripControl(p.Category)
	sanitizeAll(
		&p.ID, &p.Reference, &p.DueDate, &p.PaymentDate, &p.Amount, &p.AmountPaid,
		&p.Objective, &p.Description, &p.Notes, &p.PaymentStatus,
		&p.ApprovalStatus, &p.VoucherType, &p.VoucherNumber, &p.SupplierCode,
		&p.SupplierName, &p.SupplierTaxID, &p.BankCode, &p.Branch, &p.Account, &p.PixKey,
	)
}

// sanitizeFinancials leaves the derived subtotals alone; they are
// recomputed from the payments on save.
func sanitizeFinancials(f *core.FinancialData) {
	sanitizeAll(
		&f.PeriodFrom, &f.PeriodTo, &f.TotalApproved, &f.InstallmentReceived,
		&f.PriorBalance, &f.InvestmentYield, &f.Donation, &f.InterAccountLoans,
		&f.CreditRefund, &f.NetworkDonation, &f.Redemptions,
		&f.BankStatementBalance, &f.InvestmentStatementBalance, &f.StatementDate,
	)
}

func sanitizeSupplier(s *core.Supplier) {
	sanitizeAll(&s.ID, &s.Code, &s.Name, &s.TaxID, &s.BankCode, &s.Branch, &s.Account, &s.PixKey)
}

func sanitizeHeader(h *services.ProjectHeader) {
	sanitizeAll(&h.Title, &h.Organization, &h.ResponsibleParty, &h.Bank, &h.Branch, &h.Account)
}

// controlRequest is the body of control create and rename requests.
type controlRequest struct {
	Name string `json:"name"`
}
