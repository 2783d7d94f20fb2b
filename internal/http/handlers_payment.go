package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"saa/internal/core"
	"saa/internal/export"
	applog "saa/internal/log"
)

// handleSavePayment inserts or replaces a payment. On PUT the path ID wins
// over the body.
func (s *Server) handleSavePayment(w http.ResponseWriter, r *http.Request) {
	var p core.Payment
	if err := decodeJSON(w, r, &p); err != nil {
		decodeFailure(err).Write(w)
		return
	}
	if pid := r.PathValue("pid"); pid != "" {
		p.ID = pid
	}
	sanitizePayment(&p)

	projectID, controlID := r.PathValue("id"), r.PathValue("cid")
	saved, err := s.ledger.SavePayment(r.Context(), projectID, controlID, p)
	if err != nil {
		s.fail(w, r, "Save payment failed", err)
		return
	}

	atomic.AddInt64(&s.appMetrics.paymentsSaved, 1)
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogPaymentSaved(r.Context(), projectID, controlID, saved)

	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	NewResponse().Status(status).JSON(saved).Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	err := s.ledger.DeletePayment(r.Context(), r.PathValue("id"), r.PathValue("cid"), r.PathValue("pid"))
	if err != nil {
		s.fail(w, r, "Delete payment failed", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// handleImportPayments appends the payments of a CSV export to a control.
func (s *Server) handleImportPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := export.DecodePayments(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			decodeFailure(errBodyTooLarge).Write(w)
			return
		}
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	for i := range payments {
		sanitizePayment(&payments[i])
	}

	c, err := s.ledger.ImportPayments(r.Context(), r.PathValue("id"), r.PathValue("cid"), payments)
	if err != nil {
		s.fail(w, r, "Import payments failed", err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Payments imported",
		applog.FieldProjectID, r.PathValue("id"),
		applog.FieldControlID, c.ID,
		applog.FieldRows, len(payments))

	NewResponse().JSON(c).Write(w)
}
