package http

import (
	"net/http"

	"saa/internal/core"
)

func (s *Server) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := s.ledger.ListSuppliers(r.Context())
	if err != nil {
		s.fail(w, r, "List suppliers failed", err)
		return
	}
	if suppliers == nil {
		suppliers = []core.Supplier{}
	}
	NewResponse().JSON(suppliers).Write(w)
}

func (s *Server) handleSaveSupplier(w http.ResponseWriter, r *http.Request) {
	var sup core.Supplier
	if err := decodeJSON(w, r, &sup); err != nil {
		decodeFailure(err).Write(w)
		return
	}
	if id := r.PathValue("id"); id != "" {
		sup.ID = id
	}
	sanitizeSupplier(&sup)

	saved, err := s.ledger.SaveSupplier(r.Context(), sup)
	if err != nil {
		s.fail(w, r, "Save supplier failed", err)
		return
	}
	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	NewResponse().Status(status).JSON(saved).Write(w)
}

func (s *Server) handleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteSupplier(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, "Delete supplier failed", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
