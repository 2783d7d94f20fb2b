package http

import (
	"net/http"

	"saa/internal/core"
	applog "saa/internal/log"
	"saa/internal/middleware/trace"
	"saa/internal/services"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.ledger.ListProjects(r.Context())
	if err != nil {
		s.fail(w, r, "List projects failed", err)
		return
	}
	if projects == nil {
		projects = []core.Project{}
	}
	NewResponse().JSON(projects).Write(w)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.ledger.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "Get project failed", err)
		return
	}
	NewResponse().JSON(p).Write(w)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var h services.ProjectHeader
	if err := decodeJSON(w, r, &h); err != nil {
		decodeFailure(err).Write(w)
		return
	}
	sanitizeHeader(&h)

	p, err := s.ledger.CreateProject(r.Context(), h)
	if err != nil {
		s.fail(w, r, "Create project failed", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(p).Write(w)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var h services.ProjectHeader
	if err := decodeJSON(w, r, &h); err != nil {
		decodeFailure(err).Write(w)
		return
	}
	sanitizeHeader(&h)

	p, err := s.ledger.UpdateProject(r.Context(), r.PathValue("id"), h)
	if err != nil {
		s.fail(w, r, "Update project failed", err)
		return
	}
	NewResponse().JSON(p).Write(w)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeleteProject(r.Context(), id); err != nil {
		s.fail(w, r, "Delete project failed", err)
		return
	}
	s.exports.InvalidateProject(id)
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleAddControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := decodeJSON(w, r, &req); err != nil {
		decodeFailure(err).Write(w)
		return
	}

	c, err := s.ledger.AddControl(r.Context(), r.PathValue("id"), sanitizeInput(req.Name))
	if err != nil {
		s.fail(w, r, "Add control failed", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(c).Write(w)
}

func (s *Server) handleGetControl(w http.ResponseWriter, r *http.Request) {
	c, err := s.ledger.GetControl(r.Context(), r.PathValue("id"), r.PathValue("cid"))
	if err != nil {
		s.fail(w, r, "Get control failed", err)
		return
	}
	NewResponse().JSON(c).Write(w)
}

func (s *Server) handleRenameControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := decodeJSON(w, r, &req); err != nil {
		decodeFailure(err).Write(w)
		return
	}

	c, err := s.ledger.RenameControl(r.Context(), r.PathValue("id"), r.PathValue("cid"), sanitizeInput(req.Name))
	if err != nil {
		s.fail(w, r, "Rename control failed", err)
		return
	}
	NewResponse().JSON(c).Write(w)
}

func (s *Server) handleDeleteControl(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteControl(r.Context(), r.PathValue("id"), r.PathValue("cid")); err != nil {
		s.fail(w, r, "Delete control failed", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// handleSaveFinancials stores the period inputs and answers with the
// re-aggregated control.
func (s *Server) handleSaveFinancials(w http.ResponseWriter, r *http.Request) {
	var fin core.FinancialData
	if err := decodeJSON(w, r, &fin); err != nil {
		decodeFailure(err).Write(w)
		return
	}
	sanitizeFinancials(&fin)

	c, err := s.ledger.SaveFinancials(r.Context(), r.PathValue("id"), r.PathValue("cid"), fin)
	if err != nil {
		s.fail(w, r, "Save financials failed", err)
		return
	}
	NewResponse().JSON(c).Write(w)
}

// fail logs unexpected errors and writes the mapped error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	resp := ServiceError(err)
	if resp.statusCode >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), msg,
			applog.FieldError, err,
			applog.FieldPath, r.URL.Path)
		resp = NewResponse().Status(resp.statusCode).JSON(errorBody{
			Error:     internalErrorMessage,
			RequestID: trace.GetRequestID(r.Context()),
		})
	} else {
		applog.FromContext(r.Context()).DebugContext(r.Context(), msg,
			applog.FieldError, err,
			applog.FieldStatusCode, resp.statusCode)
	}
	resp.Write(w)
}
