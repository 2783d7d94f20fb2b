package http

import (
	"net/http"

	"saa/internal/services"
)

func (s *Server) handleControlCSV(w http.ResponseWriter, r *http.Request) {
	f, err := s.exports.ControlCSV(r.Context(), r.PathValue("id"), r.PathValue("cid"))
	if err != nil {
		s.fail(w, r, "CSV export failed", err)
		return
	}
	s.writeFile(w, f)
}

func (s *Server) handleProjectWorkbook(w http.ResponseWriter, r *http.Request) {
	f, err := s.exports.ProjectWorkbook(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "Workbook export failed", err)
		return
	}
	s.writeFile(w, f)
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	st, err := s.exports.Statement(r.Context(), r.PathValue("id"), r.PathValue("cid"))
	if err != nil {
		s.fail(w, r, "Statement failed", err)
		return
	}
	NewResponse().JSON(st).Write(w)
}

// handleDocumentFields answers with the template fields of one payment.
func (s *Server) handleDocumentFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.exports.DocumentFields(r.Context(), r.PathValue("id"), r.PathValue("cid"), r.PathValue("pid"))
	if err != nil {
		s.fail(w, r, "Document fields failed", err)
		return
	}
	NewResponse().JSON(fields).Write(w)
}

func (s *Server) writeFile(w http.ResponseWriter, f services.File) {
	s.countExport()
	NewResponse().Body(f.ContentType, f.Data).Attachment(f.Name).Write(w)
}
