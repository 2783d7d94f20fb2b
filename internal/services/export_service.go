package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"saa/internal/cache"
	"saa/internal/core"
	"saa/internal/docfields"
	"saa/internal/export"
	"saa/internal/statement"
	"saa/internal/storage"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = export.ContentTypeXLSX
)

// File is a rendered download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExportService renders stored projects into downloads and report views.
type ExportService struct {
	projects  storage.ProjectStore
	workbooks cache.Cache[[]byte]
	now       func() time.Time
}

// NewExportService creates an export service. workbooks may be nil to
// disable caching of rendered workbooks.
func NewExportService(projects storage.ProjectStore, workbooks cache.Cache[[]byte]) *ExportService {
	return &ExportService{
		projects:  projects,
		workbooks: workbooks,
		now:       time.Now,
	}
}

func (s *ExportService) control(ctx context.Context, projectID, controlID string) (core.Project, core.MonthlyControl, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return core.Project{}, core.MonthlyControl{}, err
	}
	i := p.ControlIndex(controlID)
	if i < 0 {
		return core.Project{}, core.MonthlyControl{}, fmt.Errorf("control %s: %w", controlID, ErrNotFound)
	}
	return p, p.Controls[i], nil
}

// ControlCSV renders the payments of a control as a CSV download with BOM.
func (s *ExportService) ControlCSV(ctx context.Context, projectID, controlID string) (File, error) {
	p, c, err := s.control(ctx, projectID, controlID)
	if err != nil {
		return File{}, err
	}
	if len(c.Payments) == 0 {
		return File{}, ErrNoPayments
	}

	return File{
		Name:        fileStem(p.Title) + "_" + fileStem(c.Name) + ".csv",
		ContentType: ContentTypeCSV,
		Data:        export.WithBOM([]byte(export.EncodeCSV(c.Payments))),
	}, nil
}

// ProjectWorkbook renders every control of a project into one XLSX
// workbook. Rendered bytes are cached per project version and issue date.
func (s *ExportService) ProjectWorkbook(ctx context.Context, projectID string) (File, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return File{}, err
	}
	if len(p.Controls) == 0 {
		return File{}, ErrNoControls
	}

	issued := s.now()
	file := File{
		Name:        fileStem(p.Title) + "_completo.xlsx",
		ContentType: ContentTypeXLSX,
	}

	key := fmt.Sprintf("%s:%d:%s", p.ID, p.Version, core.FormatISODate(issued))
	if s.workbooks != nil {
		if data, ok := s.workbooks.Get(key); ok {
			file.Data = data
			return file, nil
		}
	}

	data, err := RenderWorkbook(p, issued)
	if err != nil {
		return File{}, err
	}
	if s.workbooks != nil {
		s.workbooks.Set(key, data)
	}

	slog.InfoContext(ctx, "Workbook rendered",
		"project_id", p.ID,
		"version", p.Version,
		"controls", len(p.Controls),
		"bytes", len(data))

	file.Data = data
	return file, nil
}

// RenderWorkbook renders a project snapshot into XLSX bytes.
func RenderWorkbook(p core.Project, issued time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, export.ProjectWorkbook(p, issued)); err != nil {
		return nil, fmt.Errorf("render workbook for project %s: %w", p.ID, err)
	}
	return buf.Bytes(), nil
}

// Statement builds the reconciliation statement of a control.
func (s *ExportService) Statement(ctx context.Context, projectID, controlID string) (statement.Statement, error) {
	p, c, err := s.control(ctx, projectID, controlID)
	if err != nil {
		return statement.Statement{}, err
	}
	return statement.Build(p, c, s.now()), nil
}

// DocumentFields projects a payment onto the document template keys.
func (s *ExportService) DocumentFields(ctx context.Context, projectID, controlID, paymentID string) (map[string]string, error) {
	p, c, err := s.control(ctx, projectID, controlID)
	if err != nil {
		return nil, err
	}
	i := c.PaymentIndex(paymentID)
	if i < 0 {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}
	return docfields.Project(p, c.Payments[i], s.now()), nil
}

// InvalidateProject drops cached renders of a project.
func (s *ExportService) InvalidateProject(projectID string) {
	if s.workbooks != nil {
		s.workbooks.DeletePrefix(projectID + ":")
	}
}

var (
	whitespace   = regexp.MustCompile(`\s`)
	unsafeInName = regexp.MustCompile(`[\\/:*?"<>|]`)
)

// fileStem turns a title into a download file name stem, spaces replaced
// with underscores.
func fileStem(s string) string {
	s = unsafeInName.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return "projeto"
	}
	return whitespace.ReplaceAllString(s, "_")
}
