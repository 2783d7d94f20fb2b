// Package google publishes grids to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"saa/internal/export"
	ports "saa/internal/sheets"
)

// pixelsPerChar converts a character column width to pixels.
const pixelsPerChar = 7

// Publisher writes grids into one spreadsheet, one sheet per grid.
type Publisher struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

var _ ports.Publisher = (*Publisher)(nil)

// New creates a publisher authenticated with the given credentials.
func New(ctx context.Context, spreadsheetID string, creds Credentials) (*Publisher, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Publisher{svc: svc, spreadsheetID: spreadsheetID, sheetIDs: map[string]int64{}}, nil
}

// NewWithOptions creates a publisher from raw client options.
func NewWithOptions(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Publisher, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Publisher{svc: svc, spreadsheetID: spreadsheetID, sheetIDs: map[string]int64{}}, nil
}

// EnsureSheets adds the named sheets that the spreadsheet does not have yet.
func (p *Publisher) EnsureSheets(ctx context.Context, names []string) error {
	if p.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := p.loadSheetIDs(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	var reqs []*gsheet.Request
	seen := map[string]bool{}
	for _, n := range names {
		if _, ok := p.sheetIDs[n]; ok || seen[n] {
			continue
		}
		seen[n] = true
		reqs = append(reqs, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: n}},
		})
	}
	p.mu.Unlock()

	if len(reqs) == 0 {
		return nil
	}
	resp, err := p.svc.Spreadsheets.BatchUpdate(p.spreadsheetID,
		&gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheets: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range resp.Replies {
		if r == nil || r.AddSheet == nil || r.AddSheet.Properties == nil {
			continue
		}
		p.sheetIDs[r.AddSheet.Properties.Title] = r.AddSheet.Properties.SheetId
	}
	slog.InfoContext(ctx, "Sheets created", "count", len(reqs))
	return nil
}

// PublishSheet replaces the values of the sheet named after the grid and
// reapplies its merges, number formats and column widths.
func (p *Publisher) PublishSheet(ctx context.Context, g export.Grid) error {
	if p.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheetID, err := p.sheetID(ctx, g.Name)
	if err != nil {
		return err
	}

	rng := sheetRange(g.Name)
	if _, err := p.svc.Spreadsheets.Values.Clear(p.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", g.Name, err)
	}

	vr := &gsheet.ValueRange{Values: gridValues(g)}
	if _, err := p.svc.Spreadsheets.Values.Update(p.spreadsheetID, rng+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %s: %w", g.Name, err)
	}

	reqs := formatRequests(sheetID, g)
	if _, err := p.svc.Spreadsheets.BatchUpdate(p.spreadsheetID,
		&gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("format sheet %s: %w", g.Name, err)
	}
	return nil
}

func (p *Publisher) sheetID(ctx context.Context, name string) (int64, error) {
	p.mu.Lock()
	id, ok := p.sheetIDs[name]
	p.mu.Unlock()
	if ok {
		return id, nil
	}
	if err := p.loadSheetIDs(ctx); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok = p.sheetIDs[name]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found", name)
	}
	return id, nil
}

func (p *Publisher) loadSheetIDs(ctx context.Context) error {
	ss, err := p.svc.Spreadsheets.Get(p.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range ss.Sheets {
		if s == nil || s.Properties == nil {
			continue
		}
		p.sheetIDs[s.Properties.Title] = s.Properties.SheetId
	}
	return nil
}

// sheetRange quotes a sheet name for use in A1 notation.
func sheetRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// gridValues converts a grid into the value matrix of an update call.
// Number cells are sent as numbers so the sheet can format them.
func gridValues(g export.Grid) [][]any {
	out := make([][]any, len(g.Rows))
	for i, r := range g.Rows {
		row := make([]any, len(r))
		for j, c := range r {
			switch c.Kind {
			case export.CellNumber:
				row[j] = c.Number.InexactFloat64()
			default:
				row[j] = c.Text
			}
		}
		out[i] = row
	}
	return out
}

// sheetsPattern converts a spreadsheet number format code into a Sheets
// pattern, quoting the currency literal.
func sheetsPattern(format string) string {
	if rest, ok := strings.CutPrefix(format, "R$ "); ok {
		return `"R$ "` + rest
	}
	return format
}

func gridRange(sheetID int64, startRow, endRow, startCol, endCol int) *gsheet.GridRange {
	return &gsheet.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(startRow),
		EndRowIndex:      int64(endRow),
		StartColumnIndex: int64(startCol),
		EndColumnIndex:   int64(endCol),
		ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}
}

// formatRequests builds the batch that resets merges and applies the grid
// layout. Number formats are sent once per vertical run of equally
// formatted number cells.
func formatRequests(sheetID int64, g export.Grid) []*gsheet.Request {
	reqs := []*gsheet.Request{{
		UnmergeCells: &gsheet.UnmergeCellsRequest{
			Range: &gsheet.GridRange{SheetId: sheetID, ForceSendFields: []string{"SheetId"}},
		},
	}}

	for _, m := range g.Merges {
		reqs = append(reqs, &gsheet.Request{
			MergeCells: &gsheet.MergeCellsRequest{
				MergeType: "MERGE_ALL",
				Range:     gridRange(sheetID, m.StartRow, m.EndRow+1, m.StartCol, m.EndCol+1),
			},
		})
	}

	cols := g.Cols()
	for col := 0; col < cols; col++ {
		start, format := -1, ""
		flush := func(end int) {
			if start < 0 {
				return
			}
			reqs = append(reqs, &gsheet.Request{
				RepeatCell: &gsheet.RepeatCellRequest{
					Range: gridRange(sheetID, start, end, col, col+1),
					Cell: &gsheet.CellData{UserEnteredFormat: &gsheet.CellFormat{
						NumberFormat: &gsheet.NumberFormat{Type: "CURRENCY", Pattern: sheetsPattern(format)},
					}},
					Fields: "userEnteredFormat.numberFormat",
				},
			})
			start = -1
		}
		for row, r := range g.Rows {
			var c export.Cell
			if col < len(r) {
				c = r[col]
			}
			if c.Kind != export.CellNumber || c.Format == "" {
				flush(row)
				continue
			}
			if start >= 0 && c.Format != format {
				flush(row)
			}
			if start < 0 {
				start, format = row, c.Format
			}
		}
		flush(len(g.Rows))
	}

	for i, w := range g.ColWidths {
		reqs = append(reqs, &gsheet.Request{
			UpdateDimensionProperties: &gsheet.UpdateDimensionPropertiesRequest{
				Range: &gsheet.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "COLUMNS",
					StartIndex:      int64(i),
					EndIndex:        int64(i + 1),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
				Properties: &gsheet.DimensionProperties{PixelSize: int64(w * pixelsPerChar)},
				Fields:     "pixelSize",
			},
		})
	}
	return reqs
}
