// Package sheets publishes rendered grids to an online spreadsheet.
package sheets

import (
	"context"

	"saa/internal/export"
)

// Publisher writes grids into a spreadsheet, one sheet per grid.
type Publisher interface {
	// EnsureSheets creates the named sheets that do not exist yet.
	EnsureSheets(ctx context.Context, names []string) error
	// PublishSheet replaces the content, merges and column widths of the
	// sheet named after the grid.
	PublishSheet(ctx context.Context, g export.Grid) error
}
