package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type of an XLSX workbook.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrNoSheets is returned when asked to write a workbook without sheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// WriteXLSX renders grids as an XLSX workbook into w.
func WriteXLSX(w io.Writer, grids []Grid) error {
	f, err := RenderXLSX(grids)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// RenderXLSX builds an in-memory workbook with one sheet per grid. The
// caller owns the returned file and must Close it.
func RenderXLSX(grids []Grid) (*excelize.File, error) {
	if len(grids) == 0 {
		return nil, ErrNoSheets
	}

	f := excelize.NewFile()
	styles := map[string]int{}

	for i, g := range grids {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), g.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("name sheet %q: %w", g.Name, err)
			}
		} else if _, err := f.NewSheet(g.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("add sheet %q: %w", g.Name, err)
		}

		if err := renderGrid(f, g, styles); err != nil {
			f.Close()
			return nil, fmt.Errorf("render sheet %q: %w", g.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func renderGrid(f *excelize.File, g Grid, styles map[string]int) error {
	for r, row := range g.Rows {
		for c, cell := range row {
			if cell.Kind == CellEmpty {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			switch cell.Kind {
			case CellText:
				if err := f.SetCellStr(g.Name, ref, cell.Text); err != nil {
					return err
				}
			case CellNumber:
				if err := f.SetCellFloat(g.Name, ref, cell.Number.InexactFloat64(), -1, 64); err != nil {
					return err
				}
				if cell.Format == "" {
					continue
				}
				id, err := numberStyle(f, styles, cell.Format)
				if err != nil {
					return err
				}
				if err := f.SetCellStyle(g.Name, ref, ref, id); err != nil {
					return err
				}
			}
		}
	}

	for _, m := range g.Merges {
		tl, err := excelize.CoordinatesToCellName(m.StartCol+1, m.StartRow+1)
		if err != nil {
			return err
		}
		br, err := excelize.CoordinatesToCellName(m.EndCol+1, m.EndRow+1)
		if err != nil {
			return err
		}
		if err := f.MergeCell(g.Name, tl, br); err != nil {
			return err
		}
	}

	for i, w := range g.ColWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(g.Name, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func numberStyle(f *excelize.File, styles map[string]int, format string) (int, error) {
	if id, ok := styles[format]; ok {
		return id, nil
	}
	code := format
	id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
	if err != nil {
		return 0, fmt.Errorf("number style %q: %w", format, err)
	}
	styles[format] = id
	return id, nil
}
