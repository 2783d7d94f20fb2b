package export

import (
	"fmt"
	"strings"
	"time"

	"saa/internal/core"
	"saa/internal/statement"
)

// MaxSheetName is the longest sheet name spreadsheet applications accept.
const MaxSheetName = 31

// StatementPrefix is prepended to a control's sheet name for its statement.
const StatementPrefix = "PC - "

const invalidSheetChars = `\/*?:"<>|[]`

// SanitizeSheetName strips characters not allowed in sheet names, trims
// leading and trailing apostrophes and truncates to MaxSheetName runes.
func SanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidSheetChars, r) {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, "'")
	return strings.Trim(truncate(name, MaxSheetName), "'")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// sheetNames hands out unique names, compared case-insensitively.
type sheetNames map[string]struct{}

func (s sheetNames) claim(name string) string {
	if _, taken := s[strings.ToLower(name)]; !taken {
		s[strings.ToLower(name)] = struct{}{}
		return name
	}
	for n := 2; ; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate := truncate(name, MaxSheetName-len([]rune(suffix))) + suffix
		if _, taken := s[strings.ToLower(candidate)]; !taken {
			s[strings.ToLower(candidate)] = struct{}{}
			return candidate
		}
	}
}

// ControlSheetName is the sanitized payment sheet name of the control at
// position i, falling back to "Controle <i+1>" when nothing usable is left.
func ControlSheetName(c core.MonthlyControl, i int) string {
	name := SanitizeSheetName(c.Name)
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Controle %d", i+1)
	}
	return name
}

// ProjectWorkbook lays out one payment sheet followed by one statement
// sheet per control, in control order. Names are unique within the
// workbook.
func ProjectWorkbook(project core.Project, issued time.Time) []Grid {
	names := sheetNames{}
	grids := make([]Grid, 0, 2*len(project.Controls))
	for i, c := range project.Controls {
		base := ControlSheetName(c, i)
		payName := names.claim(base)
		pcName := names.claim(truncate(StatementPrefix+base, MaxSheetName))

		grids = append(grids,
			PaymentGrid(payName, c.Payments),
			StatementGrid(pcName, statement.Build(project, c, issued)),
		)
	}
	return grids
}

// PrefixSheets renames grids to prefix+name, keeping names valid and unique.
// It is used when several projects share one spreadsheet.
func PrefixSheets(grids []Grid, prefix string) []Grid {
	names := sheetNames{}
	out := make([]Grid, len(grids))
	for i, g := range grids {
		g.Name = names.claim(SanitizeSheetName(prefix + g.Name))
		out[i] = g
	}
	return out
}
