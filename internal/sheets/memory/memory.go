// Package memory is an in-process spreadsheet used when no Google
// credentials are configured and in tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"saa/internal/export"
	ports "saa/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	order  []string
	sheets map[string]export.Grid
	writes int
}

var _ ports.Publisher = (*Store)(nil)

func New() *Store {
	return &Store{sheets: map[string]export.Grid{}}
}

// EnsureSheets creates empty sheets for names not seen before.
func (s *Store) EnsureSheets(_ context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("empty sheet name")
		}
		if _, ok := s.sheets[n]; ok {
			continue
		}
		s.sheets[n] = export.Grid{Name: n}
		s.order = append(s.order, n)
	}
	return nil
}

// PublishSheet replaces the stored grid. The sheet must exist.
func (s *Store) PublishSheet(_ context.Context, g export.Grid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sheets[g.Name]; !ok {
		return fmt.Errorf("sheet %q not found", g.Name)
	}
	s.sheets[g.Name] = g
	s.writes++
	return nil
}

// Sheet returns the last grid published under name.
func (s *Store) Sheet(name string) (export.Grid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.sheets[name]
	return g, ok
}

// Names lists sheets in creation order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Writes counts successful PublishSheet calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
