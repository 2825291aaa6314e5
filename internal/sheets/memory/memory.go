// Package memory is the in-process MetricsExporter. It keeps rows in the
// same (kind, key) upsert order a real sheet would have.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "rizesync/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []ports.MetricsRow
	err  error
}

var _ ports.MetricsExporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// FailWith makes every subsequent Upsert return err. A nil err clears it.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Upsert replaces the row with the same kind and key or appends one. The
// reference is the 1-based position, offset by the header row.
func (s *Store) Upsert(_ context.Context, row ports.MetricsRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	for i, r := range s.rows {
		if r.Kind == row.Kind && r.Key == row.Key {
			s.rows[i] = row
			return fmt.Sprintf("mem:%d", i+2), nil
		}
	}
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)+1), nil
}

// Rows returns a copy of the stored rows in sheet order.
func (s *Store) Rows() []ports.MetricsRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.MetricsRow(nil), s.rows...)
}
