package memory

import (
	"context"
	"fmt"
	"sync"

	"vendas/internal/core"
	"vendas/internal/mirror"
)

// Store collects mirrored sales in memory. It backs tests and the
// local backend, where no external spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows []core.SaleRow
}

var _ mirror.SaleAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the sale row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, row core.SaleRow) (string, error) {
	if err := row.Sale.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.SaleRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SaleRow, len(s.rows))
	copy(out, s.rows)
	return out
}
