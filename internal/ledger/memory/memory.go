// Package memory implements the ledger ports in process memory. It is the
// default backend when no database path is configured and the fixture
// backend for handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"vendas/internal/core"
	"vendas/internal/ledger"
)

type Store struct {
	mu       sync.Mutex
	products map[int64]core.Product
	dates    map[int64]core.SaleDate
	sales    map[int64]core.Sale
	nextID   int64
}

func New() *Store {
	return &Store{
		products: make(map[int64]core.Product),
		dates:    make(map[int64]core.SaleDate),
		sales:    make(map[int64]core.Sale),
	}
}

func (s *Store) nextSeq() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateProduct(_ context.Context, p core.Product) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := strings.TrimSpace(p.Name)
	for _, existing := range s.products {
		if existing.Name == name {
			return 0, core.ErrDuplicateKey
		}
	}
	p.ID = s.nextSeq()
	p.Name = name
	s.products[p.ID] = p
	return p.ID, nil
}

func (s *Store) ListProducts(_ context.Context) ([]core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return core.Product{}, core.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p core.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return core.ErrNotFound
	}
	name := strings.TrimSpace(p.Name)
	for id, existing := range s.products {
		if id != p.ID && existing.Name == name {
			return core.ErrDuplicateKey
		}
	}
	p.Name = name
	s.products[p.ID] = p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return core.ErrNotFound
	}
	var dependent []int64
	for saleID, sale := range s.sales {
		if sale.ProductID == id {
			dependent = append(dependent, saleID)
		}
	}
	if len(dependent) > 0 && !cascade {
		return core.ErrReferentialIntegrity
	}
	for _, saleID := range dependent {
		delete(s.sales, saleID)
	}
	delete(s.products, id)
	return nil
}

func (s *Store) CreateSaleDate(_ context.Context, d core.SaleDate) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.dates {
		if existing.Day.Equal(d.Day.Time) {
			return 0, core.ErrDuplicateKey
		}
	}
	d.ID = s.nextSeq()
	s.dates[d.ID] = d
	return d.ID, nil
}

func (s *Store) ListSaleDates(_ context.Context) ([]core.SaleDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SaleDate, 0, len(s.dates))
	for _, d := range s.dates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day.Time) })
	return out, nil
}

func (s *Store) GetSaleDate(_ context.Context, id int64) (core.SaleDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dates[id]
	if !ok {
		return core.SaleDate{}, core.ErrNotFound
	}
	return d, nil
}

func (s *Store) DeleteSaleDate(_ context.Context, id int64, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dates[id]; !ok {
		return core.ErrNotFound
	}
	var dependent []int64
	for saleID, sale := range s.sales {
		if sale.DateID == id {
			dependent = append(dependent, saleID)
		}
	}
	if len(dependent) > 0 && !cascade {
		return core.ErrReferentialIntegrity
	}
	for _, saleID := range dependent {
		delete(s.sales, saleID)
	}
	delete(s.dates, id)
	return nil
}

func (s *Store) CreateSale(_ context.Context, sale core.Sale) (int64, error) {
	if err := sale.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dates[sale.DateID]; !ok {
		return 0, core.ErrNotFound
	}
	if _, ok := s.products[sale.ProductID]; !ok {
		return 0, core.ErrNotFound
	}
	sale.ID = s.nextSeq()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	s.sales[sale.ID] = sale
	return sale.ID, nil
}

func (s *Store) ListSales(_ context.Context, f ledger.SaleFilter) ([]core.SaleRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SaleRow, 0, len(s.sales))
	for _, sale := range s.sales {
		row := s.join(sale)
		if matches(row, f) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day.Time) {
			return out[i].Day.Before(out[j].Day.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetSale(_ context.Context, id int64) (core.SaleRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return core.SaleRow{}, core.ErrNotFound
	}
	return s.join(sale), nil
}

func (s *Store) DeleteSale(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.sales, id)
	return nil
}

// join must run with the lock held.
func (s *Store) join(sale core.Sale) core.SaleRow {
	row := core.SaleRow{Sale: sale}
	if d, ok := s.dates[sale.DateID]; ok {
		row.Day = d.Day
	}
	if p, ok := s.products[sale.ProductID]; ok {
		row.ProductName = p.Name
		row.UnitCost = p.UnitCost
	}
	return row
}

func matches(row core.SaleRow, f ledger.SaleFilter) bool {
	if f.ProductID > 0 && row.ProductID != f.ProductID {
		return false
	}
	if f.Marketplace != "" && row.Marketplace != f.Marketplace {
		return false
	}
	if !f.From.IsZero() && row.Day.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && row.Day.After(f.To.Time) {
		return false
	}
	if f.Year > 0 && row.Day.Year() != f.Year {
		return false
	}
	if f.Month > 0 && row.Day.Month() != f.Month {
		return false
	}
	return true
}
