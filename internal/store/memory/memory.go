// Package memory provides an in-memory Store used in tests and when the POS
// runs without external storage configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fondapos/core/internal/domain"
	"github.com/fondapos/core/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	settings  *domain.AppSettings
	products  map[uuid.UUID]domain.Product
	materias  map[uuid.UUID]domain.MateriaPrima
	combos    map[uuid.UUID]domain.Combo
	sales     map[uuid.UUID]domain.Sale
	saleOrder []uuid.UUID
}

func New() *Store {
	return &Store{
		products: map[uuid.UUID]domain.Product{},
		materias: map[uuid.UUID]domain.MateriaPrima{},
		combos:   map[uuid.UUID]domain.Combo{},
		sales:    map[uuid.UUID]domain.Sale{},
	}
}

func (s *Store) GetSettings(_ context.Context) (*domain.AppSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, store.ErrNotFound
	}
	cp := *s.settings
	return &cp, nil
}

func (s *Store) PutSettings(_ context.Context, settings domain.AppSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

func (s *Store) GetProduct(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) PutProduct(_ context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

func (s *Store) GetMateriaPrima(_ context.Context, id uuid.UUID) (*domain.MateriaPrima, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.materias[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (s *Store) ListMateriasPrimas(_ context.Context) ([]domain.MateriaPrima, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.MateriaPrima, 0, len(s.materias))
	for _, m := range s.materias {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) PutMateriaPrima(_ context.Context, m domain.MateriaPrima) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materias[m.ID] = m
	return nil
}

func (s *Store) GetCombo(_ context.Context, id uuid.UUID) (*domain.Combo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.combos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListCombos(_ context.Context) ([]domain.Combo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Combo, 0, len(s.combos))
	for _, c := range s.combos {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) PutCombo(_ context.Context, c domain.Combo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.combos[c.ID] = c
	return nil
}

func (s *Store) GetSale(_ context.Context, id uuid.UUID) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sale, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Sale, 0, len(s.saleOrder))
	for _, id := range s.saleOrder {
		out = append(out, s.sales[id])
	}
	return out, nil
}

func (s *Store) PutSale(_ context.Context, sale domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sales[sale.ID]; !exists {
		s.saleOrder = append(s.saleOrder, sale.ID)
	}
	s.sales[sale.ID] = sale
	return nil
}

// NewSeeded returns a store pre-populated with the demo fonda catalog.
func NewSeeded() *Store {
	s := New()
	_ = store.Seed(context.Background(), s)
	return s
}
