// Package store defines the persistence collaborator for the POS core: a
// typed key-value surface over the record kinds the sales flow touches.
// Implementations live in the memory, redisstore and postgres subpackages.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/fondapos/core/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// Record kinds, used as key prefixes / partition values by implementations.
const (
	KindSettings     = "settings"
	KindProduct      = "product"
	KindMateriaPrima = "materia_prima"
	KindCombo        = "combo"
	KindSale         = "sale"
)

// SettingsID is the id of the singleton AppSettings record.
const SettingsID = "default"

// Store is the persistence collaborator. All writes are upserts; Get returns
// ErrNotFound for missing records.
type Store interface {
	GetSettings(ctx context.Context) (*domain.AppSettings, error)
	PutSettings(ctx context.Context, s domain.AppSettings) error

	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	PutProduct(ctx context.Context, p domain.Product) error

	GetMateriaPrima(ctx context.Context, id uuid.UUID) (*domain.MateriaPrima, error)
	ListMateriasPrimas(ctx context.Context) ([]domain.MateriaPrima, error)
	PutMateriaPrima(ctx context.Context, m domain.MateriaPrima) error

	GetCombo(ctx context.Context, id uuid.UUID) (*domain.Combo, error)
	ListCombos(ctx context.Context) ([]domain.Combo, error)
	PutCombo(ctx context.Context, c domain.Combo) error

	GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	PutSale(ctx context.Context, s domain.Sale) error
}
