package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fondapos/core/internal/domain"
	"github.com/fondapos/core/internal/store"
)

func TestMissingRecordsReturnErrNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetSettings(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetProduct(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetMateriaPrima(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetCombo(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetSale(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListProductsSortsByDisplayOrderThenName(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, p := range []domain.Product{
		{ID: uuid.New(), Name: "Zanahoria", DisplayOrder: 1},
		{ID: uuid.New(), Name: "Arepa", DisplayOrder: 2},
		{ID: uuid.New(), Name: "Bandeja", DisplayOrder: 1},
	} {
		require.NoError(t, s.PutProduct(ctx, p))
	}

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Bandeja", products[0].Name)
	assert.Equal(t, "Zanahoria", products[1].Name)
	assert.Equal(t, "Arepa", products[2].Name)
}

func TestPutProductUpserts(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := domain.Product{ID: uuid.New(), Name: "Gaseosa", Stock: 10}
	require.NoError(t, s.PutProduct(ctx, p))
	p.Stock = 7
	require.NoError(t, s.PutProduct(ctx, p))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Stock)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestListSalesKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := domain.Sale{ID: uuid.New(), Number: "S-1"}
	second := domain.Sale{ID: uuid.New(), Number: "S-2"}
	require.NoError(t, s.PutSale(ctx, first))
	require.NoError(t, s.PutSale(ctx, second))

	// Re-putting an existing sale must not duplicate it.
	first.Paid = true
	require.NoError(t, s.PutSale(ctx, first))

	sales, err := s.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "S-1", sales[0].Number)
	assert.True(t, sales[0].Paid)
	assert.Equal(t, "S-2", sales[1].Number)
}

func TestGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := domain.Product{ID: uuid.New(), Name: "Gaseosa", Stock: 10}
	require.NoError(t, s.PutProduct(ctx, p))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	got.Stock = 0

	again, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), again.Stock)
}

func TestNewSeededCatalog(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, products)

	combos, err := s.ListCombos(ctx)
	require.NoError(t, err)
	assert.Len(t, combos, 2)

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.DeliveryCharge.Equal(decimal.NewFromInt(3000)))

	// Every recipe link must resolve to a seeded materia prima.
	for _, p := range products {
		for _, link := range p.Recipe {
			_, err := s.GetMateriaPrima(ctx, link.MateriaPrimaID)
			require.NoError(t, err, "%s -> %s", p.Name, link.Name)
		}
	}
}
