package kds_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fondapos/core/internal/domain"
	"github.com/fondapos/core/internal/enum"
	"github.com/fondapos/core/internal/kds"
	"github.com/fondapos/core/internal/kds/kdstest"
)

func saleFixture(orderType string) domain.Sale {
	return domain.Sale{
		ID:     uuid.New(),
		Number: "S-1",
		Items: []domain.SaleItem{
			{
				ProductID:   uuid.New(),
				ProductName: "Hamburguesa",
				Quantity:    1,
				UnitPrice:   decimal.NewFromInt(12000),
				Category:    "platos",
			},
		},
		PaymentMethod: enum.PaymentMethodCash,
		Subtotal:      decimal.NewFromInt(12000),
		Total:         decimal.NewFromInt(12000),
		Paid:          true,
		OrderType:     orderType,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestDisabledClientIsInert(t *testing.T) {
	ctx := context.Background()
	client := kds.NewClient(kds.Config{}, zerolog.Nop())
	require.False(t, client.Enabled())

	id, err := client.CreateOrder(ctx, saleFixture(enum.OrderTypePickup))
	require.NoError(t, err)
	assert.Empty(t, id)

	_, err = client.FetchActive(ctx)
	assert.ErrorIs(t, err, kds.ErrDisabled)

	assert.NoError(t, client.UpdateStatus(ctx, "ko-1", enum.KitchenStatusPreparing))
	assert.NoError(t, client.UpdateOrder(ctx, "ko-1", kds.OrderUpdate{}))
}

func TestCreateOrderReturnsKitchenID(t *testing.T) {
	fake := kdstest.NewServer()
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)
	client := kds.NewClient(kds.Config{Enabled: true, BaseURL: ts.URL}, zerolog.Nop())

	id, err := client.CreateOrder(context.Background(), saleFixture(enum.OrderTypePickup))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	order, ok := fake.Order(id)
	require.True(t, ok)
	assert.Equal(t, "S-1", order.SaleNumber)
	assert.Equal(t, enum.KitchenStatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Hamburguesa", order.Items[0].ProductName)
}

func TestFetchActiveExcludesCompleted(t *testing.T) {
	ctx := context.Background()
	fake := kdstest.NewServer()
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)
	client := kds.NewClient(kds.Config{Enabled: true, BaseURL: ts.URL}, zerolog.Nop())

	keep, err := client.CreateOrder(ctx, saleFixture(enum.OrderTypePickup))
	require.NoError(t, err)
	done, err := client.CreateOrder(ctx, saleFixture(enum.OrderTypePickup))
	require.NoError(t, err)
	require.NoError(t, client.UpdateStatus(ctx, done, enum.KitchenStatusCompleted))

	orders, err := client.FetchActive(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, keep, orders[0].ID)
}

func TestItemsFromSaleKeepsCustomization(t *testing.T) {
	sale := saleFixture(enum.OrderTypePickup)
	sale.Items[0].RemovedIngredients = []string{"queso"}
	sale.Items[0].ComboName = "Combo Almuerzo"

	items := kds.ItemsFromSale(sale)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"queso"}, items[0].RemovedIngredients)
	assert.Equal(t, "Combo Almuerzo", items[0].ComboName)
	assert.True(t, items[0].ProductPrice.Equal(decimal.NewFromInt(12000)))
}

func TestEventURL(t *testing.T) {
	assert.Equal(t, "ws://kds.local:8080/ws/orders", kds.EventURL("http://kds.local:8080"))
	assert.Equal(t, "wss://kds.example.com/ws/orders", kds.EventURL("https://kds.example.com"))
}
