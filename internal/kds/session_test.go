package kds_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fondapos/core/internal/enum"
	"github.com/fondapos/core/internal/kds"
	"github.com/fondapos/core/internal/kds/kdstest"
)

func newTestSetup(t *testing.T) (*kdstest.Server, *kds.Client, *kds.SyncSession) {
	t.Helper()
	fake := kdstest.NewServer()
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)

	client := kds.NewClient(kds.Config{Enabled: true, BaseURL: ts.URL}, zerolog.Nop())
	session := kds.OpenSession(context.Background(), client, kds.SessionConfig{
		PollInterval:    time.Hour,
		ReconnectDelay:  10 * time.Millisecond,
		CompletedLinger: 50 * time.Millisecond,
	}, zerolog.Nop(), nil)
	t.Cleanup(session.Close)
	return fake, client, session
}

func createOrder(t *testing.T, client *kds.Client, orderType string) string {
	t.Helper()
	id, err := client.CreateOrder(context.Background(), saleFixture(orderType))
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func waitFor(t *testing.T, session *kds.SyncSession, id string, ok func(kds.KitchenOrder) bool) kds.KitchenOrder {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, o := range session.Orders() {
			if o.ID == id && ok(o) {
				return o
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("order %s never reached the expected state in the local view", id)
	return kds.KitchenOrder{}
}

func waitForOrder(t *testing.T, session *kds.SyncSession, id string) kds.KitchenOrder {
	t.Helper()
	return waitFor(t, session, id, func(kds.KitchenOrder) bool { return true })
}

func TestSessionReceivesNewOrders(t *testing.T) {
	_, client, session := newTestSetup(t)

	id := createOrder(t, client, enum.OrderTypePickup)
	order := waitForOrder(t, session, id)
	assert.Equal(t, enum.KitchenStatusPending, order.Status)
	assert.Equal(t, "S-1", order.SaleNumber)
}

func TestSessionInitialFetchPopulatesView(t *testing.T) {
	fake := kdstest.NewServer()
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)
	client := kds.NewClient(kds.Config{Enabled: true, BaseURL: ts.URL}, zerolog.Nop())

	// Order exists before the panel opens.
	id := createOrder(t, client, enum.OrderTypePickup)

	session := kds.OpenSession(context.Background(), client, kds.SessionConfig{PollInterval: time.Hour}, zerolog.Nop(), nil)
	t.Cleanup(session.Close)

	orders := session.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, id, orders[0].ID)
}

func TestSessionDropsDuplicateNewOrderEvents(t *testing.T) {
	fake, client, session := newTestSetup(t)

	id := createOrder(t, client, enum.OrderTypePickup)
	original := waitForOrder(t, session, id)

	dup := original
	dup.CustomerName = "impostor"
	fake.Emit(kds.EventMessage{Type: enum.EventNewOrder, Order: &dup})

	time.Sleep(100 * time.Millisecond)
	order := waitForOrder(t, session, id)
	assert.Equal(t, original.CustomerName, order.CustomerName)
	assert.Len(t, session.Orders(), 1)
}

func TestSessionMergesStatusAndFullUpdatesSeparately(t *testing.T) {
	fake, client, session := newTestSetup(t)

	id := createOrder(t, client, enum.OrderTypePickup)
	waitForOrder(t, session, id)

	fake.Emit(kds.EventMessage{Type: enum.EventOrderUpdated, OrderID: id, Status: enum.KitchenStatusPreparing})
	waitFor(t, session, id, func(o kds.KitchenOrder) bool {
		return o.Status == enum.KitchenStatusPreparing
	})

	// A stale full update must not clobber the newer status.
	stale, ok := fake.Order(id)
	require.True(t, ok)
	stale.Status = enum.KitchenStatusPending
	stale.CustomerName = "doña rosa"
	fake.Emit(kds.EventMessage{Type: enum.EventOrderFullUpdate, Order: &stale})

	merged := waitFor(t, session, id, func(o kds.KitchenOrder) bool {
		return o.CustomerName == "doña rosa"
	})
	assert.Equal(t, enum.KitchenStatusPreparing, merged.Status)
}

func TestSessionRemovesDeletedOrders(t *testing.T) {
	fake, client, session := newTestSetup(t)

	id := createOrder(t, client, enum.OrderTypePickup)
	waitForOrder(t, session, id)

	fake.Emit(kds.EventMessage{Type: enum.EventOrderDeleted, OrderID: id})
	require.Eventually(t, func() bool {
		return len(session.Orders()) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionOrdersSortPolicy(t *testing.T) {
	fake, client, session := newTestSetup(t)

	first := createOrder(t, client, enum.OrderTypePickup)
	second := createOrder(t, client, enum.OrderTypePickup)
	waitForOrder(t, session, first)
	waitForOrder(t, session, second)

	// Scheduled orders sort after ASAP orders regardless of creation time.
	early := time.Now().Add(30 * time.Minute).UTC()
	late := time.Now().Add(2 * time.Hour).UTC()
	scheduledLate, ok := fake.Order(second)
	require.True(t, ok)
	require.NoError(t, session.UpdateSchedule(context.Background(), scheduledLate.ID, &late))
	third := createOrder(t, client, enum.OrderTypePickup)
	waitForOrder(t, session, third)
	require.NoError(t, session.UpdateSchedule(context.Background(), third, &early))

	orders := session.Orders()
	require.Len(t, orders, 3)
	assert.Equal(t, first, orders[0].ID)
	assert.Equal(t, third, orders[1].ID)
	assert.Equal(t, second, orders[2].ID)
}

func TestAdvanceStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	fake, client, session := newTestSetup(t)

	id := createOrder(t, client, enum.OrderTypePickup)
	waitForOrder(t, session, id)

	require.NoError(t, session.AdvanceStatus(ctx, id))
	serverOrder, ok := fake.Order(id)
	require.True(t, ok)
	assert.Equal(t, enum.KitchenStatusPreparing, serverOrder.Status)

	// Completion lingers briefly, then the order leaves the view.
	require.NoError(t, session.AdvanceStatus(ctx, id))
	require.Eventually(t, func() bool {
		return len(session.Orders()) == 0
	}, 2*time.Second, 10*time.Millisecond)

	serverOrder, ok = fake.Order(id)
	require.True(t, ok)
	assert.Equal(t, enum.KitchenStatusCompleted, serverOrder.Status)
}

func TestAdvanceStatusDeliveryGoesOnDelivery(t *testing.T) {
	ctx := context.Background()
	fake, client, session := newTestSetup(t)

	id := createOrder(t, client, enum.OrderTypeDelivery)
	waitForOrder(t, session, id)

	require.NoError(t, session.AdvanceStatus(ctx, id))
	serverOrder, ok := fake.Order(id)
	require.True(t, ok)
	assert.Equal(t, enum.KitchenStatusOnDelivery, serverOrder.Status)
}

func TestSpeculativeEditRevertsOnFailure(t *testing.T) {
	ctx := context.Background()
	fake, client, session := newTestSetup(t)

	id := createOrder(t, client, enum.OrderTypeDelivery)
	before := waitForOrder(t, session, id)

	fake.FailMutations(true)
	err := session.UpdateAddress(ctx, id, "calle 45 #12-30")
	require.Error(t, err)

	after := waitForOrder(t, session, id)
	assert.Equal(t, before.DeliveryAddress, after.DeliveryAddress)

	fake.FailMutations(false)
	require.NoError(t, session.UpdateAddress(ctx, id, "calle 45 #12-30"))
	serverOrder, ok := fake.Order(id)
	require.True(t, ok)
	assert.Equal(t, "calle 45 #12-30", serverOrder.DeliveryAddress)
}

func TestToggleIngredientRoundTrips(t *testing.T) {
	ctx := context.Background()
	fake, client, session := newTestSetup(t)

	id := createOrder(t, client, enum.OrderTypePickup)
	waitForOrder(t, session, id)

	require.NoError(t, session.ToggleIngredient(ctx, id, 0, "queso"))
	serverOrder, ok := fake.Order(id)
	require.True(t, ok)
	require.NotEmpty(t, serverOrder.Items)
	assert.Contains(t, serverOrder.Items[0].RemovedIngredients, "queso")

	require.NoError(t, session.ToggleIngredient(ctx, id, 0, "queso"))
	serverOrder, _ = fake.Order(id)
	assert.NotContains(t, serverOrder.Items[0].RemovedIngredients, "queso")
}

func TestSpeculativeEditUnknownOrder(t *testing.T) {
	_, _, session := newTestSetup(t)
	err := session.UpdateAddress(context.Background(), "ko-999", "carrera 7")
	assert.ErrorIs(t, err, kds.ErrUnknownOrder)
}
