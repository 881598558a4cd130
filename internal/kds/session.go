package kds

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fondapos/core/internal/enum"
)

var ErrUnknownOrder = errors.New("order not in local view")

// SessionConfig tunes the sync loops. Zero fields get defaults.
type SessionConfig struct {
	PollInterval    time.Duration
	ReconnectDelay  time.Duration
	CompletedLinger time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 5 * time.Second
	}
	if c.CompletedLinger <= 0 {
		c.CompletedLinger = 4 * time.Second
	}
	return c
}

// SyncSession keeps a live local view of the kitchen queue while the kitchen
// panel is open: a fixed-interval full refetch plus a websocket event stream
// with fixed-delay reconnect. Both loops merge into the same id-keyed map;
// merges are idempotent. Close tears down loops, socket and pending timers.
type SyncSession struct {
	client *Client
	cfg    SessionConfig
	log    zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	orders       map[string]KitchenOrder
	removeTimers map[string]*time.Timer

	// onChange receives the sorted view after every merge. Called outside
	// the session lock.
	onChange func([]KitchenOrder)
}

// OpenSession starts the poll and event loops. The initial fetch happens
// synchronously so the caller opens the panel with data.
func OpenSession(ctx context.Context, client *Client, cfg SessionConfig, log zerolog.Logger, onChange func([]KitchenOrder)) *SyncSession {
	ctx, cancel := context.WithCancel(ctx)
	s := &SyncSession{
		client:       client,
		cfg:          cfg.withDefaults(),
		log:          log,
		cancel:       cancel,
		orders:       map[string]KitchenOrder{},
		removeTimers: map[string]*time.Timer{},
		onChange:     onChange,
	}

	if !client.Enabled() {
		return s
	}

	s.refresh(ctx)

	s.wg.Add(2)
	go s.pollLoop(ctx)
	go s.eventLoop(ctx)
	return s
}

// Close cancels both loops and any pending removal timers. Safe to call more
// than once.
func (s *SyncSession) Close() {
	s.cancel()
	s.wg.Wait()
	s.mu.Lock()
	for id, timer := range s.removeTimers {
		timer.Stop()
		delete(s.removeTimers, id)
	}
	s.mu.Unlock()
}

// Orders returns the current view: unscheduled orders first by creation
// time, scheduled orders after by scheduled time ascending.
func (s *SyncSession) Orders() []KitchenOrder {
	s.mu.Lock()
	out := make([]KitchenOrder, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.ScheduledTime == nil && b.ScheduledTime == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.ScheduledTime == nil:
			return true
		case b.ScheduledTime == nil:
			return false
		default:
			return a.ScheduledTime.Before(*b.ScheduledTime)
		}
	})
	return out
}

func (s *SyncSession) notify() {
	if s.onChange != nil {
		s.onChange(s.Orders())
	}
}

// --- Polling ---

func (s *SyncSession) pollLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh replaces the view with the server's active orders, keeping
// completed orders that are still lingering for display. Errors are logged
// and the loop continues.
func (s *SyncSession) refresh(ctx context.Context) {
	orders, err := s.client.FetchActive(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn().Err(err).Msg("kds poll failed")
		}
		return
	}

	s.mu.Lock()
	fresh := make(map[string]KitchenOrder, len(orders))
	for _, o := range orders {
		fresh[o.ID] = o
	}
	for id, o := range s.orders {
		if _, ok := fresh[id]; !ok && s.removeTimers[id] != nil {
			fresh[id] = o
		}
	}
	s.orders = fresh
	s.mu.Unlock()
	s.notify()
}

// --- Event stream ---

// EventURL derives the websocket endpoint from the KDS base URL.
func EventURL(baseURL string) string {
	url := baseURL
	if strings.HasPrefix(url, "https://") {
		url = "wss://" + strings.TrimPrefix(url, "https://")
	} else if strings.HasPrefix(url, "http://") {
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/ws/orders"
}

func (s *SyncSession) eventLoop(ctx context.Context) {
	defer s.wg.Done()
	url := EventURL(s.client.cfg.BaseURL)
	for {
		if ctx.Err() != nil {
			return
		}
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn().Err(err).Msg("kds event channel dial failed")
			}
			if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
				return
			}
			continue
		}
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}

		s.readEvents(ctx, conn)
		conn.Close()

		// Fixed-delay reconnect while the panel stays open.
		if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
			return
		}
	}
}

func (s *SyncSession) readEvents(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var msg EventMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				s.log.Warn().Err(err).Msg("kds event channel dropped")
			}
			return
		}
		s.handleEvent(msg)
	}
}

// handleEvent merges one push message into the view. Merges are keyed by
// order id: duplicate new_order events are dropped, status updates and full
// updates own separate field groups and never clobber each other.
func (s *SyncSession) handleEvent(msg EventMessage) {
	switch msg.Type {
	case enum.EventNewOrder:
		if msg.Order == nil {
			return
		}
		s.mu.Lock()
		if _, exists := s.orders[msg.Order.ID]; exists {
			s.mu.Unlock()
			return
		}
		s.orders[msg.Order.ID] = *msg.Order
		s.mu.Unlock()

	case enum.EventOrderUpdated:
		s.mu.Lock()
		order, ok := s.orders[msg.OrderID]
		if !ok {
			s.mu.Unlock()
			return
		}
		order.Status = msg.Status
		s.orders[msg.OrderID] = order
		s.mu.Unlock()
		if msg.Status == enum.KitchenStatusCompleted {
			s.scheduleRemoval(msg.OrderID)
		}

	case enum.EventOrderFullUpdate:
		if msg.Order == nil {
			return
		}
		s.mu.Lock()
		incoming := *msg.Order
		if existing, ok := s.orders[incoming.ID]; ok {
			// Status belongs to order_updated messages.
			incoming.Status = existing.Status
		}
		s.orders[incoming.ID] = incoming
		s.mu.Unlock()

	case enum.EventOrderDeleted:
		s.removeNow(msg.OrderID)

	default:
		s.log.Debug().Str("type", msg.Type).Msg("ignoring unknown kds event")
		return
	}
	s.notify()
}

// scheduleRemoval drops a completed order from the view after a short linger
// so the transition is visible.
func (s *SyncSession) scheduleRemoval(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeTimers[orderID] != nil {
		return
	}
	s.removeTimers[orderID] = time.AfterFunc(s.cfg.CompletedLinger, func() {
		s.removeNow(orderID)
		s.notify()
	})
}

func (s *SyncSession) removeNow(orderID string) {
	s.mu.Lock()
	delete(s.orders, orderID)
	if timer := s.removeTimers[orderID]; timer != nil {
		timer.Stop()
		delete(s.removeTimers, orderID)
	}
	s.mu.Unlock()
}

func (s *SyncSession) cancelRemoval(orderID string) {
	s.mu.Lock()
	if timer := s.removeTimers[orderID]; timer != nil {
		timer.Stop()
		delete(s.removeTimers, orderID)
	}
	s.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// --- Live edits: apply optimistically, revert on failure ---

// speculate snapshots the order, applies mutate locally, issues the request,
// and restores the snapshot when the request fails. The same pattern backs
// ingredient toggles, address edits, schedule and payment changes.
func (s *SyncSession) speculate(orderID string, mutate func(*KitchenOrder), request func(KitchenOrder) error) error {
	s.mu.Lock()
	prev, ok := s.orders[orderID]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownOrder
	}
	next := cloneOrder(prev)
	mutate(&next)
	s.orders[orderID] = next
	s.mu.Unlock()
	s.notify()

	if err := request(next); err != nil {
		s.mu.Lock()
		if _, still := s.orders[orderID]; still {
			s.orders[orderID] = prev
		}
		s.mu.Unlock()
		s.cancelRemoval(orderID)
		s.notify()
		return err
	}

	if next.Status == enum.KitchenStatusCompleted {
		s.scheduleRemoval(orderID)
	}
	return nil
}

func cloneOrder(o KitchenOrder) KitchenOrder {
	cp := o
	cp.Items = make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		cp.Items[i] = it
		cp.Items[i].RemovedIngredients = append([]string(nil), it.RemovedIngredients...)
	}
	return cp
}

// ToggleIngredient flips an ingredient on an order item between present and
// removed, pushing the edited item list to the kitchen.
func (s *SyncSession) ToggleIngredient(ctx context.Context, orderID string, itemIndex int, ingredient string) error {
	return s.speculate(orderID, func(o *KitchenOrder) {
		if itemIndex < 0 || itemIndex >= len(o.Items) {
			return
		}
		item := &o.Items[itemIndex]
		for i, name := range item.RemovedIngredients {
			if name == ingredient {
				item.RemovedIngredients = append(item.RemovedIngredients[:i], item.RemovedIngredients[i+1:]...)
				return
			}
		}
		item.RemovedIngredients = append(item.RemovedIngredients, ingredient)
	}, func(next KitchenOrder) error {
		return s.client.UpdateOrder(ctx, orderID, OrderUpdate{Items: &next.Items})
	})
}

// UpdateAddress edits the delivery address of a pending order.
func (s *SyncSession) UpdateAddress(ctx context.Context, orderID, address string) error {
	return s.speculate(orderID, func(o *KitchenOrder) {
		o.DeliveryAddress = address
	}, func(KitchenOrder) error {
		return s.client.UpdateOrder(ctx, orderID, OrderUpdate{DeliveryAddress: &address})
	})
}

// UpdateSchedule edits the scheduled time; nil clears it to ASAP.
func (s *SyncSession) UpdateSchedule(ctx context.Context, orderID string, at *time.Time) error {
	return s.speculate(orderID, func(o *KitchenOrder) {
		o.ScheduledTime = at
	}, func(KitchenOrder) error {
		return s.client.UpdateOrder(ctx, orderID, OrderUpdate{ScheduledTime: at})
	})
}

// UpdatePayment edits the payment tag, e.g. settling an unpaid order.
func (s *SyncSession) UpdatePayment(ctx context.Context, orderID, method string) error {
	return s.speculate(orderID, func(o *KitchenOrder) {
		o.PaymentMethod = method
	}, func(KitchenOrder) error {
		return s.client.UpdateOrder(ctx, orderID, OrderUpdate{PaymentMethod: &method})
	})
}

// NextStatus returns the next lifecycle step for an order: pickup orders go
// pending → preparing → completed, delivery orders pending → on_delivery →
// completed. Terminal or unknown states return empty.
func NextStatus(order KitchenOrder) string {
	switch order.Status {
	case enum.KitchenStatusPending:
		if order.OrderType == enum.OrderTypeDelivery {
			return enum.KitchenStatusOnDelivery
		}
		return enum.KitchenStatusPreparing
	case enum.KitchenStatusPreparing, enum.KitchenStatusOnDelivery:
		return enum.KitchenStatusCompleted
	}
	return ""
}

// AdvanceStatus moves an order one lifecycle step, mirroring the change
// locally and reconciling with the server. Completion schedules the delayed
// local removal.
func (s *SyncSession) AdvanceStatus(ctx context.Context, orderID string) error {
	s.mu.Lock()
	order, ok := s.orders[orderID]
	s.mu.Unlock()
	if !ok {
		return ErrUnknownOrder
	}
	next := NextStatus(order)
	if next == "" {
		return fmt.Errorf("order %s: no transition from %s", orderID, order.Status)
	}
	return s.speculate(orderID, func(o *KitchenOrder) {
		o.Status = next
	}, func(KitchenOrder) error {
		return s.client.UpdateStatus(ctx, orderID, next)
	})
}
