// Package kdstest provides an in-process Kitchen Display System implementing
// the API surface the POS consumes: the orders endpoints plus the websocket
// event channel. It backs the sync-client tests and local development.
package kdstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/fondapos/core/internal/enum"
	"github.com/fondapos/core/internal/kds"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is a fake KDS. Mutating endpoints can be forced to fail to exercise
// the client's revert-on-failure paths.
type Server struct {
	mu     sync.Mutex
	orders map[string]kds.KitchenOrder
	seq    int
	fail   bool

	hub    *hub
	router chi.Router
}

func NewServer() *Server {
	s := &Server{
		orders: map[string]kds.KitchenOrder{},
		hub:    newHub(),
	}

	r := chi.NewRouter()
	r.Post("/api/orders", s.createOrder)
	r.Get("/api/orders", s.listOrders)
	r.Patch("/api/orders/{id}/status", s.updateStatus)
	r.Put("/api/orders/{id}", s.updateOrder)
	r.Get("/ws/orders", s.serveWS)
	s.router = r
	return s
}

// Handler exposes the router, typically wrapped in httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.router }

// FailMutations makes PATCH/PUT return 500 until turned off.
func (s *Server) FailMutations(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

// Order returns a stored order by id.
func (s *Server) Order(id string) (kds.KitchenOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

// Emit broadcasts an arbitrary event to connected clients, letting tests
// inject duplicate or out-of-order messages.
func (s *Server) Emit(msg kds.EventMessage) {
	s.hub.broadcast(msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var order kds.KitchenOrder
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	s.seq++
	order.ID = fmt.Sprintf("ko-%d", s.seq)
	if order.Status == "" {
		order.Status = enum.KitchenStatusPending
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.UpdatedAt = time.Now().UTC()
	s.orders[order.ID] = order
	s.mu.Unlock()

	s.hub.broadcast(kds.EventMessage{Type: enum.EventNewOrder, Order: &order})
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	statuses := map[string]bool{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, st := range strings.Split(raw, ",") {
			statuses[strings.TrimSpace(st)] = true
		}
	}

	s.mu.Lock()
	out := make([]kds.KitchenOrder, 0, len(s.orders))
	for _, o := range s.orders {
		if len(statuses) == 0 || statuses[o.Status] {
			out = append(out, o)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	s.mu.Lock()
	if s.fail {
		s.mu.Unlock()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "forced failure"})
		return
	}
	order, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	order.Status = body.Status
	order.UpdatedAt = time.Now().UTC()
	s.orders[id] = order
	s.mu.Unlock()

	s.hub.broadcast(kds.EventMessage{Type: enum.EventOrderUpdated, OrderID: id, Status: body.Status})
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var update kds.OrderUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	if s.fail {
		s.mu.Unlock()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "forced failure"})
		return
	}
	order, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	if update.Items != nil {
		order.Items = *update.Items
	}
	if update.Total != nil {
		order.Total = *update.Total
	}
	if update.ScheduledTime != nil {
		order.ScheduledTime = update.ScheduledTime
	}
	if update.CustomerName != nil {
		order.CustomerName = *update.CustomerName
	}
	if update.OrderType != nil {
		order.OrderType = *update.OrderType
	}
	if update.DeliveryAddress != nil {
		order.DeliveryAddress = *update.DeliveryAddress
	}
	if update.PaymentMethod != nil {
		order.PaymentMethod = *update.PaymentMethod
	}
	order.UpdatedAt = time.Now().UTC()
	s.orders[id] = order
	s.mu.Unlock()

	s.hub.broadcast(kds.EventMessage{Type: enum.EventOrderFullUpdate, Order: &order})
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.register(conn)

	// Clients only listen; the read loop just detects disconnects.
	go func() {
		defer s.hub.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
