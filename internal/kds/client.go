// Package kds synchronizes orders with the external Kitchen Display System:
// an HTTP client for pushing and polling plus a websocket-fed sync session
// that keeps a live local view of the kitchen queue. Every call is attempted
// once; retries are left to the operator.
package kds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/fondapos/core/internal/domain"
	"github.com/fondapos/core/internal/enum"
)

// ErrDisabled is returned by calls that need a response (fetches) when the
// KDS integration is not configured; push-style calls are silent no-ops.
var ErrDisabled = errors.New("kds integration disabled")

// Config selects and locates the KDS endpoint. Zero value means disabled.
type Config struct {
	Enabled bool
	BaseURL string
}

// Client is the HTTP side of the KDS protocol.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
}

func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.BaseURL != ""
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: kds returned %d", method, path, resp.StatusCode)
	}
	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// ItemsFromSale maps persisted sale items to kitchen order items.
func ItemsFromSale(sale domain.Sale) []OrderItem {
	items := make([]OrderItem, 0, len(sale.Items))
	for _, it := range sale.Items {
		items = append(items, OrderItem{
			ProductName:        it.ProductName,
			Quantity:           it.Quantity,
			ProductPrice:       it.UnitPrice,
			RemovedIngredients: it.RemovedIngredients,
			ComboName:          it.ComboName,
			Category:           it.Category,
		})
	}
	return items
}

// CreateOrder pushes a finalized sale to the kitchen and returns the kitchen
// order id. A disabled integration is a no-op returning an empty id.
func (c *Client) CreateOrder(ctx context.Context, sale domain.Sale) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	payload := KitchenOrder{
		SaleNumber:      sale.Number,
		Items:           ItemsFromSale(sale),
		Total:           sale.Total,
		PaymentMethod:   sale.PaymentMethod,
		ScheduledTime:   sale.ScheduledTime,
		CustomerName:    sale.CustomerName,
		OrderType:       sale.OrderType,
		DeliveryAddress: sale.DeliveryAddress,
		CreatedAt:       sale.CreatedAt,
	}

	var created KitchenOrder
	if err := c.do(ctx, http.MethodPost, "/api/orders", payload, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// FetchActive returns the kitchen's pending and on-delivery orders.
func (c *Client) FetchActive(ctx context.Context) ([]KitchenOrder, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	var out struct {
		Orders []KitchenOrder `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/orders?status=pending,on_delivery", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// UpdateStatus transitions a kitchen order.
func (c *Client) UpdateStatus(ctx context.Context, orderID, status string) error {
	if !c.Enabled() {
		return nil
	}
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, "/api/orders/"+orderID+"/status", body, nil)
}

// UpdateOrder applies a partial edit to a pending kitchen order.
func (c *Client) UpdateOrder(ctx context.Context, orderID string, update OrderUpdate) error {
	if !c.Enabled() {
		return nil
	}
	return c.do(ctx, http.MethodPut, "/api/orders/"+orderID, update, nil)
}

// CompleteOrder marks a kitchen order completed. Used when a re-sent sale
// supersedes an order being edited.
func (c *Client) CompleteOrder(ctx context.Context, orderID string) error {
	return c.UpdateStatus(ctx, orderID, enum.KitchenStatusCompleted)
}
