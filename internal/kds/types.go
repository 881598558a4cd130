package kds

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one line of a kitchen order as the KDS API exchanges it.
type OrderItem struct {
	ProductName        string          `json:"product_name"`
	Quantity           int64           `json:"quantity"`
	ProductPrice       decimal.Decimal `json:"product_price"`
	RemovedIngredients []string        `json:"removed_ingredients,omitempty"`
	ComboName          string          `json:"combo_name,omitempty"`
	Category           string          `json:"category,omitempty"`
}

// KitchenOrder is the server-owned projection of a sale on the kitchen side.
type KitchenOrder struct {
	ID              string          `json:"id"`
	SaleNumber      string          `json:"sale_number"`
	Items           []OrderItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Status          string          `json:"status"`
	ScheduledTime   *time.Time      `json:"scheduled_time,omitempty"`
	CustomerName    string          `json:"customer_name,omitempty"`
	OrderType       string          `json:"order_type,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty"`
}

// OrderUpdate is the partial PUT body for live edits of a pending order.
// Nil fields are left untouched by the server.
type OrderUpdate struct {
	Items           *[]OrderItem     `json:"items,omitempty"`
	Total           *decimal.Decimal `json:"total,omitempty"`
	ScheduledTime   *time.Time       `json:"scheduled_time,omitempty"`
	CustomerName    *string          `json:"customer_name,omitempty"`
	OrderType       *string          `json:"order_type,omitempty"`
	DeliveryAddress *string          `json:"delivery_address,omitempty"`
	PaymentMethod   *string          `json:"payment_method,omitempty"`
}

// EventMessage is one push-channel message. The payload is inlined next to
// the type tag: full orders for new_order / order_full_update, id plus the
// changed field group for the rest.
type EventMessage struct {
	Type    string        `json:"type"`
	Order   *KitchenOrder `json:"order,omitempty"`
	OrderID string        `json:"order_id,omitempty"`
	Status  string        `json:"status,omitempty"`
}
