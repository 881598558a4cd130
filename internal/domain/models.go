package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item. Stock is tracked either directly (Stock counter)
// or derived from raw-material availability when UsesMateriaPrima is set.
type Product struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	Category         string          `json:"category"`
	Stock            int64           `json:"stock"`
	UsesMateriaPrima bool            `json:"uses_materia_prima"`
	ProductionCost   decimal.Decimal `json:"production_cost"`
	DisplayOrder     int32           `json:"display_order"`
	Recipe           []RecipeLink    `json:"recipe,omitempty"`
}

// RecipeLink declares raw-material consumption per unit of product.
// Name is denormalized from the MateriaPrima record so that per-line
// removed-ingredient sets can be matched without a lookup.
type RecipeLink struct {
	MateriaPrimaID uuid.UUID       `json:"materia_prima_id"`
	Name           string          `json:"name"`
	PerUnit        decimal.Decimal `json:"per_unit"`
	Removable      bool            `json:"removable"`
}

// MateriaPrima is an inventory-tracked raw material.
type MateriaPrima struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Stock decimal.Decimal `json:"stock"`
}

// ComboSlot is a named position within a combo, filled by one product at sale
// time. ProductIDs restricts the choices; empty means any product.
type ComboSlot struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	ProductIDs []uuid.UUID `json:"product_ids,omitempty"`
}

// Combo is a composite sellable item. Pricing is either a fixed total or the
// sum of the chosen selections minus a percentage or absolute discount.
type Combo struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Slots         []ComboSlot     `json:"slots"`
	PricingMode   string          `json:"pricing_mode"`
	FixedPrice    decimal.Decimal `json:"fixed_price"`
	DiscountType  string          `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// ComboSelection is one resolved slot choice inside a combo cart line.
type ComboSelection struct {
	SlotID             uuid.UUID       `json:"slot_id"`
	SlotName           string          `json:"slot_name"`
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name"`
	Price              decimal.Decimal `json:"price"`
	RemovedIngredients []string        `json:"removed_ingredients,omitempty"`
}

// AppSettings is the singleton "default" settings record.
type AppSettings struct {
	KDSEnabled            bool            `json:"kds_enabled"`
	KDSURL                string          `json:"kds_url"`
	POSLayoutLocked       bool            `json:"pos_layout_locked"`
	CategoryOrder         []string        `json:"category_order,omitempty"`
	DeliveryCharge        decimal.Decimal `json:"delivery_charge"`
	FreeDeliveryThreshold decimal.Decimal `json:"free_delivery_threshold"`
}

// ChangePart is one denomination row of a change breakdown.
type ChangePart struct {
	Value int64 `json:"value"`
	Count int64 `json:"count"`
}

// SaleItem is one expanded line of a persisted sale. Combo lines are stored
// expanded: one SaleItem per slot selection, grouped by ComboInstanceID and
// ordered by SlotIndex so the combo can be reconstructed later.
type SaleItem struct {
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name"`
	Quantity           int64           `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Category           string          `json:"category,omitempty"`
	RemovedIngredients []string        `json:"removed_ingredients,omitempty"`
	ComboInstanceID    string          `json:"combo_instance_id,omitempty"`
	ComboName          string          `json:"combo_name,omitempty"`
	SlotIndex          int             `json:"slot_index,omitempty"`
}

// Sale is a persisted sale record.
type Sale struct {
	ID              uuid.UUID       `json:"id"`
	Number          string          `json:"sale_number"`
	Items           []SaleItem      `json:"items"`
	PaymentMethod   string          `json:"payment_method"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Total           decimal.Decimal `json:"total"`
	Paid            bool            `json:"paid"`
	CashReceived    int64           `json:"cash_received,omitempty"`
	ChangeGiven     int64           `json:"change_given,omitempty"`
	Bills           []int64         `json:"bills,omitempty"`
	ChangeBreakdown []ChangePart    `json:"change_breakdown,omitempty"`
	ScheduledTime   *time.Time      `json:"scheduled_time,omitempty"`
	CustomerName    string          `json:"customer_name,omitempty"`
	OrderType       string          `json:"order_type,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	KitchenOrderID  string          `json:"kitchen_order_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
