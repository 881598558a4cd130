package enum

// ── Kitchen order lifecycle (server-authoritative, mirrored locally) ──

const (
	KitchenStatusPending    = "pending"
	KitchenStatusPreparing  = "preparing"
	KitchenStatusOnDelivery = "on_delivery"
	KitchenStatusCompleted  = "completed"
)

const (
	OrderTypePickup   = "pickup"
	OrderTypeDelivery = "delivery"
)

// ── Payment methods (labels only, no gateway integration) ──

const (
	PaymentMethodCash       = "cash"
	PaymentMethodCard       = "card"
	PaymentMethodOnline     = "online"
	PaymentMethodOnDelivery = "on_delivery"
	PaymentMethodUnpaid     = "unpaid"
)

// ── KDS event channel message types ──

const (
	EventNewOrder        = "new_order"
	EventOrderUpdated    = "order_updated"
	EventOrderFullUpdate = "order_full_update"
	EventOrderDeleted    = "order_deleted"
)

// ── Combo pricing modes ──

const (
	ComboPricingFixed    = "fixed"
	ComboPricingDiscount = "discount"
)

const (
	DiscountPercentage = "percentage"
	DiscountAbsolute   = "absolute"
)
