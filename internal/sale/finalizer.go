// Package sale orchestrates checkout: payment validation, sale persistence,
// stock deduction, kitchen notification and state reset. Collaborator I/O is
// sequenced, never concurrent; stock is only deducted once the sale record
// is durably stored.
package sale

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fondapos/core/internal/cart"
	"github.com/fondapos/core/internal/change"
	"github.com/fondapos/core/internal/domain"
	"github.com/fondapos/core/internal/enum"
	"github.com/fondapos/core/internal/stock"
	"github.com/fondapos/core/internal/store"
)

// State is the checkout flow position.
type State string

const (
	StateBuilding        State = "building"
	StateAwaitingPayment State = "awaiting_payment"
	StateCompleting      State = "completing"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrNotAwaitingPayment  = errors.New("payment flow not active")
	ErrInsufficientCash    = errors.New("tendered cash is below the total")
	ErrInvalidBill         = errors.New("not an accepted bill or coin")
	ErrInvalidScheduled    = errors.New("invalid scheduled time format")
	ErrAlreadyPaid         = errors.New("sale is already paid")
	ErrSaleFailed          = errors.New("sale failed")
	ErrFractionalCashTotal = errors.New("cash total is not a whole amount")
)

var saleNumberPattern = regexp.MustCompile(`^S-(\d+)$`)

// KitchenNotifier pushes completed sales to the kitchen display. A no-op
// implementation is used when the KDS integration is disabled.
type KitchenNotifier interface {
	CreateOrder(ctx context.Context, sale domain.Sale) (string, error)
	CompleteOrder(ctx context.Context, kitchenOrderID string) error
}

// Finalizer drives the checkout state machine over a single cart.
type Finalizer struct {
	store   store.Store
	cart    *cart.Cart
	inv     *stock.Inventory
	kitchen KitchenNotifier
	log     zerolog.Logger

	settings domain.AppSettings

	state         State
	paymentMethod string
	bills         []int64

	orderType       string
	scheduledTime   *time.Time
	customerName    string
	deliveryAddress string

	// Kitchen order being superseded when the session edits an existing
	// kitchen order; empty otherwise.
	editingKitchenOrder string

	nextSaleNumber int64
}

func NewFinalizer(st store.Store, c *cart.Cart, inv *stock.Inventory, kitchen KitchenNotifier, log zerolog.Logger) *Finalizer {
	return &Finalizer{
		store:          st,
		cart:           c,
		inv:            inv,
		kitchen:        kitchen,
		log:            log,
		state:          StateBuilding,
		orderType:      enum.OrderTypePickup,
		nextSaleNumber: 1,
	}
}

// ReloadSettings refreshes the injected settings snapshot from the store.
// Missing settings fall back to zero values (KDS disabled, no surcharge).
func (f *Finalizer) ReloadSettings(ctx context.Context) error {
	settings, err := f.store.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		f.settings = domain.AppSettings{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reload settings: %w", err)
	}
	f.settings = *settings
	return nil
}

// LoadSaleCounter derives the next sale number from the maximum S-<n> number
// observed in the persisted sale history. The counter is then incremented
// optimistically per completed sale.
func (f *Finalizer) LoadSaleCounter(ctx context.Context) error {
	sales, err := f.store.ListSales(ctx)
	if err != nil {
		return fmt.Errorf("load sale history: %w", err)
	}
	max := int64(0)
	for _, s := range sales {
		m := saleNumberPattern.FindStringSubmatch(s.Number)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil && n > max {
			max = n
		}
	}
	f.nextSaleNumber = max + 1
	return nil
}

func (f *Finalizer) State() State { return f.state }

func (f *Finalizer) Settings() domain.AppSettings { return f.settings }

func (f *Finalizer) NextSaleNumber() string {
	return fmt.Sprintf("S-%d", f.nextSaleNumber)
}

// --- Cart pass-throughs that own transient payment state ---

// RemoveLine drops a cart line; emptying the cart resets the payment flow.
func (f *Finalizer) RemoveLine(id uuid.UUID) error {
	empty, err := f.cart.RemoveLine(id)
	if err != nil {
		return err
	}
	if empty {
		f.resetTransient()
	}
	return nil
}

// UpdateQuantity updates a cart line; emptying the cart resets the payment
// flow.
func (f *Finalizer) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int64) error {
	empty, err := f.cart.UpdateQuantity(ctx, id, quantity)
	if err != nil {
		return err
	}
	if empty {
		f.resetTransient()
	}
	return nil
}

// --- Order metadata ---

func (f *Finalizer) SetOrderType(orderType string) {
	f.orderType = orderType
}

func (f *Finalizer) SetCustomerName(name string)       { f.customerName = name }
func (f *Finalizer) SetDeliveryAddress(address string) { f.deliveryAddress = address }

// SetScheduledTime parses an RFC3339 timestamp; empty clears the schedule.
func (f *Finalizer) SetScheduledTime(value string) error {
	if value == "" {
		f.scheduledTime = nil
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScheduled, err)
	}
	f.scheduledTime = &t
	return nil
}

// BeginKitchenEdit puts the session in edit mode: completing the next sale
// also marks the given kitchen order completed, superseding it.
func (f *Finalizer) BeginKitchenEdit(kitchenOrderID string) {
	f.editingKitchenOrder = kitchenOrderID
}

// --- Payment flow ---

// ShowPayment moves to payment method selection. Requires a non-empty cart.
func (f *Finalizer) ShowPayment() error {
	if f.cart.Empty() {
		return ErrEmptyCart
	}
	f.state = StateAwaitingPayment
	return nil
}

// CancelPayment returns to cart editing, clearing tender state.
func (f *Finalizer) CancelPayment() {
	f.bills = nil
	f.paymentMethod = ""
	f.state = StateBuilding
}

func (f *Finalizer) SetPaymentMethod(method string) { f.paymentMethod = method }

// AddBill records one tendered bill or coin.
func (f *Finalizer) AddBill(value int64) error {
	if !change.IsDenomination(value) {
		return fmt.Errorf("%d: %w", value, ErrInvalidBill)
	}
	f.bills = append(f.bills, value)
	return nil
}

func (f *Finalizer) Bills() []int64  { return slices.Clone(f.bills) }
func (f *Finalizer) Received() int64 { return change.SumBills(f.bills) }

// PreviewChange computes the change currently due for the cash tendered so
// far. Returns ErrInsufficientCash while the tender is short and
// change.ErrUnrepresentable when the due amount cannot be broken down.
func (f *Finalizer) PreviewChange() (received, due int64, parts []domain.ChangePart, err error) {
	_, _, total := f.cart.Totals(f.settings, f.orderType)
	received = change.SumBills(f.bills)
	if !total.IsInteger() {
		return received, 0, nil, ErrFractionalCashTotal
	}
	due = received - total.IntPart()
	if due < 0 {
		return received, 0, nil, ErrInsufficientCash
	}
	parts, err = change.Calculate(due)
	return received, due, parts, err
}

// CompleteSale finalizes the checkout: validates payment, persists the sale,
// applies stock deductions, notifies the kitchen and resets the session.
// Validation failures leave everything untouched for correction; failures
// after validation surface as ErrSaleFailed with the payment flow kept open
// for manual retry.
func (f *Finalizer) CompleteSale(ctx context.Context) (*domain.Sale, error) {
	if f.state != StateAwaitingPayment {
		return nil, ErrNotAwaitingPayment
	}
	if f.cart.Empty() {
		return nil, ErrEmptyCart
	}

	subtotal, _, total := f.cart.Totals(f.settings, f.orderType)

	record := domain.Sale{
		ID:              uuid.New(),
		Number:          f.NextSaleNumber(),
		PaymentMethod:   f.paymentMethod,
		Subtotal:        subtotal,
		Total:           total,
		Paid:            true,
		ScheduledTime:   f.scheduledTime,
		CustomerName:    f.customerName,
		OrderType:       f.orderType,
		DeliveryAddress: f.deliveryAddress,
		CreatedAt:       time.Now().UTC(),
	}

	if f.paymentMethod == enum.PaymentMethodCash {
		received, due, parts, err := f.PreviewChange()
		if err != nil {
			return nil, err
		}
		record.CashReceived = received
		record.ChangeGiven = due
		record.Bills = f.Bills()
		record.ChangeBreakdown = parts
	}

	return f.finalize(ctx, record)
}

// SendWithoutPayment pushes the cart to the kitchen as an unpaid sale. The
// payment sub-flow is skipped entirely; the sale can be marked paid later.
func (f *Finalizer) SendWithoutPayment(ctx context.Context) (*domain.Sale, error) {
	if f.cart.Empty() {
		return nil, ErrEmptyCart
	}

	subtotal, _, total := f.cart.Totals(f.settings, f.orderType)
	record := domain.Sale{
		ID:              uuid.New(),
		Number:          f.NextSaleNumber(),
		PaymentMethod:   enum.PaymentMethodUnpaid,
		Subtotal:        subtotal,
		Total:           total,
		Paid:            false,
		ScheduledTime:   f.scheduledTime,
		CustomerName:    f.customerName,
		OrderType:       f.orderType,
		DeliveryAddress: f.deliveryAddress,
		CreatedAt:       time.Now().UTC(),
	}
	return f.finalize(ctx, record)
}

// finalize runs the post-validation pipeline shared by paid and unpaid
// completion. No compensating transactions: each step is attempted once.
func (f *Finalizer) finalize(ctx context.Context, record domain.Sale) (*domain.Sale, error) {
	f.state = StateCompleting

	items, err := f.expandItems(ctx)
	if err != nil {
		f.state = StateAwaitingPayment
		return nil, fmt.Errorf("%w: %w", ErrSaleFailed, err)
	}
	record.Items = items

	reqs, err := f.cart.Requirements(ctx)
	if err != nil {
		f.state = StateAwaitingPayment
		return nil, fmt.Errorf("%w: %w", ErrSaleFailed, err)
	}
	plan := stock.BuildPlan(reqs)

	if err := f.store.PutSale(ctx, record); err != nil {
		f.state = StateAwaitingPayment
		return nil, fmt.Errorf("%w: persist sale: %w", ErrSaleFailed, err)
	}

	if err := f.inv.Apply(ctx, plan); err != nil {
		// Sale is already durable; no rollback. Surface and keep the
		// flow open so the operator can reconcile.
		f.state = StateAwaitingPayment
		return nil, fmt.Errorf("%w: apply stock deductions: %w", ErrSaleFailed, err)
	}

	if f.settings.KDSEnabled && f.kitchen != nil {
		kitchenID, err := f.kitchen.CreateOrder(ctx, record)
		if err != nil {
			// Known gap: the sale stands even when the kitchen push
			// fails. Logged, not compensated.
			f.log.Error().Err(err).Str("sale", record.Number).Msg("kitchen notify failed")
		} else {
			record.KitchenOrderID = kitchenID
			if err := f.store.PutSale(ctx, record); err != nil {
				f.log.Error().Err(err).Str("sale", record.Number).Msg("store kitchen order id failed")
			}
		}
		if f.editingKitchenOrder != "" {
			if err := f.kitchen.CompleteOrder(ctx, f.editingKitchenOrder); err != nil {
				f.log.Error().Err(err).Str("kitchen_order", f.editingKitchenOrder).Msg("supersede kitchen order failed")
			}
		}
	}

	f.nextSaleNumber++
	f.cart.Clear()
	f.resetTransient()
	f.log.Info().Str("sale", record.Number).Str("total", record.Total.String()).Msg("sale completed")
	return &record, nil
}

// MarkPaid settles a previously unpaid sale out-of-band, replaying the cash
// tender and change computation against the stored record.
func (f *Finalizer) MarkPaid(ctx context.Context, saleID uuid.UUID, bills []int64, method string) (*domain.Sale, error) {
	record, err := f.store.GetSale(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("load sale: %w", err)
	}
	if record.Paid {
		return nil, ErrAlreadyPaid
	}

	record.PaymentMethod = method
	if method == enum.PaymentMethodCash {
		for _, b := range bills {
			if !change.IsDenomination(b) {
				return nil, fmt.Errorf("%d: %w", b, ErrInvalidBill)
			}
		}
		if !record.Total.IsInteger() {
			return nil, ErrFractionalCashTotal
		}
		received := change.SumBills(bills)
		due := received - record.Total.IntPart()
		if due < 0 {
			return nil, ErrInsufficientCash
		}
		parts, err := change.Calculate(due)
		if err != nil {
			return nil, err
		}
		record.CashReceived = received
		record.ChangeGiven = due
		record.Bills = slices.Clone(bills)
		record.ChangeBreakdown = parts
	}
	record.Paid = true

	if err := f.store.PutSale(ctx, *record); err != nil {
		return nil, fmt.Errorf("persist sale: %w", err)
	}
	return record, nil
}

// expandItems flattens the cart into persisted sale items, expanding combo
// lines into one item per slot selection tagged with a synthetic combo
// instance id so the combo can be reconstructed.
func (f *Finalizer) expandItems(ctx context.Context) ([]domain.SaleItem, error) {
	var items []domain.SaleItem
	for _, line := range f.cart.Lines() {
		if line.Simple != nil {
			items = append(items, domain.SaleItem{
				ProductID:          line.Simple.Product.ID,
				ProductName:        line.Simple.Product.Name,
				Quantity:           line.Quantity,
				UnitPrice:          line.UnitPrice,
				Category:           line.Simple.Product.Category,
				RemovedIngredients: line.Simple.RemovedIngredients,
			})
			continue
		}
		instanceID := uuid.NewString()
		for slotIdx, sel := range line.Combo.Selections {
			category := ""
			if product, err := f.store.GetProduct(ctx, sel.ProductID); err == nil {
				category = product.Category
			}
			items = append(items, domain.SaleItem{
				ProductID:          sel.ProductID,
				ProductName:        sel.ProductName,
				Quantity:           line.Quantity,
				UnitPrice:          sel.Price,
				Category:           category,
				RemovedIngredients: sel.RemovedIngredients,
				ComboInstanceID:    instanceID,
				ComboName:          line.Combo.Combo.Name,
				SlotIndex:          slotIdx,
			})
		}
	}
	return items, nil
}

// resetTransient clears payment-flow state back to initial values.
func (f *Finalizer) resetTransient() {
	f.state = StateBuilding
	f.paymentMethod = ""
	f.bills = nil
	f.scheduledTime = nil
	f.customerName = ""
	f.deliveryAddress = ""
	f.orderType = enum.OrderTypePickup
	f.editingKitchenOrder = ""
}
