// Package cart owns the active sale-in-progress: line items, combo lines
// with per-slot customization, merge rules and totals. Every mutation is
// validated against current stock before it is applied; a failed validation
// leaves the cart untouched.
package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fondapos/core/internal/domain"
	"github.com/fondapos/core/internal/enum"
	"github.com/fondapos/core/internal/pricing"
	"github.com/fondapos/core/internal/stock"
	"github.com/fondapos/core/internal/store"
)

var (
	ErrLineNotFound      = errors.New("cart line not found")
	ErrSelectionMismatch = errors.New("selections do not match combo slots")
	ErrProductNotAllowed = errors.New("product not allowed in slot")
	ErrNotRemovable      = errors.New("ingredient is not removable")
)

// SimplePayload is the plain-product variant of a cart line.
type SimplePayload struct {
	Product            domain.Product
	RemovedIngredients []string
}

// ComboPayload is the combo variant: the definition plus one resolved
// selection per slot.
type ComboPayload struct {
	Combo      domain.Combo
	Selections []domain.ComboSelection
}

// Line is one cart entry. Exactly one of Simple or Combo is set.
type Line struct {
	ID        uuid.UUID
	Quantity  int64
	UnitPrice decimal.Decimal
	Simple    *SimplePayload
	Combo     *ComboPayload
}

// signature identifies lines that must merge: same product with the same
// removed-ingredient set, or a combo with an identical full selection set.
func (l Line) signature() string {
	if l.Simple != nil {
		return l.Simple.Product.ID.String() + "|" + sortedJoin(l.Simple.RemovedIngredients)
	}
	parts := make([]string, 0, len(l.Combo.Selections)+1)
	parts = append(parts, "combo:"+l.Combo.Combo.ID.String())
	for _, sel := range l.Combo.Selections {
		parts = append(parts, sel.SlotID.String()+":"+sel.ProductID.String()+":"+sortedJoin(sel.RemovedIngredients))
	}
	return strings.Join(parts, "|")
}

func sortedJoin(names []string) string {
	cp := slices.Clone(names)
	sort.Strings(cp)
	return strings.Join(cp, ",")
}

// Cart aggregates the lines of the active sale. Not safe for concurrent use;
// a single POS session mutates it.
type Cart struct {
	store store.Store
	inv   *stock.Inventory
	lines []Line
}

func New(st store.Store, inv *stock.Inventory) *Cart {
	return &Cart{store: st, inv: inv}
}

// Lines returns the current lines in insertion order.
func (c *Cart) Lines() []Line {
	return slices.Clone(c.lines)
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Clear() {
	c.lines = nil
}

// validateRemovals checks every removed name against the product's recipe:
// only links flagged removable may be excluded.
func validateRemovals(product domain.Product, removed []string) error {
	for _, name := range removed {
		ok := false
		for _, link := range product.Recipe {
			if link.Name == name && link.Removable {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%s on %s: %w", name, product.Name, ErrNotRemovable)
		}
	}
	return nil
}

// AddLine adds one unit of a plain product, merging into an existing line
// with the same product and removed-ingredient set. The mutation is rejected
// when the resulting quantity exceeds currently available stock.
func (c *Cart) AddLine(ctx context.Context, product domain.Product, removed []string) error {
	if err := validateRemovals(product, removed); err != nil {
		return err
	}

	candidate := Line{
		Quantity:  1,
		UnitPrice: product.Price,
		Simple:    &SimplePayload{Product: product, RemovedIngredients: slices.Clone(removed)},
	}
	sig := candidate.signature()

	newQty := int64(1)
	existing := -1
	for i, line := range c.lines {
		if line.signature() == sig {
			existing = i
			newQty = line.Quantity + 1
			break
		}
	}

	available, err := c.inv.Available(ctx, product)
	if err != nil {
		return err
	}
	if newQty > available {
		return fmt.Errorf("%s: %w", product.Name, stock.ErrInsufficientStock)
	}

	if existing >= 0 {
		c.lines[existing].Quantity = newQty
		return nil
	}
	candidate.ID = uuid.New()
	c.lines = append(c.lines, candidate)
	return nil
}

// AddCombo validates the selections against the combo definition, prices the
// combo via the pricing collaborator, and checks raw-material and direct
// stock sufficiency across the entire prospective cart before committing.
func (c *Cart) AddCombo(ctx context.Context, combo domain.Combo, selections []domain.ComboSelection) error {
	if len(selections) != len(combo.Slots) {
		return ErrSelectionMismatch
	}
	for i, sel := range selections {
		slot := combo.Slots[i]
		if sel.SlotID != slot.ID {
			return ErrSelectionMismatch
		}
		if len(slot.ProductIDs) > 0 && !slices.Contains(slot.ProductIDs, sel.ProductID) {
			return fmt.Errorf("%s in slot %s: %w", sel.ProductName, slot.Name, ErrProductNotAllowed)
		}
		product, err := c.store.GetProduct(ctx, sel.ProductID)
		if err != nil {
			return fmt.Errorf("resolve selection %s: %w", sel.ProductName, err)
		}
		if err := validateRemovals(*product, sel.RemovedIngredients); err != nil {
			return err
		}
	}

	candidate := Line{
		Quantity:  1,
		UnitPrice: pricing.ComboTotal(combo, selections),
		Combo:     &ComboPayload{Combo: combo, Selections: selections},
	}
	sig := candidate.signature()

	prospective := slices.Clone(c.lines)
	merged := -1
	for i, line := range prospective {
		if line.signature() == sig {
			merged = i
			break
		}
	}
	if merged >= 0 {
		prospective[merged].Quantity++
	} else {
		prospective = append(prospective, candidate)
	}

	if err := c.checkProspective(ctx, prospective); err != nil {
		return err
	}

	if merged >= 0 {
		c.lines[merged].Quantity++
		return nil
	}
	candidate.ID = uuid.New()
	c.lines = append(c.lines, candidate)
	return nil
}

// checkProspective expands the given lines and verifies the aggregated plan
// against current stock. Used for combo mutations, where one slot product
// may also appear in other lines.
func (c *Cart) checkProspective(ctx context.Context, lines []Line) error {
	reqs, err := requirements(ctx, c.store, lines)
	if err != nil {
		return err
	}
	return c.inv.Check(ctx, stock.BuildPlan(reqs))
}

// RemoveLine drops a line. Reports whether the cart became empty so the
// session can reset payment-flow state.
func (c *Cart) RemoveLine(id uuid.UUID) (empty bool, err error) {
	for i, line := range c.lines {
		if line.ID == id {
			c.lines = slices.Delete(c.lines, i, i+1)
			return len(c.lines) == 0, nil
		}
	}
	return false, ErrLineNotFound
}

// UpdateQuantity sets a line's quantity, re-validating stock first. A
// quantity of zero or less removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int64) (empty bool, err error) {
	if quantity <= 0 {
		return c.RemoveLine(id)
	}

	idx := -1
	for i, line := range c.lines {
		if line.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, ErrLineNotFound
	}

	line := c.lines[idx]
	if line.Simple != nil {
		available, err := c.inv.Available(ctx, line.Simple.Product)
		if err != nil {
			return false, err
		}
		if quantity > available {
			return false, fmt.Errorf("%s: %w", line.Simple.Product.Name, stock.ErrInsufficientStock)
		}
	} else {
		prospective := slices.Clone(c.lines)
		prospective[idx].Quantity = quantity
		if err := c.checkProspective(ctx, prospective); err != nil {
			return false, err
		}
	}

	c.lines[idx].Quantity = quantity
	return false, nil
}

// Subtotal is the sum of line price times quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range c.lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)))
	}
	return subtotal
}

// Totals computes subtotal, delivery surcharge and final total. Delivery
// orders below the free-delivery threshold pay the configured surcharge;
// a zero or unset threshold means the surcharge always applies.
func (c *Cart) Totals(settings domain.AppSettings, orderType string) (subtotal, delivery, total decimal.Decimal) {
	subtotal = c.Subtotal()
	delivery = decimal.Zero
	if orderType == enum.OrderTypeDelivery {
		free := settings.FreeDeliveryThreshold.IsPositive() &&
			subtotal.GreaterThanOrEqual(settings.FreeDeliveryThreshold)
		if !free {
			delivery = settings.DeliveryCharge
		}
	}
	return subtotal, delivery, subtotal.Add(delivery)
}

// Requirements expands the cart into product-level demands for the stock
// planner: one per simple line, one per combo slot selection scaled by the
// combo quantity. Products are re-read from the store so the plan reflects
// current recipes.
func (c *Cart) Requirements(ctx context.Context) ([]stock.Requirement, error) {
	return requirements(ctx, c.store, c.lines)
}

func requirements(ctx context.Context, st store.Store, lines []Line) ([]stock.Requirement, error) {
	var reqs []stock.Requirement
	for _, line := range lines {
		if line.Simple != nil {
			product, err := st.GetProduct(ctx, line.Simple.Product.ID)
			if err != nil {
				return nil, fmt.Errorf("resolve product %s: %w", line.Simple.Product.Name, err)
			}
			reqs = append(reqs, stock.Requirement{
				Product:  *product,
				Quantity: line.Quantity,
				Removed:  line.Simple.RemovedIngredients,
			})
			continue
		}
		for _, sel := range line.Combo.Selections {
			product, err := st.GetProduct(ctx, sel.ProductID)
			if err != nil {
				return nil, fmt.Errorf("resolve selection %s: %w", sel.ProductName, err)
			}
			reqs = append(reqs, stock.Requirement{
				Product:  *product,
				Quantity: line.Quantity,
				Removed:  sel.RemovedIngredients,
			})
		}
	}
	return reqs, nil
}
