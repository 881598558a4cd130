// Package stock turns expanded cart contents into consolidated inventory
// deductions. Planning is pure aggregation; reads and writes against the
// store happen in Inventory, with all reads completed before any write so a
// multi-combo cart produces one write per affected record.
package stock

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fondapos/core/internal/domain"
	"github.com/fondapos/core/internal/store"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// Requirement is one product-level demand: a simple cart line, or one slot
// selection of a combo line already scaled by the combo quantity. Removed
// lists ingredient names whose raw-material consumption is suppressed.
type Requirement struct {
	Product  domain.Product
	Quantity int64
	Removed  []string
}

// Plan aggregates deductions per inventory record: direct stock counters for
// products not backed by raw materials, and raw-material units otherwise.
type Plan struct {
	Products  map[uuid.UUID]int64
	Materials map[uuid.UUID]decimal.Decimal

	productNames  map[uuid.UUID]string
	materialNames map[uuid.UUID]string
}

// BuildPlan aggregates requirements into a Plan. Raw-material links whose
// name appears in the requirement's Removed set contribute nothing.
func BuildPlan(reqs []Requirement) Plan {
	plan := Plan{
		Products:      map[uuid.UUID]int64{},
		Materials:     map[uuid.UUID]decimal.Decimal{},
		productNames:  map[uuid.UUID]string{},
		materialNames: map[uuid.UUID]string{},
	}
	for _, req := range reqs {
		if req.Quantity <= 0 {
			continue
		}
		if !req.Product.UsesMateriaPrima {
			plan.Products[req.Product.ID] += req.Quantity
			plan.productNames[req.Product.ID] = req.Product.Name
			continue
		}
		for _, link := range req.Product.Recipe {
			if slices.Contains(req.Removed, link.Name) {
				continue
			}
			needed := link.PerUnit.Mul(decimal.NewFromInt(req.Quantity))
			current, ok := plan.Materials[link.MateriaPrimaID]
			if !ok {
				current = decimal.Zero
			}
			plan.Materials[link.MateriaPrimaID] = current.Add(needed)
			plan.materialNames[link.MateriaPrimaID] = link.Name
		}
	}
	return plan
}

// Inventory is the store-backed side of stock handling: availability
// queries, whole-plan sufficiency checks, and the batched apply.
type Inventory struct {
	store store.Store
	log   zerolog.Logger
}

func NewInventory(st store.Store, log zerolog.Logger) *Inventory {
	return &Inventory{store: st, log: log}
}

// Available reports how many units of the product can currently be sold:
// the direct counter, or for recipe-backed products the bottleneck across
// raw materials.
func (inv *Inventory) Available(ctx context.Context, product domain.Product) (int64, error) {
	if !product.UsesMateriaPrima {
		return product.Stock, nil
	}
	if len(product.Recipe) == 0 {
		return 0, nil
	}

	limit := int64(-1)
	for _, link := range product.Recipe {
		if !link.PerUnit.IsPositive() {
			continue
		}
		material, err := inv.store.GetMateriaPrima(ctx, link.MateriaPrimaID)
		if err != nil {
			return 0, fmt.Errorf("get materia prima %s: %w", link.Name, err)
		}
		units := material.Stock.Div(link.PerUnit).IntPart()
		if limit < 0 || units < limit {
			limit = units
		}
	}
	if limit < 0 {
		return 0, nil
	}
	return limit, nil
}

// Check verifies the plan fits the current stock snapshot. All reads happen
// before the verdict; the first shortfall is reported with the record's name.
func (inv *Inventory) Check(ctx context.Context, plan Plan) error {
	for id, needed := range plan.Products {
		product, err := inv.store.GetProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("get product %s: %w", id, err)
		}
		if product.Stock < needed {
			return fmt.Errorf("%s: %w", product.Name, ErrInsufficientStock)
		}
	}
	for id, needed := range plan.Materials {
		material, err := inv.store.GetMateriaPrima(ctx, id)
		if err != nil {
			return fmt.Errorf("get materia prima %s: %w", id, err)
		}
		if material.Stock.LessThan(needed) {
			return fmt.Errorf("%s: %w", material.Name, ErrInsufficientStock)
		}
	}
	return nil
}

// Apply issues the plan's writes, one per affected record. A raw-material
// deduction that would drive stock negative is skipped and logged instead of
// applied.
//
// TODO: decide between deduct-to-zero and rejecting the whole sale; skipping
// masks over-selling when upstream validation was bypassed.
func (inv *Inventory) Apply(ctx context.Context, plan Plan) error {
	// Read everything first so interleaved writes never expose a
	// half-applied plan.
	products := make(map[uuid.UUID]*domain.Product, len(plan.Products))
	for id := range plan.Products {
		product, err := inv.store.GetProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("get product %s: %w", id, err)
		}
		products[id] = product
	}
	materials := make(map[uuid.UUID]*domain.MateriaPrima, len(plan.Materials))
	for id := range plan.Materials {
		material, err := inv.store.GetMateriaPrima(ctx, id)
		if err != nil {
			return fmt.Errorf("get materia prima %s: %w", id, err)
		}
		materials[id] = material
	}

	for id, needed := range plan.Products {
		product := products[id]
		product.Stock -= needed
		if product.Stock < 0 {
			inv.log.Warn().
				Str("product", product.Name).
				Int64("deficit", -product.Stock).
				Msg("direct stock clamped at zero")
			product.Stock = 0
		}
		if err := inv.store.PutProduct(ctx, *product); err != nil {
			return fmt.Errorf("put product %s: %w", product.Name, err)
		}
	}
	for id, needed := range plan.Materials {
		material := materials[id]
		if material.Stock.LessThan(needed) {
			inv.log.Warn().
				Str("materia_prima", material.Name).
				Str("stock", material.Stock.String()).
				Str("needed", needed.String()).
				Msg("skipping deduction that would drive stock negative")
			continue
		}
		material.Stock = material.Stock.Sub(needed)
		if err := inv.store.PutMateriaPrima(ctx, *material); err != nil {
			return fmt.Errorf("put materia prima %s: %w", material.Name, err)
		}
	}
	return nil
}
