package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fondapos/core/internal/domain"
	"github.com/fondapos/core/internal/enum"
)

// Seed writes a small fonda catalog into the store: enough products to
// exercise both stock modes, removable ingredients and both combo pricing
// modes. Used by the seed command and the in-memory dev store.
func Seed(ctx context.Context, s Store) error {
	carne := domain.MateriaPrima{ID: uuid.New(), Name: "carne", Stock: decimal.NewFromInt(40)}
	queso := domain.MateriaPrima{ID: uuid.New(), Name: "queso", Stock: decimal.NewFromInt(60)}
	pan := domain.MateriaPrima{ID: uuid.New(), Name: "pan", Stock: decimal.NewFromInt(50)}
	pepinillos := domain.MateriaPrima{ID: uuid.New(), Name: "pepinillos", Stock: decimal.NewFromInt(30)}
	papa := domain.MateriaPrima{ID: uuid.New(), Name: "papa", Stock: decimal.NewFromInt(80)}
	for _, m := range []domain.MateriaPrima{carne, queso, pan, pepinillos, papa} {
		if err := s.PutMateriaPrima(ctx, m); err != nil {
			return err
		}
	}

	hamburguesa := domain.Product{
		ID: uuid.New(), Name: "Hamburguesa", Price: decimal.NewFromInt(12000),
		Category: "platos", UsesMateriaPrima: true,
		ProductionCost: decimal.NewFromInt(5000), DisplayOrder: 1,
		Recipe: []domain.RecipeLink{
			{MateriaPrimaID: carne.ID, Name: carne.Name, PerUnit: decimal.NewFromInt(1)},
			{MateriaPrimaID: pan.ID, Name: pan.Name, PerUnit: decimal.NewFromInt(1)},
			{MateriaPrimaID: queso.ID, Name: queso.Name, PerUnit: decimal.NewFromInt(1), Removable: true},
			{MateriaPrimaID: pepinillos.ID, Name: pepinillos.Name, PerUnit: decimal.NewFromInt(1), Removable: true},
		},
	}
	papas := domain.Product{
		ID: uuid.New(), Name: "Papas Fritas", Price: decimal.NewFromInt(6000),
		Category: "acompañamientos", UsesMateriaPrima: true,
		ProductionCost: decimal.NewFromInt(2000), DisplayOrder: 2,
		Recipe: []domain.RecipeLink{
			{MateriaPrimaID: papa.ID, Name: papa.Name, PerUnit: decimal.NewFromInt(2)},
		},
	}
	gaseosa := domain.Product{
		ID: uuid.New(), Name: "Gaseosa", Price: decimal.NewFromInt(4000),
		Category: "bebidas", Stock: 100,
		ProductionCost: decimal.NewFromInt(1500), DisplayOrder: 3,
	}
	for _, p := range []domain.Product{hamburguesa, papas, gaseosa} {
		if err := s.PutProduct(ctx, p); err != nil {
			return err
		}
	}

	combos := []domain.Combo{
		{
			ID: uuid.New(), Name: "Combo Almuerzo",
			Slots: []domain.ComboSlot{
				{ID: uuid.New(), Name: "Principal", ProductIDs: []uuid.UUID{hamburguesa.ID}},
				{ID: uuid.New(), Name: "Acompañamiento", ProductIDs: []uuid.UUID{papas.ID}},
				{ID: uuid.New(), Name: "Bebida", ProductIDs: []uuid.UUID{gaseosa.ID}},
			},
			PricingMode: enum.ComboPricingFixed,
			FixedPrice:  decimal.NewFromInt(19000),
		},
		{
			ID: uuid.New(), Name: "Combo Pareja",
			Slots: []domain.ComboSlot{
				{ID: uuid.New(), Name: "Principal 1", ProductIDs: []uuid.UUID{hamburguesa.ID}},
				{ID: uuid.New(), Name: "Principal 2", ProductIDs: []uuid.UUID{hamburguesa.ID}},
				{ID: uuid.New(), Name: "Bebida", ProductIDs: []uuid.UUID{gaseosa.ID}},
			},
			PricingMode:   enum.ComboPricingDiscount,
			DiscountType:  enum.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
		},
	}
	for _, c := range combos {
		if err := s.PutCombo(ctx, c); err != nil {
			return err
		}
	}

	return s.PutSettings(ctx, domain.AppSettings{
		DeliveryCharge:        decimal.NewFromInt(3000),
		FreeDeliveryThreshold: decimal.NewFromInt(50000),
	})
}
