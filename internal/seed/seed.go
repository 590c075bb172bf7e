// Package seed loads the example cake recipe used by the guided walkthrough.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/pricing"
	"github.com/Simplici0/costeo/internal/store"
	"github.com/Simplici0/costeo/internal/units"
)

const (
	ExampleRecipeID   = "ejemplo-torta"
	ExampleRecipeName = "Torta de ejemplo"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

type exampleLine struct {
	name  string
	lot   costing.Lot
	usage costing.Usage
}

var exampleLines = []exampleLine{
	{"Harina 0000", costing.Lot{Quantity: 1, Unit: units.Kilogram, TotalPrice: 1200}, costing.Usage{Quantity: 300, Unit: units.Gram}},
	{"Azúcar", costing.Lot{Quantity: 1, Unit: units.Kilogram, TotalPrice: 1500}, costing.Usage{Quantity: 250, Unit: units.Gram}},
	{"Manteca", costing.Lot{Quantity: 200, Unit: units.Gram, TotalPrice: 2000}, costing.Usage{Quantity: 150, Unit: units.Gram}},
	{"Huevos", costing.Lot{Quantity: 12, Unit: units.Piece, TotalPrice: 3600}, costing.Usage{Quantity: 4, Unit: units.Piece}},
	{"Leche", costing.Lot{Quantity: 1, Unit: units.Liter, TotalPrice: 1100}, costing.Usage{Quantity: 250, Unit: units.Milliliter}},
	{"Cacao amargo", costing.Lot{Quantity: 500, Unit: units.Gram, TotalPrice: 4500}, costing.Usage{Quantity: 60, Unit: units.Gram}},
}

var exampleParams = pricing.Params{
	Name:                ExampleRecipeName,
	PackagingCost:       800,
	BakingCost:          950,
	LaborMinutes:        90,
	HourlyRate:          3000,
	FixedCostAllocation: 2500,
	ProfitPercentage:    40,
	Portions:            12,
}

// ExampleRecipe builds the example cake in memory.
func ExampleRecipe() (*pricing.Recipe, error) {
	r := &pricing.Recipe{ID: ExampleRecipeID}
	if err := r.SetParams(exampleParams); err != nil {
		return nil, fmt.Errorf("example recipe params: %w", err)
	}
	for _, l := range exampleLines {
		if _, err := r.AddIngredientLine(l.name, l.lot, l.usage); err != nil {
			return nil, fmt.Errorf("example ingredient %s: %w", l.name, err)
		}
	}
	return r, nil
}

// Run inserts the example recipe unless it already exists.
func Run(ctx context.Context, st *store.Store) (Stats, error) {
	_, err := st.Get(ctx, ExampleRecipeID)
	if err == nil {
		return Stats{}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Stats{}, fmt.Errorf("check example recipe existence: %w", err)
	}

	r, err := ExampleRecipe()
	if err != nil {
		return Stats{}, err
	}
	if err := st.Create(ctx, r); err != nil {
		return Stats{}, fmt.Errorf("insert example recipe: %w", err)
	}
	return Stats{Inserts: 1}, nil
}
