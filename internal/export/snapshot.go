// Package export turns a priced recipe into a self-contained snapshot and
// renders it for download. Renderers only ever see the snapshot.
package export

import (
	"github.com/Simplici0/costeo/internal/pricing"
	"github.com/Simplici0/costeo/internal/units"
)

// Snapshot is everything a renderer needs about one recipe.
type Snapshot struct {
	Name        string          `json:"name" msgpack:"name"`
	Ingredients []IngredientRow `json:"ingredients" msgpack:"ingredients"`
	Costs       Costs           `json:"costs" msgpack:"costs"`
	Pricing     Pricing         `json:"pricing" msgpack:"pricing"`
}

// IngredientRow is one ingredient as bought and as used.
type IngredientRow struct {
	Name              string     `json:"name" msgpack:"name"`
	PurchasedQuantity float64    `json:"purchasedQuantity" msgpack:"purchased_quantity"`
	PurchasedUnit     units.Unit `json:"purchasedUnit" msgpack:"purchased_unit"`
	Price             float64    `json:"price" msgpack:"price"`
	UsedQuantity      float64    `json:"usedQuantity" msgpack:"used_quantity"`
	UsedUnit          units.Unit `json:"usedUnit" msgpack:"used_unit"`
	Cost              float64    `json:"cost" msgpack:"cost"`
}

// Costs is the cost breakdown section.
type Costs struct {
	Ingredients float64 `json:"ingredients" msgpack:"ingredients"`
	Packaging   float64 `json:"packaging" msgpack:"packaging"`
	Decoration  float64 `json:"decoration" msgpack:"decoration"`
	Baking      float64 `json:"baking" msgpack:"baking"`
	Material    float64 `json:"material" msgpack:"material"`
	Labor       float64 `json:"labor" msgpack:"labor"`
	Fixed       float64 `json:"fixed" msgpack:"fixed"`
	Total       float64 `json:"total" msgpack:"total"`
}

// Pricing is the sale price section.
type Pricing struct {
	ProfitPercentage float64 `json:"profitPercentage" msgpack:"profit_percentage"`
	Profit           float64 `json:"profit" msgpack:"profit"`
	FinalPrice       float64 `json:"finalPrice" msgpack:"final_price"`
	Portions         int     `json:"portions" msgpack:"portions"`
	PortionPrice     float64 `json:"portionPrice" msgpack:"portion_price"`
}

// NewSnapshot copies the recipe and its computed totals into a Snapshot.
func NewSnapshot(r *pricing.Recipe) Snapshot {
	result := pricing.ComputeTotals(r)
	lines := r.Lines()

	rows := make([]IngredientRow, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, IngredientRow{
			Name:              line.Name,
			PurchasedQuantity: line.Lot.Quantity,
			PurchasedUnit:     line.Lot.Unit,
			Price:             line.Lot.TotalPrice,
			UsedQuantity:      line.Usage.Quantity,
			UsedUnit:          line.Usage.Unit,
			Cost:              line.Cost,
		})
	}

	return Snapshot{
		Name:        r.Name,
		Ingredients: rows,
		Costs: Costs{
			Ingredients: result.Breakdown.IngredientCost,
			Packaging:   result.Breakdown.PackagingCost,
			Decoration:  result.Breakdown.DecorationCost,
			Baking:      result.Breakdown.BakingCost,
			Material:    result.Breakdown.MaterialCost,
			Labor:       result.Breakdown.LaborCost,
			Fixed:       result.Breakdown.FixedCostAllocation,
			Total:       result.Totals.TotalCost,
		},
		Pricing: Pricing{
			ProfitPercentage: result.Totals.ProfitPercentage,
			Profit:           result.Totals.ProfitAmount,
			FinalPrice:       result.Totals.FinalPrice,
			Portions:         result.Totals.Portions,
			PortionPrice:     result.Totals.PortionPrice,
		},
	}
}
