package pricing

import "math"

// Params holds the primary, non-ingredient inputs of a recipe.
type Params struct {
	Name                string  `json:"name" validate:"required"`
	PackagingCost       float64 `json:"packagingCost" validate:"gte=0"`
	DecorationCost      float64 `json:"decorationCost" validate:"gte=0"`
	BakingCost          float64 `json:"bakingCost" validate:"gte=0"`
	LaborMinutes        float64 `json:"laborMinutes" validate:"gte=0"`
	HourlyRate          float64 `json:"hourlyRate" validate:"gte=0"`
	FixedCostAllocation float64 `json:"fixedCostAllocation" validate:"gte=0"`
	ProfitPercentage    float64 `json:"profitPercentage" validate:"gte=0"`
	Portions            int     `json:"portions" validate:"gte=1"`
}

// Breakdown contains the cost components of a recipe.
type Breakdown struct {
	IngredientCost      float64 `json:"ingredientCost"`
	PackagingCost       float64 `json:"packagingCost"`
	DecorationCost      float64 `json:"decorationCost"`
	BakingCost          float64 `json:"bakingCost"`
	MaterialCost        float64 `json:"materialCost"`
	LaborCost           float64 `json:"laborCost"`
	FixedCostAllocation float64 `json:"fixedCostAllocation"`
}

// Totals contains the roll-up and sale price values.
type Totals struct {
	TotalCost        float64 `json:"totalCost"`
	ProfitPercentage float64 `json:"profitPercentage"`
	ProfitAmount     float64 `json:"profitAmount"`
	FinalPrice       float64 `json:"finalPrice"`
	Portions         int     `json:"portions"`
	PortionPrice     float64 `json:"portionPrice"`
}

// Result groups the full pricing output, including breakdown and totals.
type Result struct {
	Breakdown Breakdown `json:"breakdown"`
	Totals    Totals    `json:"totals"`
}

// LaborCost prices minutes of work at an hourly rate.
func LaborCost(minutes, hourlyRate float64) float64 {
	return clean((minutes / 60.0) * hourlyRate)
}

// Calculate computes pricing values from the summed ingredient cost and the
// recipe parameters. It is pure: equal inputs give bit-identical results.
func Calculate(ingredientCost float64, p Params) Result {
	materialCost := ingredientCost + p.PackagingCost + p.DecorationCost + p.BakingCost
	laborCost := LaborCost(p.LaborMinutes, p.HourlyRate)
	totalCost := materialCost + laborCost + p.FixedCostAllocation
	profitAmount := totalCost * (p.ProfitPercentage / 100.0)
	finalPrice := totalCost + profitAmount

	portionPrice := 0.0
	if p.Portions > 0 {
		portionPrice = finalPrice / float64(p.Portions)
	}

	return Result{
		Breakdown: Breakdown{
			IngredientCost:      clean(ingredientCost),
			PackagingCost:       clean(p.PackagingCost),
			DecorationCost:      clean(p.DecorationCost),
			BakingCost:          clean(p.BakingCost),
			MaterialCost:        clean(materialCost),
			LaborCost:           laborCost,
			FixedCostAllocation: clean(p.FixedCostAllocation),
		},
		Totals: Totals{
			TotalCost:        clean(totalCost),
			ProfitPercentage: p.ProfitPercentage,
			ProfitAmount:     clean(profitAmount),
			FinalPrice:       clean(finalPrice),
			Portions:         p.Portions,
			PortionPrice:     clean(portionPrice),
		},
	}
}

// ComputeTotals prices the recipe from its current field values.
func ComputeTotals(r *Recipe) Result {
	return Calculate(r.TotalIngredientCost(), r.Params)
}

// clean keeps NaN and infinities away from display and aggregation layers.
func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
