package pricing

import (
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestCalculate_FullRecipe(t *testing.T) {
	params := Params{
		Name:                "Torta",
		PackagingCost:       50,
		BakingCost:          30,
		LaborMinutes:        90,
		HourlyRate:          2000,
		FixedCostAllocation: 40,
		ProfitPercentage:    40,
		Portions:            12,
	}

	result := Calculate(250, params)

	nearlyEqual(t, "materialCost", result.Breakdown.MaterialCost, 330)
	nearlyEqual(t, "laborCost", result.Breakdown.LaborCost, 3000)
	nearlyEqual(t, "totalCost", result.Totals.TotalCost, 3370)
	nearlyEqual(t, "profitAmount", result.Totals.ProfitAmount, 1348)
	nearlyEqual(t, "finalPrice", result.Totals.FinalPrice, 4718)
	nearlyEqual(t, "portionPrice", result.Totals.PortionPrice, 4718.0/12.0)
}

func TestCalculate_DecorationIsMaterial(t *testing.T) {
	result := Calculate(1500, Params{
		PackagingCost:  200,
		DecorationCost: 300,
		BakingCost:     150,
		LaborMinutes:   60,
		HourlyRate:     1000,
		Portions:       1,
	})

	nearlyEqual(t, "decorationCost", result.Breakdown.DecorationCost, 300)
	nearlyEqual(t, "materialCost", result.Breakdown.MaterialCost, 2150)
	nearlyEqual(t, "totalCost", result.Totals.TotalCost, 3150)
}

func TestCalculate_ProfitPercent_ZeroAndFifty(t *testing.T) {
	withoutProfit := Calculate(100, Params{Portions: 1})
	withProfit := Calculate(100, Params{ProfitPercentage: 50, Portions: 1})

	nearlyEqual(t, "withoutProfit profit", withoutProfit.Totals.ProfitAmount, 0)
	nearlyEqual(t, "withProfit profit", withProfit.Totals.ProfitAmount, 50)
	nearlyEqual(t, "withoutProfit final", withoutProfit.Totals.FinalPrice, 100)
	nearlyEqual(t, "withProfit final", withProfit.Totals.FinalPrice, 150)
}

func TestCalculate_ZeroPortionsNeverDivides(t *testing.T) {
	result := Calculate(100, Params{ProfitPercentage: 10, Portions: 0})

	nearlyEqual(t, "finalPrice", result.Totals.FinalPrice, 110)
	if result.Totals.PortionPrice != 0 {
		t.Fatalf("portionPrice = %v, want 0", result.Totals.PortionPrice)
	}
}

func TestCalculate_NonFiniteInputsAreCleaned(t *testing.T) {
	result := Calculate(math.NaN(), Params{HourlyRate: math.Inf(1), LaborMinutes: 10, Portions: 1})

	for name, v := range map[string]float64{
		"ingredientCost": result.Breakdown.IngredientCost,
		"laborCost":      result.Breakdown.LaborCost,
		"totalCost":      result.Totals.TotalCost,
		"finalPrice":     result.Totals.FinalPrice,
		"portionPrice":   result.Totals.PortionPrice,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("%s is not finite: %v", name, v)
		}
	}
}

func TestLaborCost(t *testing.T) {
	nearlyEqual(t, "90 minutes", LaborCost(90, 2000), 3000)
	nearlyEqual(t, "no time", LaborCost(0, 2000), 0)
	nearlyEqual(t, "no rate", LaborCost(45, 0), 0)
}
