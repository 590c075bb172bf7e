package pricing

import "math"

// FixedExpenses are a month's recurring costs and how many products share them.
type FixedExpenses struct {
	Rent            float64 `json:"rent" validate:"gte=0"`
	Services        float64 `json:"services" validate:"gte=0"`
	Taxes           float64 `json:"taxes" validate:"gte=0"`
	Salary          float64 `json:"salary" validate:"gte=0"`
	Marketing       float64 `json:"marketing" validate:"gte=0"`
	Other           float64 `json:"other" validate:"gte=0"`
	MonthlyProducts int     `json:"monthlyProducts" validate:"gte=1"`
}

// MonthlyTotal sums every monthly expense.
func (f FixedExpenses) MonthlyTotal() float64 {
	return clean(f.Rent + f.Services + f.Taxes + f.Salary + f.Marketing + f.Other)
}

// PerProduct is the share of the monthly total carried by each product,
// usable as a recipe's FixedCostAllocation.
func (f FixedExpenses) PerProduct() float64 {
	if f.MonthlyProducts <= 0 {
		return 0
	}
	return clean(f.MonthlyTotal() / float64(f.MonthlyProducts))
}

// BakingInputs describe the oven, gas and equipment used for one batch.
type BakingInputs struct {
	OvenPowerWatts        float64 `json:"ovenPowerWatts" validate:"gte=0"`
	BakingMinutes         float64 `json:"bakingMinutes" validate:"gte=0"`
	ElectricityPerKWh     float64 `json:"electricityPerKWh" validate:"gte=0"`
	GasCostPerHour        float64 `json:"gasCostPerHour" validate:"gte=0"`
	GasMinutes            float64 `json:"gasMinutes" validate:"gte=0"`
	EquipmentCost         float64 `json:"equipmentCost" validate:"gte=0"`
	EquipmentLifespanUses float64 `json:"equipmentLifespanUses" validate:"gte=0"`
}

// BakingCosts is the utility and amortization cost of one batch.
type BakingCosts struct {
	Electricity  float64 `json:"electricity"`
	Gas          float64 `json:"gas"`
	Amortization float64 `json:"amortization"`
	Total        float64 `json:"total"`
}

// Costs prices one batch. The total is usable as a recipe's BakingCost.
func (b BakingInputs) Costs() BakingCosts {
	electricity := (b.OvenPowerWatts / 1000.0) * (b.BakingMinutes / 60.0) * b.ElectricityPerKWh
	gas := (b.GasCostPerHour / 60.0) * b.GasMinutes

	amortization := 0.0
	if b.EquipmentLifespanUses > 0 {
		amortization = b.EquipmentCost / b.EquipmentLifespanUses
	}

	return BakingCosts{
		Electricity:  clean(electricity),
		Gas:          clean(gas),
		Amortization: clean(amortization),
		Total:        clean(electricity + gas + amortization),
	}
}

// LaborTime sums the minutes of each work segment (mixing, baking,
// decorating...). Negative segments count as zero.
func LaborTime(segments ...float64) float64 {
	total := 0.0
	for _, m := range segments {
		if m > 0 {
			total += m
		}
	}
	return clean(total)
}

// maxSplitMinutes caps SplitMinutes so the result fits any int.
const maxSplitMinutes = math.MaxInt32

// SplitMinutes breaks a duration in minutes into whole hours and the
// remaining minutes. Durations past maxSplitMinutes (or infinite) are
// clamped to it.
func SplitMinutes(total float64) (hours, minutes int) {
	if !(total > 0) {
		return 0, 0
	}
	whole := maxSplitMinutes
	if total < maxSplitMinutes {
		whole = int(total)
	}
	return whole / 60, whole % 60
}
