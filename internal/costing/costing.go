// Package costing allocates the price of a purchased lot to the portion of it
// a recipe actually uses.
package costing

import (
	"errors"
	"fmt"
	"math"

	"github.com/Simplici0/costeo/internal/units"
)

// Sentinel errors for the allocation conditions.
var (
	ErrIncompatibleUnits = errors.New("incompatible units")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrDivisionByZero    = errors.New("division by zero")
)

// Warning flags why an allocation yielded zero instead of a real cost.
type Warning int

const (
	WarningNone Warning = iota
	WarningIncompatibleUnits
	WarningInvalidQuantity
	WarningDivisionByZero
)

var warningNames = map[Warning]string{
	WarningNone:              "none",
	WarningIncompatibleUnits: "incompatible_units",
	WarningInvalidQuantity:   "invalid_quantity",
	WarningDivisionByZero:    "division_by_zero",
}

func (w Warning) String() string {
	if name, ok := warningNames[w]; ok {
		return name
	}
	return fmt.Sprintf("warning(%d)", int(w))
}

// MarshalText renders the warning by name in JSON payloads.
func (w Warning) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (w *Warning) UnmarshalText(text []byte) error {
	for k, name := range warningNames {
		if name == string(text) {
			*w = k
			return nil
		}
	}
	return fmt.Errorf("unknown warning %q", text)
}

// Err maps the warning to its sentinel error, nil for WarningNone.
func (w Warning) Err() error {
	switch w {
	case WarningIncompatibleUnits:
		return ErrIncompatibleUnits
	case WarningInvalidQuantity:
		return ErrInvalidQuantity
	case WarningDivisionByZero:
		return ErrDivisionByZero
	default:
		return nil
	}
}

// Lot is what was bought: a quantity of some unit at a total price.
type Lot struct {
	Quantity   float64    `json:"quantity" msgpack:"quantity"`
	Unit       units.Unit `json:"unit" msgpack:"unit"`
	TotalPrice float64    `json:"totalPrice" msgpack:"total_price"`
}

// Usage is how much of a lot one recipe consumes.
type Usage struct {
	Quantity float64    `json:"quantity" msgpack:"quantity"`
	Unit     units.Unit `json:"unit" msgpack:"unit"`
}

// QuantityError names the field that failed quantity validation.
type QuantityError struct {
	Field  string
	Reason string
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *QuantityError) Unwrap() error {
	return ErrInvalidQuantity
}

// NewLot validates and builds a purchase lot.
func NewLot(quantity float64, unit units.Unit, totalPrice float64) (Lot, error) {
	lot := Lot{Quantity: quantity, Unit: unit, TotalPrice: totalPrice}
	if err := lot.Validate(); err != nil {
		return Lot{}, err
	}
	return lot, nil
}

// NewUsage validates and builds a usage record.
func NewUsage(quantity float64, unit units.Unit) (Usage, error) {
	usage := Usage{Quantity: quantity, Unit: unit}
	if err := usage.Validate(); err != nil {
		return Usage{}, err
	}
	return usage, nil
}

// Validate checks that quantity and price are finite and positive.
func (l Lot) Validate() error {
	if !positive(l.Quantity) {
		return &QuantityError{Field: "lot.quantity", Reason: "debe ser mayor a 0"}
	}
	if !positive(l.TotalPrice) {
		return &QuantityError{Field: "lot.totalPrice", Reason: "debe ser mayor a 0"}
	}
	return nil
}

// Validate checks that the used quantity is finite and not negative.
func (u Usage) Validate() error {
	if !finite(u.Quantity) || u.Quantity < 0 {
		return &QuantityError{Field: "usage.quantity", Reason: "debe ser mayor o igual a 0"}
	}
	return nil
}

// Allocation is the outcome of pricing one usage against its lot.
type Allocation struct {
	Cost              float64    `json:"cost"`
	Warning           Warning    `json:"warning"`
	BaseLotQuantity   float64    `json:"baseLotQuantity"`
	BaseUsageQuantity float64    `json:"baseUsageQuantity"`
	CostPerBaseUnit   float64    `json:"costPerBaseUnit"`
	BaseUnit          units.Unit `json:"baseUnit,omitempty"`
}

// OK reports whether the allocation carries no warning.
func (a Allocation) OK() bool {
	return a.Warning == WarningNone
}

// Allocate computes the proportional cost of usage out of lot.
//
// Checks run in order and stop at the first failure: unit compatibility,
// quantities, then a zero base lot quantity. Zero usage costs zero without
// dividing. A failed check yields a zero cost with the matching warning set;
// callers must read Warning rather than treat zero as free.
func Allocate(lot Lot, usage Usage) Allocation {
	if !units.AreCompatible(lot.Unit, usage.Unit) {
		return Allocation{Warning: WarningIncompatibleUnits}
	}
	if lot.Validate() != nil || usage.Validate() != nil {
		return Allocation{Warning: WarningInvalidQuantity}
	}

	a := Allocation{
		BaseLotQuantity:   units.ToBaseQuantity(lot.Quantity, lot.Unit),
		BaseUsageQuantity: units.ToBaseQuantity(usage.Quantity, usage.Unit),
		BaseUnit:          units.FamilyOf(lot.Unit).Base(),
	}
	if a.BaseLotQuantity == 0 {
		return Allocation{Warning: WarningDivisionByZero}
	}

	if usage.Quantity == 0 {
		return finish(a)
	}
	a.CostPerBaseUnit = lot.TotalPrice / a.BaseLotQuantity
	a.Cost = a.CostPerBaseUnit * a.BaseUsageQuantity
	return finish(a)
}

// Cost is Allocate reduced to the cost and its warning.
func Cost(lot Lot, usage Usage) (float64, Warning) {
	a := Allocate(lot, usage)
	return a.Cost, a.Warning
}

// finish coerces any non-finite intermediate to zero and flags it.
func finish(a Allocation) Allocation {
	if !finite(a.BaseLotQuantity) || !finite(a.BaseUsageQuantity) || !finite(a.CostPerBaseUnit) || !finite(a.Cost) || a.Cost < 0 {
		return Allocation{Warning: WarningInvalidQuantity}
	}
	return a
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}
