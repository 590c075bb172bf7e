package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/validation"
)

// ErrEmptyIngredientList is reported by CheckComplete for recipes without
// ingredient lines.
var ErrEmptyIngredientList = errors.New("recipe has no ingredients")

// RejectionError explains which input of an ingredient line or recipe failed
// validation and why. The recipe is left untouched when one is returned.
type RejectionError struct {
	Field  string
	Reason string
	Err    error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// IngredientLine is one priced ingredient of a recipe. Cost is derived from
// Lot and Usage and is only ever set by this package.
type IngredientLine struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Lot   costing.Lot   `json:"lot"`
	Usage costing.Usage `json:"usage"`
	Cost  float64       `json:"cost"`
}

// Recipe is the aggregate a baker edits: parameters plus ordered lines.
type Recipe struct {
	ID string `json:"id"`
	Params
	lines []IngredientLine
}

// NewRecipe returns an empty recipe with a fresh id and one portion.
func NewRecipe(name string) *Recipe {
	return &Recipe{
		ID:     uuid.NewString(),
		Params: Params{Name: strings.TrimSpace(name), Portions: 1},
	}
}

// SetParams replaces the recipe parameters after validating them.
func (r *Recipe) SetParams(p Params) error {
	p.Name = strings.TrimSpace(p.Name)
	if err := validation.Struct(p); err != nil {
		return err
	}
	r.Params = p
	return nil
}

// Lines returns a copy of the ingredient lines in insertion order.
func (r *Recipe) Lines() []IngredientLine {
	return append([]IngredientLine(nil), r.lines...)
}

// Line looks up an ingredient line by id.
func (r *Recipe) Line(id string) (IngredientLine, bool) {
	if i := r.indexOf(id); i >= 0 {
		return r.lines[i], true
	}
	return IngredientLine{}, false
}

// AddIngredientLine validates the inputs, prices the usage and appends a new
// line with a fresh id.
func (r *Recipe) AddIngredientLine(name string, lot costing.Lot, usage costing.Usage) (IngredientLine, error) {
	line, err := buildLine(uuid.NewString(), name, lot, usage)
	if err != nil {
		return IngredientLine{}, err
	}
	r.lines = append(r.lines, line)
	return line, nil
}

// ReplaceIngredientLine swaps the line with the given id for a freshly
// priced one, keeping its id and position.
func (r *Recipe) ReplaceIngredientLine(id, name string, lot costing.Lot, usage costing.Usage) (IngredientLine, error) {
	i := r.indexOf(id)
	if i < 0 {
		return IngredientLine{}, &RejectionError{Field: "id", Reason: "ingrediente no encontrado"}
	}
	line, err := buildLine(id, name, lot, usage)
	if err != nil {
		return IngredientLine{}, err
	}
	r.lines[i] = line
	return line, nil
}

// RestoreIngredientLine appends a previously stored line under its original
// id. Cost is recomputed, never trusted from storage.
func (r *Recipe) RestoreIngredientLine(id, name string, lot costing.Lot, usage costing.Usage) (IngredientLine, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if r.indexOf(id) >= 0 {
		return IngredientLine{}, &RejectionError{Field: "id", Reason: "id de ingrediente duplicado"}
	}
	line, err := buildLine(id, name, lot, usage)
	if err != nil {
		return IngredientLine{}, err
	}
	r.lines = append(r.lines, line)
	return line, nil
}

// RemoveIngredientLine deletes the line with the given id. It reports whether
// a line was removed; an unknown id is not an error.
func (r *Recipe) RemoveIngredientLine(id string) bool {
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.lines = append(r.lines[:i], r.lines[i+1:]...)
	return true
}

// TotalIngredientCost sums every line cost; zero for an empty recipe.
func (r *Recipe) TotalIngredientCost() float64 {
	total := 0.0
	for _, line := range r.lines {
		total += line.Cost
	}
	return total
}

// LaborCost prices the recipe's labor minutes.
func (r *Recipe) LaborCost() float64 {
	return LaborCost(r.LaborMinutes, r.HourlyRate)
}

func (r *Recipe) indexOf(id string) int {
	for i, line := range r.lines {
		if line.ID == id {
			return i
		}
	}
	return -1
}

func buildLine(id, name string, lot costing.Lot, usage costing.Usage) (IngredientLine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return IngredientLine{}, &RejectionError{Field: "name", Reason: "el nombre es obligatorio"}
	}
	if err := lot.Validate(); err != nil {
		return IngredientLine{}, rejectQuantity(err)
	}
	if err := usage.Validate(); err != nil {
		return IngredientLine{}, rejectQuantity(err)
	}

	a := costing.Allocate(lot, usage)
	if !a.OK() {
		field := "usage.unit"
		reason := fmt.Sprintf("no se puede usar %s con un lote comprado en %s", usage.Unit, lot.Unit)
		if a.Warning != costing.WarningIncompatibleUnits {
			field = "lot.quantity"
			reason = fmt.Sprintf("las cantidades no permiten calcular el costo (%s)", a.Warning)
		}
		return IngredientLine{}, &RejectionError{
			Field:  field,
			Reason: reason,
			Err:    a.Warning.Err(),
		}
	}

	return IngredientLine{ID: id, Name: name, Lot: lot, Usage: usage, Cost: a.Cost}, nil
}

func rejectQuantity(err error) error {
	var qe *costing.QuantityError
	if errors.As(err, &qe) {
		return &RejectionError{Field: qe.Field, Reason: qe.Reason, Err: costing.ErrInvalidQuantity}
	}
	return &RejectionError{Field: "quantity", Reason: err.Error(), Err: costing.ErrInvalidQuantity}
}

// CheckComplete applies the guided workflow's rules before a recipe is
// considered ready to price or export. It returns every problem found,
// joined, or nil.
func CheckComplete(r *Recipe) error {
	var problems []error
	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, &RejectionError{Field: "name", Reason: "el nombre es obligatorio"})
	}
	if len(r.lines) == 0 {
		problems = append(problems, &RejectionError{Field: "ingredients", Reason: "se necesita al menos un ingrediente", Err: ErrEmptyIngredientList})
	}

	nonNegative := []struct {
		field string
		value float64
	}{
		{"packagingCost", r.PackagingCost},
		{"decorationCost", r.DecorationCost},
		{"bakingCost", r.BakingCost},
		{"laborMinutes", r.LaborMinutes},
		{"hourlyRate", r.HourlyRate},
		{"fixedCostAllocation", r.FixedCostAllocation},
		{"profitPercentage", r.ProfitPercentage},
	}
	for _, f := range nonNegative {
		if !(f.value >= 0) || clean(f.value) != f.value {
			problems = append(problems, &RejectionError{Field: f.field, Reason: "debe ser un número mayor o igual a 0"})
		}
	}
	if r.Portions < 1 {
		problems = append(problems, &RejectionError{Field: "portions", Reason: "debe ser al menos 1"})
	}

	return errors.Join(problems...)
}

// Problems flattens the result of CheckComplete into rejection errors.
func Problems(err error) []*RejectionError {
	if err == nil {
		return nil
	}
	var out []*RejectionError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, Problems(e)...)
		}
		return out
	}
	var re *RejectionError
	if errors.As(err, &re) {
		return []*RejectionError{re}
	}
	return []*RejectionError{{Field: "", Reason: err.Error(), Err: err}}
}
