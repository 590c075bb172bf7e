package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/export"
	"github.com/Simplici0/costeo/internal/pricing"
	"github.com/Simplici0/costeo/internal/units"
	"github.com/Simplici0/costeo/internal/validation"
)

type familyView struct {
	Family units.Family `json:"family"`
	Base   units.Unit   `json:"base"`
	Units  []units.Unit `json:"units"`
}

type unitsListResponse struct {
	Units    []units.Unit `json:"units"`
	Families []familyView `json:"families"`
}

func (s *server) handleUnitsList(w http.ResponseWriter, r *http.Request) {
	resp := unitsListResponse{Units: units.All()}
	for _, f := range units.Families() {
		resp.Families = append(resp.Families, familyView{Family: f, Base: f.Base(), Units: f.Members()})
	}
	writeJSON(w, http.StatusOK, resp)
}

type compatibleResponse struct {
	Unit            units.Unit   `json:"unit"`
	Known           bool         `json:"known"`
	Family          units.Family `json:"family"`
	Compatible      []units.Unit `json:"compatible"`
	DefaultUsedUnit units.Unit   `json:"defaultUsedUnit"`
	Selected        units.Unit   `json:"selected"`
}

// handleUnitsCompatible lists the usage units offered for a purchase unit.
// The optional current and preferred query values pick which one stays
// selected.
func (s *server) handleUnitsCompatible(w http.ResponseWriter, r *http.Request) {
	u := normalizeUnit(chi.URLParam(r, "unit"))
	current := normalizeUnit(r.URL.Query().Get("current"))
	preferred := normalizeUnit(r.URL.Query().Get("preferred"))
	if preferred == "" {
		preferred = units.DefaultUsedUnit(u)
	}

	writeJSON(w, http.StatusOK, compatibleResponse{
		Unit:            u,
		Known:           u.Known(),
		Family:          units.FamilyOf(u),
		Compatible:      units.CompatibleUnits(u),
		DefaultUsedUnit: units.DefaultUsedUnit(u),
		Selected:        units.PickUsedUnit(u, current, preferred),
	})
}

func (s *server) handleUnitsCompatibility(w http.ResponseWriter, r *http.Request) {
	a := normalizeUnit(r.URL.Query().Get("a"))
	b := normalizeUnit(r.URL.Query().Get("b"))
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "a y b son requeridos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"a":          a,
		"b":          b,
		"compatible": units.AreCompatible(a, b),
	})
}

// normalizeUnit canonicalises known units and keeps unknown ones verbatim.
func normalizeUnit(raw string) units.Unit {
	if u, ok := units.Parse(raw); ok {
		return u
	}
	return units.Unit(strings.TrimSpace(raw))
}

type ingredientCalcResponse struct {
	Name       string             `json:"name"`
	Lot        costing.Lot        `json:"lot"`
	Usage      costing.Usage      `json:"usage"`
	Allocation costing.Allocation `json:"allocation"`
	Summary    string             `json:"summary"`
}

// handleCalcIngredient is the single-item calculator. It reads a form and
// answers with the allocation and a ready-to-copy sentence.
func (s *server) handleCalcIngredient(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	lotUnit := normalizeUnit(r.FormValue("lot_unit"))
	usageUnit := normalizeUnit(r.FormValue("usage_unit"))
	if !units.AreCompatible(lotUnit, usageUnit) {
		s.metrics.RecordAllocation(costing.WarningIncompatibleUnits)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   incompatibleMessage(lotUnit, usageUnit),
			Warning: costing.WarningIncompatibleUnits,
		})
		return
	}

	name, lot, usage, err := parseIngredientForm(r, lotUnit, usageUnit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a := costing.Allocate(lot, usage)
	s.metrics.RecordAllocation(a.Warning)
	if !a.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   allocationMessage(a.Warning, lot, usage),
			Warning: a.Warning,
		})
		return
	}

	writeJSON(w, http.StatusOK, ingredientCalcResponse{
		Name:       name,
		Lot:        lot,
		Usage:      usage,
		Allocation: a,
		Summary: fmt.Sprintf("Usar %s %s de %q te cuesta %s",
			export.Quantity(usage.Quantity), usage.Unit, name, s.money(a.Cost)),
	})
}

// parseIngredientForm reads the numeric fields of the calculator form. Units
// are checked by the caller first, so a wrong unit pair is reported before
// any number.
func parseIngredientForm(r *http.Request, lotUnit, usageUnit units.Unit) (string, costing.Lot, costing.Usage, error) {
	name := strings.TrimSpace(r.FormValue("name"))
	lot := costing.Lot{Unit: lotUnit}
	usage := costing.Usage{Unit: usageUnit}
	if name == "" {
		return name, lot, usage, fmt.Errorf("name es requerido")
	}

	var err error
	if lot.TotalPrice, err = parsePositiveFloat(r.FormValue("lot_price"), "lot_price"); err != nil {
		return name, lot, usage, err
	}
	if lot.Quantity, err = parsePositiveFloat(r.FormValue("lot_quantity"), "lot_quantity"); err != nil {
		return name, lot, usage, err
	}
	if usage.Quantity, err = parseNonNegativeFloat(r.FormValue("usage_quantity"), "usage_quantity"); err != nil {
		return name, lot, usage, err
	}
	return name, lot, usage, nil
}

func allocationMessage(w costing.Warning, lot costing.Lot, usage costing.Usage) string {
	switch w {
	case costing.WarningIncompatibleUnits:
		return incompatibleMessage(lot.Unit, usage.Unit)
	case costing.WarningDivisionByZero:
		return "La cantidad comprada no puede ser 0."
	default:
		return "Las cantidades ingresadas no son válidas."
	}
}

func incompatibleMessage(a, b units.Unit) string {
	return fmt.Sprintf("Las unidades '%s' y '%s' no son compatibles.", a, b)
}

func (s *server) money(v float64) string {
	if s.currency == "" {
		return export.Money(v)
	}
	return export.Money(v) + " " + s.currency
}

type fixedCostsResponse struct {
	MonthlyTotal float64 `json:"monthlyTotal"`
	PerProduct   float64 `json:"perProduct"`
}

func (s *server) handleCalcFixedCosts(w http.ResponseWriter, r *http.Request) {
	var in pricing.FixedExpenses
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.Struct(in); err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fixedCostsResponse{MonthlyTotal: in.MonthlyTotal(), PerProduct: in.PerProduct()})
}

func (s *server) handleCalcBaking(w http.ResponseWriter, r *http.Request) {
	var in pricing.BakingInputs
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.Struct(in); err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in.Costs())
}

type laborRequest struct {
	Segments   []float64 `json:"segments" validate:"dive,gte=0"`
	HourlyRate float64   `json:"hourlyRate" validate:"gte=0"`
}

type laborResponse struct {
	Minutes          float64 `json:"minutes"`
	Hours            int     `json:"hours"`
	RemainderMinutes int     `json:"remainderMinutes"`
	Cost             float64 `json:"cost"`
}

// handleCalcLabor adds the time spent on each stage of a recipe and prices it.
func (s *server) handleCalcLabor(w http.ResponseWriter, r *http.Request) {
	var in laborRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.Struct(in); err != nil {
		writeRejection(w, err)
		return
	}

	minutes := pricing.LaborTime(in.Segments...)
	hours, rest := pricing.SplitMinutes(minutes)
	writeJSON(w, http.StatusOK, laborResponse{
		Minutes:          minutes,
		Hours:            hours,
		RemainderMinutes: rest,
		Cost:             pricing.LaborCost(minutes, in.HourlyRate),
	})
}
