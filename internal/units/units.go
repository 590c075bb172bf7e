// Package units defines the measurement units a baker buys and uses
// ingredients in, grouped into families that can be converted between.
package units

import "strings"

// Unit is a purchase or usage unit.
type Unit string

const (
	Kilogram   Unit = "kg"
	Gram       Unit = "g"
	Liter      Unit = "lt"
	Milliliter Unit = "ml"
	Piece      Unit = "unidades"
)

// Family groups units that can be converted into each other.
type Family string

const (
	FamilyNone Family = ""
	Weight     Family = "weight"
	Volume     Family = "volume"
	Count      Family = "count"
)

type familyDef struct {
	family  Family
	base    Unit
	members []Unit
}

// catalog order is the canonical order used for unit selectors.
var catalog = []familyDef{
	{family: Weight, base: Gram, members: []Unit{Kilogram, Gram}},
	{family: Volume, base: Milliliter, members: []Unit{Liter, Milliliter}},
	{family: Count, base: Piece, members: []Unit{Piece}},
}

// factors converts one unit into its family base unit.
var factors = map[Unit]float64{
	Kilogram:   1000,
	Gram:       1,
	Liter:      1000,
	Milliliter: 1,
	Piece:      1,
}

// All returns every known unit in catalog order.
func All() []Unit {
	all := make([]Unit, 0, len(factors))
	for _, def := range catalog {
		all = append(all, def.members...)
	}
	return all
}

// Families returns the known families in catalog order.
func Families() []Family {
	out := make([]Family, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, def.family)
	}
	return out
}

// Parse normalizes raw input ("KG ", "Ml") into a Unit. The second result
// reports whether the unit belongs to the catalog.
func Parse(raw string) (Unit, bool) {
	u := Unit(strings.ToLower(strings.TrimSpace(raw)))
	return u, u.Known()
}

// Known reports whether u is part of the catalog.
func (u Unit) Known() bool {
	_, ok := factors[u]
	return ok
}

func (u Unit) String() string {
	return string(u)
}

// FamilyOf returns the family of u, or FamilyNone when u is unknown.
func FamilyOf(u Unit) Family {
	for _, def := range catalog {
		for _, m := range def.members {
			if m == u {
				return def.family
			}
		}
	}
	return FamilyNone
}

// Base returns the base unit of the family, or "" for FamilyNone.
func (f Family) Base() Unit {
	for _, def := range catalog {
		if def.family == f {
			return def.base
		}
	}
	return ""
}

// Members returns the family's units in canonical order.
func (f Family) Members() []Unit {
	for _, def := range catalog {
		if def.family == f {
			return append([]Unit(nil), def.members...)
		}
	}
	return nil
}

// AreCompatible reports whether a and b belong to the same known family.
// Empty or unknown units are never compatible, not even with themselves.
func AreCompatible(a, b Unit) bool {
	fa := FamilyOf(a)
	if fa == FamilyNone {
		return false
	}
	return fa == FamilyOf(b)
}

// CompatibleUnits lists the units sharing u's family. An unknown unit
// yields a single-element list holding u itself.
func CompatibleUnits(u Unit) []Unit {
	members := FamilyOf(u).Members()
	if len(members) == 0 {
		return []Unit{u}
	}
	return members
}

// Factor returns the multiplier from u to its base unit.
func Factor(u Unit) (float64, bool) {
	f, ok := factors[u]
	return f, ok
}

// ToBaseQuantity converts quantity to the base unit of u's family.
// Unknown units are treated as already being in base units (factor 1).
func ToBaseQuantity(quantity float64, u Unit) float64 {
	if f, ok := factors[u]; ok {
		return quantity * f
	}
	return quantity
}

// DefaultUsedUnit is the usage unit suggested when a purchase unit is picked:
// bulk units suggest their base unit, everything else suggests itself.
func DefaultUsedUnit(purchased Unit) Unit {
	switch purchased {
	case Kilogram:
		return Gram
	case Liter:
		return Milliliter
	default:
		return purchased
	}
}

// PickUsedUnit chooses the usage unit to keep selected after the purchase
// unit changes: the current one if still compatible, else preferred if
// compatible, else the first compatible unit.
func PickUsedUnit(purchased, current, preferred Unit) Unit {
	options := CompatibleUnits(purchased)
	if contains(options, current) {
		return current
	}
	if preferred != "" && contains(options, preferred) {
		return preferred
	}
	return options[0]
}

func contains(list []Unit, u Unit) bool {
	for _, item := range list {
		if item == u {
			return true
		}
	}
	return false
}
