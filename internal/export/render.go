package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// Renderer writes a snapshot in one output format.
type Renderer interface {
	Format() string
	ContentType() string
	Render(w io.Writer, s Snapshot) error
}

// Renderers returns the available renderers keyed by format name.
func Renderers(currency string) map[string]Renderer {
	all := []Renderer{
		JSONRenderer{},
		MsgpackRenderer{},
		TextRenderer{Currency: currency},
		XLSXRenderer{Currency: currency},
	}
	out := make(map[string]Renderer, len(all))
	for _, r := range all {
		out[r.Format()] = r
	}
	return out
}

// Formats lists the format names of Renderers in sorted order.
func Formats() []string {
	names := make([]string, 0, 4)
	for name := range Renderers("") {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JSONRenderer writes indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Format() string      { return "json" }
func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	return nil
}

// MsgpackRenderer writes the snapshot as MessagePack.
type MsgpackRenderer struct{}

func (MsgpackRenderer) Format() string      { return "msgpack" }
func (MsgpackRenderer) ContentType() string { return "application/msgpack" }

func (MsgpackRenderer) Render(w io.Writer, s Snapshot) error {
	if err := msgpack.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("encode snapshot msgpack: %w", err)
	}
	return nil
}

// TextRenderer writes a plain-text summary suitable for sharing.
type TextRenderer struct {
	Currency string
}

func (TextRenderer) Format() string      { return "txt" }
func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (t TextRenderer) Render(w io.Writer, s Snapshot) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Receta: %s\n\n", s.Name)
	b.WriteString("Ingredientes:\n")
	if len(s.Ingredients) == 0 {
		b.WriteString("- (sin ingredientes)\n")
	}
	for _, ing := range s.Ingredients {
		fmt.Fprintf(&b, "- %s: %s %s de %s %s (%s) = %s\n",
			ing.Name,
			Quantity(ing.UsedQuantity), ing.UsedUnit,
			Quantity(ing.PurchasedQuantity), ing.PurchasedUnit,
			t.money(ing.Price),
			t.money(ing.Cost),
		)
	}

	b.WriteString("\nCostos:\n")
	fmt.Fprintf(&b, "Ingredientes: %s\n", t.money(s.Costs.Ingredients))
	fmt.Fprintf(&b, "Packaging: %s\n", t.money(s.Costs.Packaging))
	fmt.Fprintf(&b, "Decoración: %s\n", t.money(s.Costs.Decoration))
	fmt.Fprintf(&b, "Horneado: %s\n", t.money(s.Costs.Baking))
	fmt.Fprintf(&b, "Materiales: %s\n", t.money(s.Costs.Material))
	fmt.Fprintf(&b, "Mano de obra: %s\n", t.money(s.Costs.Labor))
	fmt.Fprintf(&b, "Gastos fijos: %s\n", t.money(s.Costs.Fixed))
	fmt.Fprintf(&b, "Costo total: %s\n", t.money(s.Costs.Total))

	b.WriteString("\nPrecio:\n")
	fmt.Fprintf(&b, "Ganancia (%s%%): %s\n", Quantity(s.Pricing.ProfitPercentage), t.money(s.Pricing.Profit))
	fmt.Fprintf(&b, "Precio final: %s\n", t.money(s.Pricing.FinalPrice))
	fmt.Fprintf(&b, "Porciones: %d\n", s.Pricing.Portions)
	fmt.Fprintf(&b, "Precio por porción: %s\n", t.money(s.Pricing.PortionPrice))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write snapshot text: %w", err)
	}
	return nil
}

func (t TextRenderer) money(v float64) string {
	amount := Money(v)
	if t.Currency == "" {
		return amount
	}
	return amount + " " + t.Currency
}

// Money renders an amount rounded to two decimals.
func Money(v float64) string {
	return toDecimal(v).StringFixed(2)
}

// Quantity renders a quantity without trailing zeros.
func Quantity(v float64) string {
	return toDecimal(v).String()
}

// round2 is the value shown for an amount, as a number.
func round2(v float64) float64 {
	return toDecimal(v).Round(2).InexactFloat64()
}

// toDecimal maps non-finite values to zero; decimal panics on them.
func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
