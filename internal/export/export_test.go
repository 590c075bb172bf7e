package export

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/pricing"
	"github.com/Simplici0/costeo/internal/units"
)

func sampleRecipe(t *testing.T) *pricing.Recipe {
	t.Helper()

	r := pricing.NewRecipe("Torta de chocolate")
	_, err := r.AddIngredientLine("Harina",
		costing.Lot{Quantity: 1, Unit: units.Kilogram, TotalPrice: 1000},
		costing.Usage{Quantity: 250, Unit: units.Gram},
	)
	require.NoError(t, err)
	require.NoError(t, r.SetParams(pricing.Params{
		Name:                "Torta de chocolate",
		PackagingCost:       50,
		BakingCost:          30,
		LaborMinutes:        90,
		HourlyRate:          2000,
		FixedCostAllocation: 40,
		ProfitPercentage:    40,
		Portions:            12,
	}))
	return r
}

func TestNewSnapshot(t *testing.T) {
	s := NewSnapshot(sampleRecipe(t))

	assert.Equal(t, "Torta de chocolate", s.Name)
	require.Len(t, s.Ingredients, 1)
	assert.Equal(t, IngredientRow{
		Name:              "Harina",
		PurchasedQuantity: 1,
		PurchasedUnit:     units.Kilogram,
		Price:             1000,
		UsedQuantity:      250,
		UsedUnit:          units.Gram,
		Cost:              250,
	}, s.Ingredients[0])

	assert.InDelta(t, 330, s.Costs.Material, 1e-9)
	assert.InDelta(t, 3000, s.Costs.Labor, 1e-9)
	assert.InDelta(t, 3370, s.Costs.Total, 1e-9)
	assert.InDelta(t, 1348, s.Pricing.Profit, 1e-9)
	assert.InDelta(t, 4718, s.Pricing.FinalPrice, 1e-9)
	assert.Equal(t, 12, s.Pricing.Portions)
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONRenderer{}.Render(&buf, NewSnapshot(sampleRecipe(t))))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Torta de chocolate", decoded["name"])
	assert.Contains(t, decoded, "ingredients")
	assert.Contains(t, decoded, "costs")
	assert.Contains(t, decoded, "pricing")
}

func TestMsgpackRenderer(t *testing.T) {
	want := NewSnapshot(sampleRecipe(t))

	var buf bytes.Buffer
	require.NoError(t, MsgpackRenderer{}.Render(&buf, want))

	var got Snapshot
	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, want, got)
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextRenderer{Currency: "ARS"}.Render(&buf, NewSnapshot(sampleRecipe(t))))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Receta: Torta de chocolate\n"))
	assert.Contains(t, out, "- Harina: 250 g de 1 kg (1000.00 ARS) = 250.00 ARS\n")
	assert.Contains(t, out, "Decoración: 0.00 ARS\n")
	assert.Contains(t, out, "Costo total: 3370.00 ARS\n")
	assert.Contains(t, out, "Ganancia (40%): 1348.00 ARS\n")
	assert.Contains(t, out, "Precio final: 4718.00 ARS\n")
	assert.Contains(t, out, "Porciones: 12\n")
	assert.Contains(t, out, "Precio por porción: 393.17 ARS\n")
}

func TestTextRenderer_NoIngredients(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextRenderer{}.Render(&buf, NewSnapshot(pricing.NewRecipe("Vacía"))))

	assert.Contains(t, buf.String(), "- (sin ingredientes)\n")
	assert.Contains(t, buf.String(), "Costo total: 0.00\n")
}

func TestXLSXRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSXRenderer{Currency: "ARS"}.Render(&buf, NewSnapshot(sampleRecipe(t))))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{xlsxSheet}, f.GetSheetList())

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Receta", "Torta de chocolate"}, rows[0])

	var sawHarina, sawTotal bool
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		switch row[0] {
		case "Harina":
			sawHarina = true
			assert.Equal(t, "kg", row[2])
			assert.Equal(t, "g", row[5])
		case "Costo total":
			sawTotal = true
		}
	}
	assert.True(t, sawHarina, "ingredient row present")
	assert.True(t, sawTotal, "total row present")
}

func TestRenderers(t *testing.T) {
	all := Renderers("ARS")
	assert.Equal(t, []string{"json", "msgpack", "txt", "xlsx"}, Formats())
	for _, name := range Formats() {
		r, ok := all[name]
		require.True(t, ok, name)
		assert.Equal(t, name, r.Format())
		assert.NotEmpty(t, r.ContentType())
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "393.17", Money(393.1666666))
	assert.Equal(t, "0.00", Money(math.NaN()))
	assert.Equal(t, "0.00", Money(math.Inf(1)))
	assert.Equal(t, "250", Quantity(250))
	assert.Equal(t, "0.5", Quantity(0.5))
	assert.InDelta(t, 393.17, round2(393.1666666), 1e-9)
}
