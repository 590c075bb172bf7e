package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Receta"

// XLSXRenderer writes the snapshot as a one-sheet spreadsheet.
type XLSXRenderer struct {
	Currency string
}

func (XLSXRenderer) Format() string { return "xlsx" }
func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (x XLSXRenderer) Render(w io.Writer, s Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename xlsx sheet: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("create xlsx money style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create xlsx header style: %w", err)
	}

	sw := &sheetWriter{f: f, money: money}

	sw.row(bold, "Receta", s.Name)
	if x.Currency != "" {
		sw.row(0, "Moneda", x.Currency)
	}
	sw.blank()

	sw.row(bold, "Ingrediente", "Cantidad comprada", "Unidad", "Precio", "Cantidad usada", "Unidad", "Costo")
	for _, ing := range s.Ingredients {
		sw.ingredient(ing)
	}
	sw.blank()

	sw.row(bold, "Costos")
	sw.amount("Ingredientes", s.Costs.Ingredients)
	sw.amount("Packaging", s.Costs.Packaging)
	sw.amount("Decoración", s.Costs.Decoration)
	sw.amount("Horneado", s.Costs.Baking)
	sw.amount("Materiales", s.Costs.Material)
	sw.amount("Mano de obra", s.Costs.Labor)
	sw.amount("Gastos fijos", s.Costs.Fixed)
	sw.amount("Costo total", s.Costs.Total)
	sw.blank()

	sw.row(bold, "Precio")
	sw.row(0, "Ganancia (%)", s.Pricing.ProfitPercentage)
	sw.amount("Ganancia", s.Pricing.Profit)
	sw.amount("Precio final", s.Pricing.FinalPrice)
	sw.row(0, "Porciones", s.Pricing.Portions)
	sw.amount("Precio por porción", s.Pricing.PortionPrice)

	if sw.err != nil {
		return fmt.Errorf("fill xlsx sheet: %w", sw.err)
	}
	if err := f.SetColWidth(xlsxSheet, "A", "A", 24); err != nil {
		return fmt.Errorf("size xlsx columns: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// sheetWriter appends rows to the recipe sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	money int
	next  int
	err   error
}

func (sw *sheetWriter) blank() {
	sw.next++
}

// row writes values from column A of the next row. A zero style leaves the
// cells unstyled.
func (sw *sheetWriter) row(style int, values ...any) {
	sw.next++
	if sw.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, sw.next)
	if err != nil {
		sw.err = err
		return
	}
	if err := sw.f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
		sw.err = err
		return
	}
	if style != 0 {
		sw.style(1, len(values), style)
	}
}

func (sw *sheetWriter) amount(label string, v float64) {
	sw.row(0, label, round2(v))
	sw.style(2, 2, sw.money)
}

func (sw *sheetWriter) ingredient(ing IngredientRow) {
	sw.row(0,
		ing.Name,
		ing.PurchasedQuantity, string(ing.PurchasedUnit),
		round2(ing.Price),
		ing.UsedQuantity, string(ing.UsedUnit),
		round2(ing.Cost),
	)
	sw.style(4, 4, sw.money)
	sw.style(7, 7, sw.money)
}

// style applies a style to columns from..to of the current row.
func (sw *sheetWriter) style(from, to, style int) {
	if sw.err != nil {
		return
	}
	first, err := excelize.CoordinatesToCellName(from, sw.next)
	if err != nil {
		sw.err = err
		return
	}
	last, err := excelize.CoordinatesToCellName(to, sw.next)
	if err != nil {
		sw.err = err
		return
	}
	sw.err = sw.f.SetCellStyle(xlsxSheet, first, last, style)
}
