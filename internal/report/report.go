// Package report exports stock levels and history as an XLSX workbook and
// reads stock-count sheets back.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"restoran-pos/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetStock   = "Stock"
	SheetHistory = "History"
)

var (
	stockHeader   = []interface{}{"ID", "Name", "Unit", "Quantity", "Low"}
	historyHeader = []interface{}{"Time", "Type", "Stock ID", "Stock", "Amount", "Reason", "Sale", "Product", "Qty sold", "Unit price", "Payment"}
)

type Options struct {
	LowStockThreshold float64
	Location          *time.Location
}

// WriteStock writes the Stock and History sheets to w.
func WriteStock(w io.Writer, stock []models.StockItem, history []models.HistoryEntry, opts Options) error {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetStock); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetHistory); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeRow(f, SheetStock, 1, stockHeader); err != nil {
		return err
	}
	for i, it := range stock {
		low := "no"
		if it.Quantity < opts.LowStockThreshold {
			low = "yes"
		}
		if err := writeRow(f, SheetStock, i+2, []interface{}{it.ID, it.Name, it.Unit, it.Quantity, low}); err != nil {
			return err
		}
	}

	if err := writeRow(f, SheetHistory, 1, historyHeader); err != nil {
		return err
	}
	for i, h := range history {
		row := []interface{}{h.Timestamp.In(loc).Format("2006-01-02 15:04:05"), string(h.Type), h.StockID, h.StockName, h.Amount, h.Reason}
		if h.Sale != nil {
			row = append(row, h.Sale.SaleID, h.Sale.ProductName, h.Sale.QuantitySold, h.Sale.UnitPrice, string(h.Sale.PaymentMethod))
		}
		if err := writeRow(f, SheetHistory, i+2, row); err != nil {
			return err
		}
	}

	for sheet, cols := range map[string]int{SheetStock: len(stockHeader), SheetHistory: len(historyHeader)} {
		last, err := excelize.ColumnNumberToName(cols)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last+"1", bold); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, 16); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// CountRow is one line of a physical stock count.
type CountRow struct {
	Name     string
	Quantity float64
}

// ReadStockCount parses the first sheet of an XLSX workbook as
// "name, counted quantity" rows. A header row is detected and skipped; blank
// rows are ignored.
func ReadStockCount(r io.Reader) ([]CountRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		first := strings.ToUpper(strings.TrimSpace(rows[0][0]))
		if first == "NAME" || strings.Contains(first, "STOCK") || strings.Contains(first, "ITEM") {
			start = 1
		}
	}

	var out []CountRow
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: missing quantity", i+1)
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid quantity %q", i+1, row[1])
		}
		out = append(out, CountRow{Name: strings.TrimSpace(row[0]), Quantity: qty})
	}
	return out, nil
}
