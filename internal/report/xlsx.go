package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Hisobot"

var (
	xlsxHeaders = []string{"#", "Mijoz", "Mahsulot", "Tonna (t)", "Jami summa (so'm)"}
	xlsxWidths  = []float64{6, 40, 28, 14, 22}
)

// XLSX renders the report as a workbook with one sheet and a totals row.
func (r Report) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	f.SetCellValue(sheetName, "A1", "Davr: "+r.Period.Label())

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	tonsFmt := "#,##0.00"
	tonsStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &tonsFmt})
	if err != nil {
		return nil, fmt.Errorf("failed to create tons style: %w", err)
	}
	moneyFmt := "#,##0.##"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	const headerRow = 3
	for col, header := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
		f.SetCellValue(sheetName, cell, header)
		name, _ := excelize.ColumnNumberToName(col + 1)
		f.SetColWidth(sheetName, name, name, xlsxWidths[col])
	}
	f.SetCellStyle(sheetName, "A3", "E3", bold)

	for i, e := range r.Entries {
		row := headerRow + 1 + i
		values := []interface{}{i + 1, e.Name, e.Product, e.Tons, e.Amount}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	lastRow := headerRow + len(r.Entries)
	if len(r.Entries) > 0 {
		tonsFrom, _ := excelize.CoordinatesToCellName(4, headerRow+1)
		moneyTo, _ := excelize.CoordinatesToCellName(5, lastRow)
		f.SetCellStyle(sheetName, tonsFrom, moneyTo, tonsStyle)
		moneyFrom, _ := excelize.CoordinatesToCellName(5, headerRow+1)
		f.SetCellStyle(sheetName, moneyFrom, moneyTo, moneyStyle)

		if err := f.AutoFilter(sheetName, fmt.Sprintf("A%d:E%d", headerRow, lastRow), nil); err != nil {
			return nil, fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	totalRow := lastRow + 1
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", totalRow), "Jami")
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", totalRow), r.TotalTons)
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", totalRow), r.TotalAmount)
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("E%d", totalRow), bold)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
