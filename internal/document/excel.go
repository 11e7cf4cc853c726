package document

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/report"
)

// ExcelRenderer writes aggregated tables to xlsx workbooks.
type ExcelRenderer struct{}

// NewExcelRenderer builds an xlsx table renderer.
func NewExcelRenderer() *ExcelRenderer {
	return &ExcelRenderer{}
}

// RenderTable lays out a single-sheet workbook: bold header row from
// the column set, then one row per record in order. Row values are
// looked up by column key; absent keys leave the cell empty.
func (r *ExcelRenderer) RenderTable(sheet string, columns []report.Column, rows []map[string]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, col := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if col.Width > 0 {
			if err := f.SetColWidth(sheet, name, name, col.Width); err != nil {
				return nil, fmt.Errorf("column width: %w", err)
			}
		}
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return nil, fmt.Errorf("header value: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("header cell style: %w", err)
		}
	}

	for ri, row := range rows {
		for ci, col := range columns {
			v, ok := row[col.Key]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("cell value: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
