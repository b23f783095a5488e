package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bookingdesk/internal/models"
	"bookingdesk/internal/timefmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var rowFill = map[models.RowState]string{
	models.RowEmpty:       "#FFFFFF",
	models.RowBookedOther: "#FFC7CE",
	models.RowBookedSelf:  "#C6EFCE",
}

// ExportFileName is the default file name of a day's export.
func ExportFileName(date time.Time) string {
	return fmt.Sprintf("slots_%s.xlsx", timefmt.FormatDate(date))
}

// ExportXLSX writes the day's rows to an XLSX file at path, creating parent directories.
func ExportXLSX(path string, date time.Time, rows []models.ViewRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	// title
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Bookings for %s", timefmt.FormatDate(date)))
	lastCol, _ := excelize.ColumnNumberToName(len(Headers))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	styles := make(map[models.RowState]int, len(rowFill))
	for state, color := range rowFill {
		style, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top"},
		})
		if err != nil {
			return fmt.Errorf("error creating style: %w", err)
		}
		styles[state] = style
	}

	for i, r := range rows {
		rowNum := i + 3
		for col, value := range Cells(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			_ = f.SetCellValue(sheetName, cell, value)
		}
		first, _ := excelize.CoordinatesToCellName(1, rowNum)
		last, _ := excelize.CoordinatesToCellName(len(Headers), rowNum)
		_ = f.SetCellStyle(sheetName, first, last, styles[r.State()])
	}

	_ = f.SetColWidth(sheetName, "A", "A", 14)
	_ = f.SetColWidth(sheetName, "B", "C", 25)
	_ = f.SetColWidth(sheetName, "D", "D", 12)

	_ = f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}
