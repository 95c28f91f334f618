package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

var inventoryHeader = []string{"bin_id", "sensor_id", "district", "neighborhood", "address", "status", "last_updated"}

// BuildInventoryCSV renders the bin inventory as CSV.
func BuildInventoryCSV(rows []InventoryRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(inventoryHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.BinID,
			row.SensorID,
			row.District,
			row.Neighborhood,
			row.Address,
			string(row.Status),
			row.LastUpdated.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildInventoryXLSX renders the bin inventory as a minimal XLSX.
func BuildInventoryXLSX(rows []InventoryRow) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "bins"
	f.SetSheetName("Sheet1", sheet)

	for i, column := range inventoryHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, column)
	}
	for i, row := range rows {
		values := []any{
			row.BinID, row.SensorID, row.District, row.Neighborhood,
			row.Address, string(row.Status), row.LastUpdated.Format(time.RFC3339),
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildInventoryPDF renders the bin inventory as a minimal PDF table.
func BuildInventoryPDF(rows []InventoryRow, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Bin Inventory")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Bins: %d", len(rows)))
	pdf.Ln(8)

	widths := []float64{40, 40, 40, 40, 60, 25, 40}
	pdf.SetFont("Arial", "B", 10)
	for i, column := range inventoryHeader {
		pdf.CellFormat(widths[i], 6, column, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		values := []string{
			row.BinID, row.SensorID, row.District, row.Neighborhood,
			row.Address, string(row.Status), row.LastUpdated.Format("2006-01-02 15:04"),
		}
		for i, value := range values {
			pdf.CellFormat(widths[i], 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
