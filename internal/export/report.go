// Package export writes batch run reports to shareable file formats.
package export

import (
	"fmt"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/astitvaaryan/uvwrap/internal/model"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth  = 297.0
	pageHeight = 210.0
	marginLeft = 15.0
	marginTop  = 15.0
	rowHeight  = 7.0
)

// reportColumns describes the result table layout shared by both formats.
var reportColumns = []struct {
	title string
	width float64
}{
	{"File", 70},
	{"Vertices", 22},
	{"Triangles", 22},
	{"Time", 22},
	{"Cache", 18},
	{"Stretch", 22},
	{"Coverage", 24},
	{"Status", 67},
}

// WritePDF renders the batch report as a PDF: a summary block followed by
// one table row per job in completion order.
func WritePDF(path string, report *model.BatchReport) error {
	if len(report.Results) == 0 {
		return fmt.Errorf("no results to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-2*marginLeft, 10, "UV Unwrap Batch Report", "", 1, "L", false, 0, "")

	s := report.Summary
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(marginLeft)
	summaryLine := fmt.Sprintf(
		"Jobs: %d | Success: %d | Failed: %d | Total time: %.1fs | Avg time: %.2fs | Avg stretch: %.2f | Avg coverage: %.1f%%",
		s.Total, s.Success, s.Failed,
		s.TotalTime.Seconds(), s.AvgTime.Seconds(), s.AvgStretch, s.AvgCoverage*100)
	pdf.CellFormat(pageWidth-2*marginLeft, 6, summaryLine, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Header row
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.SetX(marginLeft)
	for _, col := range reportColumns {
		pdf.CellFormat(col.width, rowHeight, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(rowHeight)

	pdf.SetFont("Helvetica", "", 9)
	for _, r := range report.Results {
		cells := resultRow(r)
		pdf.SetX(marginLeft)
		for i, col := range reportColumns {
			pdf.CellFormat(col.width, rowHeight, cells[i], "1", 0, "L", false, 0, "")
		}
		pdf.Ln(rowHeight)
	}

	return pdf.OutputFileAndClose(path)
}

// WriteXLSX writes the batch report as an Excel workbook with one row per
// result plus a summary sheet.
func WriteXLSX(path string, report *model.BatchReport) error {
	if len(report.Results) == 0 {
		return fmt.Errorf("no results to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, col := range reportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col.title); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for row, r := range report.Results {
		for i, value := range resultRow(r) {
			cell, _ := excelize.CoordinatesToCellName(i+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write result row: %w", err)
			}
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	s := report.Summary
	summary := [][2]any{
		{"Total", s.Total},
		{"Success", s.Success},
		{"Failed", s.Failed},
		{"Total time (s)", s.TotalTime.Seconds()},
		{"Avg time (s)", s.AvgTime.Seconds()},
		{"Avg stretch", s.AvgStretch},
		{"Avg coverage", s.AvgCoverage},
	}
	for i, kv := range summary {
		keyCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valCell, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := f.SetCellValue(summarySheet, keyCell, kv[0]); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		if err := f.SetCellValue(summarySheet, valCell, kv[1]); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	return f.SaveAs(path)
}

// resultRow formats one result into the shared column layout.
func resultRow(r model.BatchResult) [8]string {
	status := "ok"
	if r.Failed() {
		status = r.Error
	}
	cacheCell := "miss"
	if r.CacheHit {
		cacheCell = "hit"
	}
	if r.Failed() {
		cacheCell = "-"
	}
	return [8]string{
		filepath.Base(r.Job.InputPath),
		fmt.Sprintf("%d", r.Vertices),
		fmt.Sprintf("%d", r.Triangles),
		fmt.Sprintf("%.2fs", r.Elapsed.Seconds()),
		cacheCell,
		fmt.Sprintf("%.3f", r.Quality.Stretch),
		fmt.Sprintf("%.1f%%", r.Quality.Coverage*100),
		status,
	}
}
