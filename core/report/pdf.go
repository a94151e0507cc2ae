package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
)

var pdfColumns = []struct {
	title string
	width float64
}{
	{"Student ID", 28},
	{"Name", 60},
	{"Class", 22},
	{"Present", 20},
	{"Late", 16},
	{"Left early", 22},
	{"Rate", 20},
}

// WritePDF renders the monthly report as a one-table A4 document.
func WritePDF(w io.Writer, rep Monthly) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Attendance %s %d", rep.Month, rep.Year), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("%s - Attendance report, %s %d", rep.SchoolName, rep.Month, rep.Year))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Working days: %d    Generated: %s", rep.WorkingDays, rep.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rep.Rows {
		cells := []string{
			row.StudentCode,
			row.FullName,
			row.ClassName,
			fmt.Sprintf("%d", row.DaysPresent),
			fmt.Sprintf("%d", row.LateArrivals),
			fmt.Sprintf("%d", row.EarlyDepartures),
			fmt.Sprintf("%.0f%%", row.AttendanceRate*100),
		}
		for i, cell := range cells {
			pdf.CellFormat(pdfColumns[i].width, 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return errors.Wrap(pdf.Output(w), "writing PDF")
}
