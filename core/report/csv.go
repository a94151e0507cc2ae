package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// WriteCSV renders the monthly report as a spreadsheet-friendly CSV.
func WriteCSV(w io.Writer, rep Monthly) error {
	cw := csv.NewWriter(w)

	header := []string{"student_id", "name", "class", "days_present", "working_days", "late_arrivals", "early_departures", "attendance_rate"}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, row := range rep.Rows {
		record := []string{
			row.StudentCode,
			row.FullName,
			row.ClassName,
			fmt.Sprintf("%d", row.DaysPresent),
			fmt.Sprintf("%d", rep.WorkingDays),
			fmt.Sprintf("%d", row.LateArrivals),
			fmt.Sprintf("%d", row.EarlyDepartures),
			fmt.Sprintf("%.1f%%", row.AttendanceRate*100),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "writing CSV record")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}
