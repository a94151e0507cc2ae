// Package report builds monthly attendance reports and renders them as CSV
// or PDF for the principal's office.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/attendance"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/student"
)

type (
	// StudentSummary aggregates one student's month.
	StudentSummary struct {
		StudentID       string  `json:"student_id"` // row ID
		StudentCode     string  `json:"student_code"`
		FullName        string  `json:"full_name"`
		ClassName       string  `json:"class_name,omitempty"`
		DaysPresent     int     `json:"days_present"`
		LateArrivals    int     `json:"late_arrivals"`
		EarlyDepartures int     `json:"early_departures"`
		AttendanceRate  float64 `json:"attendance_rate"` // days present / working days
	}

	Monthly struct {
		SchoolID    string           `json:"school_id"`
		SchoolName  string           `json:"school_name"`
		Year        int              `json:"year"`
		Month       time.Month       `json:"month"`
		WorkingDays int              `json:"working_days"`
		Rows        []StudentSummary `json:"rows"`
		GeneratedAt time.Time        `json:"generated_at"`
	}

	Service struct {
		att      *attendance.Service
		students *student.Service
		schools  *school.Service
	}
)

func NewService(att *attendance.Service, students *student.Service, schools *school.Service) *Service {
	return &Service{att: att, students: students, schools: schools}
}

// BuildMonthly aggregates a school's month. Working days are the distinct
// dates on which the school recorded any attendance at all, so holidays do
// not drag every student's rate down.
func (svc *Service) BuildMonthly(ctx context.Context, schoolID string, year int, month time.Month) (Monthly, error) {
	sch, err := svc.schools.GetByID(ctx, schoolID)
	if err != nil {
		return Monthly{}, errors.Wrap(err, "finding institute")
	}
	entries, err := svc.att.QueryMonth(ctx, schoolID, year, month)
	if err != nil {
		return Monthly{}, errors.Wrap(err, "querying month entries")
	}
	students, err := svc.students.Query(ctx, schoolID, nil, []core.DBOrdering{{Field: "student_id", Ascending: true}})
	if err != nil {
		return Monthly{}, errors.Wrap(err, "querying students")
	}

	type tally struct {
		days  map[string]bool
		late  int
		early int
	}
	tallies := make(map[string]*tally, len(students))
	workingDays := make(map[string]bool)

	for _, e := range entries {
		day := e.Date.Format("2006-01-02")
		workingDays[day] = true

		tl := tallies[e.StudentID]
		if tl == nil {
			tl = &tally{days: make(map[string]bool)}
			tallies[e.StudentID] = tl
		}
		// several rows on one day still count a single day present
		if !tl.days[day] {
			tl.days[day] = true
			if e.IsLate {
				tl.late++
			}
		}
		if e.Status == attendance.StatusEarlyDeparture {
			tl.early++
		}
	}

	rep := Monthly{
		SchoolID:    schoolID,
		SchoolName:  sch.Name,
		Year:        year,
		Month:       month,
		WorkingDays: len(workingDays),
		GeneratedAt: time.Now().UTC(),
	}
	for _, st := range students {
		row := StudentSummary{
			StudentID:   st.ID,
			StudentCode: st.StudentID,
			FullName:    st.FullName,
			ClassName:   st.ClassName,
		}
		if tl := tallies[st.ID]; tl != nil {
			row.DaysPresent = len(tl.days)
			row.LateArrivals = tl.late
			row.EarlyDepartures = tl.early
		}
		if rep.WorkingDays > 0 {
			row.AttendanceRate = float64(row.DaysPresent) / float64(rep.WorkingDays)
		}
		rep.Rows = append(rep.Rows, row)
	}
	sort.Slice(rep.Rows, func(i, j int) bool { return rep.Rows[i].StudentCode < rep.Rows[j].StudentCode })
	return rep, nil
}
