package report_test

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/attendance"
	"github.com/darasa/darasa/core/batch"
	"github.com/darasa/darasa/core/report"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/student"
	"github.com/darasa/darasa/storage/inmem"
)

type noopNotifier struct{}

func (noopNotifier) EntryRecorded(context.Context, school.School, student.Student, attendance.Entry) {
}
func (noopNotifier) ExitRecorded(context.Context, school.School, student.Student, attendance.Entry) {
}

func buildMonth(t *testing.T) report.Monthly {
	t.Helper()
	ctx := context.Background()
	logger := core.NewStdLogger(log.New(io.Discard, "", 0))

	schoolRepo := inmem.NewSchoolRepo()
	studentRepo := inmem.NewStudentRepo()
	attRepo := inmem.NewAttendanceRepo()

	sch, err := schoolRepo.CreateSchool(ctx, school.School{
		Name:             "Sunrise Coaching",
		InstituteType:    school.TypeCoaching,
		DefaultEntryTime: core.MustClockTime("08:00"),
		DefaultExitTime:  core.MustClockTime("14:00"),
	})
	if err != nil {
		t.Fatal(err)
	}

	codes := []string{"stu001", "stu002"}
	ids := make(map[string]string, len(codes))
	for _, code := range codes {
		st, err := studentRepo.CreateStudent(ctx, student.Student{
			SchoolID:  sch.ID,
			StudentID: code,
			FullName:  "Student " + code,
			IsActive:  true,
		})
		if err != nil {
			t.Fatal(err)
		}
		ids[code] = st.ID
	}

	att := attendance.NewService(
		attRepo,
		student.NewService(studentRepo),
		batch.NewService(inmem.NewBatchRepo()),
		school.NewService(schoolRepo, nil, logger),
		noopNotifier{},
		logger,
	)

	// two working days in March: stu001 attends both (late once, leaves
	// early once), stu002 attends one
	day1 := func(h, m int) time.Time { return time.Date(2024, time.March, 11, h, m, 0, 0, time.UTC) }
	day2 := func(h, m int) time.Time { return time.Date(2024, time.March, 12, h, m, 0, 0, time.UTC) }

	mustEntry := func(code string, at time.Time) {
		t.Helper()
		if _, err := att.RecordEntry(ctx, sch.ID, attendance.ScanRequest{StudentCode: code}, at); err != nil {
			t.Fatal(err)
		}
	}
	mustEntry("stu001", day1(8, 30)) // late
	if _, err := att.RecordExit(ctx, sch.ID, attendance.ScanRequest{StudentCode: "stu001"}, day1(12, 0)); err != nil {
		t.Fatal(err) // early departure
	}
	mustEntry("stu002", day1(7, 50))
	mustEntry("stu001", day2(7, 45))

	svc := report.NewService(att, student.NewService(studentRepo), school.NewService(schoolRepo, nil, logger))
	rep, err := svc.BuildMonthly(ctx, sch.ID, 2024, time.March)
	if err != nil {
		t.Fatal(err)
	}
	return rep
}

func TestBuildMonthly(t *testing.T) {
	rep := buildMonth(t)

	if rep.WorkingDays != 2 {
		t.Errorf("working days = %d, want 2", rep.WorkingDays)
	}
	if len(rep.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rep.Rows))
	}

	s1, s2 := rep.Rows[0], rep.Rows[1]
	if s1.StudentCode != "stu001" || s2.StudentCode != "stu002" {
		t.Fatalf("rows out of order: %q, %q", s1.StudentCode, s2.StudentCode)
	}
	if s1.DaysPresent != 2 || s1.LateArrivals != 1 || s1.EarlyDepartures != 1 {
		t.Errorf("stu001 = %+v, want 2 days, 1 late, 1 early departure", s1)
	}
	if s1.AttendanceRate != 1.0 {
		t.Errorf("stu001 rate = %v, want 1.0", s1.AttendanceRate)
	}
	if s2.DaysPresent != 1 || s2.AttendanceRate != 0.5 {
		t.Errorf("stu002 = %+v, want 1 day at 0.5", s2)
	}
}

func TestWriteCSV(t *testing.T) {
	rep := buildMonth(t)

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rep); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("CSV has %d lines, want header + 2 rows:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "student_id,name,class") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "stu001") || !strings.Contains(lines[1], "100.0%") {
		t.Errorf("unexpected stu001 row: %s", lines[1])
	}
}

func TestWritePDF(t *testing.T) {
	rep := buildMonth(t)

	var buf bytes.Buffer
	if err := report.WritePDF(&buf, rep); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
}
