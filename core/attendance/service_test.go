package attendance_test

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/attendance"
	"github.com/darasa/darasa/core/batch"
	"github.com/darasa/darasa/core/gatekeeper"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/student"
	"github.com/darasa/darasa/storage/inmem"
)

type recordingNotifier struct {
	mu      sync.Mutex
	entries []attendance.Entry
	exits   []attendance.Entry
}

func (n *recordingNotifier) EntryRecorded(ctx context.Context, sch school.School, st student.Student, e attendance.Entry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, e)
}

func (n *recordingNotifier) ExitRecorded(ctx context.Context, sch school.School, st student.Student, e attendance.Entry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.exits = append(n.exits, e)
}

type fixture struct {
	svc      *attendance.Service
	repo     *inmem.AttendanceRepo
	notifier *recordingNotifier
	school   school.School
	student  student.Student
}

// newFixture seeds a coaching institute with default window 08:00-14:00 and
// one student in a batch meeting 08:15-14:30.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	schoolRepo := inmem.NewSchoolRepo()
	studentRepo := inmem.NewStudentRepo()
	batchRepo := inmem.NewBatchRepo()
	attRepo := inmem.NewAttendanceRepo()
	notifier := &recordingNotifier{}

	sch, err := schoolRepo.CreateSchool(ctx, school.School{
		Name:               "Sunrise Coaching",
		InstituteType:      school.TypeCoaching,
		SubscriptionStatus: school.SubActive,
		DefaultEntryTime:   core.MustClockTime("08:00"),
		DefaultExitTime:    core.MustClockTime("14:00"),
	})
	if err != nil {
		t.Fatal(err)
	}
	b, err := batchRepo.CreateBatch(ctx, batch.Batch{
		SchoolID:  sch.ID,
		Name:      "Morning",
		EntryTime: core.MustClockTime("08:15"),
		ExitTime:  core.MustClockTime("14:30"),
	})
	if err != nil {
		t.Fatal(err)
	}
	st, err := studentRepo.CreateStudent(ctx, student.Student{
		SchoolID:  sch.ID,
		StudentID: "stu001",
		FullName:  "Asha Patel",
		BatchIDs:  []string{b.ID},
		IsActive:  true,
	})
	if err != nil {
		t.Fatal(err)
	}

	logger := core.NewStdLogger(log.New(io.Discard, "", 0))
	svc := attendance.NewService(
		attRepo,
		student.NewService(studentRepo),
		batch.NewService(batchRepo),
		school.NewService(schoolRepo, nil, logger),
		notifier,
		logger,
	)
	return &fixture{svc: svc, repo: attRepo, notifier: notifier, school: sch, student: st}
}

func at(h, m int) time.Time {
	return time.Date(2024, time.March, 11, h, m, 0, 0, time.UTC)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// batch window 08:15 wins over the institute default 08:00: a scan at
	// 08:10 is on time.
	v, err := f.svc.Verify(ctx, f.school.ID, "stu001", at(8, 10))
	if err != nil {
		t.Fatal(err)
	}
	if v.Student.ID != f.student.ID {
		t.Errorf("student ID = %q, want %q", v.Student.ID, f.student.ID)
	}
	if got := v.ExpectedEntry.String(); got != "08:15" {
		t.Errorf("expected entry = %q, want 08:15", got)
	}
	if v.IsLate {
		t.Error("IsLate = true for a scan before the batch entry time")
	}

	v, err = f.svc.Verify(ctx, f.school.ID, "stu001", at(8, 20))
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsLate {
		t.Error("IsLate = false for a scan past the batch entry time")
	}

	if _, err = f.svc.Verify(ctx, f.school.ID, "nobody", at(8, 10)); errors.Cause(err) != attendance.ErrStudentNotFound {
		t.Errorf("unknown code: err = %v, want ErrStudentNotFound", err)
	}
}

func TestRecordEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.svc.RecordEntry(ctx, f.school.ID, attendance.ScanRequest{StudentCode: "stu001"}, at(8, 20))
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != attendance.StatusPresent {
		t.Errorf("status = %q, want %q; lateness annotates, never rejects", e.Status, attendance.StatusPresent)
	}
	if !e.IsLate {
		t.Error("IsLate = false, want true for an 08:20 arrival against 08:15")
	}
	if !e.IsOpen() {
		t.Error("new entry should be open")
	}
	if len(f.notifier.entries) != 1 {
		t.Errorf("notifier got %d entry events, want 1", len(f.notifier.entries))
	}

	// a second entry the same day creates a second row, not an update
	if _, err = f.svc.RecordEntry(ctx, f.school.ID, attendance.ScanRequest{StudentCode: "stu001"}, at(13, 0)); err != nil {
		t.Fatal(err)
	}
	entries, err := f.repo.QueryEntries(ctx, f.school.ID, &attendance.QueryFilter{StudentID: f.student.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries after two entry scans, want 2", len(entries))
	}
}

func TestRecordExit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// exit with no prior entry: typed error, nothing written
	_, err := f.svc.RecordExit(ctx, f.school.ID, attendance.ScanRequest{StudentCode: "stu001"}, at(13, 0))
	if errors.Cause(err) != attendance.ErrNoOpenEntry {
		t.Fatalf("err = %v, want ErrNoOpenEntry", err)
	}
	entries, _ := f.repo.QueryEntries(ctx, f.school.ID, nil)
	if len(entries) != 0 {
		t.Fatalf("exit without entry wrote %d rows, want 0", len(entries))
	}

	if _, err = f.svc.RecordEntry(ctx, f.school.ID, attendance.ScanRequest{StudentCode: "stu001"}, at(8, 10)); err != nil {
		t.Fatal(err)
	}

	// leaving at 13:00 against an expected exit of 14:30 is an early departure
	e, err := f.svc.RecordExit(ctx, f.school.ID, attendance.ScanRequest{StudentCode: "stu001"}, at(13, 0))
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != attendance.StatusEarlyDeparture {
		t.Errorf("status = %q, want %q", e.Status, attendance.StatusEarlyDeparture)
	}
	if e.IsOpen() {
		t.Error("entry still open after exit")
	}
	if len(f.notifier.exits) != 1 {
		t.Errorf("notifier got %d exit events, want 1", len(f.notifier.exits))
	}

	// the row is closed now, a second exit has nothing to close
	if _, err = f.svc.RecordExit(ctx, f.school.ID, attendance.ScanRequest{StudentCode: "stu001"}, at(13, 5)); errors.Cause(err) != attendance.ErrNoOpenEntry {
		t.Errorf("second exit: err = %v, want ErrNoOpenEntry", err)
	}
}

func TestRecordExitOnTimeKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RecordEntry(ctx, f.school.ID, attendance.ScanRequest{StudentCode: "stu001"}, at(8, 10)); err != nil {
		t.Fatal(err)
	}
	e, err := f.svc.RecordExit(ctx, f.school.ID, attendance.ScanRequest{StudentCode: "stu001"}, at(14, 45))
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != attendance.StatusPresent {
		t.Errorf("status = %q, want %q for an on-time exit", e.Status, attendance.StatusPresent)
	}
	if !e.ExitTime.Valid {
		t.Error("exit time not set")
	}
}

// Shift wrap-around sanity: a night gatekeeper stays on duty past midnight.
// Lives here because attendance scans are gated on the gatekeeper being on
// duty at scan time.
func TestNightShiftScanWindow(t *testing.T) {
	g := gatekeeper.Gatekeeper{
		Status:     gatekeeper.StatusActive,
		ShiftStart: core.MustClockTime("22:00"),
		ShiftEnd:   core.MustClockTime("06:00"),
	}
	if !g.OnDuty(at(23, 30), time.UTC) {
		t.Error("on-duty check failed before midnight")
	}
}
