package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/singleflight"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/batch"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/student"
)

var (
	// errors
	ErrNotFound        = errors.New("attendance entry not found")
	ErrNoOpenEntry     = errors.New("no open entry found for this student today")
	ErrStudentNotFound = errors.New("no student matches this ID")
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		// GetOpenEntry returns the most recent entry for (student, date) with no
		// exit recorded yet (latest created first); ErrNoOpenEntry when none.
		GetOpenEntry(ctx context.Context, schoolID, studentID string, date time.Time) (Entry, error)
		UpdateEntry(ctx context.Context, e Entry) (Entry, error)
		QueryEntries(ctx context.Context, schoolID string, filter *QueryFilter) ([]Entry, error)
		// QueryEntriesForMonth returns every entry of a school falling in the
		// given month, ordered by date then creation.
		QueryEntriesForMonth(ctx context.Context, schoolID string, year int, month time.Month) ([]Entry, error)
	}

	// Notifier fans an attendance event out to the parent-facing channels
	// (email, chat...). Implementations must not block: delivery happens on
	// their own goroutines, failures are logged and never affect the
	// attendance write.
	Notifier interface {
		EntryRecorded(ctx context.Context, sch school.School, st student.Student, e Entry)
		ExitRecorded(ctx context.Context, sch school.School, st student.Student, e Entry)
	}

	// Verification is the result of checking a scanned/typed student code
	// before the gatekeeper confirms the entry or exit.
	Verification struct {
		Student       student.Student `json:"student"`
		ExpectedEntry core.ClockTime  `json:"expected_entry"`
		ExpectedExit  core.ClockTime  `json:"expected_exit"`
		IsLate        bool            `json:"is_late"`
	}

	Service struct {
		repo     Repository
		students *student.Service
		batches  *batch.Service
		schools  *school.Service
		notifier Notifier
		logger   core.Logger

		// verifyGroup coalesces concurrent verifications of the same student:
		// a double-tap or a scan racing a manual entry performs one lookup.
		verifyGroup singleflight.Group

		nowFunc func() time.Time // mockable
	}
)

func NewService(
	repo Repository,
	students *student.Service,
	batches *batch.Service,
	schools *school.Service,
	notifier Notifier,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		students: students,
		batches:  batches,
		schools:  schools,
		notifier: notifier,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// resolve loads the student by code along with their governing timing window.
func (svc *Service) resolve(ctx context.Context, sch school.School, code string, now time.Time) (student.Student, Timing, error) {
	st, err := svc.students.GetByCode(ctx, sch.ID, code)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, Timing{}, ErrStudentNotFound
		}
		return student.Student{}, Timing{}, errors.Wrap(err, "finding student by code")
	}

	batches, err := svc.batches.GetByIDs(ctx, sch.ID, st.BatchIDs)
	if err != nil {
		return student.Student{}, Timing{}, errors.Wrap(err, "loading student batches")
	}
	return st, ResolveTiming(st, batches, sch, now), nil
}

// Verify checks a scanned/typed student code and computes lateness against
// the resolved expected entry time. It does not record anything.
func (svc *Service) Verify(ctx context.Context, schoolID, code string, at ...time.Time) (Verification, error) {
	now := svc.now(at)

	v, err, _ := svc.verifyGroup.Do(schoolID+"\x00"+code, func() (interface{}, error) {
		sch, err := svc.schools.GetByID(ctx, schoolID)
		if err != nil {
			return nil, errors.Wrap(err, "finding institute")
		}

		st, timing, err := svc.resolve(ctx, sch, code, now)
		if err != nil {
			return nil, err
		}
		return Verification{
			Student:       st,
			ExpectedEntry: timing.Entry,
			ExpectedExit:  timing.Exit,
			IsLate:        timing.IsLate(now, sch.Location()),
		}, nil
	})
	if err != nil {
		return Verification{}, err
	}
	return v.(Verification), nil
}

// RecordEntry always creates a new row with status "present" and the
// precomputed is_late flag; lateness annotates, never rejects. Consecutive
// entries for the same student produce separate rows.
func (svc *Service) RecordEntry(ctx context.Context, schoolID string, req ScanRequest, at ...time.Time) (Entry, error) {
	now := svc.now(at)

	sch, err := svc.schools.GetByID(ctx, schoolID)
	if err != nil {
		return Entry{}, errors.Wrap(err, "finding institute")
	}
	st, timing, err := svc.resolve(ctx, sch, req.StudentCode, now)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		SchoolID:  schoolID,
		StudentID: st.ID,
		Date:      dateOf(now, sch.Location()),
		EntryTime: now.UTC(),
		Status:    StatusPresent,
		IsLate:    timing.IsLate(now, sch.Location()),
		Notes:     req.Notes,
		CreatedAt: now.UTC(),
	}
	e, err = svc.repo.CreateEntry(ctx, e)
	if err != nil {
		return Entry{}, errors.Wrap(err, "creating attendance entry")
	}

	svc.notifier.EntryRecorded(ctx, sch, st, e)
	return e, nil
}

// RecordExit closes the most recent open row for (student, today): exit_time
// is set, and the status becomes "early_departure" only when the exit
// precedes the expected exit time, otherwise the entry status is preserved.
// With no open row it fails with ErrNoOpenEntry and creates nothing.
func (svc *Service) RecordExit(ctx context.Context, schoolID string, req ScanRequest, at ...time.Time) (Entry, error) {
	now := svc.now(at)

	sch, err := svc.schools.GetByID(ctx, schoolID)
	if err != nil {
		return Entry{}, errors.Wrap(err, "finding institute")
	}
	st, timing, err := svc.resolve(ctx, sch, req.StudentCode, now)
	if err != nil {
		return Entry{}, err
	}

	e, err := svc.repo.GetOpenEntry(ctx, schoolID, st.ID, dateOf(now, sch.Location()))
	if err != nil {
		return Entry{}, err
	}

	e.ExitTime = null.TimeFrom(now.UTC())
	if timing.IsEarlyDeparture(now, sch.Location()) {
		e.Status = StatusEarlyDeparture
	}
	if req.Notes != "" {
		e.Notes = req.Notes
	}
	e, err = svc.repo.UpdateEntry(ctx, e)
	if err != nil {
		return Entry{}, errors.Wrap(err, "closing attendance entry")
	}

	svc.notifier.ExitRecorded(ctx, sch, st, e)
	return e, nil
}

func (svc *Service) Query(ctx context.Context, schoolID string, filter *QueryFilter) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, schoolID, filter)
}

func (svc *Service) QueryMonth(ctx context.Context, schoolID string, year int, month time.Month) ([]Entry, error) {
	return svc.repo.QueryEntriesForMonth(ctx, schoolID, year, month)
}

func (svc *Service) now(at []time.Time) time.Time {
	if len(at) > 0 {
		return at[0]
	}
	return svc.nowFunc()
}

// dateOf truncates to the calendar date in the school's timezone; stored UTC.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
