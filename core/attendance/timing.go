package attendance

import (
	"time"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/batch"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/student"
)

// Timing is the expected entry/exit window resolved for a student on a given
// day. Resolution walks a fallback chain, most specific first:
//
//	custom per-student batch timing > assigned batch timing > institute default
//
// Entry and exit fall back independently: a custom timing that only overrides
// the entry still takes its exit from the batch or the institute default.
type Timing struct {
	Entry core.ClockTime
	Exit  core.ClockTime
}

// pickBatch chooses which assigned batch governs the day: the first one that
// meets on that weekday, else the first assigned batch.
func pickBatch(batches []batch.Batch, day time.Weekday) (batch.Batch, bool) {
	if len(batches) == 0 {
		return batch.Batch{}, false
	}
	for _, b := range batches {
		if b.MeetsOn(day) {
			return b, true
		}
	}
	return batches[0], true
}

// ResolveTiming computes the expected window for `st` on the weekday of `date`
// (in the school's timezone).
func ResolveTiming(st student.Student, batches []batch.Batch, sch school.School, date time.Time) Timing {
	t := Timing{
		Entry: sch.DefaultEntryTime,
		Exit:  sch.DefaultExitTime,
	}

	day := date.In(sch.Location()).Weekday()
	b, ok := pickBatch(batches, day)
	if !ok {
		return t
	}

	if b.EntryTime.Valid {
		t.Entry = b.EntryTime
	}
	if b.ExitTime.Valid {
		t.Exit = b.ExitTime
	}

	if custom, ok := st.TimingFor(b.ID); ok {
		if custom.EntryTime.Valid {
			t.Entry = custom.EntryTime
		}
		if custom.ExitTime.Valid {
			t.Exit = custom.ExitTime
		}
	}
	return t
}

// IsLate reports whether an arrival at `now` misses the expected entry time.
// Arriving exactly at the expected minute is late: "is_late if now is not
// before the expected time".
func (t Timing) IsLate(now time.Time, loc *time.Location) bool {
	if !t.Entry.Valid {
		return false
	}
	return !now.Before(t.Entry.On(now, loc))
}

// IsEarlyDeparture reports whether an exit at `now` precedes the expected
// exit time.
func (t Timing) IsEarlyDeparture(now time.Time, loc *time.Location) bool {
	if !t.Exit.Valid {
		return false
	}
	return now.Before(t.Exit.On(now, loc))
}
