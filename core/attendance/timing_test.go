package attendance

import (
	"testing"
	"time"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/batch"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/student"
)

var testSchool = school.School{
	ID:               "sch1",
	DefaultEntryTime: core.MustClockTime("08:00"),
	DefaultExitTime:  core.MustClockTime("14:00"),
}

// monday is an arbitrary fixed Monday.
var monday = time.Date(2024, time.March, 11, 8, 10, 0, 0, time.UTC)

func TestResolveTiming(t *testing.T) {
	morning := batch.Batch{
		ID:        "b1",
		Name:      "Morning",
		EntryTime: core.MustClockTime("08:15"),
		ExitTime:  core.MustClockTime("14:30"),
	}
	weekendOnly := batch.Batch{
		ID:         "b2",
		Name:       "Weekend",
		EntryTime:  core.MustClockTime("10:00"),
		ExitTime:   core.MustClockTime("13:00"),
		DaysOfWeek: []time.Weekday{time.Saturday, time.Sunday},
	}

	tests := []struct {
		name      string
		st        student.Student
		batches   []batch.Batch
		wantEntry string
		wantExit  string
	}{
		{
			name:      "no batch falls back to institute default",
			st:        student.Student{},
			wantEntry: "08:00",
			wantExit:  "14:00",
		},
		{
			name:      "batch timing overrides default",
			st:        student.Student{BatchIDs: []string{"b1"}},
			batches:   []batch.Batch{morning},
			wantEntry: "08:15",
			wantExit:  "14:30",
		},
		{
			name: "custom student timing overrides batch",
			st: student.Student{
				BatchIDs: []string{"b1"},
				BatchTimings: map[string]student.BatchTiming{
					"b1": {EntryTime: core.MustClockTime("09:00"), ExitTime: core.MustClockTime("15:00")},
				},
			},
			batches:   []batch.Batch{morning},
			wantEntry: "09:00",
			wantExit:  "15:00",
		},
		{
			name: "partial custom timing keeps batch exit",
			st: student.Student{
				BatchIDs: []string{"b1"},
				BatchTimings: map[string]student.BatchTiming{
					"b1": {EntryTime: core.MustClockTime("09:00")},
				},
			},
			batches:   []batch.Batch{morning},
			wantEntry: "09:00",
			wantExit:  "14:30",
		},
		{
			name:      "batch not meeting today preferred less than one that does",
			st:        student.Student{BatchIDs: []string{"b2", "b1"}},
			batches:   []batch.Batch{weekendOnly, morning},
			wantEntry: "08:15", // monday: weekend batch skipped
			wantExit:  "14:30",
		},
		{
			name:      "only batch never meets today still governs",
			st:        student.Student{BatchIDs: []string{"b2"}},
			batches:   []batch.Batch{weekendOnly},
			wantEntry: "10:00",
			wantExit:  "13:00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timing := ResolveTiming(tt.st, tt.batches, testSchool, monday)
			if got := timing.Entry.String(); got != tt.wantEntry {
				t.Errorf("entry = %q, want %q", got, tt.wantEntry)
			}
			if got := timing.Exit.String(); got != tt.wantExit {
				t.Errorf("exit = %q, want %q", got, tt.wantExit)
			}
		})
	}
}

func TestTimingIsLate(t *testing.T) {
	timing := Timing{Entry: core.MustClockTime("08:15")}
	at := func(h, m int) time.Time {
		return time.Date(2024, time.March, 11, h, m, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "five minutes early", now: at(8, 10), want: false},
		{name: "exactly on time counts as late", now: at(8, 15), want: true},
		{name: "one minute past", now: at(8, 16), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timing.IsLate(tt.now, time.UTC); got != tt.want {
				t.Errorf("IsLate(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}

	// no expected entry at all: never late
	if (Timing{}).IsLate(at(23, 59), time.UTC) {
		t.Error("IsLate() with no expected entry = true, want false")
	}
}

func TestTimingIsEarlyDeparture(t *testing.T) {
	timing := Timing{Exit: core.MustClockTime("14:30")}
	at := func(h, m int) time.Time {
		return time.Date(2024, time.March, 11, h, m, 0, 0, time.UTC)
	}

	if !timing.IsEarlyDeparture(at(13, 0), time.UTC) {
		t.Error("IsEarlyDeparture(13:00) = false, want true")
	}
	if timing.IsEarlyDeparture(at(14, 30), time.UTC) {
		t.Error("IsEarlyDeparture(14:30) = true, want false")
	}
	if timing.IsEarlyDeparture(at(15, 0), time.UTC) {
		t.Error("IsEarlyDeparture(15:00) = true, want false")
	}
}
