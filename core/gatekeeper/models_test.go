package gatekeeper

import (
	"testing"
	"time"

	"github.com/darasa/darasa/core"
)

func TestOnDuty(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2024, time.March, 11, h, m, 0, 0, time.UTC)
	}
	dayShift := Gatekeeper{
		Status:     StatusActive,
		ShiftStart: core.MustClockTime("07:00"),
		ShiftEnd:   core.MustClockTime("15:00"),
	}
	nightShift := Gatekeeper{
		Status:     StatusActive,
		ShiftStart: core.MustClockTime("22:00"),
		ShiftEnd:   core.MustClockTime("06:00"),
	}

	tests := []struct {
		name string
		g    Gatekeeper
		now  time.Time
		want bool
	}{
		{name: "mid shift", g: dayShift, now: at(8, 10), want: true},
		{name: "at shift start", g: dayShift, now: at(7, 0), want: true},
		{name: "before shift", g: dayShift, now: at(6, 45), want: false},
		{name: "at shift end", g: dayShift, now: at(15, 0), want: false},
		{name: "night shift before midnight", g: nightShift, now: at(23, 0), want: true},
		{name: "night shift after midnight", g: nightShift, now: at(4, 0), want: true},
		{name: "night shift off hours", g: nightShift, now: at(12, 0), want: false},
		{
			name: "inactive is never on duty",
			g: Gatekeeper{
				Status:     StatusInactive,
				ShiftStart: core.MustClockTime("07:00"),
				ShiftEnd:   core.MustClockTime("15:00"),
			},
			now:  at(8, 0),
			want: false,
		},
		{name: "missing shift", g: Gatekeeper{Status: StatusActive}, now: at(8, 0), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.OnDuty(tt.now, time.UTC); got != tt.want {
				t.Errorf("OnDuty() = %v, want %v", got, tt.want)
			}
		})
	}
}
